package models

import "time"

type ProjectMember struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	ProjectID uint64    `gorm:"not null;uniqueIndex:uk_project_member" json:"project_id"`
	UserID    uint64    `gorm:"not null;uniqueIndex:uk_project_member;index" json:"user_id"`
	JoinedAt  time.Time `json:"joined_at"`

	// Relations
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// ProjectJoinRequest is a pending request by a non-member to join a project.
type ProjectJoinRequest struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	ProjectID uint64    `gorm:"not null;uniqueIndex:uk_project_join_request" json:"project_id"`
	UserID    uint64    `gorm:"not null;uniqueIndex:uk_project_join_request" json:"user_id"`
	Message   string    `gorm:"type:text" json:"message"`
	CreatedAt time.Time `json:"created_at"`

	// Relations
	Project Project `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"-"`
	User    User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
