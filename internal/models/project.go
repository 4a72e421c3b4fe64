package models

import (
	"time"
)

type Project struct {
	ID          uint64    `gorm:"primarykey" json:"id"`
	Title       string    `gorm:"type:varchar(64);not null" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	OwnerID     uint64    `gorm:"not null;index" json:"owner_id"`
	InviteCode  string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	// Relations
	Owner    User            `gorm:"foreignKey:OwnerID" json:"owner,omitempty"`
	Members  []ProjectMember `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"-"`
	Statuses []ProjectStatus `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"-"`
}
