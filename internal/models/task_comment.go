package models

import (
	"time"
)

type TaskComment struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	TaskID    uint64    `gorm:"not null;uniqueIndex:uk_task_comment_number" json:"task_id"`
	Number    uint64    `gorm:"not null;uniqueIndex:uk_task_comment_number" json:"number"`
	Text      string    `gorm:"type:text;not null" json:"text"`
	CreatorID uint64    `gorm:"not null;index" json:"creator_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relations
	Task    Task `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE" json:"-"`
	Creator User `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
}
