package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MaxTimeLogHours is the largest value a decimal(5,2) hours column can hold.
var MaxTimeLogHours = decimal.RequireFromString("999.99")

type TaskTimeLog struct {
	ID          uint64          `gorm:"primarykey" json:"id"`
	TaskID      uint64          `gorm:"not null;uniqueIndex:uk_task_time_log_number" json:"task_id"`
	Number      uint64          `gorm:"not null;uniqueIndex:uk_task_time_log_number" json:"number"`
	Hours       decimal.Decimal `gorm:"type:decimal(5,2);not null" json:"hours"`
	Description string          `gorm:"type:text" json:"description"`
	CreatorID   uint64          `gorm:"not null;index" json:"creator_id"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`

	// Relations
	Task    Task `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE" json:"-"`
	Creator User `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
}
