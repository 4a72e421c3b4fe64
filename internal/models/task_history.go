package models

import (
	"time"
)

// TaskHistoryEntry is an append-only audit record. It is never updated.
type TaskHistoryEntry struct {
	ID        uint64    `gorm:"primarykey" json:"id"`
	TaskID    uint64    `gorm:"not null;index" json:"task_id"`
	Text      string    `gorm:"type:varchar(255);not null" json:"text"`
	UserID    uint64    `gorm:"not null" json:"user_id"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`

	// Relations
	Task Task `gorm:"foreignKey:TaskID;constraint:OnDelete:CASCADE" json:"-"`
	User User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (TaskHistoryEntry) TableName() string {
	return "task_history"
}

// All returns every persisted model in dependency order for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Project{},
		&ProjectMember{},
		&ProjectStatus{},
		&ProjectJoinRequest{},
		&Task{},
		&TaskComment{},
		&TaskTimeLog{},
		&TaskHistoryEntry{},
	}
}
