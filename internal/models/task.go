package models

import (
	"time"
)

type Task struct {
	ID                uint64    `gorm:"primarykey" json:"id"`
	Title             string    `gorm:"type:varchar(128);not null" json:"title"`
	Description       string    `gorm:"type:text" json:"description"`
	StatusID          *uint64   `gorm:"index" json:"status_id"`
	ExecutorID        *uint64   `gorm:"index" json:"executor_id"`
	CreatorID         uint64    `gorm:"not null;index" json:"creator_id"`
	ProjectID         uint64    `gorm:"not null;index" json:"project_id"`
	ParentID          *uint64   `gorm:"index" json:"parent_id"`
	PreviousID        *uint64   `gorm:"index" json:"previous_id"`
	NextID            *uint64   `gorm:"index" json:"next_id"`
	LastCommentNumber uint64    `gorm:"not null;default:0" json:"-"`
	LastTimeLogNumber uint64    `gorm:"not null;default:0" json:"-"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`

	// Relations
	Status   *ProjectStatus `gorm:"foreignKey:StatusID;constraint:OnDelete:SET NULL" json:"status,omitempty"`
	Executor *User          `gorm:"foreignKey:ExecutorID;constraint:OnDelete:SET NULL" json:"executor,omitempty"`
	Creator  User           `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	Project  Project        `gorm:"foreignKey:ProjectID;constraint:OnDelete:CASCADE" json:"-"`
}

// TaskSnapshot holds the tracked fields of a task before a mutation.
type TaskSnapshot struct {
	Title       string
	Description string
	StatusID    *uint64
	ExecutorID  *uint64
	ProjectID   uint64
	ParentID    *uint64
	PreviousID  *uint64
	NextID      *uint64
}

// Snapshot captures the tracked fields of t.
func (t Task) Snapshot() TaskSnapshot {
	return TaskSnapshot{
		Title:       t.Title,
		Description: t.Description,
		StatusID:    copyID(t.StatusID),
		ExecutorID:  copyID(t.ExecutorID),
		ProjectID:   t.ProjectID,
		ParentID:    copyID(t.ParentID),
		PreviousID:  copyID(t.PreviousID),
		NextID:      copyID(t.NextID),
	}
}

// Differs reports whether any tracked field of t changed since s was taken.
func (s TaskSnapshot) Differs(t Task) bool {
	return s.Title != t.Title ||
		s.Description != t.Description ||
		!SameID(s.StatusID, t.StatusID) ||
		!SameID(s.ExecutorID, t.ExecutorID) ||
		s.ProjectID != t.ProjectID ||
		!SameID(s.ParentID, t.ParentID) ||
		!SameID(s.PreviousID, t.PreviousID) ||
		!SameID(s.NextID, t.NextID)
}

// SameID compares two optional ids by value.
func SameID(a, b *uint64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func copyID(id *uint64) *uint64 {
	if id == nil {
		return nil
	}
	v := *id
	return &v
}
