package repository

import (
	"context"

	"github.com/yukikurage/project-tracker-api/internal/database"
	"github.com/yukikurage/project-tracker-api/internal/models"
	"github.com/yukikurage/project-tracker-api/internal/utils"
	"gorm.io/gorm"
)

// GormHistoryRepository is a GORM implementation of HistoryRepository.
// Entries are only ever inserted.
type GormHistoryRepository struct {
	db *gorm.DB
}

// NewHistoryRepository creates a new HistoryRepository
func NewHistoryRepository(db *gorm.DB) HistoryRepository {
	return &GormHistoryRepository{db: db}
}

func (r *GormHistoryRepository) Create(ctx context.Context, entry *models.TaskHistoryEntry) error {
	return r.db.WithContext(ctx).Omit("Task", "User").Create(entry).Error
}

// ListByTask lists a task's history, newest first
func (r *GormHistoryRepository) ListByTask(ctx context.Context, taskID uint64, params utils.PaginationParams) ([]models.TaskHistoryEntry, int64, error) {
	entries := []models.TaskHistoryEntry{}
	query := r.db.WithContext(ctx).Model(&models.TaskHistoryEntry{}).Where("task_id = ?", taskID)

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Session(&gorm.Session{}).
		Order("created_at DESC, id DESC").
		Scopes(database.Paginate(params))
	if err := listQuery.Preload("User").Find(&entries).Error; err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}
