package repository

import (
	"context"

	"github.com/yukikurage/project-tracker-api/internal/models"
	"gorm.io/gorm"
)

// GormStatusRepository is a GORM implementation of StatusRepository
type GormStatusRepository struct {
	db *gorm.DB
}

// NewStatusRepository creates a new StatusRepository
func NewStatusRepository(db *gorm.DB) StatusRepository {
	return &GormStatusRepository{db: db}
}

// ListByProject lists statuses ordered by position
func (r *GormStatusRepository) ListByProject(ctx context.Context, projectID uint64) ([]models.ProjectStatus, error) {
	statuses := []models.ProjectStatus{}
	if err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("position, id").
		Find(&statuses).Error; err != nil {
		return nil, err
	}
	return statuses, nil
}

func (r *GormStatusRepository) CountByProject(ctx context.Context, projectID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ProjectStatus{}).
		Where("project_id = ?", projectID).
		Count(&count).Error
	return count, err
}

func (r *GormStatusRepository) ExistsInProject(ctx context.Context, projectID, statusID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ProjectStatus{}).
		Where("id = ? AND project_id = ?", statusID, projectID).
		Count(&count).Error
	return count > 0, err
}

func (r *GormStatusRepository) Create(ctx context.Context, status *models.ProjectStatus) error {
	return r.db.WithContext(ctx).Create(status).Error
}

// Rename moves a status to a new name and position in place
func (r *GormStatusRepository) Rename(ctx context.Context, id uint64, name string, position int) error {
	return r.db.WithContext(ctx).Model(&models.ProjectStatus{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"name": name, "position": position}).Error
}

// Delete removes statuses and clears the status of tasks that referenced them
func (r *GormStatusRepository) Delete(ctx context.Context, ids []uint64) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Task{}).
			Where("status_id IN ?", ids).
			UpdateColumn("status_id", nil).Error; err != nil {
			return err
		}
		return tx.Where("id IN ?", ids).Delete(&models.ProjectStatus{}).Error
	})
}
