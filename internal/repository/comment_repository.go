package repository

import (
	"context"

	"github.com/yukikurage/project-tracker-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCommentRepository is a GORM implementation of CommentRepository
type GormCommentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new CommentRepository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &GormCommentRepository{db: db}
}

func (r *GormCommentRepository) Create(ctx context.Context, comment *models.TaskComment) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(comment).Error
}

// FindByID finds a comment scoped to its task
func (r *GormCommentRepository) FindByID(ctx context.Context, taskID, id uint64) (*models.TaskComment, error) {
	var comment models.TaskComment
	if err := r.db.WithContext(ctx).Preload("Creator").
		Where("id = ? AND task_id = ?", id, taskID).
		First(&comment).Error; err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *GormCommentRepository) Update(ctx context.Context, comment *models.TaskComment) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(comment).Error
}

func (r *GormCommentRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Delete(&models.TaskComment{}, id).Error
}

// ListByTask lists comments in numbering order
func (r *GormCommentRepository) ListByTask(ctx context.Context, taskID uint64) ([]models.TaskComment, error) {
	comments := []models.TaskComment{}
	if err := r.db.WithContext(ctx).Preload("Creator").
		Where("task_id = ?", taskID).
		Order("number").
		Find(&comments).Error; err != nil {
		return nil, err
	}
	return comments, nil
}
