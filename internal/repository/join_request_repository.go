package repository

import (
	"context"

	"github.com/yukikurage/project-tracker-api/internal/models"
	"gorm.io/gorm"
)

// GormJoinRequestRepository is a GORM implementation of JoinRequestRepository
type GormJoinRequestRepository struct {
	db *gorm.DB
}

// NewJoinRequestRepository creates a new JoinRequestRepository
func NewJoinRequestRepository(db *gorm.DB) JoinRequestRepository {
	return &GormJoinRequestRepository{db: db}
}

func (r *GormJoinRequestRepository) Create(ctx context.Context, req *models.ProjectJoinRequest) error {
	return r.db.WithContext(ctx).Omit("Project", "User").Create(req).Error
}

// FindByID finds a join request scoped to its project
func (r *GormJoinRequestRepository) FindByID(ctx context.Context, projectID, id uint64) (*models.ProjectJoinRequest, error) {
	var req models.ProjectJoinRequest
	if err := r.db.WithContext(ctx).Preload("User").
		Where("id = ? AND project_id = ?", id, projectID).
		First(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *GormJoinRequestRepository) FindByProjectAndUser(ctx context.Context, projectID, userID uint64) (*models.ProjectJoinRequest, error) {
	var req models.ProjectJoinRequest
	if err := r.db.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		First(&req).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

// ListByProject lists pending requests, oldest first
func (r *GormJoinRequestRepository) ListByProject(ctx context.Context, projectID uint64) ([]models.ProjectJoinRequest, error) {
	requests := []models.ProjectJoinRequest{}
	if err := r.db.WithContext(ctx).Preload("User").
		Where("project_id = ?", projectID).
		Order("created_at, id").
		Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *GormJoinRequestRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Delete(&models.ProjectJoinRequest{}, id).Error
}

func (r *GormJoinRequestRepository) DeleteByProjectAndUser(ctx context.Context, projectID, userID uint64) error {
	return r.db.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Delete(&models.ProjectJoinRequest{}).Error
}
