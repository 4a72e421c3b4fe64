package repository

import (
	"context"

	"github.com/yukikurage/project-tracker-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProjectRepository is a GORM implementation of ProjectRepository
type GormProjectRepository struct {
	db *gorm.DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &GormProjectRepository{db: db}
}

// Create creates a new project
func (r *GormProjectRepository) Create(ctx context.Context, project *models.Project) error {
	return r.db.WithContext(ctx).Omit("Owner", "Members", "Statuses").Create(project).Error
}

// FindByID finds a project by ID
func (r *GormProjectRepository) FindByID(ctx context.Context, id uint64) (*models.Project, error) {
	var project models.Project
	if err := r.db.WithContext(ctx).First(&project, id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// FindVisible finds a project owned by or shared with the user
func (r *GormProjectRepository) FindVisible(ctx context.Context, id, userID uint64) (*models.Project, error) {
	var project models.Project
	db := r.db.WithContext(ctx)
	err := db.Preload("Owner").
		Where("projects.id = ?", id).
		Where("projects.owner_id = ? OR EXISTS (?)", userID, memberSubQuery(db, userID)).
		First(&project).Error
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// FindByInviteCode finds a project by invite code
func (r *GormProjectRepository) FindByInviteCode(ctx context.Context, code string) (*models.Project, error) {
	var project models.Project
	if err := r.db.WithContext(ctx).Where("invite_code = ?", code).First(&project).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

// ListVisible lists projects owned by or shared with the user
func (r *GormProjectRepository) ListVisible(ctx context.Context, userID uint64) ([]models.Project, error) {
	var projects []models.Project
	db := r.db.WithContext(ctx)
	if err := db.Preload("Owner").
		Where("projects.owner_id = ? OR EXISTS (?)", userID, memberSubQuery(db, userID)).
		Order("projects.created_at DESC").
		Find(&projects).Error; err != nil {
		return nil, err
	}
	return projects, nil
}

func memberSubQuery(db *gorm.DB, userID uint64) *gorm.DB {
	return db.Model(&models.ProjectMember{}).
		Select("1").
		Where("project_members.project_id = projects.id").
		Where("project_members.user_id = ?", userID)
}

// Update updates a project
func (r *GormProjectRepository) Update(ctx context.Context, project *models.Project) error {
	return r.db.WithContext(ctx).Omit("Owner", "Members", "Statuses").Save(project).Error
}

// Delete deletes a project and all related data in a transaction
func (r *GormProjectRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		taskIDs := tx.Model(&models.Task{}).Select("id").Where("project_id = ?", id)

		// Delete everything the project's tasks own
		for _, child := range []interface{}{&models.TaskComment{}, &models.TaskTimeLog{}, &models.TaskHistoryEntry{}} {
			if err := tx.Where("task_id IN (?)", taskIDs).Delete(child).Error; err != nil {
				return err
			}
		}

		if err := tx.Where("project_id = ?", id).Delete(&models.Task{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.ProjectStatus{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.ProjectJoinRequest{}).Error; err != nil {
			return err
		}
		if err := tx.Where("project_id = ?", id).Delete(&models.ProjectMember{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Project{}, id).Error
	})
}

// AddMember adds a member to a project
func (r *GormProjectRepository) AddMember(ctx context.Context, member *models.ProjectMember) error {
	return r.db.WithContext(ctx).Omit("User").Create(member).Error
}

// AddMemberIfAbsent inserts member unless the user already belongs to the
// project. It reports whether a row was inserted.
func (r *GormProjectRepository) AddMemberIfAbsent(ctx context.Context, member *models.ProjectMember) (bool, error) {
	result := r.db.WithContext(ctx).Omit("User").
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "project_id"}, {Name: "user_id"}},
			DoNothing: true,
		}).
		Create(member)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// RemoveMember removes a member from a project and unassigns them from the
// project's tasks
func (r *GormProjectRepository) RemoveMember(ctx context.Context, projectID, userID uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Task{}).
			Where("project_id = ? AND executor_id = ?", projectID, userID).
			UpdateColumn("executor_id", nil).Error; err != nil {
			return err
		}
		return tx.Where("project_id = ? AND user_id = ?", projectID, userID).
			Delete(&models.ProjectMember{}).Error
	})
}

// FindMember finds a specific project member
func (r *GormProjectRepository) FindMember(ctx context.Context, projectID, userID uint64) (*models.ProjectMember, error) {
	var member models.ProjectMember
	if err := r.db.WithContext(ctx).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// IsMember reports whether a membership row exists
func (r *GormProjectRepository) IsMember(ctx context.Context, projectID, userID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", projectID, userID).
		Count(&count).Error
	return count > 0, err
}

// ListMembers lists all members of a project
func (r *GormProjectRepository) ListMembers(ctx context.Context, projectID uint64) ([]models.ProjectMember, error) {
	var members []models.ProjectMember
	if err := r.db.WithContext(ctx).Preload("User").
		Where("project_id = ?", projectID).
		Order("joined_at, id").
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}
