package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/yukikurage/project-tracker-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTimeLogRepository is a GORM implementation of TimeLogRepository
type GormTimeLogRepository struct {
	db *gorm.DB
}

// NewTimeLogRepository creates a new TimeLogRepository
func NewTimeLogRepository(db *gorm.DB) TimeLogRepository {
	return &GormTimeLogRepository{db: db}
}

func (r *GormTimeLogRepository) Create(ctx context.Context, log *models.TaskTimeLog) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(log).Error
}

// FindByID finds a time log scoped to its task
func (r *GormTimeLogRepository) FindByID(ctx context.Context, taskID, id uint64) (*models.TaskTimeLog, error) {
	var log models.TaskTimeLog
	if err := r.db.WithContext(ctx).Preload("Creator").
		Where("id = ? AND task_id = ?", id, taskID).
		First(&log).Error; err != nil {
		return nil, err
	}
	return &log, nil
}

func (r *GormTimeLogRepository) Update(ctx context.Context, log *models.TaskTimeLog) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(log).Error
}

func (r *GormTimeLogRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Delete(&models.TaskTimeLog{}, id).Error
}

// ListByTask lists time logs in numbering order
func (r *GormTimeLogRepository) ListByTask(ctx context.Context, taskID uint64) ([]models.TaskTimeLog, error) {
	logs := []models.TaskTimeLog{}
	if err := r.db.WithContext(ctx).Preload("Creator").
		Where("task_id = ?", taskID).
		Order("number").
		Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

// TotalHours sums the hours logged against a task. The sum is done on
// decimals here since SUM over a decimal column comes back as a float on
// some drivers.
func (r *GormTimeLogRepository) TotalHours(ctx context.Context, taskID uint64) (decimal.Decimal, error) {
	rows, err := r.db.WithContext(ctx).Model(&models.TaskTimeLog{}).
		Where("task_id = ?", taskID).
		Select("hours").
		Rows()
	if err != nil {
		return decimal.Zero, err
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var hours decimal.Decimal
		if err := rows.Scan(&hours); err != nil {
			return decimal.Zero, err
		}
		total = total.Add(hours)
	}
	return total.Round(2), rows.Err()
}
