package repository

import (
	"context"

	"github.com/yukikurage/project-tracker-api/internal/database"
	"github.com/yukikurage/project-tracker-api/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// descendantsQuery walks the parent links below a task. UNION rather than
// UNION ALL so a corrupted cycle terminates.
const descendantsQuery = `
WITH RECURSIVE subtree(id) AS (
	SELECT id FROM tasks WHERE parent_id = ?
	UNION
	SELECT tasks.id FROM tasks JOIN subtree ON tasks.parent_id = subtree.id
)
SELECT id FROM subtree ORDER BY id`

// Create creates a new task
func (r *GormTaskRepository) Create(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Create(task).Error
}

// FindByID finds a task by ID with optional preloading
func (r *GormTaskRepository) FindByID(ctx context.Context, id uint64, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db.WithContext(ctx)

	// Apply preloading if specified
	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&task, id).Error; err != nil {
		return nil, err
	}

	return &task, nil
}

// FindForUpdate finds a task with SELECT ... FOR UPDATE
func (r *GormTaskRepository) FindForUpdate(ctx context.Context, id uint64) (*models.Task, error) {
	var task models.Task
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&task, id).Error; err != nil {
		return nil, err
	}
	return &task, nil
}

// List retrieves tasks with filtering and pagination
func (r *GormTaskRepository) List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error) {
	var tasks []models.Task

	query := r.db.WithContext(ctx).Model(&models.Task{}).Where("tasks.project_id = ?", filter.ProjectID)

	// Apply filters
	if filter.StatusID != nil {
		query = query.Where("tasks.status_id = ?", *filter.StatusID)
	}
	if filter.ExecutorID != nil {
		query = query.Where("tasks.executor_id = ?", *filter.ExecutorID)
	}
	if filter.ParentID != nil {
		query = query.Where("tasks.parent_id = ?", *filter.ParentID)
	} else if filter.RootOnly {
		query = query.Where("tasks.parent_id IS NULL")
	}

	var total int64
	if err := query.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Session(&gorm.Session{}).
		Order("tasks.created_at DESC, tasks.id DESC").
		Scopes(database.Paginate(filter.Pagination))

	if err := listQuery.Preload("Status").Preload("Executor").Preload("Creator").Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// Update saves the task's own columns. The numbering counters are owned by
// NextCommentNumber and NextTimeLogNumber and are never written here.
func (r *GormTaskRepository) Update(ctx context.Context, task *models.Task) error {
	return r.db.WithContext(ctx).
		Omit(clause.Associations, "LastCommentNumber", "LastTimeLogNumber", "CreatedAt").
		Save(task).Error
}

// Delete deletes a task and its whole subtree in a transaction
func (r *GormTaskRepository) Delete(ctx context.Context, id uint64) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		descendants, err := (&GormTaskRepository{db: tx}).DescendantIDs(ctx, id)
		if err != nil {
			return err
		}
		ids := append([]uint64{id}, descendants...)

		for _, child := range []interface{}{&models.TaskComment{}, &models.TaskTimeLog{}, &models.TaskHistoryEntry{}} {
			if err := tx.Where("task_id IN ?", ids).Delete(child).Error; err != nil {
				return err
			}
		}

		// Weak links from surviving tasks are cleared, not cascaded
		if err := tx.Model(&models.Task{}).Where("previous_id IN ?", ids).
			UpdateColumn("previous_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Task{}).Where("next_id IN ?", ids).
			UpdateColumn("next_id", nil).Error; err != nil {
			return err
		}

		return tx.Where("id IN ?", ids).Delete(&models.Task{}).Error
	})
}

// ExistsInProject reports whether taskID belongs to projectID
func (r *GormTaskRepository) ExistsInProject(ctx context.Context, projectID, taskID uint64) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Task{}).
		Where("id = ? AND project_id = ?", taskID, projectID).
		Count(&count).Error
	return count > 0, err
}

// DescendantIDs returns the ids of every task below id
func (r *GormTaskRepository) DescendantIDs(ctx context.Context, id uint64) ([]uint64, error) {
	rows, err := r.db.WithContext(ctx).Raw(descendantsQuery, id).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	ids := []uint64{}
	for rows.Next() {
		var childID uint64
		if err := rows.Scan(&childID); err != nil {
			return nil, err
		}
		ids = append(ids, childID)
	}
	return ids, rows.Err()
}

// NextCommentNumber advances and returns the task's comment counter
func (r *GormTaskRepository) NextCommentNumber(ctx context.Context, taskID uint64) (uint64, error) {
	return r.nextNumber(ctx, taskID, "last_comment_number")
}

// NextTimeLogNumber advances and returns the task's time log counter
func (r *GormTaskRepository) NextTimeLogNumber(ctx context.Context, taskID uint64) (uint64, error) {
	return r.nextNumber(ctx, taskID, "last_time_log_number")
}

// nextNumber increments column in place and reads it back. The UPDATE holds
// the row lock until the surrounding transaction ends, so two writers never
// observe the same value.
func (r *GormTaskRepository) nextNumber(ctx context.Context, taskID uint64, column string) (uint64, error) {
	db := r.db.WithContext(ctx)

	result := db.Model(&models.Task{}).
		Where("id = ?", taskID).
		UpdateColumn(column, gorm.Expr(column+" + ?", 1))
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, gorm.ErrRecordNotFound
	}

	var number uint64
	if err := db.Model(&models.Task{}).
		Where("id = ?", taskID).
		Select(column).
		Row().
		Scan(&number); err != nil {
		return 0, err
	}
	return number, nil
}
