package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yukikurage/project-tracker-api/internal/models"
	"github.com/yukikurage/project-tracker-api/internal/repository"
	"github.com/yukikurage/project-tracker-api/internal/utils"
)

// HistoryRecorder writes the append-only audit trail of a task. Entries are
// stamped with the wall-clock time of the operation that produced them and
// must be written through the same transaction as that operation.
type HistoryRecorder struct {
	history repository.HistoryRepository
	now     func() time.Time
}

// NewHistoryRecorder creates a HistoryRecorder. A nil clock means time.Now.
func NewHistoryRecorder(history repository.HistoryRepository, now func() time.Time) *HistoryRecorder {
	if now == nil {
		now = time.Now
	}
	return &HistoryRecorder{history: history, now: now}
}

// TaskCreated records the creation of task.
func (r *HistoryRecorder) TaskCreated(ctx context.Context, task *models.Task, actor *models.User) (*models.TaskHistoryEntry, error) {
	return r.record(ctx, task.ID, actor, fmt.Sprintf("Task #%d created", task.ID))
}

// TaskUpdated records an update of task. It writes nothing and returns nil
// when no tracked field differs from before.
func (r *HistoryRecorder) TaskUpdated(ctx context.Context, before models.TaskSnapshot, task *models.Task, actor *models.User) (*models.TaskHistoryEntry, error) {
	if !before.Differs(*task) {
		return nil, nil
	}
	return r.record(ctx, task.ID, actor, fmt.Sprintf("Task #%d updated", task.ID))
}

func (r *HistoryRecorder) CommentAdded(ctx context.Context, comment *models.TaskComment, actor *models.User) (*models.TaskHistoryEntry, error) {
	return r.record(ctx, comment.TaskID, actor, fmt.Sprintf("Comment #%d added", comment.Number))
}

// CommentUpdated records an edit of comment unless its text is unchanged.
func (r *HistoryRecorder) CommentUpdated(ctx context.Context, oldText string, comment *models.TaskComment, actor *models.User) (*models.TaskHistoryEntry, error) {
	if oldText == comment.Text {
		return nil, nil
	}
	return r.record(ctx, comment.TaskID, actor, fmt.Sprintf("Comment #%d updated", comment.Number))
}

func (r *HistoryRecorder) CommentDeleted(ctx context.Context, comment *models.TaskComment, actor *models.User) (*models.TaskHistoryEntry, error) {
	return r.record(ctx, comment.TaskID, actor, fmt.Sprintf("Comment #%d deleted", comment.Number))
}

func (r *HistoryRecorder) TimeLogAdded(ctx context.Context, log *models.TaskTimeLog, actor *models.User) (*models.TaskHistoryEntry, error) {
	return r.record(ctx, log.TaskID, actor, fmt.Sprintf("Time log #%d added", log.Number))
}

// TimeLogUpdated records an edit of log unless hours and description are
// both unchanged.
func (r *HistoryRecorder) TimeLogUpdated(ctx context.Context, oldHours decimal.Decimal, oldDescription string, log *models.TaskTimeLog, actor *models.User) (*models.TaskHistoryEntry, error) {
	if oldHours.Equal(log.Hours) && oldDescription == log.Description {
		return nil, nil
	}
	return r.record(ctx, log.TaskID, actor, fmt.Sprintf("Time log #%d updated", log.Number))
}

func (r *HistoryRecorder) TimeLogDeleted(ctx context.Context, log *models.TaskTimeLog, actor *models.User) (*models.TaskHistoryEntry, error) {
	return r.record(ctx, log.TaskID, actor, fmt.Sprintf("Time log #%d deleted", log.Number))
}

func (r *HistoryRecorder) record(ctx context.Context, taskID uint64, actor *models.User, text string) (*models.TaskHistoryEntry, error) {
	entry := &models.TaskHistoryEntry{
		TaskID:    taskID,
		Text:      text,
		UserID:    actor.ID,
		CreatedAt: r.now(),
	}
	if err := r.history.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to record history: %w", err)
	}
	entry.User = *actor
	return entry, nil
}

// HistoryService serves the read side of the task history.
type HistoryService struct {
	repos *repository.Repositories
}

// NewHistoryService creates a new HistoryService.
func NewHistoryService(repos *repository.Repositories) *HistoryService {
	return &HistoryService{repos: repos}
}

// ListHistory returns a page of a visible task's history, newest first.
func (s *HistoryService) ListHistory(ctx context.Context, userID, taskID uint64, params utils.PaginationParams) ([]models.TaskHistoryEntry, int64, error) {
	policy := NewAccessPolicy(s.repos.Projects, s.repos.Tasks)
	if _, err := policy.VisibleTask(ctx, taskID, userID); err != nil {
		return nil, 0, err
	}

	entries, total, err := s.repos.History.ListByTask(ctx, taskID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list history: %w", err)
	}
	return entries, total, nil
}
