package services

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/yukikurage/project-tracker-api/internal/constants"
	apierrors "github.com/yukikurage/project-tracker-api/internal/errors"
	"github.com/yukikurage/project-tracker-api/internal/models"
	"github.com/yukikurage/project-tracker-api/internal/repository"
	"github.com/yukikurage/project-tracker-api/internal/utils"
	"go.uber.org/zap"
)

const maxTaskTitleLength = 128

var (
	ErrTitleRequired          = apierrors.NewFieldValidation("title", "This field is required.")
	ErrTitleTooLong           = apierrors.NewFieldValidation("title", fmt.Sprintf("Ensure this field has no more than %d characters.", maxTaskTitleLength))
	ErrTaskDeleteForbidden    = apierrors.NewForbidden("Only the task creator or the project owner can delete this task")
	ErrTaskHasSubtasks        = apierrors.NewFieldValidation("project_id", "A task with subtasks cannot be moved to another project")
	ErrDraftTextRequired      = apierrors.NewFieldValidation("text", "This field is required.")
	ErrAIServiceNotConfigured = apierrors.NewUnavailable("AI service is not configured")
	ErrAINoTasksGenerated     = apierrors.NewValidation("AI did not generate any tasks")
)

// IDPatch is an optional nullable id in a partial update. Set separates an
// explicit null from an absent field.
type IDPatch struct {
	Set   bool
	Value *uint64
}

func (p IDPatch) apply(dst **uint64) {
	if p.Set {
		*dst = p.Value
	}
}

// TaskService handles task business logic
type TaskService struct {
	repos     *repository.Repositories
	aiService TaskDraftGenerator
	now       func() time.Time
	log       *zap.Logger
}

// NewTaskService creates a new TaskService. aiService may be nil.
func NewTaskService(repos *repository.Repositories, aiService TaskDraftGenerator, now func() time.Time, log *zap.Logger) *TaskService {
	if now == nil {
		now = time.Now
	}
	return &TaskService{
		repos:     repos,
		aiService: aiService,
		now:       now,
		log:       log,
	}
}

// CreateTaskInput represents input for creating a task
type CreateTaskInput struct {
	ProjectID   uint64
	ActorID     uint64
	Title       string
	Description string
	StatusID    *uint64
	ExecutorID  *uint64
	ParentID    *uint64
	PreviousID  *uint64
	NextID      *uint64
}

// UpdateTaskInput represents input for updating a task
type UpdateTaskInput struct {
	Title       *string
	Description *string
	ProjectID   *uint64
	StatusID    IDPatch
	ExecutorID  IDPatch
	ParentID    IDPatch
	PreviousID  IDPatch
	NextID      IDPatch
}

// ListTasksInput represents filters for listing tasks
type ListTasksInput struct {
	UserID     uint64
	ProjectID  uint64
	StatusID   *uint64
	ExecutorID *uint64
	ParentID   *uint64
	RootOnly   bool
	Pagination utils.PaginationParams
}

// TaskResult is a mutated task and the history entry the mutation produced.
// History is nil when nothing changed.
type TaskResult struct {
	Task    *models.Task
	History *models.TaskHistoryEntry
}

// TaskDetails is a task with its derived fields.
type TaskDetails struct {
	Task       *models.Task
	TotalHours decimal.Decimal
}

var taskPreloads = []string{"Status", "Executor", "Creator"}

func normalizeTaskTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ErrTitleRequired
	}
	if utf8.RuneCountInString(title) > maxTaskTitleLength {
		return "", ErrTitleTooLong
	}
	return title, nil
}

// CreateTask validates and creates a task and records its creation.
func (s *TaskService) CreateTask(ctx context.Context, input CreateTaskInput) (*TaskResult, error) {
	title, err := normalizeTaskTitle(input.Title)
	if err != nil {
		return nil, err
	}

	result := &TaskResult{}
	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		policy := NewAccessPolicy(tx.Projects, tx.Tasks)
		if _, err := policy.VisibleProject(ctx, input.ProjectID, input.ActorID); err != nil {
			return err
		}

		now := s.now()
		task := &models.Task{
			Title:       title,
			Description: input.Description,
			StatusID:    input.StatusID,
			ExecutorID:  input.ExecutorID,
			CreatorID:   input.ActorID,
			ProjectID:   input.ProjectID,
			ParentID:    input.ParentID,
			PreviousID:  input.PreviousID,
			NextID:      input.NextID,
			CreatedAt:   now,
			UpdatedAt:   now,
		}

		checker := NewTaskChecker(tx.Projects, tx.Statuses, tx.Tasks)
		if err := checker.Validate(ctx, CheckInput{
			ProjectID:  task.ProjectID,
			ActorID:    input.ActorID,
			ExecutorID: task.ExecutorID,
			StatusID:   task.StatusID,
		}); err != nil {
			return err
		}
		if err := checker.ValidateLinks(ctx, task, nil); err != nil {
			return err
		}

		if err := tx.Tasks.Create(ctx, task); err != nil {
			return fmt.Errorf("failed to create task: %w", err)
		}

		actor, err := loadUser(ctx, tx.Users, input.ActorID)
		if err != nil {
			return err
		}
		entry, err := NewHistoryRecorder(tx.History, s.now).TaskCreated(ctx, task, actor)
		if err != nil {
			return err
		}

		result.History = entry
		result.Task, err = tx.Tasks.FindByID(ctx, task.ID, taskPreloads...)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// GetTask returns a visible task with related data and total hours
func (s *TaskService) GetTask(ctx context.Context, userID, taskID uint64) (*TaskDetails, error) {
	policy := NewAccessPolicy(s.repos.Projects, s.repos.Tasks)
	task, err := policy.VisibleTask(ctx, taskID, userID, taskPreloads...)
	if err != nil {
		return nil, err
	}

	total, err := s.repos.TimeLogs.TotalHours(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum hours: %w", err)
	}
	return &TaskDetails{Task: task, TotalHours: total}, nil
}

// ListTasks returns the tasks of a visible project matching the filters
func (s *TaskService) ListTasks(ctx context.Context, input ListTasksInput) ([]models.Task, int64, error) {
	policy := NewAccessPolicy(s.repos.Projects, s.repos.Tasks)
	if _, err := policy.VisibleProject(ctx, input.ProjectID, input.UserID); err != nil {
		return nil, 0, err
	}

	tasks, total, err := s.repos.Tasks.List(ctx, repository.TaskFilter{
		ProjectID:  input.ProjectID,
		StatusID:   input.StatusID,
		ExecutorID: input.ExecutorID,
		ParentID:   input.ParentID,
		RootOnly:   input.RootOnly,
		Pagination: input.Pagination,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, total, nil
}

// UpdateTask applies a partial update. The task row is locked, the change
// is validated, and a history entry is written only if a tracked field
// actually changed.
func (s *TaskService) UpdateTask(ctx context.Context, actorID, taskID uint64, input UpdateTaskInput) (*TaskResult, error) {
	result := &TaskResult{}

	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		policy := NewAccessPolicy(tx.Projects, tx.Tasks)
		task, err := policy.VisibleTaskForUpdate(ctx, taskID, actorID)
		if err != nil {
			return err
		}
		before := task.Snapshot()

		if input.Title != nil {
			title, err := normalizeTaskTitle(*input.Title)
			if err != nil {
				return err
			}
			task.Title = title
		}
		if input.Description != nil {
			task.Description = *input.Description
		}
		if input.ProjectID != nil {
			task.ProjectID = *input.ProjectID
		}
		input.StatusID.apply(&task.StatusID)
		input.ExecutorID.apply(&task.ExecutorID)
		input.ParentID.apply(&task.ParentID)
		input.PreviousID.apply(&task.PreviousID)
		input.NextID.apply(&task.NextID)

		if task.ProjectID != before.ProjectID {
			descendants, err := tx.Tasks.DescendantIDs(ctx, task.ID)
			if err != nil {
				return fmt.Errorf("failed to load descendants: %w", err)
			}
			if len(descendants) > 0 {
				return ErrTaskHasSubtasks
			}
		}

		checker := NewTaskChecker(tx.Projects, tx.Statuses, tx.Tasks)
		if err := checker.Validate(ctx, CheckInput{
			ProjectID:  task.ProjectID,
			ActorID:    actorID,
			ExecutorID: task.ExecutorID,
			StatusID:   task.StatusID,
			Old:        &before,
		}); err != nil {
			return err
		}
		if err := checker.ValidateLinks(ctx, task, &before); err != nil {
			return err
		}

		if before.Differs(*task) {
			task.UpdatedAt = s.now()
			if err := tx.Tasks.Update(ctx, task); err != nil {
				return fmt.Errorf("failed to update task: %w", err)
			}

			actor, err := loadUser(ctx, tx.Users, actorID)
			if err != nil {
				return err
			}
			result.History, err = NewHistoryRecorder(tx.History, s.now).TaskUpdated(ctx, before, task, actor)
			if err != nil {
				return err
			}
		}

		result.Task, err = tx.Tasks.FindByID(ctx, task.ID, taskPreloads...)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteTask deletes a task and its subtree if the actor created the task
// or owns its project
func (s *TaskService) DeleteTask(ctx context.Context, actorID, taskID uint64) error {
	return s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		policy := NewAccessPolicy(tx.Projects, tx.Tasks)
		task, err := policy.VisibleTaskForUpdate(ctx, taskID, actorID)
		if err != nil {
			return err
		}

		if task.CreatorID != actorID && !policy.IsOwner(&task.Project, actorID) {
			return ErrTaskDeleteForbidden
		}

		if err := tx.Tasks.Delete(ctx, taskID); err != nil {
			return fmt.Errorf("failed to delete task: %w", err)
		}

		s.log.Info("Task deleted", zap.Uint64("task_id", taskID), zap.Uint64("actor_id", actorID))
		return nil
	})
}

// Descendants returns the ids of every task below a visible task
func (s *TaskService) Descendants(ctx context.Context, userID, taskID uint64) ([]uint64, error) {
	policy := NewAccessPolicy(s.repos.Projects, s.repos.Tasks)
	if _, err := policy.VisibleTask(ctx, taskID, userID); err != nil {
		return nil, err
	}

	ids, err := s.repos.Tasks.DescendantIDs(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to load descendants: %w", err)
	}
	return ids, nil
}

// GenerateTaskDrafts uses AI to suggest tasks for a project from free text.
// Nothing is persisted.
func (s *TaskService) GenerateTaskDrafts(ctx context.Context, userID, projectID uint64, text string) ([]TaskDraft, error) {
	if s.aiService == nil {
		return nil, ErrAIServiceNotConfigured
	}
	if strings.TrimSpace(text) == "" {
		return nil, ErrDraftTextRequired
	}

	policy := NewAccessPolicy(s.repos.Projects, s.repos.Tasks)
	project, err := policy.VisibleProject(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}

	drafts, err := s.aiService.GenerateTaskDrafts(ctx, project.Title, text)
	if err != nil {
		s.log.Warn("Task draft generation failed", zap.Uint64("project_id", projectID), zap.Error(err))
		return nil, fmt.Errorf("failed to generate tasks: %w", err)
	}

	valid := make([]TaskDraft, 0, len(drafts))
	for _, draft := range drafts {
		title := strings.TrimSpace(draft.Title)
		if title == "" {
			continue
		}
		if runes := []rune(title); len(runes) > maxTaskTitleLength {
			title = string(runes[:maxTaskTitleLength])
		}
		valid = append(valid, TaskDraft{Title: title, Description: strings.TrimSpace(draft.Description)})
		if len(valid) == constants.MaxAIGeneratedTasks {
			break
		}
	}

	if len(valid) == 0 {
		return nil, ErrAINoTasksGenerated
	}
	return valid, nil
}
