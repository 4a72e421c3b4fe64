package services

import (
	"context"
	"errors"
	"fmt"

	apierrors "github.com/yukikurage/project-tracker-api/internal/errors"
	"github.com/yukikurage/project-tracker-api/internal/models"
	"github.com/yukikurage/project-tracker-api/internal/repository"
	"gorm.io/gorm"
)

// ErrChangesNotAllowed is the single answer for every rejected
// (project, executor, status) combination. It never says which rule failed.
var ErrChangesNotAllowed = apierrors.NewValidation("The changes you made are not allowed")

// CheckInput is the proposed state of a task. Old is nil on creation.
type CheckInput struct {
	ProjectID  uint64
	ActorID    uint64
	ExecutorID *uint64
	StatusID   *uint64
	Old        *models.TaskSnapshot
}

// TaskChecker validates task mutations against the project's current
// membership and status registry.
type TaskChecker struct {
	projects repository.ProjectRepository
	statuses repository.StatusRepository
	tasks    repository.TaskRepository
}

// NewTaskChecker creates a TaskChecker. Inside a transaction it must be built
// from the transaction's repositories.
func NewTaskChecker(projects repository.ProjectRepository, statuses repository.StatusRepository, tasks repository.TaskRepository) *TaskChecker {
	return &TaskChecker{projects: projects, statuses: statuses, tasks: tasks}
}

// Validate returns ErrChangesNotAllowed when the proposed state is incoherent.
// On update only the fields that changed are checked; a project change
// counts as a change of executor and status too.
func (c *TaskChecker) Validate(ctx context.Context, in CheckInput) error {
	projectChanged := in.Old == nil || in.Old.ProjectID != in.ProjectID
	executorChanged := projectChanged || !models.SameID(in.Old.ExecutorID, in.ExecutorID)
	statusChanged := projectChanged || !models.SameID(in.Old.StatusID, in.StatusID)

	if !projectChanged && !executorChanged && !statusChanged {
		return nil
	}

	project, err := c.projects.FindByID(ctx, in.ProjectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrChangesNotAllowed
		}
		return fmt.Errorf("failed to load project: %w", err)
	}
	policy := NewAccessPolicy(c.projects, c.tasks)

	if projectChanged {
		ok, err := policy.IsMember(ctx, project, in.ActorID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrChangesNotAllowed
		}
	}

	if executorChanged && in.ExecutorID != nil {
		ok, err := policy.IsMember(ctx, project, *in.ExecutorID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrChangesNotAllowed
		}
	}

	if statusChanged {
		if err := c.checkStatus(ctx, project.ID, in.StatusID); err != nil {
			return err
		}
	}

	return nil
}

// checkStatus requires a given status to belong to the project. An empty
// status is always accepted.
func (c *TaskChecker) checkStatus(ctx context.Context, projectID uint64, statusID *uint64) error {
	if statusID == nil {
		return nil
	}

	count, err := c.statuses.CountByProject(ctx, projectID)
	if err != nil {
		return fmt.Errorf("failed to count statuses: %w", err)
	}
	if count == 0 {
		return ErrChangesNotAllowed
	}

	ok, err := c.statuses.ExistsInProject(ctx, projectID, *statusID)
	if err != nil {
		return fmt.Errorf("failed to check status: %w", err)
	}
	if !ok {
		return ErrChangesNotAllowed
	}
	return nil
}

// ValidateLinks checks the tree and ordering links of task. A nil old means
// the task is new. Only links that changed, or all of them after a project
// change, are checked.
func (c *TaskChecker) ValidateLinks(ctx context.Context, task *models.Task, old *models.TaskSnapshot) error {
	projectChanged := old == nil || old.ProjectID != task.ProjectID

	if task.ParentID != nil && (projectChanged || !models.SameID(old.ParentID, task.ParentID)) {
		if task.ID != 0 && *task.ParentID == task.ID {
			return apierrors.NewFieldValidation("parent_id", "A task cannot be its own parent")
		}
		if err := c.requireSameProject(ctx, task.ProjectID, *task.ParentID, "parent_id"); err != nil {
			return err
		}
		if task.ID != 0 {
			descendants, err := c.tasks.DescendantIDs(ctx, task.ID)
			if err != nil {
				return fmt.Errorf("failed to load descendants: %w", err)
			}
			for _, id := range descendants {
				if id == *task.ParentID {
					return apierrors.NewFieldValidation("parent_id", "A task cannot be moved under one of its subtasks")
				}
			}
		}
	}

	links := []struct {
		field string
		id    *uint64
		old   *uint64
	}{
		{"previous_id", task.PreviousID, nil},
		{"next_id", task.NextID, nil},
	}
	if old != nil {
		links[0].old = old.PreviousID
		links[1].old = old.NextID
	}
	for _, link := range links {
		if link.id == nil || (!projectChanged && models.SameID(link.old, link.id)) {
			continue
		}
		if task.ID != 0 && *link.id == task.ID {
			return apierrors.NewFieldValidation(link.field, "A task cannot reference itself")
		}
		if err := c.requireSameProject(ctx, task.ProjectID, *link.id, link.field); err != nil {
			return err
		}
	}

	return nil
}

func (c *TaskChecker) requireSameProject(ctx context.Context, projectID, taskID uint64, field string) error {
	ok, err := c.tasks.ExistsInProject(ctx, projectID, taskID)
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", field, err)
	}
	if !ok {
		return apierrors.NewFieldValidation(field, "The referenced task does not belong to this project")
	}
	return nil
}
