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

var (
	ErrProjectNotFound = apierrors.NewNotFound("Project not found")
	ErrNotProjectOwner = apierrors.NewForbidden("Only the project owner can perform this action")
	ErrTaskNotFound    = apierrors.NewNotFound("Task not found")
	ErrUserNotFound    = apierrors.NewNotFound("User not found")
)

// AccessPolicy decides who may see and edit projects and the tasks inside
// them. The owner is always treated as a member.
type AccessPolicy struct {
	projects repository.ProjectRepository
	tasks    repository.TaskRepository
}

// NewAccessPolicy creates an AccessPolicy over the given repositories.
func NewAccessPolicy(projects repository.ProjectRepository, tasks repository.TaskRepository) *AccessPolicy {
	return &AccessPolicy{projects: projects, tasks: tasks}
}

// IsOwner reports whether userID owns project.
func (p *AccessPolicy) IsOwner(project *models.Project, userID uint64) bool {
	return project.OwnerID == userID
}

// IsMember reports whether userID belongs to project.
func (p *AccessPolicy) IsMember(ctx context.Context, project *models.Project, userID uint64) (bool, error) {
	if p.IsOwner(project, userID) {
		return true, nil
	}
	ok, err := p.projects.IsMember(ctx, project.ID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to check membership: %w", err)
	}
	return ok, nil
}

// CanManageJoinRequests reports whether userID may approve or reject join requests.
func (p *AccessPolicy) CanManageJoinRequests(project *models.Project, userID uint64) bool {
	return p.IsOwner(project, userID)
}

// VisibleProject loads a project the user can see. Projects that do not
// exist and projects the user cannot see both yield ErrProjectNotFound.
func (p *AccessPolicy) VisibleProject(ctx context.Context, projectID, userID uint64) (*models.Project, error) {
	project, err := p.projects.FindVisible(ctx, projectID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	return project, nil
}

// OwnedProject loads a visible project and requires userID to own it.
func (p *AccessPolicy) OwnedProject(ctx context.Context, projectID, userID uint64) (*models.Project, error) {
	project, err := p.VisibleProject(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}
	if !p.IsOwner(project, userID) {
		return nil, ErrNotProjectOwner
	}
	return project, nil
}

// VisibleTask loads a task whose project the user can see.
func (p *AccessPolicy) VisibleTask(ctx context.Context, taskID, userID uint64, preload ...string) (*models.Task, error) {
	task, err := p.tasks.FindByID(ctx, taskID, preload...)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	if err := p.requireTaskProject(ctx, task, userID); err != nil {
		return nil, err
	}
	return task, nil
}

// VisibleTaskForUpdate is VisibleTask with the task row locked until the
// surrounding transaction ends.
func (p *AccessPolicy) VisibleTaskForUpdate(ctx context.Context, taskID, userID uint64) (*models.Task, error) {
	task, err := p.tasks.FindForUpdate(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	if err := p.requireTaskProject(ctx, task, userID); err != nil {
		return nil, err
	}
	return task, nil
}

func (p *AccessPolicy) requireTaskProject(ctx context.Context, task *models.Task, userID uint64) error {
	project, err := p.projects.FindVisible(ctx, task.ProjectID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to find project: %w", err)
	}
	task.Project = *project
	return nil
}

// loadUser returns the acting user, needed to render history entries.
func loadUser(ctx context.Context, users repository.UserRepository, userID uint64) (*models.User, error) {
	user, err := users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}
