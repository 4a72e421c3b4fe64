package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	apierrors "github.com/yukikurage/project-tracker-api/internal/errors"
	"github.com/yukikurage/project-tracker-api/internal/models"
	"github.com/yukikurage/project-tracker-api/internal/repository"
	"github.com/yukikurage/project-tracker-api/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxProjectTitleLength = 64

var (
	ErrProjectTitleRequired       = apierrors.NewFieldValidation("title", "This field is required.")
	ErrProjectTitleTooLong        = apierrors.NewFieldValidation("title", fmt.Sprintf("Ensure this field has no more than %d characters.", maxProjectTitleLength))
	ErrInviteCodeGenerationFailed = errors.New("failed to generate invite code")
	ErrInvalidInviteCode          = apierrors.NewNotFound("Invalid invite code")
	ErrAlreadyProjectMember       = apierrors.NewConflict("User is already a member of this project")
	ErrCannotRemoveOwner          = apierrors.NewForbidden("The project owner cannot be removed")
	ErrProjectMemberNotFound      = apierrors.NewNotFound("Project member not found")
	ErrUnknownUsers               = apierrors.NewFieldValidation("user_ids", "One or more users do not exist")
)

// ProjectService provides business logic for projects and their membership.
type ProjectService struct {
	repos *repository.Repositories
	now   func() time.Time
	log   *zap.Logger
}

// NewProjectService creates a new ProjectService. A nil now uses time.Now.
func NewProjectService(repos *repository.Repositories, now func() time.Time, log *zap.Logger) *ProjectService {
	if now == nil {
		now = time.Now
	}
	return &ProjectService{repos: repos, now: now, log: log}
}

// CreateProjectInput represents parameters to create a new project.
type CreateProjectInput struct {
	Title       string
	Description string
	OwnerID     uint64
}

// UpdateProjectInput holds the fields of a partial project update.
type UpdateProjectInput struct {
	Title       *string
	Description *string
}

// Selects is the read-side projection used to fill task forms.
type Selects struct {
	Members  []models.User
	Statuses []models.ProjectStatus
}

func normalizeProjectTitle(title string) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", ErrProjectTitleRequired
	}
	if utf8.RuneCountInString(title) > maxProjectTitleLength {
		return "", ErrProjectTitleTooLong
	}
	return title, nil
}

// CreateProject creates a project and makes the owner its first member.
func (s *ProjectService) CreateProject(ctx context.Context, input CreateProjectInput) (*models.Project, error) {
	title, err := normalizeProjectTitle(input.Title)
	if err != nil {
		return nil, err
	}

	inviteCode, err := utils.GenerateInviteCode()
	if err != nil {
		return nil, ErrInviteCodeGenerationFailed
	}

	project := &models.Project{
		Title:       title,
		Description: input.Description,
		OwnerID:     input.OwnerID,
		InviteCode:  inviteCode,
	}

	err = s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if err := tx.Projects.Create(ctx, project); err != nil {
			return fmt.Errorf("failed to create project: %w", err)
		}

		member := &models.ProjectMember{
			ProjectID: project.ID,
			UserID:    input.OwnerID,
			JoinedAt:  s.now(),
		}
		if err := tx.Projects.AddMember(ctx, member); err != nil {
			return fmt.Errorf("failed to add owner to project: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("Project created", zap.Uint64("project_id", project.ID), zap.Uint64("owner_id", input.OwnerID))
	return s.GetProject(ctx, input.OwnerID, project.ID)
}

// ListProjects returns the projects the user can see.
func (s *ProjectService) ListProjects(ctx context.Context, userID uint64) ([]models.Project, error) {
	projects, err := s.repos.Projects.ListVisible(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// GetProject returns a project the user can see.
func (s *ProjectService) GetProject(ctx context.Context, userID, projectID uint64) (*models.Project, error) {
	return NewAccessPolicy(s.repos.Projects, s.repos.Tasks).VisibleProject(ctx, projectID, userID)
}

// UpdateProject changes the title and description. Owner only.
func (s *ProjectService) UpdateProject(ctx context.Context, actorID, projectID uint64, input UpdateProjectInput) (*models.Project, error) {
	policy := NewAccessPolicy(s.repos.Projects, s.repos.Tasks)
	project, err := policy.OwnedProject(ctx, projectID, actorID)
	if err != nil {
		return nil, err
	}

	if input.Title != nil {
		title, err := normalizeProjectTitle(*input.Title)
		if err != nil {
			return nil, err
		}
		project.Title = title
	}
	if input.Description != nil {
		project.Description = *input.Description
	}

	if err := s.repos.Projects.Update(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	return project, nil
}

// DeleteProject removes a project and everything it owns. Owner only.
func (s *ProjectService) DeleteProject(ctx context.Context, actorID, projectID uint64) error {
	policy := NewAccessPolicy(s.repos.Projects, s.repos.Tasks)
	if _, err := policy.OwnedProject(ctx, projectID, actorID); err != nil {
		return err
	}

	if err := s.repos.Projects.Delete(ctx, projectID); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	s.log.Info("Project deleted", zap.Uint64("project_id", projectID))
	return nil
}

// ListMembers returns the members of a visible project.
func (s *ProjectService) ListMembers(ctx context.Context, userID, projectID uint64) ([]models.User, error) {
	policy := NewAccessPolicy(s.repos.Projects, s.repos.Tasks)
	project, err := policy.VisibleProject(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}
	return s.memberUsers(ctx, s.repos, project)
}

// memberUsers lists the project's members with the owner first.
func (s *ProjectService) memberUsers(ctx context.Context, repos *repository.Repositories, project *models.Project) ([]models.User, error) {
	members, err := repos.Projects.ListMembers(ctx, project.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}

	users := make([]models.User, 0, len(members)+1)
	ownerListed := false
	for _, m := range members {
		if m.UserID == project.OwnerID {
			ownerListed = true
			users = append([]models.User{m.User}, users...)
			continue
		}
		users = append(users, m.User)
	}
	if !ownerListed {
		owner, err := loadUser(ctx, repos.Users, project.OwnerID)
		if err != nil {
			return nil, err
		}
		users = append([]models.User{*owner}, users...)
	}
	return users, nil
}

// Selects returns the members and statuses a task of the project may use.
func (s *ProjectService) Selects(ctx context.Context, userID, projectID uint64) (*Selects, error) {
	policy := NewAccessPolicy(s.repos.Projects, s.repos.Tasks)
	project, err := policy.VisibleProject(ctx, projectID, userID)
	if err != nil {
		return nil, err
	}

	members, err := s.memberUsers(ctx, s.repos, project)
	if err != nil {
		return nil, err
	}
	statuses, err := s.repos.Statuses.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list statuses: %w", err)
	}
	return &Selects{Members: members, Statuses: statuses}, nil
}

// ReplaceMembers sets the member list of a project. The owner is always kept.
func (s *ProjectService) ReplaceMembers(ctx context.Context, actorID, projectID uint64, userIDs []uint64) ([]models.User, error) {
	var result []models.User

	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		policy := NewAccessPolicy(tx.Projects, tx.Tasks)
		project, err := policy.OwnedProject(ctx, projectID, actorID)
		if err != nil {
			return err
		}

		desired := make(map[uint64]bool, len(userIDs)+1)
		desired[project.OwnerID] = true
		for _, id := range userIDs {
			desired[id] = true
		}

		ids := make([]uint64, 0, len(desired))
		for id := range desired {
			ids = append(ids, id)
		}
		users, err := tx.Users.FindByIDs(ctx, ids)
		if err != nil {
			return fmt.Errorf("failed to verify users: %w", err)
		}
		if len(users) != len(ids) {
			return ErrUnknownUsers
		}

		current, err := tx.Projects.ListMembers(ctx, projectID)
		if err != nil {
			return fmt.Errorf("failed to list members: %w", err)
		}
		existing := make(map[uint64]bool, len(current))
		for _, m := range current {
			existing[m.UserID] = true
			if !desired[m.UserID] {
				if err := tx.Projects.RemoveMember(ctx, projectID, m.UserID); err != nil {
					return fmt.Errorf("failed to remove member: %w", err)
				}
			}
		}

		for _, user := range users {
			if existing[user.ID] {
				continue
			}
			if err := addMember(ctx, tx, projectID, user.ID, s.now()); err != nil {
				return err
			}
		}

		result, err = s.memberUsers(ctx, tx, project)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// AddMember adds a user to a project. Owner only.
func (s *ProjectService) AddMember(ctx context.Context, actorID, projectID, userID uint64) (*models.ProjectMember, error) {
	var member *models.ProjectMember

	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		policy := NewAccessPolicy(tx.Projects, tx.Tasks)
		project, err := policy.OwnedProject(ctx, projectID, actorID)
		if err != nil {
			return err
		}

		user, err := loadUser(ctx, tx.Users, userID)
		if err != nil {
			return err
		}

		ok, err := policy.IsMember(ctx, project, userID)
		if err != nil {
			return err
		}
		if ok {
			return ErrAlreadyProjectMember
		}

		if err := addMember(ctx, tx, projectID, userID, s.now()); err != nil {
			return err
		}

		member, err = tx.Projects.FindMember(ctx, projectID, userID)
		if err != nil {
			return fmt.Errorf("failed to load member: %w", err)
		}
		member.User = *user
		return nil
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}

// addMember inserts a membership and drops the user's pending join request.
func addMember(ctx context.Context, tx *repository.Repositories, projectID, userID uint64, joinedAt time.Time) error {
	member := &models.ProjectMember{
		ProjectID: projectID,
		UserID:    userID,
		JoinedAt:  joinedAt,
	}
	if err := tx.Projects.AddMember(ctx, member); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrAlreadyProjectMember
		}
		return fmt.Errorf("failed to add member: %w", err)
	}
	if err := tx.JoinRequests.DeleteByProjectAndUser(ctx, projectID, userID); err != nil {
		return fmt.Errorf("failed to clear join request: %w", err)
	}
	return nil
}

// RemoveMember removes a member from a project. The owner cannot be removed.
func (s *ProjectService) RemoveMember(ctx context.Context, actorID, projectID, userID uint64) error {
	policy := NewAccessPolicy(s.repos.Projects, s.repos.Tasks)
	project, err := policy.OwnedProject(ctx, projectID, actorID)
	if err != nil {
		return err
	}
	if policy.IsOwner(project, userID) {
		return ErrCannotRemoveOwner
	}

	if _, err := s.repos.Projects.FindMember(ctx, projectID, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProjectMemberNotFound
		}
		return fmt.Errorf("failed to find project member: %w", err)
	}

	if err := s.repos.Projects.RemoveMember(ctx, projectID, userID); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	return nil
}

// RegenerateInviteCode replaces the project's invite code. Owner only.
func (s *ProjectService) RegenerateInviteCode(ctx context.Context, actorID, projectID uint64) (*models.Project, error) {
	policy := NewAccessPolicy(s.repos.Projects, s.repos.Tasks)
	project, err := policy.OwnedProject(ctx, projectID, actorID)
	if err != nil {
		return nil, err
	}

	code, err := utils.GenerateInviteCode()
	if err != nil {
		return nil, ErrInviteCodeGenerationFailed
	}

	project.InviteCode = code
	if err := s.repos.Projects.Update(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to update invite code: %w", err)
	}
	return project, nil
}

// JoinByInvite adds the user to the project holding inviteCode.
func (s *ProjectService) JoinByInvite(ctx context.Context, userID uint64, inviteCode string) (*models.Project, error) {
	var project *models.Project

	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		var err error
		project, err = tx.Projects.FindByInviteCode(ctx, strings.TrimSpace(inviteCode))
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrInvalidInviteCode
			}
			return fmt.Errorf("failed to find project by invite code: %w", err)
		}

		ok, err := NewAccessPolicy(tx.Projects, tx.Tasks).IsMember(ctx, project, userID)
		if err != nil {
			return err
		}
		if ok {
			return ErrAlreadyProjectMember
		}
		return addMember(ctx, tx, project.ID, userID, s.now())
	})
	if err != nil {
		return nil, err
	}
	return s.GetProject(ctx, userID, project.ID)
}
