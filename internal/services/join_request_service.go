package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	apierrors "github.com/yukikurage/project-tracker-api/internal/errors"
	"github.com/yukikurage/project-tracker-api/internal/models"
	"github.com/yukikurage/project-tracker-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrJoinRequestExists   = apierrors.NewConflict("A join request for this project already exists")
	ErrJoinRequestNotFound = apierrors.NewNotFound("Join request not found")
	ErrCannotManageJoins   = apierrors.NewForbidden("Only the project owner can manage join requests")
)

// JoinRequestService handles requests by non-members to join a project.
type JoinRequestService struct {
	repos *repository.Repositories
	now   func() time.Time
	log   *zap.Logger
}

// NewJoinRequestService creates a new JoinRequestService. A nil now uses time.Now.
func NewJoinRequestService(repos *repository.Repositories, now func() time.Time, log *zap.Logger) *JoinRequestService {
	if now == nil {
		now = time.Now
	}
	return &JoinRequestService{repos: repos, now: now, log: log}
}

// SubmitJoinRequest files a request by userID to join projectID.
func (s *JoinRequestService) SubmitJoinRequest(ctx context.Context, userID, projectID uint64, message string) (*models.ProjectJoinRequest, error) {
	req := &models.ProjectJoinRequest{
		ProjectID: projectID,
		UserID:    userID,
		Message:   message,
	}

	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		project, err := tx.Projects.FindByID(ctx, projectID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProjectNotFound
			}
			return fmt.Errorf("failed to find project: %w", err)
		}

		ok, err := NewAccessPolicy(tx.Projects, tx.Tasks).IsMember(ctx, project, userID)
		if err != nil {
			return err
		}
		if ok {
			return ErrAlreadyProjectMember
		}

		if _, err := tx.JoinRequests.FindByProjectAndUser(ctx, projectID, userID); err == nil {
			return ErrJoinRequestExists
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return fmt.Errorf("failed to check join request: %w", err)
		}

		if err := tx.JoinRequests.Create(ctx, req); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return ErrJoinRequestExists
			}
			return fmt.Errorf("failed to create join request: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return req, nil
}

// ListJoinRequests lists the pending requests of a project.
func (s *JoinRequestService) ListJoinRequests(ctx context.Context, actorID, projectID uint64) ([]models.ProjectJoinRequest, error) {
	if _, err := s.managedProject(ctx, s.repos, actorID, projectID); err != nil {
		return nil, err
	}

	requests, err := s.repos.JoinRequests.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list join requests: %w", err)
	}
	return requests, nil
}

// ApproveJoinRequest turns a request into a membership. When the user
// already is a member the stale request is just removed.
func (s *JoinRequestService) ApproveJoinRequest(ctx context.Context, actorID, projectID, requestID uint64) (*models.ProjectMember, error) {
	var member *models.ProjectMember

	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		var err error
		member, err = s.approve(ctx, tx, actorID, projectID, requestID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return member, nil
}

// approve inserts the membership unless it already exists, which also covers
// a membership committed by a concurrent join, then deletes the request.
func (s *JoinRequestService) approve(ctx context.Context, tx *repository.Repositories, actorID, projectID, requestID uint64) (*models.ProjectMember, error) {
	if _, err := s.managedProject(ctx, tx, actorID, projectID); err != nil {
		return nil, err
	}

	req, err := s.findRequest(ctx, tx, projectID, requestID)
	if err != nil {
		return nil, err
	}

	member := &models.ProjectMember{
		ProjectID: projectID,
		UserID:    req.UserID,
		JoinedAt:  s.now(),
	}
	created, err := tx.Projects.AddMemberIfAbsent(ctx, member)
	if err != nil {
		return nil, fmt.Errorf("failed to add member: %w", err)
	}
	if !created {
		s.log.Info("Join request approved for existing member",
			zap.Uint64("project_id", projectID),
			zap.Uint64("user_id", req.UserID),
		)
		member, err = tx.Projects.FindMember(ctx, projectID, req.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to load member: %w", err)
		}
	}

	if err := tx.JoinRequests.Delete(ctx, req.ID); err != nil {
		return nil, fmt.Errorf("failed to delete join request: %w", err)
	}
	member.User = req.User
	return member, nil
}

// RejectJoinRequest deletes a request without granting membership.
func (s *JoinRequestService) RejectJoinRequest(ctx context.Context, actorID, projectID, requestID uint64) error {
	return s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		if _, err := s.managedProject(ctx, tx, actorID, projectID); err != nil {
			return err
		}

		req, err := s.findRequest(ctx, tx, projectID, requestID)
		if err != nil {
			return err
		}

		if err := tx.JoinRequests.Delete(ctx, req.ID); err != nil {
			return fmt.Errorf("failed to delete join request: %w", err)
		}
		return nil
	})
}

func (s *JoinRequestService) managedProject(ctx context.Context, repos *repository.Repositories, actorID, projectID uint64) (*models.Project, error) {
	policy := NewAccessPolicy(repos.Projects, repos.Tasks)
	project, err := policy.VisibleProject(ctx, projectID, actorID)
	if err != nil {
		return nil, err
	}
	if !policy.CanManageJoinRequests(project, actorID) {
		return nil, ErrCannotManageJoins
	}
	return project, nil
}

func (s *JoinRequestService) findRequest(ctx context.Context, repos *repository.Repositories, projectID, requestID uint64) (*models.ProjectJoinRequest, error) {
	req, err := repos.JoinRequests.FindByID(ctx, projectID, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrJoinRequestNotFound
		}
		return nil, fmt.Errorf("failed to find join request: %w", err)
	}
	return req, nil
}
