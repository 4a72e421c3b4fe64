package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	apierrors "github.com/yukikurage/project-tracker-api/internal/errors"
	"github.com/yukikurage/project-tracker-api/internal/models"
	"github.com/yukikurage/project-tracker-api/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrCommentNotFound     = apierrors.NewNotFound("Comment not found")
	ErrCommentTextRequired = apierrors.NewFieldValidation("text", "This field is required.")
	ErrNotCommentCreator   = apierrors.NewForbidden("Only the comment creator can perform this action")
)

// CommentResult is a comment and the history entry its mutation produced.
type CommentResult struct {
	Comment *models.TaskComment
	History *models.TaskHistoryEntry
}

// CommentService manages task comments. Every mutation and its history
// entry commit together.
type CommentService struct {
	repos *repository.Repositories
	now   func() time.Time
}

// NewCommentService creates a new CommentService.
func NewCommentService(repos *repository.Repositories, now func() time.Time) *CommentService {
	if now == nil {
		now = time.Now
	}
	return &CommentService{repos: repos, now: now}
}

// ListComments lists the comments of a visible task.
func (s *CommentService) ListComments(ctx context.Context, userID, taskID uint64) ([]models.TaskComment, error) {
	policy := NewAccessPolicy(s.repos.Projects, s.repos.Tasks)
	if _, err := policy.VisibleTask(ctx, taskID, userID); err != nil {
		return nil, err
	}

	comments, err := s.repos.Comments.ListByTask(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	return comments, nil
}

// AddComment numbers and stores a new comment.
func (s *CommentService) AddComment(ctx context.Context, actorID, taskID uint64, text string) (*CommentResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrCommentTextRequired
	}

	result := &CommentResult{}
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		policy := NewAccessPolicy(tx.Projects, tx.Tasks)
		if _, err := policy.VisibleTask(ctx, taskID, actorID); err != nil {
			return err
		}
		actor, err := loadUser(ctx, tx.Users, actorID)
		if err != nil {
			return err
		}

		number, err := tx.Tasks.NextCommentNumber(ctx, taskID)
		if err != nil {
			return fmt.Errorf("failed to number comment: %w", err)
		}

		comment := &models.TaskComment{
			TaskID:    taskID,
			Number:    number,
			Text:      text,
			CreatorID: actorID,
		}
		if err := tx.Comments.Create(ctx, comment); err != nil {
			return fmt.Errorf("failed to create comment: %w", err)
		}
		comment.Creator = *actor

		result.Comment = comment
		result.History, err = NewHistoryRecorder(tx.History, s.now).CommentAdded(ctx, comment, actor)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateComment changes the text of the actor's own comment. An unchanged
// text writes nothing and returns no history entry.
func (s *CommentService) UpdateComment(ctx context.Context, actorID, taskID, commentID uint64, text string) (*CommentResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrCommentTextRequired
	}

	result := &CommentResult{}
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		comment, err := s.ownComment(ctx, tx, actorID, taskID, commentID)
		if err != nil {
			return err
		}
		result.Comment = comment

		oldText := comment.Text
		if oldText == text {
			return nil
		}

		comment.Text = text
		if err := tx.Comments.Update(ctx, comment); err != nil {
			return fmt.Errorf("failed to update comment: %w", err)
		}

		result.History, err = NewHistoryRecorder(tx.History, s.now).CommentUpdated(ctx, oldText, comment, &comment.Creator)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteComment removes the actor's own comment. Its number is not reused.
func (s *CommentService) DeleteComment(ctx context.Context, actorID, taskID, commentID uint64) (*CommentResult, error) {
	result := &CommentResult{}
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		comment, err := s.ownComment(ctx, tx, actorID, taskID, commentID)
		if err != nil {
			return err
		}

		if err := tx.Comments.Delete(ctx, comment.ID); err != nil {
			return fmt.Errorf("failed to delete comment: %w", err)
		}

		result.Comment = comment
		result.History, err = NewHistoryRecorder(tx.History, s.now).CommentDeleted(ctx, comment, &comment.Creator)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ownComment loads a comment of a visible task and requires the actor to be
// its creator.
func (s *CommentService) ownComment(ctx context.Context, tx *repository.Repositories, actorID, taskID, commentID uint64) (*models.TaskComment, error) {
	policy := NewAccessPolicy(tx.Projects, tx.Tasks)
	if _, err := policy.VisibleTaskForUpdate(ctx, taskID, actorID); err != nil {
		return nil, err
	}

	comment, err := tx.Comments.FindByID(ctx, taskID, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCommentNotFound
		}
		return nil, fmt.Errorf("failed to find comment: %w", err)
	}
	if comment.CreatorID != actorID {
		return nil, ErrNotCommentCreator
	}
	return comment, nil
}
