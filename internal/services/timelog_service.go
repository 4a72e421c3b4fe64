package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	apierrors "github.com/yukikurage/project-tracker-api/internal/errors"
	"github.com/yukikurage/project-tracker-api/internal/models"
	"github.com/yukikurage/project-tracker-api/internal/repository"
	"gorm.io/gorm"
)

const hoursDecimalPlaces = 2

var (
	ErrTimeLogNotFound   = apierrors.NewNotFound("Time log not found")
	ErrNotTimeLogCreator = apierrors.NewForbidden("Only the time log creator can perform this action")
	ErrHoursOutOfRange   = apierrors.NewFieldValidation("hours", "Ensure this value is between 0 and 999.99.")
	ErrHoursTooPrecise   = apierrors.NewFieldValidation("hours", "Ensure that there are no more than 2 decimal places.")
	ErrHoursRequired     = apierrors.NewFieldValidation("hours", "This field is required.")
)

// TimeLogInput carries the editable fields of a time log. A nil Hours on
// update keeps the current value.
type TimeLogInput struct {
	Hours       *decimal.Decimal
	Description *string
}

// TimeLogResult is a time log, the task's recomputed total hours and the
// history entry the mutation produced.
type TimeLogResult struct {
	TimeLog    *models.TaskTimeLog
	TotalHours decimal.Decimal
	History    *models.TaskHistoryEntry
}

// TimeLogService manages the hours logged against tasks.
type TimeLogService struct {
	repos *repository.Repositories
	now   func() time.Time
}

// NewTimeLogService creates a new TimeLogService.
func NewTimeLogService(repos *repository.Repositories, now func() time.Time) *TimeLogService {
	if now == nil {
		now = time.Now
	}
	return &TimeLogService{repos: repos, now: now}
}

func validateHours(hours decimal.Decimal) error {
	if hours.IsNegative() || hours.GreaterThan(models.MaxTimeLogHours) {
		return ErrHoursOutOfRange
	}
	if !hours.Equal(hours.Round(hoursDecimalPlaces)) {
		return ErrHoursTooPrecise
	}
	return nil
}

// ListTimeLogs lists the time logs of a visible task with their total.
func (s *TimeLogService) ListTimeLogs(ctx context.Context, userID, taskID uint64) ([]models.TaskTimeLog, decimal.Decimal, error) {
	policy := NewAccessPolicy(s.repos.Projects, s.repos.Tasks)
	if _, err := policy.VisibleTask(ctx, taskID, userID); err != nil {
		return nil, decimal.Zero, err
	}

	logs, err := s.repos.TimeLogs.ListByTask(ctx, taskID)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("failed to list time logs: %w", err)
	}
	total, err := s.repos.TimeLogs.TotalHours(ctx, taskID)
	if err != nil {
		return nil, decimal.Zero, fmt.Errorf("failed to sum hours: %w", err)
	}
	return logs, total, nil
}

// AddTimeLog numbers and stores a new time log.
func (s *TimeLogService) AddTimeLog(ctx context.Context, actorID, taskID uint64, input TimeLogInput) (*TimeLogResult, error) {
	if input.Hours == nil {
		return nil, ErrHoursRequired
	}
	if err := validateHours(*input.Hours); err != nil {
		return nil, err
	}

	result := &TimeLogResult{}
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		policy := NewAccessPolicy(tx.Projects, tx.Tasks)
		if _, err := policy.VisibleTask(ctx, taskID, actorID); err != nil {
			return err
		}
		actor, err := loadUser(ctx, tx.Users, actorID)
		if err != nil {
			return err
		}

		number, err := tx.Tasks.NextTimeLogNumber(ctx, taskID)
		if err != nil {
			return fmt.Errorf("failed to number time log: %w", err)
		}

		log := &models.TaskTimeLog{
			TaskID:    taskID,
			Number:    number,
			Hours:     *input.Hours,
			CreatorID: actorID,
		}
		if input.Description != nil {
			log.Description = *input.Description
		}
		if err := tx.TimeLogs.Create(ctx, log); err != nil {
			return fmt.Errorf("failed to create time log: %w", err)
		}
		log.Creator = *actor

		result.TimeLog = log
		result.History, err = NewHistoryRecorder(tx.History, s.now).TimeLogAdded(ctx, log, actor)
		if err != nil {
			return err
		}
		return s.fillTotal(ctx, tx, taskID, result)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// UpdateTimeLog edits the actor's own time log. When hours and description
// are both unchanged nothing is written and no history entry is returned.
func (s *TimeLogService) UpdateTimeLog(ctx context.Context, actorID, taskID, timeLogID uint64, input TimeLogInput) (*TimeLogResult, error) {
	if input.Hours != nil {
		if err := validateHours(*input.Hours); err != nil {
			return nil, err
		}
	}

	result := &TimeLogResult{}
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		log, err := s.ownTimeLog(ctx, tx, actorID, taskID, timeLogID)
		if err != nil {
			return err
		}
		result.TimeLog = log

		oldHours, oldDescription := log.Hours, log.Description
		if input.Hours != nil {
			log.Hours = *input.Hours
		}
		if input.Description != nil {
			log.Description = *input.Description
		}

		if !oldHours.Equal(log.Hours) || oldDescription != log.Description {
			if err := tx.TimeLogs.Update(ctx, log); err != nil {
				return fmt.Errorf("failed to update time log: %w", err)
			}
			result.History, err = NewHistoryRecorder(tx.History, s.now).TimeLogUpdated(ctx, oldHours, oldDescription, log, &log.Creator)
			if err != nil {
				return err
			}
		}
		return s.fillTotal(ctx, tx, taskID, result)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteTimeLog removes the actor's own time log. Its number is not reused.
func (s *TimeLogService) DeleteTimeLog(ctx context.Context, actorID, taskID, timeLogID uint64) (*TimeLogResult, error) {
	result := &TimeLogResult{}
	err := s.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		log, err := s.ownTimeLog(ctx, tx, actorID, taskID, timeLogID)
		if err != nil {
			return err
		}

		if err := tx.TimeLogs.Delete(ctx, log.ID); err != nil {
			return fmt.Errorf("failed to delete time log: %w", err)
		}

		result.TimeLog = log
		result.History, err = NewHistoryRecorder(tx.History, s.now).TimeLogDeleted(ctx, log, &log.Creator)
		if err != nil {
			return err
		}
		return s.fillTotal(ctx, tx, taskID, result)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *TimeLogService) fillTotal(ctx context.Context, tx *repository.Repositories, taskID uint64, result *TimeLogResult) error {
	total, err := tx.TimeLogs.TotalHours(ctx, taskID)
	if err != nil {
		return fmt.Errorf("failed to sum hours: %w", err)
	}
	result.TotalHours = total
	return nil
}

// ownTimeLog loads a time log of a visible task and requires the actor to
// be its creator.
func (s *TimeLogService) ownTimeLog(ctx context.Context, tx *repository.Repositories, actorID, taskID, timeLogID uint64) (*models.TaskTimeLog, error) {
	policy := NewAccessPolicy(tx.Projects, tx.Tasks)
	if _, err := policy.VisibleTaskForUpdate(ctx, taskID, actorID); err != nil {
		return nil, err
	}

	log, err := tx.TimeLogs.FindByID(ctx, taskID, timeLogID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTimeLogNotFound
		}
		return nil, fmt.Errorf("failed to find time log: %w", err)
	}
	if log.CreatorID != actorID {
		return nil, ErrNotTimeLogCreator
	}
	return log, nil
}
