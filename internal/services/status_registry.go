package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/yukikurage/project-tracker-api/internal/models"
	"github.com/yukikurage/project-tracker-api/internal/repository"
	"go.uber.org/zap"
)

// StatusItem is one entry of a submitted status list. ID optionally refers
// to an existing status of the project.
type StatusItem struct {
	ID   *uint64
	Name string
}

type statusMove struct {
	ID       uint64
	Name     string
	Position int
}

// statusPlan is the set of writes that turns the current statuses into the
// desired list.
type statusPlan struct {
	Moves   []statusMove
	Creates []statusMove
	Deletes []uint64
}

// normalizeStatusItems trims names, drops blanks and truncates to the column
// width. When a name repeats, only its last occurrence is kept, so positions
// follow submission order with duplicates collapsed to their last index.
func normalizeStatusItems(items []StatusItem) []StatusItem {
	cleaned := make([]StatusItem, 0, len(items))
	for _, item := range items {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			continue
		}
		if runes := []rune(name); len(runes) > models.MaxStatusNameLength {
			name = strings.TrimSpace(string(runes[:models.MaxStatusNameLength]))
		}
		cleaned = append(cleaned, StatusItem{ID: item.ID, Name: name})
	}

	last := make(map[string]int, len(cleaned))
	for i, item := range cleaned {
		last[item.Name] = i
	}

	desired := make([]StatusItem, 0, len(last))
	for i, item := range cleaned {
		if last[item.Name] == i {
			desired = append(desired, item)
		}
	}
	return desired
}

// planStatuses matches desired items to current statuses, first by explicit
// id and then by identical name, and derives the writes needed.
func planStatuses(current []models.ProjectStatus, items []StatusItem) statusPlan {
	desired := normalizeStatusItems(items)

	byID := make(map[uint64]models.ProjectStatus, len(current))
	for _, status := range current {
		byID[status.ID] = status
	}

	matched := make([]*models.ProjectStatus, len(desired))
	claimed := make(map[uint64]bool, len(current))

	for i, item := range desired {
		if item.ID == nil {
			continue
		}
		if status, ok := byID[*item.ID]; ok && !claimed[status.ID] {
			s := status
			matched[i] = &s
			claimed[status.ID] = true
		}
	}

	for i, item := range desired {
		if matched[i] != nil {
			continue
		}
		for _, status := range current {
			if !claimed[status.ID] && status.Name == item.Name {
				s := status
				matched[i] = &s
				claimed[status.ID] = true
				break
			}
		}
	}

	var plan statusPlan
	for i, item := range desired {
		if matched[i] == nil {
			plan.Creates = append(plan.Creates, statusMove{Name: item.Name, Position: i})
			continue
		}
		if matched[i].Name != item.Name || matched[i].Position != i {
			plan.Moves = append(plan.Moves, statusMove{ID: matched[i].ID, Name: item.Name, Position: i})
		}
	}
	for _, status := range current {
		if !claimed[status.ID] {
			plan.Deletes = append(plan.Deletes, status.ID)
		}
	}
	return plan
}

// StatusRegistry maintains the ordered workflow statuses of each project.
type StatusRegistry struct {
	repos *repository.Repositories
	log   *zap.Logger
}

// NewStatusRegistry creates a new StatusRegistry.
func NewStatusRegistry(repos *repository.Repositories, log *zap.Logger) *StatusRegistry {
	return &StatusRegistry{repos: repos, log: log}
}

// ReplaceStatuses reconciles the project's statuses with items in a single
// transaction. Statuses that are not kept are deleted and the tasks that
// used them lose their status.
func (r *StatusRegistry) ReplaceStatuses(ctx context.Context, actorID, projectID uint64, items []StatusItem) ([]models.ProjectStatus, error) {
	var result []models.ProjectStatus

	err := r.repos.Transaction(ctx, func(tx *repository.Repositories) error {
		policy := NewAccessPolicy(tx.Projects, tx.Tasks)
		if _, err := policy.OwnedProject(ctx, projectID, actorID); err != nil {
			return err
		}

		current, err := tx.Statuses.ListByProject(ctx, projectID)
		if err != nil {
			return fmt.Errorf("failed to list statuses: %w", err)
		}

		plan := planStatuses(current, items)
		if err := applyStatusPlan(ctx, tx.Statuses, projectID, plan); err != nil {
			return err
		}

		r.log.Debug("Statuses reconciled",
			zap.Uint64("project_id", projectID),
			zap.Int("moved", len(plan.Moves)),
			zap.Int("created", len(plan.Creates)),
			zap.Int("deleted", len(plan.Deletes)),
		)

		result, err = tx.Statuses.ListByProject(ctx, projectID)
		if err != nil {
			return fmt.Errorf("failed to list statuses: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// applyStatusPlan writes plan. Kept statuses first move to unique temporary
// names and negative positions so the (project, name) and
// (project, position) indexes hold after every statement. Temporary names
// start with a space, which a normalized name never does.
func applyStatusPlan(ctx context.Context, statuses repository.StatusRepository, projectID uint64, plan statusPlan) error {
	if err := statuses.Delete(ctx, plan.Deletes); err != nil {
		return fmt.Errorf("failed to delete statuses: %w", err)
	}

	for i, move := range plan.Moves {
		if err := statuses.Rename(ctx, move.ID, reorderName(move.ID), -(i + 1)); err != nil {
			return fmt.Errorf("failed to reorder status %d: %w", move.ID, err)
		}
	}
	for _, move := range plan.Moves {
		if err := statuses.Rename(ctx, move.ID, move.Name, move.Position); err != nil {
			return fmt.Errorf("failed to update status %d: %w", move.ID, err)
		}
	}

	for _, create := range plan.Creates {
		status := &models.ProjectStatus{
			ProjectID: projectID,
			Name:      create.Name,
			Position:  create.Position,
		}
		if err := statuses.Create(ctx, status); err != nil {
			return fmt.Errorf("failed to create status %q: %w", create.Name, err)
		}
	}
	return nil
}

func reorderName(id uint64) string {
	return fmt.Sprintf(" #%d", id)
}

// ListStatuses returns a visible project's statuses ordered by position.
func (r *StatusRegistry) ListStatuses(ctx context.Context, userID, projectID uint64) ([]models.ProjectStatus, error) {
	policy := NewAccessPolicy(r.repos.Projects, r.repos.Tasks)
	if _, err := policy.VisibleProject(ctx, projectID, userID); err != nil {
		return nil, err
	}

	statuses, err := r.repos.Statuses.ListByProject(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to list statuses: %w", err)
	}
	return statuses, nil
}
