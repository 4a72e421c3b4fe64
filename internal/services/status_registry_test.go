package services

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apierrors "github.com/yukikurage/project-tracker-api/internal/errors"
	"github.com/yukikurage/project-tracker-api/internal/models"
)

func statusNames(statuses []models.ProjectStatus) []string {
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = s.Name
	}
	return names
}

func requireDensePositions(t *testing.T, statuses []models.ProjectStatus) {
	t.Helper()
	for i, s := range statuses {
		require.Equal(t, i, s.Position, "status %q", s.Name)
	}
}

func TestNormalizeStatusItems_LastDuplicateWins(t *testing.T) {
	items := []StatusItem{
		{Name: "Todo"},
		{Name: "  Doing "},
		{Name: ""},
		{Name: "   "},
		{Name: "Todo"},
		{Name: "Done"},
	}

	got := normalizeStatusItems(items)

	require.Len(t, got, 3)
	assert.Equal(t, []string{"Doing", "Todo", "Done"}, []string{got[0].Name, got[1].Name, got[2].Name})
}

func TestNormalizeStatusItems_Truncates(t *testing.T) {
	long := strings.Repeat("é", models.MaxStatusNameLength+5)

	got := normalizeStatusItems([]StatusItem{{Name: long}})

	require.Len(t, got, 1)
	assert.Equal(t, models.MaxStatusNameLength, len([]rune(got[0].Name)))
}

func TestPlanStatuses_MatchesByIDThenName(t *testing.T) {
	current := []models.ProjectStatus{
		{ID: 1, Name: "Todo", Position: 0},
		{ID: 2, Name: "Doing", Position: 1},
		{ID: 3, Name: "Done", Position: 2},
	}

	plan := planStatuses(current, []StatusItem{
		{Name: "Done"},
		{ID: idPtr(1), Name: "Backlog"},
		{Name: "Review"},
	})

	assert.ElementsMatch(t, []statusMove{
		{ID: 3, Name: "Done", Position: 0},
		{ID: 1, Name: "Backlog", Position: 1},
	}, plan.Moves)
	assert.Equal(t, []statusMove{{Name: "Review", Position: 2}}, plan.Creates)
	assert.Equal(t, []uint64{2}, plan.Deletes)
}

func TestPlanStatuses_UnchangedListIsEmptyPlan(t *testing.T) {
	current := []models.ProjectStatus{
		{ID: 1, Name: "Todo", Position: 0},
		{ID: 2, Name: "Done", Position: 1},
	}

	plan := planStatuses(current, []StatusItem{{Name: "Todo"}, {Name: "Done"}})

	assert.Empty(t, plan.Moves)
	assert.Empty(t, plan.Creates)
	assert.Empty(t, plan.Deletes)
}

func TestReplaceStatuses_Idempotent(t *testing.T) {
	env := setupTestEnv(t)
	owner := createTestUser(t, env, "owner@example.com")
	project := createTestProject(t, env, owner, "Demo")

	first := replaceStatusNames(t, env, owner, project, "Todo", "Doing", "Todo", "Done")
	second := replaceStatusNames(t, env, owner, project, "Todo", "Doing", "Todo", "Done")

	assert.Equal(t, []string{"Doing", "Todo", "Done"}, statusNames(first))
	assert.Equal(t, first, second)
	requireDensePositions(t, second)
}

func TestReplaceStatuses_ReorderKeepsIDs(t *testing.T) {
	env := setupTestEnv(t)
	owner := createTestUser(t, env, "owner@example.com")
	project := createTestProject(t, env, owner, "Demo")

	before := replaceStatusNames(t, env, owner, project, "A", "B", "C")
	after := replaceStatusNames(t, env, owner, project, "C", "A", "B")

	require.Equal(t, []string{"C", "A", "B"}, statusNames(after))
	requireDensePositions(t, after)
	assert.Equal(t, before[2].ID, after[0].ID)
	assert.Equal(t, before[0].ID, after[1].ID)
	assert.Equal(t, before[1].ID, after[2].ID)
}

func TestReplaceStatuses_RenameByIDAndSwapNames(t *testing.T) {
	env := setupTestEnv(t)
	owner := createTestUser(t, env, "owner@example.com")
	project := createTestProject(t, env, owner, "Demo")

	before := replaceStatusNames(t, env, owner, project, "Open", "Closed")

	after, err := env.statuses.ReplaceStatuses(env.ctx, owner.ID, project.ID, []StatusItem{
		{ID: idPtr(before[0].ID), Name: "Closed"},
		{ID: idPtr(before[1].ID), Name: "Open"},
	})
	require.NoError(t, err)

	require.Equal(t, []string{"Closed", "Open"}, statusNames(after))
	assert.Equal(t, before[0].ID, after[0].ID)
	assert.Equal(t, before[1].ID, after[1].ID)
	requireDensePositions(t, after)
}

func TestReplaceStatuses_EmptyListDeletesAll(t *testing.T) {
	env := setupTestEnv(t)
	owner := createTestUser(t, env, "owner@example.com")
	project := createTestProject(t, env, owner, "Demo")
	replaceStatusNames(t, env, owner, project, "Todo", "Done")

	after := replaceStatusNames(t, env, owner, project)

	assert.Empty(t, after)
}

func TestReplaceStatuses_DeletedStatusClearsTasks(t *testing.T) {
	env := setupTestEnv(t)
	owner := createTestUser(t, env, "owner@example.com")
	project := createTestProject(t, env, owner, "Demo")
	statuses := replaceStatusNames(t, env, owner, project, "Todo", "Done")
	todo := statuses[0]

	for i := 0; i < 5; i++ {
		_, err := env.tasks.CreateTask(env.ctx, CreateTaskInput{
			ProjectID: project.ID,
			ActorID:   owner.ID,
			Title:     "task",
			StatusID:  idPtr(todo.ID),
		})
		require.NoError(t, err)
	}

	var before int64
	require.NoError(t, env.db.Model(&models.ProjectStatus{}).Count(&before).Error)

	replaceStatusNames(t, env, owner, project, "Done")

	var withTodo, withoutStatus, after int64
	require.NoError(t, env.db.Model(&models.Task{}).Where("status_id = ?", todo.ID).Count(&withTodo).Error)
	require.NoError(t, env.db.Model(&models.Task{}).Where("status_id IS NULL").Count(&withoutStatus).Error)
	require.NoError(t, env.db.Model(&models.ProjectStatus{}).Count(&after).Error)
	assert.Zero(t, withTodo)
	assert.Equal(t, int64(5), withoutStatus)
	assert.Equal(t, before-1, after)
}

func TestReplaceStatuses_Authorization(t *testing.T) {
	env := setupTestEnv(t)
	owner := createTestUser(t, env, "owner@example.com")
	member := createTestUser(t, env, "member@example.com")
	stranger := createTestUser(t, env, "stranger@example.com")
	project := createTestProject(t, env, owner, "Demo", member)

	_, err := env.statuses.ReplaceStatuses(env.ctx, member.ID, project.ID, []StatusItem{{Name: "Todo"}})
	assert.True(t, apierrors.IsKind(err, apierrors.KindForbidden))

	_, err = env.statuses.ReplaceStatuses(env.ctx, stranger.ID, project.ID, []StatusItem{{Name: "Todo"}})
	assert.True(t, apierrors.IsKind(err, apierrors.KindNotFound))

	statuses, err := env.statuses.ListStatuses(env.ctx, member.ID, project.ID)
	require.NoError(t, err)
	assert.Empty(t, statuses)
}

func TestReplaceStatuses_NamesNeverCollideWithReorderNames(t *testing.T) {
	env := setupTestEnv(t)
	owner := createTestUser(t, env, "owner@example.com")
	project := createTestProject(t, env, owner, "Demo")

	before := replaceStatusNames(t, env, owner, project, "A", "B", "C")
	lookalike := fmt.Sprintf("__reorder__%d", before[2].ID)
	spaced := strings.TrimSpace(reorderName(before[2].ID))

	_, err := env.statuses.ReplaceStatuses(env.ctx, owner.ID, project.ID, []StatusItem{
		{ID: idPtr(before[0].ID), Name: spaced},
		{ID: idPtr(before[1].ID), Name: lookalike},
		{ID: idPtr(before[2].ID), Name: "C"},
	})
	require.NoError(t, err)

	after, err := env.statuses.ReplaceStatuses(env.ctx, owner.ID, project.ID, []StatusItem{
		{ID: idPtr(before[2].ID), Name: "Z"},
		{ID: idPtr(before[0].ID), Name: spaced},
		{ID: idPtr(before[1].ID), Name: lookalike},
	})
	require.NoError(t, err)

	require.Equal(t, []string{"Z", spaced, lookalike}, statusNames(after))
	assert.Equal(t, before[2].ID, after[0].ID)
	requireDensePositions(t, after)
}
