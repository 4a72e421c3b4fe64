package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apierrors "github.com/yukikurage/project-tracker-api/internal/errors"
	"github.com/yukikurage/project-tracker-api/internal/models"
)

func newTestChecker(env *testEnv) *TaskChecker {
	return NewTaskChecker(env.repos.Projects, env.repos.Statuses, env.repos.Tasks)
}

func TestTaskChecker_Create(t *testing.T) {
	env := setupTestEnv(t)
	u1 := createTestUser(t, env, "u1@example.com")
	u2 := createTestUser(t, env, "u2@example.com")
	projectA := createTestProject(t, env, u1, "A")
	projectB := createTestProject(t, env, u2, "B")
	statusesB := replaceStatusNames(t, env, u2, projectB, "Todo")
	checker := newTestChecker(env)

	tests := []struct {
		name    string
		input   CheckInput
		allowed bool
	}{
		{"member without executor or status", CheckInput{ProjectID: projectA.ID, ActorID: u1.ID}, true},
		{"member executor", CheckInput{ProjectID: projectA.ID, ActorID: u1.ID, ExecutorID: idPtr(u1.ID)}, true},
		{"executor from another project", CheckInput{ProjectID: projectA.ID, ActorID: u1.ID, ExecutorID: idPtr(u2.ID)}, false},
		{"actor is not a member", CheckInput{ProjectID: projectA.ID, ActorID: u2.ID}, false},
		{"status while project has none", CheckInput{ProjectID: projectA.ID, ActorID: u1.ID, StatusID: idPtr(statusesB[0].ID)}, false},
		{"status of the project", CheckInput{ProjectID: projectB.ID, ActorID: u2.ID, StatusID: idPtr(statusesB[0].ID)}, true},
		{"empty status with statuses defined", CheckInput{ProjectID: projectB.ID, ActorID: u2.ID}, true},
		{"unknown project", CheckInput{ProjectID: projectB.ID + 100, ActorID: u2.ID}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := checker.Validate(env.ctx, tt.input)
			if tt.allowed {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, ErrChangesNotAllowed)
			assert.Equal(t, "The changes you made are not allowed", err.Error())
			assert.True(t, apierrors.IsKind(err, apierrors.KindValidation))
		})
	}
}

func TestTaskChecker_StatusFromOtherProject(t *testing.T) {
	env := setupTestEnv(t)
	u1 := createTestUser(t, env, "u1@example.com")
	projectA := createTestProject(t, env, u1, "A")
	projectB := createTestProject(t, env, u1, "B")
	replaceStatusNames(t, env, u1, projectA, "Todo")
	statusesB := replaceStatusNames(t, env, u1, projectB, "Todo")

	err := newTestChecker(env).Validate(env.ctx, CheckInput{
		ProjectID: projectA.ID,
		ActorID:   u1.ID,
		StatusID:  idPtr(statusesB[0].ID),
	})

	require.ErrorIs(t, err, ErrChangesNotAllowed)
}

func TestTaskChecker_UpdateOnlyChecksChangedFields(t *testing.T) {
	env := setupTestEnv(t)
	owner := createTestUser(t, env, "owner@example.com")
	former := createTestUser(t, env, "former@example.com")
	project := createTestProject(t, env, owner, "A", former)
	checker := newTestChecker(env)

	// The executor left the project after being assigned.
	old := models.TaskSnapshot{ProjectID: project.ID, ExecutorID: idPtr(former.ID)}
	require.NoError(t, env.projects.RemoveMember(env.ctx, owner.ID, project.ID, former.ID))

	err := checker.Validate(env.ctx, CheckInput{
		ProjectID:  project.ID,
		ActorID:    owner.ID,
		ExecutorID: idPtr(former.ID),
		Old:        &old,
	})
	require.NoError(t, err)

	err = checker.Validate(env.ctx, CheckInput{
		ProjectID:  project.ID,
		ActorID:    owner.ID,
		ExecutorID: idPtr(owner.ID),
		Old:        &old,
	})
	require.NoError(t, err)

	other := createTestUser(t, env, "other@example.com")
	err = checker.Validate(env.ctx, CheckInput{
		ProjectID:  project.ID,
		ActorID:    owner.ID,
		ExecutorID: idPtr(other.ID),
		Old:        &old,
	})
	require.ErrorIs(t, err, ErrChangesNotAllowed)
}

func TestTaskChecker_ProjectChangeRechecksEverything(t *testing.T) {
	env := setupTestEnv(t)
	owner := createTestUser(t, env, "owner@example.com")
	helper := createTestUser(t, env, "helper@example.com")
	projectA := createTestProject(t, env, owner, "A", helper)
	projectB := createTestProject(t, env, owner, "B")
	checker := newTestChecker(env)

	old := models.TaskSnapshot{ProjectID: projectA.ID, ExecutorID: idPtr(helper.ID)}

	err := checker.Validate(env.ctx, CheckInput{
		ProjectID:  projectB.ID,
		ActorID:    owner.ID,
		ExecutorID: idPtr(helper.ID),
		Old:        &old,
	})
	require.ErrorIs(t, err, ErrChangesNotAllowed)

	err = checker.Validate(env.ctx, CheckInput{
		ProjectID: projectB.ID,
		ActorID:   helper.ID,
		Old:       &old,
	})
	require.ErrorIs(t, err, ErrChangesNotAllowed)

	err = checker.Validate(env.ctx, CheckInput{
		ProjectID: projectB.ID,
		ActorID:   owner.ID,
		Old:       &old,
	})
	require.NoError(t, err)
}

func TestTaskChecker_ValidateLinks(t *testing.T) {
	env := setupTestEnv(t)
	owner := createTestUser(t, env, "owner@example.com")
	projectA := createTestProject(t, env, owner, "A")
	projectB := createTestProject(t, env, owner, "B")

	root, err := env.tasks.CreateTask(env.ctx, CreateTaskInput{ProjectID: projectA.ID, ActorID: owner.ID, Title: "root"})
	require.NoError(t, err)
	child, err := env.tasks.CreateTask(env.ctx, CreateTaskInput{ProjectID: projectA.ID, ActorID: owner.ID, Title: "child", ParentID: idPtr(root.Task.ID)})
	require.NoError(t, err)
	foreign, err := env.tasks.CreateTask(env.ctx, CreateTaskInput{ProjectID: projectB.ID, ActorID: owner.ID, Title: "foreign"})
	require.NoError(t, err)
	checker := newTestChecker(env)

	rootTask := *root.Task
	before := rootTask.Snapshot()

	rootTask.ParentID = idPtr(child.Task.ID)
	err = checker.ValidateLinks(env.ctx, &rootTask, &before)
	assert.True(t, apierrors.IsKind(err, apierrors.KindValidation), "descendant as parent")

	rootTask.ParentID = idPtr(rootTask.ID)
	err = checker.ValidateLinks(env.ctx, &rootTask, &before)
	assert.True(t, apierrors.IsKind(err, apierrors.KindValidation), "self as parent")

	rootTask.ParentID = nil
	rootTask.NextID = idPtr(foreign.Task.ID)
	err = checker.ValidateLinks(env.ctx, &rootTask, &before)
	assert.True(t, apierrors.IsKind(err, apierrors.KindValidation), "next in another project")

	rootTask.NextID = idPtr(child.Task.ID)
	assert.NoError(t, checker.ValidateLinks(env.ctx, &rootTask, &before))
}
