package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/project-tracker-api/internal/models"
	"github.com/yukikurage/project-tracker-api/internal/repository"
)

func TestJoinRequestService_Submit(t *testing.T) {
	env := setupTestEnv(t)
	owner := createTestUser(t, env, "owner@example.com")
	member := createTestUser(t, env, "member@example.com")
	user := createTestUser(t, env, "user@example.com")
	project := createTestProject(t, env, owner, "Demo", member)

	req, err := env.joins.SubmitJoinRequest(env.ctx, user.ID, project.ID, "hello")
	require.NoError(t, err)
	assert.NotZero(t, req.ID)

	_, err = env.joins.SubmitJoinRequest(env.ctx, user.ID, project.ID, "again")
	assert.ErrorIs(t, err, ErrJoinRequestExists)

	_, err = env.joins.SubmitJoinRequest(env.ctx, member.ID, project.ID, "")
	assert.ErrorIs(t, err, ErrAlreadyProjectMember)

	_, err = env.joins.SubmitJoinRequest(env.ctx, owner.ID, project.ID, "")
	assert.ErrorIs(t, err, ErrAlreadyProjectMember)

	_, err = env.joins.SubmitJoinRequest(env.ctx, user.ID, 9999, "")
	assert.ErrorIs(t, err, ErrProjectNotFound)

	_, err = env.joins.ListJoinRequests(env.ctx, member.ID, project.ID)
	assert.ErrorIs(t, err, ErrCannotManageJoins)

	requests, err := env.joins.ListJoinRequests(env.ctx, owner.ID, project.ID)
	require.NoError(t, err)
	require.Len(t, requests, 1)
	assert.Equal(t, "user@example.com", requests[0].User.Email)
}

func TestJoinRequestService_Approve(t *testing.T) {
	env := setupTestEnv(t)
	owner := createTestUser(t, env, "owner@example.com")
	user := createTestUser(t, env, "user@example.com")
	project := createTestProject(t, env, owner, "Demo")

	req, err := env.joins.SubmitJoinRequest(env.ctx, user.ID, project.ID, "")
	require.NoError(t, err)

	member, err := env.joins.ApproveJoinRequest(env.ctx, owner.ID, project.ID, req.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, member.UserID)

	_, err = env.joins.ApproveJoinRequest(env.ctx, owner.ID, project.ID, req.ID)
	assert.ErrorIs(t, err, ErrJoinRequestNotFound)

	_, err = env.projects.GetProject(env.ctx, user.ID, project.ID)
	assert.NoError(t, err)
}

func TestJoinRequestService_ApproveExistingMember(t *testing.T) {
	env := setupTestEnv(t)
	owner := createTestUser(t, env, "owner@example.com")
	user := createTestUser(t, env, "user@example.com")
	project := createTestProject(t, env, owner, "Demo")

	req, err := env.joins.SubmitJoinRequest(env.ctx, user.ID, project.ID, "")
	require.NoError(t, err)

	// A membership created behind the request's back, e.g. by a concurrent approval.
	require.NoError(t, env.db.Create(&models.ProjectMember{ProjectID: project.ID, UserID: user.ID, JoinedAt: fixedNow}).Error)

	member, err := env.joins.ApproveJoinRequest(env.ctx, owner.ID, project.ID, req.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, member.UserID)

	var count int64
	require.NoError(t, env.db.Model(&models.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", project.ID, user.ID).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)

	requests, err := env.joins.ListJoinRequests(env.ctx, owner.ID, project.ID)
	require.NoError(t, err)
	assert.Empty(t, requests)
}

func TestJoinRequestService_Reject(t *testing.T) {
	env := setupTestEnv(t)
	owner := createTestUser(t, env, "owner@example.com")
	user := createTestUser(t, env, "user@example.com")
	project := createTestProject(t, env, owner, "Demo")

	req, err := env.joins.SubmitJoinRequest(env.ctx, user.ID, project.ID, "")
	require.NoError(t, err)

	assert.ErrorIs(t, env.joins.RejectJoinRequest(env.ctx, user.ID, project.ID, req.ID), ErrProjectNotFound)
	require.NoError(t, env.joins.RejectJoinRequest(env.ctx, owner.ID, project.ID, req.ID))

	_, err = env.projects.GetProject(env.ctx, user.ID, project.ID)
	assert.ErrorIs(t, err, ErrProjectNotFound)

	_, err = env.joins.SubmitJoinRequest(env.ctx, user.ID, project.ID, "second try")
	assert.NoError(t, err)
}

// racingProjects commits the membership itself right before the insert, as a
// concurrent invite join would.
type racingProjects struct {
	repository.ProjectRepository
}

func (r racingProjects) AddMemberIfAbsent(ctx context.Context, member *models.ProjectMember) (bool, error) {
	concurrent := &models.ProjectMember{ProjectID: member.ProjectID, UserID: member.UserID, JoinedAt: fixedNow}
	if err := r.ProjectRepository.AddMember(ctx, concurrent); err != nil {
		return false, err
	}
	return r.ProjectRepository.AddMemberIfAbsent(ctx, member)
}

func TestJoinRequestService_ApproveRacingJoin(t *testing.T) {
	env := setupTestEnv(t)
	owner := createTestUser(t, env, "owner@example.com")
	user := createTestUser(t, env, "user@example.com")
	project := createTestProject(t, env, owner, "Demo")

	req, err := env.joins.SubmitJoinRequest(env.ctx, user.ID, project.ID, "")
	require.NoError(t, err)

	repos := repository.New(env.db)
	repos.Projects = racingProjects{ProjectRepository: repos.Projects}

	member, err := env.joins.approve(env.ctx, repos, owner.ID, project.ID, req.ID)
	require.NoError(t, err)
	assert.Equal(t, user.ID, member.UserID)
	assert.NotZero(t, member.ID)

	var count int64
	require.NoError(t, env.db.Model(&models.ProjectMember{}).
		Where("project_id = ? AND user_id = ?", project.ID, user.ID).
		Count(&count).Error)
	assert.Equal(t, int64(1), count)

	requests, err := env.joins.ListJoinRequests(env.ctx, owner.ID, project.ID)
	require.NoError(t, err)
	assert.Empty(t, requests)
}

func TestJoinRequestService_ApproveUsesServiceClock(t *testing.T) {
	env := setupTestEnv(t)
	owner := createTestUser(t, env, "owner@example.com")
	user := createTestUser(t, env, "user@example.com")
	project := createTestProject(t, env, owner, "Demo")

	req, err := env.joins.SubmitJoinRequest(env.ctx, user.ID, project.ID, "")
	require.NoError(t, err)

	member, err := env.joins.ApproveJoinRequest(env.ctx, owner.ID, project.ID, req.ID)
	require.NoError(t, err)
	assert.True(t, fixedNow.Equal(member.JoinedAt))
}
