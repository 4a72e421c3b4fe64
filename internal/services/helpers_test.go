package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/yukikurage/project-tracker-api/internal/database"
	"github.com/yukikurage/project-tracker-api/internal/models"
	"github.com/yukikurage/project-tracker-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	ctx   context.Context
	db    *gorm.DB
	repos *repository.Repositories

	projects *ProjectService
	joins    *JoinRequestService
	statuses *StatusRegistry
	tasks    *TaskService
	comments *CommentService
	timeLogs *TimeLogService
	history  *HistoryService
}

func clock() time.Time { return fixedNow }

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	require.NoError(t, database.Migrate(db, zap.NewNop()))

	repos := repository.New(db)
	log := zap.NewNop()
	return &testEnv{
		ctx:      context.Background(),
		db:       db,
		repos:    repos,
		projects: NewProjectService(repos, clock, log),
		joins:    NewJoinRequestService(repos, clock, log),
		statuses: NewStatusRegistry(repos, log),
		tasks:    NewTaskService(repos, nil, clock, log),
		comments: NewCommentService(repos, clock),
		timeLogs: NewTimeLogService(repos, clock),
		history:  NewHistoryService(repos),
	}
}

func createTestUser(t *testing.T, env *testEnv, email string) *models.User {
	t.Helper()
	user := &models.User{Email: email, PasswordHash: "hashed"}
	require.NoError(t, env.db.Create(user).Error)
	return user
}

func createTestProject(t *testing.T, env *testEnv, owner *models.User, title string, members ...*models.User) *models.Project {
	t.Helper()
	project, err := env.projects.CreateProject(env.ctx, CreateProjectInput{Title: title, OwnerID: owner.ID})
	require.NoError(t, err)
	for _, m := range members {
		_, err := env.projects.AddMember(env.ctx, owner.ID, project.ID, m.ID)
		require.NoError(t, err)
	}
	return project
}

func replaceStatusNames(t *testing.T, env *testEnv, owner *models.User, project *models.Project, names ...string) []models.ProjectStatus {
	t.Helper()
	items := make([]StatusItem, len(names))
	for i, name := range names {
		items[i] = StatusItem{Name: name}
	}
	statuses, err := env.statuses.ReplaceStatuses(env.ctx, owner.ID, project.ID, items)
	require.NoError(t, err)
	return statuses
}

func countHistory(t *testing.T, env *testEnv, taskID uint64) int64 {
	t.Helper()
	var count int64
	require.NoError(t, env.db.Model(&models.TaskHistoryEntry{}).Where("task_id = ?", taskID).Count(&count).Error)
	return count
}

func idPtr(id uint64) *uint64 {
	return &id
}
