package repository

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"github.com/yukikurage/project-tracker-api/internal/models"
	"github.com/yukikurage/project-tracker-api/internal/utils"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type TaskRepositorySuite struct {
	suite.Suite

	ctx     context.Context
	db      *gorm.DB
	repos   *Repositories
	user    *models.User
	project *models.Project
}

func TestTaskRepositorySuite(t *testing.T) {
	suite.Run(t, new(TaskRepositorySuite))
}

func (s *TaskRepositorySuite) SetupTest() {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	s.Require().NoError(err)
	sqlDB, err := db.DB()
	s.Require().NoError(err)
	sqlDB.SetMaxOpenConns(1)
	s.Require().NoError(db.AutoMigrate(models.All()...))

	s.ctx = context.Background()
	s.db = db
	s.repos = New(db)

	s.user = &models.User{Email: "owner@example.com", PasswordHash: "hashed"}
	s.Require().NoError(s.repos.Users.Create(s.ctx, s.user))
	s.project = &models.Project{Title: "Tracker", OwnerID: s.user.ID, InviteCode: "code-1"}
	s.Require().NoError(s.repos.Projects.Create(s.ctx, s.project))
}

func (s *TaskRepositorySuite) TearDownTest() {
	sqlDB, err := s.db.DB()
	s.Require().NoError(err)
	sqlDB.Close()
}

func (s *TaskRepositorySuite) newTask(title string, parentID *uint64) *models.Task {
	task := &models.Task{
		Title:     title,
		CreatorID: s.user.ID,
		ProjectID: s.project.ID,
		ParentID:  parentID,
	}
	s.Require().NoError(s.repos.Tasks.Create(s.ctx, task))
	return task
}

func (s *TaskRepositorySuite) TestDescendantIDs() {
	root := s.newTask("root", nil)
	child := s.newTask("child", &root.ID)
	grandchild := s.newTask("grandchild", &child.ID)
	other := s.newTask("other", nil)

	ids, err := s.repos.Tasks.DescendantIDs(s.ctx, root.ID)
	s.Require().NoError(err)
	s.ElementsMatch([]uint64{child.ID, grandchild.ID}, ids)

	ids, err = s.repos.Tasks.DescendantIDs(s.ctx, other.ID)
	s.Require().NoError(err)
	s.Empty(ids)
}

func (s *TaskRepositorySuite) TestNumberingNeverReuses() {
	task := s.newTask("numbered", nil)

	for want := uint64(1); want <= 3; want++ {
		got, err := s.repos.Tasks.NextCommentNumber(s.ctx, task.ID)
		s.Require().NoError(err)
		s.Equal(want, got)
	}

	// Deleting the newest comment must not free its number.
	comment := &models.TaskComment{TaskID: task.ID, Number: 3, Text: "c", CreatorID: s.user.ID}
	s.Require().NoError(s.repos.Comments.Create(s.ctx, comment))
	s.Require().NoError(s.repos.Comments.Delete(s.ctx, comment.ID))

	got, err := s.repos.Tasks.NextCommentNumber(s.ctx, task.ID)
	s.Require().NoError(err)
	s.Equal(uint64(4), got)

	got, err = s.repos.Tasks.NextTimeLogNumber(s.ctx, task.ID)
	s.Require().NoError(err)
	s.Equal(uint64(1), got)
}

func (s *TaskRepositorySuite) TestUpdateKeepsCounters() {
	task := s.newTask("counted", nil)
	stale, err := s.repos.Tasks.FindByID(s.ctx, task.ID)
	s.Require().NoError(err)

	_, err = s.repos.Tasks.NextCommentNumber(s.ctx, task.ID)
	s.Require().NoError(err)

	stale.Title = "renamed"
	s.Require().NoError(s.repos.Tasks.Update(s.ctx, stale))

	reloaded, err := s.repos.Tasks.FindByID(s.ctx, task.ID)
	s.Require().NoError(err)
	s.Equal("renamed", reloaded.Title)
	s.Equal(uint64(1), reloaded.LastCommentNumber)
}

func (s *TaskRepositorySuite) TestDeleteCascadesSubtree() {
	root := s.newTask("root", nil)
	child := s.newTask("child", &root.ID)
	survivor := s.newTask("survivor", nil)
	survivor.PreviousID = &child.ID
	s.Require().NoError(s.repos.Tasks.Update(s.ctx, survivor))

	s.Require().NoError(s.repos.Comments.Create(s.ctx, &models.TaskComment{TaskID: child.ID, Number: 1, Text: "c", CreatorID: s.user.ID}))
	s.Require().NoError(s.repos.History.Create(s.ctx, &models.TaskHistoryEntry{TaskID: root.ID, Text: "x", UserID: s.user.ID}))

	s.Require().NoError(s.repos.Tasks.Delete(s.ctx, root.ID))

	_, err := s.repos.Tasks.FindByID(s.ctx, child.ID)
	s.ErrorIs(err, gorm.ErrRecordNotFound)

	var comments, history int64
	s.Require().NoError(s.db.Model(&models.TaskComment{}).Count(&comments).Error)
	s.Require().NoError(s.db.Model(&models.TaskHistoryEntry{}).Count(&history).Error)
	s.Zero(comments)
	s.Zero(history)

	reloaded, err := s.repos.Tasks.FindByID(s.ctx, survivor.ID)
	s.Require().NoError(err)
	s.Nil(reloaded.PreviousID)
}

func (s *TaskRepositorySuite) TestStatusDeleteClearsTasks() {
	status := &models.ProjectStatus{ProjectID: s.project.ID, Name: "Todo", Position: 0}
	s.Require().NoError(s.repos.Statuses.Create(s.ctx, status))
	task := s.newTask("with status", nil)
	task.StatusID = &status.ID
	s.Require().NoError(s.repos.Tasks.Update(s.ctx, task))

	s.Require().NoError(s.repos.Statuses.Delete(s.ctx, []uint64{status.ID}))

	reloaded, err := s.repos.Tasks.FindByID(s.ctx, task.ID)
	s.Require().NoError(err)
	s.Nil(reloaded.StatusID)

	count, err := s.repos.Statuses.CountByProject(s.ctx, s.project.ID)
	s.Require().NoError(err)
	s.Zero(count)
}

func (s *TaskRepositorySuite) TestListFilters() {
	root := s.newTask("root", nil)
	s.newTask("child", &root.ID)
	s.newTask("second root", nil)

	tasks, total, err := s.repos.Tasks.List(s.ctx, TaskFilter{ProjectID: s.project.ID, RootOnly: true, Pagination: utils.PaginationParams{Page: 1, Limit: 1}})
	s.Require().NoError(err)
	s.Equal(int64(2), total)
	s.Len(tasks, 1)

	tasks, total, err = s.repos.Tasks.List(s.ctx, TaskFilter{ProjectID: s.project.ID, ParentID: &root.ID})
	s.Require().NoError(err)
	s.Equal(int64(1), total)
	s.Equal("child", tasks[0].Title)
	s.Equal(s.user.ID, tasks[0].Creator.ID)
}

func (s *TaskRepositorySuite) TestTotalHours() {
	task := s.newTask("timed", nil)
	for i, hours := range []string{"1.25", "2.50", "0.10"} {
		log := &models.TaskTimeLog{
			TaskID:    task.ID,
			Number:    uint64(i + 1),
			Hours:     decimal.RequireFromString(hours),
			CreatorID: s.user.ID,
		}
		s.Require().NoError(s.repos.TimeLogs.Create(s.ctx, log))
	}

	total, err := s.repos.TimeLogs.TotalHours(s.ctx, task.ID)
	s.Require().NoError(err)
	s.True(total.Equal(decimal.RequireFromString("3.85")), total.String())
}

func (s *TaskRepositorySuite) TestProjectVisibility() {
	stranger := &models.User{Email: "stranger@example.com", PasswordHash: "hashed"}
	s.Require().NoError(s.repos.Users.Create(s.ctx, stranger))
	s.Require().NoError(s.repos.Projects.AddMember(s.ctx, &models.ProjectMember{ProjectID: s.project.ID, UserID: s.user.ID}))

	_, err := s.repos.Projects.FindVisible(s.ctx, s.project.ID, stranger.ID)
	s.ErrorIs(err, gorm.ErrRecordNotFound)

	projects, err := s.repos.Projects.ListVisible(s.ctx, s.user.ID)
	s.Require().NoError(err)
	s.Len(projects, 1)

	s.Require().NoError(s.repos.Projects.Delete(s.ctx, s.project.ID))
	_, err = s.repos.Projects.FindByID(s.ctx, s.project.ID)
	s.ErrorIs(err, gorm.ErrRecordNotFound)
}

func (s *TaskRepositorySuite) TestMembershipInsertIfAbsentAndRemoval() {
	member := &models.User{Email: "member@example.com", PasswordHash: "hashed"}
	s.Require().NoError(s.repos.Users.Create(s.ctx, member))

	created, err := s.repos.Projects.AddMemberIfAbsent(s.ctx, &models.ProjectMember{ProjectID: s.project.ID, UserID: member.ID})
	s.Require().NoError(err)
	s.True(created)

	created, err = s.repos.Projects.AddMemberIfAbsent(s.ctx, &models.ProjectMember{ProjectID: s.project.ID, UserID: member.ID})
	s.Require().NoError(err)
	s.False(created)

	assigned := s.newTask("assigned", nil)
	assigned.ExecutorID = &member.ID
	s.Require().NoError(s.repos.Tasks.Update(s.ctx, assigned))
	elsewhere := &models.Project{Title: "Other", OwnerID: s.user.ID, InviteCode: "code-2"}
	s.Require().NoError(s.repos.Projects.Create(s.ctx, elsewhere))
	foreign := &models.Task{Title: "foreign", CreatorID: s.user.ID, ProjectID: elsewhere.ID, ExecutorID: &member.ID}
	s.Require().NoError(s.repos.Tasks.Create(s.ctx, foreign))

	s.Require().NoError(s.repos.Projects.RemoveMember(s.ctx, s.project.ID, member.ID))

	ok, err := s.repos.Projects.IsMember(s.ctx, s.project.ID, member.ID)
	s.Require().NoError(err)
	s.False(ok)

	reloaded, err := s.repos.Tasks.FindByID(s.ctx, assigned.ID)
	s.Require().NoError(err)
	s.Nil(reloaded.ExecutorID)

	reloaded, err = s.repos.Tasks.FindByID(s.ctx, foreign.ID)
	s.Require().NoError(err)
	s.Require().NotNil(reloaded.ExecutorID)
	s.Equal(member.ID, *reloaded.ExecutorID)
}
