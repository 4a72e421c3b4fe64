package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/yukikurage/project-tracker-api/internal/models"
	"github.com/yukikurage/project-tracker-api/internal/utils"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(ctx context.Context, user *models.User) error

	// FindByID finds a user by ID
	FindByID(ctx context.Context, id uint64) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// FindByIDs returns the users that exist among ids
	FindByIDs(ctx context.Context, ids []uint64) ([]models.User, error)
}

// ProjectRepository defines the interface for project and membership data access
type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	FindByID(ctx context.Context, id uint64) (*models.Project, error)

	// FindVisible finds a project the user owns or is a member of.
	// Invisible projects yield gorm.ErrRecordNotFound.
	FindVisible(ctx context.Context, id, userID uint64) (*models.Project, error)

	FindByInviteCode(ctx context.Context, code string) (*models.Project, error)

	// ListVisible lists projects the user owns or is a member of
	ListVisible(ctx context.Context, userID uint64) ([]models.Project, error)

	Update(ctx context.Context, project *models.Project) error

	// Delete deletes a project and everything it owns
	Delete(ctx context.Context, id uint64) error

	AddMember(ctx context.Context, member *models.ProjectMember) error

	// AddMemberIfAbsent inserts member unless the membership already exists
	AddMemberIfAbsent(ctx context.Context, member *models.ProjectMember) (bool, error)

	// RemoveMember deletes the membership and clears the user as executor of the project's tasks
	RemoveMember(ctx context.Context, projectID, userID uint64) error
	FindMember(ctx context.Context, projectID, userID uint64) (*models.ProjectMember, error)
	IsMember(ctx context.Context, projectID, userID uint64) (bool, error)

	// ListMembers lists members with their users preloaded
	ListMembers(ctx context.Context, projectID uint64) ([]models.ProjectMember, error)
}

// StatusRepository defines the primitive operations the status registry is built from
type StatusRepository interface {
	// ListByProject lists statuses ordered by position
	ListByProject(ctx context.Context, projectID uint64) ([]models.ProjectStatus, error)
	CountByProject(ctx context.Context, projectID uint64) (int64, error)
	ExistsInProject(ctx context.Context, projectID, statusID uint64) (bool, error)
	Create(ctx context.Context, status *models.ProjectStatus) error
	Rename(ctx context.Context, id uint64, name string, position int) error

	// Delete removes statuses and clears the status of tasks that referenced them
	Delete(ctx context.Context, ids []uint64) error
}

// JoinRequestRepository defines the interface for join request data access
type JoinRequestRepository interface {
	Create(ctx context.Context, req *models.ProjectJoinRequest) error
	FindByID(ctx context.Context, projectID, id uint64) (*models.ProjectJoinRequest, error)
	FindByProjectAndUser(ctx context.Context, projectID, userID uint64) (*models.ProjectJoinRequest, error)
	ListByProject(ctx context.Context, projectID uint64) ([]models.ProjectJoinRequest, error)
	Delete(ctx context.Context, id uint64) error
	DeleteByProjectAndUser(ctx context.Context, projectID, userID uint64) error
}

// TaskRepository defines the interface for task data access
type TaskRepository interface {
	// Create creates a new task
	Create(ctx context.Context, task *models.Task) error

	// FindByID finds a task by ID with optional preloading
	FindByID(ctx context.Context, id uint64, preload ...string) (*models.Task, error)

	// FindForUpdate finds a task and locks its row until the transaction ends
	FindForUpdate(ctx context.Context, id uint64) (*models.Task, error)

	// List retrieves tasks with filtering and pagination
	List(ctx context.Context, filter TaskFilter) ([]models.Task, int64, error)

	// Update saves the task's own columns
	Update(ctx context.Context, task *models.Task) error

	// Delete deletes a task, its subtree and everything they own
	Delete(ctx context.Context, id uint64) error

	// ExistsInProject reports whether taskID belongs to projectID
	ExistsInProject(ctx context.Context, projectID, taskID uint64) (bool, error)

	// DescendantIDs returns the ids of every task below id
	DescendantIDs(ctx context.Context, id uint64) ([]uint64, error)

	// NextCommentNumber advances and returns the task's comment counter
	NextCommentNumber(ctx context.Context, taskID uint64) (uint64, error)

	// NextTimeLogNumber advances and returns the task's time log counter
	NextTimeLogNumber(ctx context.Context, taskID uint64) (uint64, error)
}

// TaskFilter holds filtering options for listing tasks
type TaskFilter struct {
	ProjectID  uint64
	StatusID   *uint64
	ExecutorID *uint64
	ParentID   *uint64
	RootOnly   bool
	Pagination utils.PaginationParams
}

// CommentRepository defines the interface for task comment data access
type CommentRepository interface {
	Create(ctx context.Context, comment *models.TaskComment) error
	FindByID(ctx context.Context, taskID, id uint64) (*models.TaskComment, error)
	Update(ctx context.Context, comment *models.TaskComment) error
	Delete(ctx context.Context, id uint64) error
	ListByTask(ctx context.Context, taskID uint64) ([]models.TaskComment, error)
}

// TimeLogRepository defines the interface for task time log data access
type TimeLogRepository interface {
	Create(ctx context.Context, log *models.TaskTimeLog) error
	FindByID(ctx context.Context, taskID, id uint64) (*models.TaskTimeLog, error)
	Update(ctx context.Context, log *models.TaskTimeLog) error
	Delete(ctx context.Context, id uint64) error
	ListByTask(ctx context.Context, taskID uint64) ([]models.TaskTimeLog, error)
	TotalHours(ctx context.Context, taskID uint64) (decimal.Decimal, error)
}

// HistoryRepository defines the interface for the append-only task history
type HistoryRepository interface {
	Create(ctx context.Context, entry *models.TaskHistoryEntry) error
	ListByTask(ctx context.Context, taskID uint64, params utils.PaginationParams) ([]models.TaskHistoryEntry, int64, error)
}

// Repositories bundles every repository bound to the same connection or transaction.
type Repositories struct {
	db *gorm.DB

	Users        UserRepository
	Projects     ProjectRepository
	Statuses     StatusRepository
	JoinRequests JoinRequestRepository
	Tasks        TaskRepository
	Comments     CommentRepository
	TimeLogs     TimeLogRepository
	History      HistoryRepository
}

// New creates the repository set on db.
func New(db *gorm.DB) *Repositories {
	return &Repositories{
		db:           db,
		Users:        NewUserRepository(db),
		Projects:     NewProjectRepository(db),
		Statuses:     NewStatusRepository(db),
		JoinRequests: NewJoinRequestRepository(db),
		Tasks:        NewTaskRepository(db),
		Comments:     NewCommentRepository(db),
		TimeLogs:     NewTimeLogRepository(db),
		History:      NewHistoryRepository(db),
	}
}

// Transaction runs fn with repositories bound to a single transaction.
// Every write made through tx commits together or is rolled back when fn
// returns an error.
func (r *Repositories) Transaction(ctx context.Context, fn func(tx *Repositories) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(New(tx))
	})
}
