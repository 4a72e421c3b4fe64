package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-tracker-api/internal/middleware"
	"github.com/yukikurage/project-tracker-api/internal/services"
	"go.uber.org/zap"
)

// Access selects the middleware chain a route runs behind.
type Access int

const (
	Public Access = iota
	Authenticated
	ProjectScoped
	TaskScoped
)

// Route is one entry of the dispatch table.
type Route struct {
	Method  string
	Path    string
	Access  Access
	Handler gin.HandlerFunc
}

// Handlers bundles every HTTP handler of the API.
type Handlers struct {
	Auth         *AuthHandler
	Projects     *ProjectHandler
	JoinRequests *JoinRequestHandler
	Statuses     *StatusHandler
	Tasks        *TaskHandler
	Comments     *CommentHandler
	TimeLogs     *TimeLogHandler
	History      *HistoryHandler
}

// Routes returns the dispatch table keyed by method and path.
func (h *Handlers) Routes() []Route {
	return []Route{
		{http.MethodGet, "/health", Public, Health},

		{http.MethodPost, "/api/auth/signup", Public, h.Auth.Signup},
		{http.MethodPost, "/api/auth/login", Public, h.Auth.Login},
		{http.MethodPost, "/api/auth/logout", Public, h.Auth.Logout},
		{http.MethodGet, "/api/auth/me", Authenticated, h.Auth.GetCurrentUser},

		{http.MethodGet, "/api/projects", Authenticated, h.Projects.ListProjects},
		{http.MethodPost, "/api/projects", Authenticated, h.Projects.CreateProject},
		{http.MethodPost, "/api/projects/join", Authenticated, h.Projects.JoinByInvite},
		{http.MethodGet, "/api/projects/:id", ProjectScoped, h.Projects.GetProject},
		{http.MethodPatch, "/api/projects/:id", ProjectScoped, h.Projects.UpdateProject},
		{http.MethodDelete, "/api/projects/:id", ProjectScoped, h.Projects.DeleteProject},
		{http.MethodGet, "/api/projects/:id/members", ProjectScoped, h.Projects.ListMembers},
		{http.MethodPut, "/api/projects/:id/members", ProjectScoped, h.Projects.ReplaceMembers},
		{http.MethodPost, "/api/projects/:id/members", ProjectScoped, h.Projects.AddMember},
		{http.MethodDelete, "/api/projects/:id/members/:user_id", ProjectScoped, h.Projects.RemoveMember},
		{http.MethodGet, "/api/projects/:id/selects", ProjectScoped, h.Projects.Selects},
		{http.MethodPost, "/api/projects/:id/invite-code", ProjectScoped, h.Projects.RegenerateInviteCode},

		{http.MethodGet, "/api/projects/:id/statuses", ProjectScoped, h.Statuses.ListStatuses},
		{http.MethodPut, "/api/projects/:id/statuses", ProjectScoped, h.Statuses.ReplaceStatuses},

		{http.MethodPost, "/api/projects/:id/join-requests", Authenticated, h.JoinRequests.Submit},
		{http.MethodGet, "/api/projects/:id/join-requests", ProjectScoped, h.JoinRequests.List},
		{http.MethodPost, "/api/projects/:id/join-requests/:request_id/approve", ProjectScoped, h.JoinRequests.Approve},
		{http.MethodPost, "/api/projects/:id/join-requests/:request_id/reject", ProjectScoped, h.JoinRequests.Reject},

		{http.MethodGet, "/api/projects/:id/tasks", ProjectScoped, h.Tasks.ListTasks},
		{http.MethodPost, "/api/projects/:id/tasks", ProjectScoped, h.Tasks.CreateTask},
		{http.MethodPost, "/api/projects/:id/tasks/generate", ProjectScoped, h.Tasks.GenerateTasks},

		{http.MethodGet, "/api/tasks/:id", TaskScoped, h.Tasks.GetTask},
		{http.MethodPatch, "/api/tasks/:id", TaskScoped, h.Tasks.UpdateTask},
		{http.MethodDelete, "/api/tasks/:id", TaskScoped, h.Tasks.DeleteTask},
		{http.MethodGet, "/api/tasks/:id/descendants", TaskScoped, h.Tasks.Descendants},
		{http.MethodGet, "/api/tasks/:id/history", TaskScoped, h.History.List},

		{http.MethodGet, "/api/tasks/:id/comments", TaskScoped, h.Comments.List},
		{http.MethodPost, "/api/tasks/:id/comments", TaskScoped, h.Comments.Create},
		{http.MethodPatch, "/api/tasks/:id/comments/:comment_id", TaskScoped, h.Comments.Update},
		{http.MethodDelete, "/api/tasks/:id/comments/:comment_id", TaskScoped, h.Comments.Delete},

		{http.MethodGet, "/api/tasks/:id/timelogs", TaskScoped, h.TimeLogs.List},
		{http.MethodPost, "/api/tasks/:id/timelogs", TaskScoped, h.TimeLogs.Create},
		{http.MethodPatch, "/api/tasks/:id/timelogs/:timelog_id", TaskScoped, h.TimeLogs.Update},
		{http.MethodDelete, "/api/tasks/:id/timelogs/:timelog_id", TaskScoped, h.TimeLogs.Delete},
	}
}

// Register mounts the dispatch table on r.
func Register(r gin.IRoutes, h *Handlers, projects *services.ProjectService, tasks *services.TaskService, log *zap.Logger) {
	chains := map[Access][]gin.HandlerFunc{
		Public:        nil,
		Authenticated: {middleware.RequireAuth()},
		ProjectScoped: {middleware.RequireAuth(), middleware.RequireProjectAccess(projects, log)},
		TaskScoped:    {middleware.RequireAuth(), middleware.RequireTaskAccess(tasks, log)},
	}

	for _, route := range h.Routes() {
		chain := append(append([]gin.HandlerFunc{}, chains[route.Access]...), route.Handler)
		r.Handle(route.Method, route.Path, chain...)
	}
}

// Health reports that the server is up
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"message": "Project Tracker API is running",
	})
}
