package constants

const (
	// ContextKeyUserID is the session and gin context key for the authenticated user.
	ContextKeyUserID = "user_id"
	// ContextKeyRequestID carries the per-request correlation id.
	ContextKeyRequestID = "request_id"
	// ContextKeyProject holds the project loaded by RequireProjectAccess.
	ContextKeyProject = "project"
	// ContextKeyTask holds the task loaded by RequireTaskAccess.
	ContextKeyTask = "task"

	SessionCookieName = "tracker_session"

	MinPasswordLength = 8

	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100

	MaxAIGeneratedTasks = 20
)
