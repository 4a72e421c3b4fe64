package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-tracker-api/internal/dto"
	apierrors "github.com/yukikurage/project-tracker-api/internal/errors"
	"github.com/yukikurage/project-tracker-api/internal/middleware"
	"github.com/yukikurage/project-tracker-api/internal/services"
	"github.com/yukikurage/project-tracker-api/internal/utils"
	"go.uber.org/zap"
)

type TaskHandler struct {
	taskService *services.TaskService
	log         *zap.Logger
}

func NewTaskHandler(taskService *services.TaskService, log *zap.Logger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		log:         log,
	}
}

// taskFromContext returns the current user and the task loaded by
// RequireTaskAccess.
func taskFromContext(c *gin.Context) (uint64, *services.TaskDetails, bool) {
	userID, ok := currentUser(c)
	if !ok {
		return 0, nil, false
	}
	details, ok := middleware.GetTask(c)
	if !ok {
		apierrors.InternalError(c, "Task not found in context")
		return 0, nil, false
	}
	return userID, details, true
}

func queryID(c *gin.Context, name string) (*uint64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid "+name)
		return nil, false
	}
	return &id, true
}

func toIDPatch(id dto.OptionalID) services.IDPatch {
	return services.IDPatch{Set: id.Set, Value: id.Value}
}

// ListTasks returns the tasks of a project
// Can filter by status_id, executor_id, parent_id and root_only
func (h *TaskHandler) ListTasks(c *gin.Context) {
	userID, project, ok := projectFromContext(c)
	if !ok {
		return
	}

	input := services.ListTasksInput{
		UserID:     userID,
		ProjectID:  project.ID,
		RootOnly:   c.Query("root_only") == "true",
		Pagination: utils.GetPaginationParams(c),
	}
	if input.StatusID, ok = queryID(c, "status_id"); !ok {
		return
	}
	if input.ExecutorID, ok = queryID(c, "executor_id"); !ok {
		return
	}
	if input.ParentID, ok = queryID(c, "parent_id"); !ok {
		return
	}

	tasks, total, err := h.taskService.ListTasks(c.Request.Context(), input)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTaskListResponse(tasks, input.Pagination.Page, input.Pagination.Limit, total))
}

// GetTask returns a task with its total hours
// Task is already loaded with relations by RequireTaskAccess middleware
func (h *TaskHandler) GetTask(c *gin.Context) {
	_, details, ok := taskFromContext(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dto.ToTaskDetailDTO(*details.Task, details.TotalHours))
}

// CreateTask creates a new task in a project
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID, project, ok := projectFromContext(c)
	if !ok {
		return
	}

	type CreateTaskRequest struct {
		Title       string  `json:"title" binding:"required"`
		Description string  `json:"description"`
		StatusID    *uint64 `json:"status_id"`
		ExecutorID  *uint64 `json:"executor_id"`
		ParentID    *uint64 `json:"parent_id"`
		PreviousID  *uint64 `json:"previous_id"`
		NextID      *uint64 `json:"next_id"`
	}

	var req CreateTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.taskService.CreateTask(c.Request.Context(), services.CreateTaskInput{
		ProjectID:   project.ID,
		ActorID:     userID,
		Title:       req.Title,
		Description: req.Description,
		StatusID:    req.StatusID,
		ExecutorID:  req.ExecutorID,
		ParentID:    req.ParentID,
		PreviousID:  req.PreviousID,
		NextID:      req.NextID,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, dto.TaskResponse{
		Task:    dto.ToTaskDTO(*result.Task),
		History: dto.ToHistoryDTO(result.History),
	})
}

// UpdateTask applies a partial update. Nullable references accept an
// explicit null to clear them.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	userID, details, ok := taskFromContext(c)
	if !ok {
		return
	}

	type UpdateTaskRequest struct {
		Title       *string        `json:"title"`
		Description *string        `json:"description"`
		ProjectID   *uint64        `json:"project_id"`
		StatusID    dto.OptionalID `json:"status_id"`
		ExecutorID  dto.OptionalID `json:"executor_id"`
		ParentID    dto.OptionalID `json:"parent_id"`
		PreviousID  dto.OptionalID `json:"previous_id"`
		NextID      dto.OptionalID `json:"next_id"`
	}

	var req UpdateTaskRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.taskService.UpdateTask(c.Request.Context(), userID, details.Task.ID, services.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		ProjectID:   req.ProjectID,
		StatusID:    toIDPatch(req.StatusID),
		ExecutorID:  toIDPatch(req.ExecutorID),
		ParentID:    toIDPatch(req.ParentID),
		PreviousID:  toIDPatch(req.PreviousID),
		NextID:      toIDPatch(req.NextID),
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.TaskResponse{
		Task:    dto.ToTaskDTO(*result.Task),
		History: dto.ToHistoryDTO(result.History),
	})
}

// DeleteTask deletes a task and its subtasks
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	userID, details, ok := taskFromContext(c)
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(c.Request.Context(), userID, details.Task.ID); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Task deleted successfully",
	})
}

// Descendants returns the ids of every subtask below a task
func (h *TaskHandler) Descendants(c *gin.Context) {
	userID, details, ok := taskFromContext(c)
	if !ok {
		return
	}

	ids, err := h.taskService.Descendants(c.Request.Context(), userID, details.Task.ID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"ids": ids,
	})
}

// GenerateTasks suggests task drafts for a project from free text using AI
func (h *TaskHandler) GenerateTasks(c *gin.Context) {
	userID, project, ok := projectFromContext(c)
	if !ok {
		return
	}

	type GenerateTasksRequest struct {
		Text string `json:"text" binding:"required"`
	}

	var req GenerateTasksRequest
	if !bindJSON(c, &req) {
		return
	}

	drafts, err := h.taskService.GenerateTaskDrafts(c.Request.Context(), userID, project.ID, req.Text)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": drafts,
	})
}
