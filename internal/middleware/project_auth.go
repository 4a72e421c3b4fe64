package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-tracker-api/internal/constants"
	apierrors "github.com/yukikurage/project-tracker-api/internal/errors"
	"github.com/yukikurage/project-tracker-api/internal/models"
	"github.com/yukikurage/project-tracker-api/internal/services"
	"go.uber.org/zap"
)

// ParamID parses a numeric path parameter. It writes a 400 response and
// returns false when the value is not a positive integer.
func ParamID(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		apierrors.BadRequest(c, "Invalid "+name)
		return 0, false
	}
	return id, true
}

// RequireProjectAccess loads the project named by :id if the current user
// can see it. Projects the user cannot see are reported as not found.
func RequireProjectAccess(projects *services.ProjectService, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		projectID, ok := ParamID(c, "id")
		if !ok {
			c.Abort()
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		project, err := projects.GetProject(c.Request.Context(), userID, projectID)
		if err != nil {
			if !apierrors.Respond(c, err) {
				log.Error("Failed to load project", zap.Uint64("project_id", projectID), zap.Error(err))
			}
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyProject, project)
		c.Next()
	}
}

// RequireTaskAccess loads the task named by :id if its project is visible
// to the current user.
func RequireTaskAccess(tasks *services.TaskService, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		taskID, ok := ParamID(c, "id")
		if !ok {
			c.Abort()
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		details, err := tasks.GetTask(c.Request.Context(), userID, taskID)
		if err != nil {
			if !apierrors.Respond(c, err) {
				log.Error("Failed to load task", zap.Uint64("task_id", taskID), zap.Error(err))
			}
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyTask, details)
		c.Next()
	}
}

// GetProject returns the project stored by RequireProjectAccess
func GetProject(c *gin.Context) (*models.Project, bool) {
	v, exists := c.Get(constants.ContextKeyProject)
	if !exists {
		return nil, false
	}
	project, ok := v.(*models.Project)
	return project, ok
}

// GetTask returns the task stored by RequireTaskAccess
func GetTask(c *gin.Context) (*services.TaskDetails, bool) {
	v, exists := c.Get(constants.ContextKeyTask)
	if !exists {
		return nil, false
	}
	details, ok := v.(*services.TaskDetails)
	return details, ok
}
