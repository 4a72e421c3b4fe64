package handlers

import (
	"github.com/gin-gonic/gin"
	apierrors "github.com/yukikurage/project-tracker-api/internal/errors"
	"github.com/yukikurage/project-tracker-api/internal/middleware"
	"go.uber.org/zap"
)

// respondError writes err as a JSON error. Anything that is not a domain
// error is logged and hidden behind a generic 500.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	if apierrors.Respond(c, err) {
		return
	}
	userID, _ := middleware.GetUserID(c)
	log.Error("Request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.FullPath()),
		zap.Uint64("user_id", userID),
		zap.Error(err),
	)
}

// currentUser returns the authenticated user id, answering 401 when missing.
func currentUser(c *gin.Context) (uint64, bool) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return 0, false
	}
	return userID, true
}

// bindJSON decodes the request body, answering 400 on malformed input.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return false
	}
	return true
}
