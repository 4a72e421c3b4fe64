package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-tracker-api/internal/dto"
	"github.com/yukikurage/project-tracker-api/internal/services"
	"go.uber.org/zap"
)

// StatusHandler serves the per-project workflow statuses.
type StatusHandler struct {
	registry *services.StatusRegistry
	log      *zap.Logger
}

// NewStatusHandler creates a new StatusHandler.
func NewStatusHandler(registry *services.StatusRegistry, log *zap.Logger) *StatusHandler {
	return &StatusHandler{registry: registry, log: log}
}

// ListStatuses returns the statuses of a project in order
func (h *StatusHandler) ListStatuses(c *gin.Context) {
	userID, project, ok := projectFromContext(c)
	if !ok {
		return
	}

	statuses, err := h.registry.ListStatuses(c.Request.Context(), userID, project.ID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"statuses": dto.ToStatusDTOs(statuses),
	})
}

// ReplaceStatuses reconciles the project's statuses with the submitted list
func (h *StatusHandler) ReplaceStatuses(c *gin.Context) {
	userID, project, ok := projectFromContext(c)
	if !ok {
		return
	}

	type StatusItemRequest struct {
		ID   *uint64 `json:"id"`
		Name string  `json:"name"`
	}
	type ReplaceStatusesRequest struct {
		Statuses []StatusItemRequest `json:"statuses"`
	}

	var req ReplaceStatusesRequest
	if !bindJSON(c, &req) {
		return
	}

	items := make([]services.StatusItem, len(req.Statuses))
	for i, s := range req.Statuses {
		items[i] = services.StatusItem{ID: s.ID, Name: s.Name}
	}

	statuses, err := h.registry.ReplaceStatuses(c.Request.Context(), userID, project.ID, items)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"statuses": dto.ToStatusDTOs(statuses),
	})
}
