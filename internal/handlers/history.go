package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-tracker-api/internal/dto"
	"github.com/yukikurage/project-tracker-api/internal/services"
	"github.com/yukikurage/project-tracker-api/internal/utils"
	"go.uber.org/zap"
)

// HistoryHandler serves the audit trail of a task.
type HistoryHandler struct {
	historyService *services.HistoryService
	log            *zap.Logger
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(historyService *services.HistoryService, log *zap.Logger) *HistoryHandler {
	return &HistoryHandler{historyService: historyService, log: log}
}

// List returns a page of the task's history, newest first
func (h *HistoryHandler) List(c *gin.Context) {
	userID, details, ok := taskFromContext(c)
	if !ok {
		return
	}

	params := utils.GetPaginationParams(c)
	entries, total, err := h.historyService.ListHistory(c.Request.Context(), userID, details.Task.ID, params)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToHistoryListResponse(entries, params.Page, params.Limit, total))
}
