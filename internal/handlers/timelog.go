package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/yukikurage/project-tracker-api/internal/dto"
	"github.com/yukikurage/project-tracker-api/internal/middleware"
	"github.com/yukikurage/project-tracker-api/internal/services"
	"go.uber.org/zap"
)

// TimeLogHandler serves the hours logged against a task.
type TimeLogHandler struct {
	timeLogService *services.TimeLogService
	log            *zap.Logger
}

// NewTimeLogHandler creates a new TimeLogHandler.
func NewTimeLogHandler(timeLogService *services.TimeLogService, log *zap.Logger) *TimeLogHandler {
	return &TimeLogHandler{timeLogService: timeLogService, log: log}
}

// Hours accepts both JSON numbers and numeric strings.
type timeLogRequest struct {
	Hours       *decimal.Decimal `json:"hours"`
	Description *string          `json:"description"`
}

func (r timeLogRequest) input() services.TimeLogInput {
	return services.TimeLogInput{Hours: r.Hours, Description: r.Description}
}

func (h *TimeLogHandler) List(c *gin.Context) {
	userID, details, ok := taskFromContext(c)
	if !ok {
		return
	}

	logs, total, err := h.timeLogService.ListTimeLogs(c.Request.Context(), userID, details.Task.ID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToTimeLogListResponse(logs, total))
}

func (h *TimeLogHandler) Create(c *gin.Context) {
	userID, details, ok := taskFromContext(c)
	if !ok {
		return
	}

	var req timeLogRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.timeLogService.AddTimeLog(c.Request.Context(), userID, details.Task.ID, req.input())
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, toTimeLogResponse(result))
}

func (h *TimeLogHandler) Update(c *gin.Context) {
	userID, details, ok := taskFromContext(c)
	if !ok {
		return
	}
	timeLogID, ok := middleware.ParamID(c, "timelog_id")
	if !ok {
		return
	}

	var req timeLogRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.timeLogService.UpdateTimeLog(c.Request.Context(), userID, details.Task.ID, timeLogID, req.input())
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, toTimeLogResponse(result))
}

func (h *TimeLogHandler) Delete(c *gin.Context) {
	userID, details, ok := taskFromContext(c)
	if !ok {
		return
	}
	timeLogID, ok := middleware.ParamID(c, "timelog_id")
	if !ok {
		return
	}

	result, err := h.timeLogService.DeleteTimeLog(c.Request.Context(), userID, details.Task.ID, timeLogID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, toTimeLogResponse(result))
}

func toTimeLogResponse(result *services.TimeLogResult) dto.TimeLogResponse {
	return dto.TimeLogResponse{
		TimeLog:    dto.ToTimeLogDTO(*result.TimeLog),
		TotalHours: result.TotalHours,
		History:    dto.ToHistoryDTO(result.History),
	}
}
