package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-tracker-api/internal/dto"
	"github.com/yukikurage/project-tracker-api/internal/middleware"
	"github.com/yukikurage/project-tracker-api/internal/services"
	"go.uber.org/zap"
)

// JoinRequestHandler serves requests by non-members to join a project.
// Submission is addressed by raw project id because the requester cannot
// see the project yet.
type JoinRequestHandler struct {
	joinService *services.JoinRequestService
	log         *zap.Logger
}

// NewJoinRequestHandler creates a new JoinRequestHandler.
func NewJoinRequestHandler(joinService *services.JoinRequestService, log *zap.Logger) *JoinRequestHandler {
	return &JoinRequestHandler{joinService: joinService, log: log}
}

// Submit files a join request for the current user
func (h *JoinRequestHandler) Submit(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}
	projectID, ok := middleware.ParamID(c, "id")
	if !ok {
		return
	}

	type SubmitRequest struct {
		Message string `json:"message"`
	}

	var req SubmitRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &req) {
		return
	}

	joinReq, err := h.joinService.SubmitJoinRequest(c.Request.Context(), userID, projectID, req.Message)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToJoinRequestDTO(*joinReq))
}

// List returns the pending join requests of a project
func (h *JoinRequestHandler) List(c *gin.Context) {
	userID, project, ok := projectFromContext(c)
	if !ok {
		return
	}

	requests, err := h.joinService.ListJoinRequests(c.Request.Context(), userID, project.ID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	items := make([]dto.JoinRequestDTO, len(requests))
	for i, r := range requests {
		items[i] = dto.ToJoinRequestDTO(r)
	}
	c.JSON(http.StatusOK, gin.H{
		"join_requests": items,
	})
}

// Approve turns a join request into a membership
func (h *JoinRequestHandler) Approve(c *gin.Context) {
	userID, project, ok := projectFromContext(c)
	if !ok {
		return
	}
	requestID, ok := middleware.ParamID(c, "request_id")
	if !ok {
		return
	}

	member, err := h.joinService.ApproveJoinRequest(c.Request.Context(), userID, project.ID, requestID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectMemberDTO(*member))
}

// Reject deletes a join request
func (h *JoinRequestHandler) Reject(c *gin.Context) {
	userID, project, ok := projectFromContext(c)
	if !ok {
		return
	}
	requestID, ok := middleware.ParamID(c, "request_id")
	if !ok {
		return
	}

	if err := h.joinService.RejectJoinRequest(c.Request.Context(), userID, project.ID, requestID); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Join request rejected",
	})
}
