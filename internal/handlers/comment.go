package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-tracker-api/internal/dto"
	"github.com/yukikurage/project-tracker-api/internal/middleware"
	"github.com/yukikurage/project-tracker-api/internal/services"
	"go.uber.org/zap"
)

// CommentHandler serves the comments of a task.
type CommentHandler struct {
	commentService *services.CommentService
	log            *zap.Logger
}

// NewCommentHandler creates a new CommentHandler.
func NewCommentHandler(commentService *services.CommentService, log *zap.Logger) *CommentHandler {
	return &CommentHandler{commentService: commentService, log: log}
}

type commentRequest struct {
	Text string `json:"text" binding:"required"`
}

func (h *CommentHandler) List(c *gin.Context) {
	userID, details, ok := taskFromContext(c)
	if !ok {
		return
	}

	comments, err := h.commentService.ListComments(c.Request.Context(), userID, details.Task.ID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"comments": dto.ToCommentDTOs(comments),
	})
}

func (h *CommentHandler) Create(c *gin.Context) {
	userID, details, ok := taskFromContext(c)
	if !ok {
		return
	}

	var req commentRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.commentService.AddComment(c.Request.Context(), userID, details.Task.ID, req.Text)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, toCommentResponse(result))
}

func (h *CommentHandler) Update(c *gin.Context) {
	userID, details, ok := taskFromContext(c)
	if !ok {
		return
	}
	commentID, ok := middleware.ParamID(c, "comment_id")
	if !ok {
		return
	}

	var req commentRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.commentService.UpdateComment(c.Request.Context(), userID, details.Task.ID, commentID, req.Text)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, toCommentResponse(result))
}

func (h *CommentHandler) Delete(c *gin.Context) {
	userID, details, ok := taskFromContext(c)
	if !ok {
		return
	}
	commentID, ok := middleware.ParamID(c, "comment_id")
	if !ok {
		return
	}

	result, err := h.commentService.DeleteComment(c.Request.Context(), userID, details.Task.ID, commentID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, toCommentResponse(result))
}

func toCommentResponse(result *services.CommentResult) dto.CommentResponse {
	return dto.CommentResponse{
		Comment: dto.ToCommentDTO(*result.Comment),
		History: dto.ToHistoryDTO(result.History),
	}
}
