package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-tracker-api/internal/dto"
	apierrors "github.com/yukikurage/project-tracker-api/internal/errors"
	"github.com/yukikurage/project-tracker-api/internal/middleware"
	"github.com/yukikurage/project-tracker-api/internal/models"
	"github.com/yukikurage/project-tracker-api/internal/services"
	"go.uber.org/zap"
)

// ProjectHandler serves projects and their membership.
type ProjectHandler struct {
	projectService *services.ProjectService
	log            *zap.Logger
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(projectService *services.ProjectService, log *zap.Logger) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
		log:            log,
	}
}

// projectFromContext returns the current user and the project loaded by
// RequireProjectAccess.
func projectFromContext(c *gin.Context) (uint64, *models.Project, bool) {
	userID, ok := currentUser(c)
	if !ok {
		return 0, nil, false
	}
	project, ok := middleware.GetProject(c)
	if !ok {
		apierrors.InternalError(c, "Project not found in context")
		return 0, nil, false
	}
	return userID, project, true
}

// CreateProject creates a project owned by the current user
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	type CreateProjectRequest struct {
		Title       string `json:"title" binding:"required"`
		Description string `json:"description"`
	}

	var req CreateProjectRequest
	if !bindJSON(c, &req) {
		return
	}

	project, err := h.projectService.CreateProject(c.Request.Context(), services.CreateProjectInput{
		Title:       req.Title,
		Description: req.Description,
		OwnerID:     userID,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToProjectDTO(*project, true))
}

// ListProjects returns the projects the current user owns or belongs to
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	projects, err := h.projectService.ListProjects(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"projects": dto.ToProjectDTOs(projects, userID),
	})
}

// GetProject returns the project loaded by RequireProjectAccess
func (h *ProjectHandler) GetProject(c *gin.Context) {
	userID, project, ok := projectFromContext(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, dto.ToProjectDTO(*project, project.OwnerID == userID))
}

// UpdateProject changes title and description
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	userID, project, ok := projectFromContext(c)
	if !ok {
		return
	}

	type UpdateProjectRequest struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
	}

	var req UpdateProjectRequest
	if !bindJSON(c, &req) {
		return
	}

	updated, err := h.projectService.UpdateProject(c.Request.Context(), userID, project.ID, services.UpdateProjectInput{
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDTO(*updated, true))
}

// DeleteProject deletes a project and everything in it
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	userID, project, ok := projectFromContext(c)
	if !ok {
		return
	}

	if err := h.projectService.DeleteProject(c.Request.Context(), userID, project.ID); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Project deleted successfully",
	})
}

// ListMembers returns the members of a project as {id, name} pairs
func (h *ProjectHandler) ListMembers(c *gin.Context) {
	userID, project, ok := projectFromContext(c)
	if !ok {
		return
	}

	users, err := h.projectService.ListMembers(c.Request.Context(), userID, project.ID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToMembersResponse(users))
}

// ReplaceMembers sets the member list of a project
func (h *ProjectHandler) ReplaceMembers(c *gin.Context) {
	userID, project, ok := projectFromContext(c)
	if !ok {
		return
	}

	type ReplaceMembersRequest struct {
		UserIDs []uint64 `json:"user_ids"`
	}

	var req ReplaceMembersRequest
	if !bindJSON(c, &req) {
		return
	}

	users, err := h.projectService.ReplaceMembers(c.Request.Context(), userID, project.ID, req.UserIDs)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToMembersResponse(users))
}

// AddMember adds a single user to a project
func (h *ProjectHandler) AddMember(c *gin.Context) {
	userID, project, ok := projectFromContext(c)
	if !ok {
		return
	}

	type AddMemberRequest struct {
		UserID uint64 `json:"user_id" binding:"required"`
	}

	var req AddMemberRequest
	if !bindJSON(c, &req) {
		return
	}

	member, err := h.projectService.AddMember(c.Request.Context(), userID, project.ID, req.UserID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToProjectMemberDTO(*member))
}

// RemoveMember removes a member from a project
func (h *ProjectHandler) RemoveMember(c *gin.Context) {
	userID, project, ok := projectFromContext(c)
	if !ok {
		return
	}

	memberID, ok := middleware.ParamID(c, "user_id")
	if !ok {
		return
	}

	if err := h.projectService.RemoveMember(c.Request.Context(), userID, project.ID, memberID); err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Member removed successfully",
	})
}

// Selects returns the members and statuses a task of the project may use
func (h *ProjectHandler) Selects(c *gin.Context) {
	userID, project, ok := projectFromContext(c)
	if !ok {
		return
	}

	selects, err := h.projectService.Selects(c.Request.Context(), userID, project.ID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToSelectsResponse(selects.Members, selects.Statuses))
}

// RegenerateInviteCode replaces the project's invite code
func (h *ProjectHandler) RegenerateInviteCode(c *gin.Context) {
	userID, project, ok := projectFromContext(c)
	if !ok {
		return
	}

	updated, err := h.projectService.RegenerateInviteCode(c.Request.Context(), userID, project.ID)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"invite_code": updated.InviteCode,
	})
}

// JoinByInvite lets the current user join a project with its invite code
func (h *ProjectHandler) JoinByInvite(c *gin.Context) {
	userID, ok := currentUser(c)
	if !ok {
		return
	}

	type JoinRequest struct {
		InviteCode string `json:"invite_code" binding:"required"`
	}

	var req JoinRequest
	if !bindJSON(c, &req) {
		return
	}

	project, err := h.projectService.JoinByInvite(c.Request.Context(), userID, req.InviteCode)
	if err != nil {
		respondError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToProjectDTO(*project, false))
}
