package dto

import (
	"time"

	"github.com/yukikurage/project-tracker-api/internal/models"
)

// UserDTO represents a user in API responses
type UserDTO struct {
	ID          uint64 `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
}

// OptionDTO is an {id, name} pair used by members lists and selects
type OptionDTO struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// ProjectDTO represents a project in API responses
type ProjectDTO struct {
	ID          uint64    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	OwnerID     uint64    `json:"owner_id"`
	Owner       *UserDTO  `json:"owner,omitempty"`
	InviteCode  string    `json:"invite_code,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// MembersResponse is the member list of a project
type MembersResponse struct {
	Members []OptionDTO `json:"members"`
}

// SelectsResponse lists what a task of the project may reference
type SelectsResponse struct {
	Members  []OptionDTO `json:"members"`
	Statuses []OptionDTO `json:"statuses"`
}

// ProjectMemberDTO represents a single membership
type ProjectMemberDTO struct {
	User     UserDTO   `json:"user"`
	JoinedAt time.Time `json:"joined_at"`
}

// StatusDTO represents a project status
type StatusDTO struct {
	ID       uint64 `json:"id"`
	Name     string `json:"name"`
	Position int    `json:"position"`
}

// JoinRequestDTO represents a pending join request
type JoinRequestDTO struct {
	ID        uint64    `json:"id"`
	ProjectID uint64    `json:"project_id"`
	User      *UserDTO  `json:"user,omitempty"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// ToUserDTO converts a User model to UserDTO
func ToUserDTO(user models.User) UserDTO {
	return UserDTO{
		ID:          user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
	}
}

// ToOptionDTO renders a user as an {id, name} option
func ToOptionDTO(user models.User) OptionDTO {
	return OptionDTO{ID: user.ID, Name: user.String()}
}

// ToProjectDTO converts a Project model to ProjectDTO. The invite code is
// only shown to the owner.
func ToProjectDTO(project models.Project, includeInviteCode bool) ProjectDTO {
	dto := ProjectDTO{
		ID:          project.ID,
		Title:       project.Title,
		Description: project.Description,
		OwnerID:     project.OwnerID,
		CreatedAt:   project.CreatedAt,
		UpdatedAt:   project.UpdatedAt,
	}
	if project.Owner.ID != 0 {
		owner := ToUserDTO(project.Owner)
		dto.Owner = &owner
	}
	if includeInviteCode {
		dto.InviteCode = project.InviteCode
	}
	return dto
}

// ToProjectDTOs converts projects for a given viewer
func ToProjectDTOs(projects []models.Project, viewerID uint64) []ProjectDTO {
	items := make([]ProjectDTO, len(projects))
	for i, p := range projects {
		items[i] = ToProjectDTO(p, p.OwnerID == viewerID)
	}
	return items
}

// ToMembersResponse converts member users to the members response
func ToMembersResponse(users []models.User) MembersResponse {
	return MembersResponse{Members: toOptions(users)}
}

// ToSelectsResponse converts members and statuses to the selects response
func ToSelectsResponse(users []models.User, statuses []models.ProjectStatus) SelectsResponse {
	options := make([]OptionDTO, len(statuses))
	for i, s := range statuses {
		options[i] = OptionDTO{ID: s.ID, Name: s.Name}
	}
	return SelectsResponse{Members: toOptions(users), Statuses: options}
}

func toOptions(users []models.User) []OptionDTO {
	options := make([]OptionDTO, len(users))
	for i, u := range users {
		options[i] = ToOptionDTO(u)
	}
	return options
}

// ToProjectMemberDTO converts a membership to DTO
func ToProjectMemberDTO(member models.ProjectMember) ProjectMemberDTO {
	return ProjectMemberDTO{
		User:     ToUserDTO(member.User),
		JoinedAt: member.JoinedAt,
	}
}

// ToStatusDTOs converts statuses to DTOs
func ToStatusDTOs(statuses []models.ProjectStatus) []StatusDTO {
	items := make([]StatusDTO, len(statuses))
	for i, s := range statuses {
		items[i] = StatusDTO{ID: s.ID, Name: s.Name, Position: s.Position}
	}
	return items
}

// ToJoinRequestDTO converts a join request to DTO
func ToJoinRequestDTO(req models.ProjectJoinRequest) JoinRequestDTO {
	dto := JoinRequestDTO{
		ID:        req.ID,
		ProjectID: req.ProjectID,
		Message:   req.Message,
		CreatedAt: req.CreatedAt,
	}
	if req.User.ID != 0 {
		user := ToUserDTO(req.User)
		dto.User = &user
	}
	return dto
}
