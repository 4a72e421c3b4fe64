package dto

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
	"github.com/yukikurage/project-tracker-api/internal/models"
)

// OptionalID is a nullable id in a PATCH body. Set is true whenever the key
// was present, so an explicit null can be told apart from an omitted field.
type OptionalID struct {
	Set   bool
	Value *uint64
}

// UnmarshalJSON is only invoked for keys present in the body.
func (o *OptionalID) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var id uint64
	if err := json.Unmarshal(data, &id); err != nil {
		return err
	}
	o.Value = &id
	return nil
}

// TaskDTO represents a task in API responses
type TaskDTO struct {
	ID          uint64           `json:"id"`
	Title       string           `json:"title"`
	Description string           `json:"description"`
	ProjectID   uint64           `json:"project_id"`
	StatusID    *uint64          `json:"status_id"`
	ExecutorID  *uint64          `json:"executor_id"`
	CreatorID   uint64           `json:"creator_id"`
	ParentID    *uint64          `json:"parent_id"`
	PreviousID  *uint64          `json:"previous_id"`
	NextID      *uint64          `json:"next_id"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
	Status      *StatusDTO       `json:"status,omitempty"`
	Executor    *UserDTO         `json:"executor,omitempty"`
	Creator     *UserDTO         `json:"creator,omitempty"`
	TotalHours  *decimal.Decimal `json:"total_hours,omitempty"`
}

// TaskListResponse represents a paginated list of tasks
type TaskListResponse struct {
	Tasks      []TaskDTO `json:"tasks"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalCount int64     `json:"total_count"`
	TotalPages int       `json:"total_pages"`
}

// HistoryDTO is a rendered history entry
type HistoryDTO struct {
	User      string    `json:"user"`
	CreatedAt time.Time `json:"created_at"`
	Text      string    `json:"text"`
}

// HistoryListResponse represents a page of task history
type HistoryListResponse struct {
	History    []HistoryDTO `json:"history"`
	Page       int          `json:"page"`
	PageSize   int          `json:"page_size"`
	TotalCount int64        `json:"total_count"`
}

// TaskResponse is a mutated task with the history entry it produced
type TaskResponse struct {
	Task    TaskDTO     `json:"task"`
	History *HistoryDTO `json:"history"`
}

// CommentDTO represents a task comment
type CommentDTO struct {
	ID        uint64    `json:"id"`
	TaskID    uint64    `json:"task_id"`
	Number    uint64    `json:"number"`
	Text      string    `json:"text"`
	Creator   *UserDTO  `json:"creator,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CommentResponse is a mutated comment with the history entry it produced
type CommentResponse struct {
	Comment CommentDTO  `json:"comment"`
	History *HistoryDTO `json:"history"`
}

// TimeLogDTO represents a task time log
type TimeLogDTO struct {
	ID          uint64          `json:"id"`
	TaskID      uint64          `json:"task_id"`
	Number      uint64          `json:"number"`
	Hours       decimal.Decimal `json:"hours"`
	Description string          `json:"description"`
	Creator     *UserDTO        `json:"creator,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// TimeLogResponse is a mutated time log with the task's total hours and
// the history entry it produced
type TimeLogResponse struct {
	TimeLog    TimeLogDTO      `json:"time_log"`
	TotalHours decimal.Decimal `json:"total_hours"`
	History    *HistoryDTO     `json:"history"`
}

// TimeLogListResponse lists the time logs of a task with their total
type TimeLogListResponse struct {
	TimeLogs   []TimeLogDTO    `json:"time_logs"`
	TotalHours decimal.Decimal `json:"total_hours"`
}

// Conversion functions

// ToTaskDTO converts a Task model to TaskDTO
func ToTaskDTO(task models.Task) TaskDTO {
	dto := TaskDTO{
		ID:          task.ID,
		Title:       task.Title,
		Description: task.Description,
		ProjectID:   task.ProjectID,
		StatusID:    task.StatusID,
		ExecutorID:  task.ExecutorID,
		CreatorID:   task.CreatorID,
		ParentID:    task.ParentID,
		PreviousID:  task.PreviousID,
		NextID:      task.NextID,
		CreatedAt:   task.CreatedAt,
		UpdatedAt:   task.UpdatedAt,
	}

	// Include relations if preloaded
	if task.Status != nil {
		dto.Status = &StatusDTO{ID: task.Status.ID, Name: task.Status.Name, Position: task.Status.Position}
	}
	if task.Executor != nil {
		executor := ToUserDTO(*task.Executor)
		dto.Executor = &executor
	}
	if task.Creator.ID != 0 {
		creator := ToUserDTO(task.Creator)
		dto.Creator = &creator
	}

	return dto
}

// ToTaskDetailDTO converts a task and its total hours
func ToTaskDetailDTO(task models.Task, totalHours decimal.Decimal) TaskDTO {
	dto := ToTaskDTO(task)
	dto.TotalHours = &totalHours
	return dto
}

// ToTaskListResponse converts a slice of tasks to TaskListResponse
func ToTaskListResponse(tasks []models.Task, page, pageSize int, totalCount int64) TaskListResponse {
	items := make([]TaskDTO, len(tasks))
	for i, task := range tasks {
		items[i] = ToTaskDTO(task)
	}

	totalPages := 0
	if pageSize > 0 {
		totalPages = int(totalCount) / pageSize
		if int(totalCount)%pageSize > 0 {
			totalPages++
		}
	}

	return TaskListResponse{
		Tasks:      items,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
		TotalPages: totalPages,
	}
}

// ToHistoryDTO renders a history entry. A nil entry renders as nil.
func ToHistoryDTO(entry *models.TaskHistoryEntry) *HistoryDTO {
	if entry == nil {
		return nil
	}
	return &HistoryDTO{
		User:      entry.User.String(),
		CreatedAt: entry.CreatedAt,
		Text:      entry.Text,
	}
}

// ToHistoryListResponse converts a page of history entries
func ToHistoryListResponse(entries []models.TaskHistoryEntry, page, pageSize int, totalCount int64) HistoryListResponse {
	items := make([]HistoryDTO, len(entries))
	for i := range entries {
		items[i] = *ToHistoryDTO(&entries[i])
	}
	return HistoryListResponse{
		History:    items,
		Page:       page,
		PageSize:   pageSize,
		TotalCount: totalCount,
	}
}

// ToCommentDTO converts a comment to DTO
func ToCommentDTO(comment models.TaskComment) CommentDTO {
	dto := CommentDTO{
		ID:        comment.ID,
		TaskID:    comment.TaskID,
		Number:    comment.Number,
		Text:      comment.Text,
		CreatedAt: comment.CreatedAt,
		UpdatedAt: comment.UpdatedAt,
	}
	if comment.Creator.ID != 0 {
		creator := ToUserDTO(comment.Creator)
		dto.Creator = &creator
	}
	return dto
}

// ToCommentDTOs converts comments to DTOs
func ToCommentDTOs(comments []models.TaskComment) []CommentDTO {
	items := make([]CommentDTO, len(comments))
	for i, c := range comments {
		items[i] = ToCommentDTO(c)
	}
	return items
}

// ToTimeLogDTO converts a time log to DTO
func ToTimeLogDTO(log models.TaskTimeLog) TimeLogDTO {
	dto := TimeLogDTO{
		ID:          log.ID,
		TaskID:      log.TaskID,
		Number:      log.Number,
		Hours:       log.Hours,
		Description: log.Description,
		CreatedAt:   log.CreatedAt,
		UpdatedAt:   log.UpdatedAt,
	}
	if log.Creator.ID != 0 {
		creator := ToUserDTO(log.Creator)
		dto.Creator = &creator
	}
	return dto
}

// ToTimeLogListResponse converts time logs and their total
func ToTimeLogListResponse(logs []models.TaskTimeLog, total decimal.Decimal) TimeLogListResponse {
	items := make([]TimeLogDTO, len(logs))
	for i, l := range logs {
		items[i] = ToTimeLogDTO(l)
	}
	return TimeLogListResponse{TimeLogs: items, TotalHours: total}
}
