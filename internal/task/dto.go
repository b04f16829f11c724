package task

import (
	"strings"
	"time"

	"github.com/frahmantamala/crm-access/internal"
	"github.com/frahmantamala/crm-access/internal/core/common/validation"
)

const maxTitleLength = 255

// CreateTaskDTO represents the request payload for creating a task
type CreateTaskDTO struct {
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	AssignedToID *int64     `json:"assigned_to_id,omitempty"`
	DueDate      *time.Time `json:"due_date,omitempty"`
}

func (dto *CreateTaskDTO) Validate() error {
	dto.Title = strings.TrimSpace(dto.Title)

	v := validation.NewValidator()
	v.Field("title", dto.Title).Required().MaxLength(maxTitleLength, internal.ErrCodeInvalidTitle)
	v.Field("assigned_to_id", dto.AssignedToID).Positive()
	return v.Validate()
}

// AssignTaskDTO carries the new assignee. Version is optional; when present
// the write only succeeds if the task is still at that version.
type AssignTaskDTO struct {
	AssigneeID int64  `json:"assignee_id"`
	Version    *int64 `json:"version,omitempty"`
}

func (dto AssignTaskDTO) Validate() error {
	v := validation.NewValidator()
	v.Field("assignee_id", dto.AssigneeID).Required().Positive()
	v.Field("version", dto.Version).Positive()
	return v.Validate()
}

type ListTasksResponse struct {
	Tasks  []*Task `json:"tasks"`
	Total  int64   `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}

type AssignTaskResponse struct {
	Task         *Task  `json:"task"`
	AssignerRole string `json:"assignerRole"`
	AssigneeRole string `json:"assigneeRole"`
}
