package task

import (
	"time"

	taskDatamodel "github.com/frahmantamala/crm-access/internal/core/datamodel/task"
)

type Task struct {
	ID           int64      `json:"id"`
	Title        string     `json:"title"`
	Description  string     `json:"description,omitempty"`
	Status       string     `json:"status"`
	AssignedToID *int64     `json:"assigned_to_id,omitempty"`
	AssignedByID *int64     `json:"assigned_by_id,omitempty"`
	CreatedByID  int64      `json:"created_by_id"`
	DueDate      *time.Time `json:"due_date,omitempty"`
	Version      int64      `json:"version"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

const (
	StatusOpen       = "open"
	StatusInProgress = "in_progress"
	StatusDone       = "done"
)

// NewTask builds an open task owned by creatorID. Without an explicit
// assignee the creator assigns it to themself.
func NewTask(creatorID int64, dto CreateTaskDTO) *Task {
	now := time.Now()
	assignee := creatorID
	if dto.AssignedToID != nil {
		assignee = *dto.AssignedToID
	}
	assigner := creatorID

	return &Task{
		Title:        dto.Title,
		Description:  dto.Description,
		Status:       StatusOpen,
		AssignedToID: &assignee,
		AssignedByID: &assigner,
		CreatedByID:  creatorID,
		DueDate:      dto.DueDate,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func ToDataModel(t *Task) *taskDatamodel.Task {
	return &taskDatamodel.Task{
		ID:           t.ID,
		Title:        t.Title,
		Description:  t.Description,
		Status:       t.Status,
		AssignedToID: t.AssignedToID,
		AssignedByID: t.AssignedByID,
		CreatedByID:  t.CreatedByID,
		DueDate:      t.DueDate,
		Version:      t.Version,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

func FromDataModel(t *taskDatamodel.Task) *Task {
	return &Task{
		ID:           t.ID,
		Title:        t.Title,
		Description:  t.Description,
		Status:       t.Status,
		AssignedToID: t.AssignedToID,
		AssignedByID: t.AssignedByID,
		CreatedByID:  t.CreatedByID,
		DueDate:      t.DueDate,
		Version:      t.Version,
		CreatedAt:    t.CreatedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

func FromDataModelSlice(tasks []*taskDatamodel.Task) []*Task {
	result := make([]*Task, len(tasks))
	for i, t := range tasks {
		result[i] = FromDataModel(t)
	}
	return result
}
