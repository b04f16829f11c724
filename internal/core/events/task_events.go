package events

import (
	"time"

	"github.com/google/uuid"
)

const (
	EventTypeTaskAssigned = "task.assigned"
)

type TaskAssignedEvent struct {
	BaseEvent
	TaskID       int64  `json:"task_id"`
	AssignedToID int64  `json:"assigned_to_id"`
	AssignedByID int64  `json:"assigned_by_id"`
	AssignerRole string `json:"assigner_role"`
	AssigneeRole string `json:"assignee_role"`
	Version      int64  `json:"version"`
}

func NewTaskAssignedEvent(taskID, assignedToID, assignedByID int64, assignerRole, assigneeRole string, version int64) *TaskAssignedEvent {
	return &TaskAssignedEvent{
		BaseEvent: BaseEvent{
			ID:        uuid.New().String(),
			Type:      EventTypeTaskAssigned,
			Timestamp: time.Now(),
			Data: map[string]interface{}{
				"task_id":        taskID,
				"assigned_to_id": assignedToID,
				"assigned_by_id": assignedByID,
				"assigner_role":  assignerRole,
				"assignee_role":  assigneeRole,
				"version":        version,
			},
		},
		TaskID:       taskID,
		AssignedToID: assignedToID,
		AssignedByID: assignedByID,
		AssignerRole: assignerRole,
		AssigneeRole: assigneeRole,
		Version:      version,
	}
}
