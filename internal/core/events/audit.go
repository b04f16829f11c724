package events

import (
	"context"
	"log/slog"
)

// AssignmentAuditLog returns a handler that writes one structured audit record
// per task assignment.
func AssignmentAuditLog(logger *slog.Logger) Handler {
	return func(ctx context.Context, event Event) error {
		e, ok := event.(*TaskAssignedEvent)
		if !ok {
			logger.WarnContext(ctx, "unexpected event on assignment audit log",
				"event_type", event.EventType(),
				"event_id", event.EventID())
			return nil
		}

		logger.InfoContext(ctx, "task assignment recorded",
			"event_id", e.ID,
			"task_id", e.TaskID,
			"assigned_to_id", e.AssignedToID,
			"assigned_by_id", e.AssignedByID,
			"assigner_role", e.AssignerRole,
			"assignee_role", e.AssigneeRole,
			"version", e.Version,
			"occurred_at", e.Timestamp)
		return nil
	}
}
