package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/frahmantamala/crm-access/internal/core/events"
	"github.com/frahmantamala/crm-access/pkg/logger"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event management commands",
	Long:  `Publish test events through the in-process bus and its registered handlers`,
}

var publishEventCmd = &cobra.Command{
	Use:   "publish",
	Short: "Publish a test task.assigned event",
	Long:  `Publish a task.assigned event to the audit log handler for testing and debugging`,
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		publishTestEvent()
	},
}

var (
	eventTaskID     int64
	eventAssigneeID int64
	eventAssignerID int64
)

func publishTestEvent() {
	lg := logger.LoggerWrapper()

	bus := events.NewEventBus(lg)
	bus.Subscribe(events.EventTypeTaskAssigned, events.AssignmentAuditLog(lg))

	event := events.NewTaskAssignedEvent(eventTaskID, eventAssigneeID, eventAssignerID, "Manager", "Employee", 1)
	lg.Info("publishing test event", "event_type", event.EventType(), "event_id", event.EventID())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := bus.Publish(ctx, event); err != nil {
		lg.Error("failed to publish event", "error", err)
		return
	}
	if err := bus.Drain(ctx); err != nil {
		lg.Error("handlers did not finish", "error", err)
		return
	}
	lg.Info("test event published successfully")
}

func init() {
	publishEventCmd.Flags().Int64Var(&eventTaskID, "task", 1, "Task id carried by the event")
	publishEventCmd.Flags().Int64Var(&eventAssigneeID, "assignee", 2, "Assignee user id")
	publishEventCmd.Flags().Int64Var(&eventAssignerID, "assigner", 1, "Assigner user id")

	eventCmd.AddCommand(publishEventCmd)

	rootCmd.AddCommand(eventCmd)
}
