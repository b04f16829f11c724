package events_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/frahmantamala/crm-access/internal/core/events"
)

var _ = Describe("EventBus", func() {
	var bus *events.EventBus

	BeforeEach(func() {
		bus = events.NewEventBus(quietLogger())
	})

	newEvent := func() *events.TaskAssignedEvent {
		return events.NewTaskAssignedEvent(7, 30, 10, "Manager", "Employee", 2)
	}

	It("delivers to every subscriber of the event type", func() {
		var calls atomic.Int32
		for i := 0; i < 3; i++ {
			bus.Subscribe(events.EventTypeTaskAssigned, func(context.Context, events.Event) error {
				calls.Add(1)
				return nil
			})
		}
		bus.Subscribe("task.deleted", func(context.Context, events.Event) error {
			Fail("wrong event type delivered")
			return nil
		})

		Expect(bus.Publish(context.Background(), newEvent())).To(Succeed())
		Expect(bus.Drain(context.Background())).To(Succeed())
		Expect(calls.Load()).To(Equal(int32(3)))
	})

	It("survives a panicking handler", func() {
		var delivered atomic.Bool
		bus.Subscribe(events.EventTypeTaskAssigned, func(context.Context, events.Event) error {
			panic("boom")
		})
		bus.Subscribe(events.EventTypeTaskAssigned, func(context.Context, events.Event) error {
			delivered.Store(true)
			return nil
		})

		Expect(bus.Publish(context.Background(), newEvent())).To(Succeed())
		Expect(bus.Drain(context.Background())).To(Succeed())
		Expect(delivered.Load()).To(BeTrue())
	})

	It("stops draining when the context expires", func() {
		release := make(chan struct{})
		defer close(release)
		bus.Subscribe(events.EventTypeTaskAssigned, func(context.Context, events.Event) error {
			<-release
			return nil
		})

		Expect(bus.Publish(context.Background(), newEvent())).To(Succeed())

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()
		Expect(bus.Drain(ctx)).To(MatchError(context.DeadlineExceeded))
	})

	It("returns the first handler error from PublishSync", func() {
		bus.Subscribe(events.EventTypeTaskAssigned, func(context.Context, events.Event) error {
			return errors.New("sink unavailable")
		})

		err := bus.PublishSync(context.Background(), newEvent())

		Expect(err).To(MatchError(ContainSubstring("sink unavailable")))
	})

	It("turns a panic into an error on PublishSync", func() {
		bus.Subscribe(events.EventTypeTaskAssigned, func(context.Context, events.Event) error {
			panic("boom")
		})

		Expect(bus.PublishSync(context.Background(), newEvent())).To(MatchError(ContainSubstring("panicked")))
	})
})

var _ = Describe("AssignmentAuditLog", func() {
	It("writes the assignment as structured fields", func() {
		var out bytes.Buffer
		handler := events.AssignmentAuditLog(slog.New(slog.NewJSONHandler(&out, nil)))

		Expect(handler(context.Background(), events.NewTaskAssignedEvent(7, 30, 10, "Manager", "Employee", 2))).To(Succeed())

		Expect(out.String()).To(ContainSubstring(`"task_id":7`))
		Expect(out.String()).To(ContainSubstring(`"assigner_role":"Manager"`))
		Expect(out.String()).To(ContainSubstring(`"version":2`))
	})

	It("ignores events of other shapes", func() {
		handler := events.AssignmentAuditLog(quietLogger())

		Expect(handler(context.Background(), events.BaseEvent{Type: "other"})).To(Succeed())
	})
})
