package main

import (
	"context"
	"log/slog"

	"github.com/dukex/flowbuilder/pkg/eventbus"
	"github.com/dukex/flowbuilder/pkg/events"
)

var loggedEvents = []events.EventType{
	events.WorkflowSavedEvent,
	events.WorkflowExecutionStartedEvent,
	events.WorkflowExecutionCompletedEvent,
	events.WorkflowExecutionFailedEvent,
	events.StepCompletedEvent,
}

// subscribeEventLog logs every lifecycle event received from the bus.
func subscribeEventLog(ctx context.Context, bus eventbus.EventSubscriber, logger *slog.Logger) error {
	for _, eventType := range loggedEvents {
		err := bus.Handle(eventType, func(ctx context.Context, event any) error {
			logger.DebugContext(ctx, "Received event", "event_type", eventType, "event", event)

			return nil
		})
		if err != nil {
			return err
		}
	}

	return bus.Subscribe(ctx)
}
