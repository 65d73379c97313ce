package main

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/dukex/flowbuilder/pkg/events"
	"github.com/dukex/flowbuilder/pkg/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestSubscribeEventLog(t *testing.T) {
	ctx := context.Background()
	logger := slog.New(slog.DiscardHandler)

	bus := &mocks.MockEventBus{}
	bus.On("Handle", mock.Anything, mock.Anything).Return(nil)
	bus.On("Subscribe", ctx).Return(nil).Once()

	assert.NoError(t, subscribeEventLog(ctx, bus, logger))

	bus.AssertNumberOfCalls(t, "Handle", len(loggedEvents))
	bus.AssertCalled(t, "Handle", events.WorkflowSavedEvent, mock.Anything)
	bus.AssertExpectations(t)
}

func TestSubscribeEventLog_HandleError(t *testing.T) {
	bus := &mocks.MockEventBus{}
	bus.On("Handle", mock.Anything, mock.Anything).Return(errors.New("rejected"))

	err := subscribeEventLog(context.Background(), bus, slog.New(slog.DiscardHandler))
	assert.EqualError(t, err, "rejected")

	bus.AssertNotCalled(t, "Subscribe", mock.Anything)
}
