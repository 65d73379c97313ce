// Package wait provides the wait step implementation for workflow execution.
package wait

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dukex/flowbuilder/pkg/models"
	"github.com/robfig/cron/v3"
)

// WaitNode delays the workflow and forwards its input unchanged.
type WaitNode struct {
	id       string
	duration time.Duration
	schedule cron.Schedule
	now      func() time.Time
}

// NewWaitNode creates a new wait step. Exactly one of 'duration' or 'cron'
// must be configured.
func NewWaitNode(id string, params map[string]any) (*WaitNode, error) {
	durationStr, hasDuration := params["duration"].(string)
	cronExpr, hasCron := params["cron"].(string)

	node := &WaitNode{id: id, now: time.Now}

	switch {
	case hasDuration && hasCron:
		return nil, errors.New("only one of 'duration' or 'cron' can be set")
	case hasDuration:
		duration, err := time.ParseDuration(durationStr)
		if err != nil {
			return nil, fmt.Errorf("invalid duration '%s': %w", durationStr, err)
		}

		if duration < 0 {
			return nil, fmt.Errorf("duration '%s' must not be negative", durationStr)
		}

		node.duration = duration
	case hasCron:
		schedule, err := cron.ParseStandard(cronExpr)
		if err != nil {
			return nil, fmt.Errorf("invalid cron expression '%s': %w", cronExpr, err)
		}

		node.schedule = schedule
	default:
		return nil, errors.New("missing required field 'duration' or 'cron'")
	}

	return node, nil
}

// ID returns the node ID.
func (n *WaitNode) ID() string {
	return n.id
}

// Kind returns the step kind.
func (n *WaitNode) Kind() models.StepKind {
	return models.StepKindWait
}

// Delay returns how long the step waits when started now.
func (n *WaitNode) Delay() time.Duration {
	if n.schedule == nil {
		return n.duration
	}

	now := n.now()

	return n.schedule.Next(now).Sub(now)
}

// Execute blocks until the delay elapses or the context is done.
func (n *WaitNode) Execute(ctx context.Context, input map[string]any) (map[string]any, error) {
	delay := n.Delay()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("wait interrupted: %w", ctx.Err())
		case <-timer.C:
		}
	}

	return models.CloneParameters(input), nil
}
