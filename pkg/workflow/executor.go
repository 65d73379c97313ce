// Package workflow runs workflow graphs and stores their snapshots.
package workflow

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"time"

	"github.com/dukex/flowbuilder/pkg/eventbus"
	"github.com/dukex/flowbuilder/pkg/events"
	"github.com/dukex/flowbuilder/pkg/graph"
	"github.com/dukex/flowbuilder/pkg/idgen"
	"github.com/dukex/flowbuilder/pkg/models"
	"github.com/dukex/flowbuilder/pkg/otelhelper"
	"github.com/dukex/flowbuilder/pkg/protocol"
	"github.com/dukex/flowbuilder/pkg/registry"
	"github.com/dukex/flowbuilder/pkg/validation"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Executor struct {
	registry  *registry.Registry
	validator *validation.Validator
	eventBus  eventbus.EventPublisher
	tracer    trace.Tracer
	logger    *slog.Logger
	ids       idgen.Generator
	now       func() time.Time
}

func NewExecutor(
	reg *registry.Registry,
	validator *validation.Validator,
	eventBus eventbus.EventPublisher,
	tracer trace.Tracer,
	logger *slog.Logger,
) *Executor {
	if tracer == nil {
		tracer = otelhelper.NoopTracer()
	}

	return &Executor{
		registry:  reg,
		validator: validator,
		eventBus:  eventBus,
		tracer:    tracer,
		logger:    logger.With("module", "workflow_executor"),
		ids:       idgen.UUID,
		now:       time.Now,
	}
}

type activation struct {
	nodeID string
	input  map[string]any
}

// Execute runs g with input as the payload emitted by the start node. Graphs
// with validation issues are refused with a *NotExecutableError before any
// step runs. Steps run breadth-first from start; each step receives its
// predecessor's output and fan-out hands the same output to every successor.
// The first failing step aborts the run; the returned run is then marked
// failed and the error is a *StepError.
func (e *Executor) Execute(ctx context.Context, workflowID string, g *graph.WorkflowGraph, input map[string]any) (*models.Run, error) {
	result := e.validator.Validate(g)
	if !result.Valid() {
		return nil, &NotExecutableError{Result: result}
	}

	run := &models.Run{
		ID:        e.ids(),
		Status:    models.RunStatusRunning,
		Input:     models.CloneParameters(input),
		Steps:     make([]models.StepResult, 0, g.NodeCount()),
		StartedAt: e.now(),
	}

	logger := e.logger.With("workflow_id", workflowID, "run_id", run.ID)

	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "workflow.execute",
		attribute.String(otelhelper.WorkflowIDKey, workflowID),
		attribute.String(otelhelper.RunIDKey, run.ID),
	)
	defer span.End()

	logger.InfoContext(ctx, "Starting workflow run")

	e.publish(ctx, workflowID, events.WorkflowExecutionStarted{
		BaseEvent: events.NewBaseEvent(events.WorkflowExecutionStartedEvent, workflowID),
		RunID:     run.ID,
		Input:     run.Input,
	})

	steps, err := e.instantiate(ctx, g)
	if err != nil {
		otelhelper.SetError(span, err)

		return e.fail(ctx, logger, workflowID, run, err), err
	}

	queue := []activation{{nodeID: g.StartID(), input: run.Input}}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		var output map[string]any

		switch current.nodeID {
		case g.StartID():
			output = current.input
		case g.EndID():
			run.Output = current.input

			continue
		default:
			output, err = e.runStep(ctx, logger, workflowID, run, steps[current.nodeID], current.input)
			if err != nil {
				otelhelper.SetError(span, err)

				return e.fail(ctx, logger, workflowID, run, err), err
			}
		}

		for _, next := range g.Successors(current.nodeID) {
			queue = append(queue, activation{nodeID: next, input: maps.Clone(output)})
		}
	}

	finished := e.now()
	run.Status = models.RunStatusCompleted
	run.FinishedAt = &finished

	logger.InfoContext(ctx, "Workflow run completed", "steps", len(run.Steps))

	e.publish(ctx, workflowID, events.WorkflowExecutionCompleted{
		BaseEvent:  events.NewBaseEvent(events.WorkflowExecutionCompletedEvent, workflowID),
		RunID:      run.ID,
		Output:     run.Output,
		DurationMs: finished.Sub(run.StartedAt).Milliseconds(),
	})

	return run, nil
}

// instantiate creates every executable step up front so a parameter error
// fails the run before any step has side effects.
func (e *Executor) instantiate(ctx context.Context, g *graph.WorkflowGraph) (map[string]protocol.Step, error) {
	steps := make(map[string]protocol.Step, g.NodeCount())

	for _, node := range g.Nodes() {
		if node.ID == g.StartID() || node.ID == g.EndID() {
			continue
		}

		step, err := e.registry.CreateStep(ctx, node.Kind, node.ID, node.Parameters)
		if err != nil {
			return nil, &StepError{NodeID: node.ID, Kind: node.Kind, Err: err}
		}

		steps[node.ID] = step
	}

	return steps, nil
}

func (e *Executor) runStep(
	ctx context.Context,
	logger *slog.Logger,
	workflowID string,
	run *models.Run,
	step protocol.Step,
	input map[string]any,
) (map[string]any, error) {
	ctx, span := otelhelper.StartSpan(ctx, e.tracer, "step.execute",
		attribute.String(otelhelper.StepIDKey, step.ID()),
		attribute.String(otelhelper.StepKindKey, string(step.Kind())),
	)
	defer span.End()

	stepResult := models.StepResult{
		NodeID:    step.ID(),
		Kind:      step.Kind(),
		StartedAt: e.now(),
	}

	var (
		output map[string]any
		err    error
	)

	if err = ctx.Err(); err == nil {
		output, err = step.Execute(ctx, input)
	}

	stepResult.Duration = e.now().Sub(stepResult.StartedAt)

	if err != nil {
		otelhelper.SetError(span, err, attribute.String(otelhelper.StepIDKey, step.ID()))

		stepResult.Status = models.StepStatusError
		stepResult.Error = err.Error()
	} else {
		stepResult.Status = models.StepStatusSuccess
		stepResult.Output = output
	}

	run.Steps = append(run.Steps, stepResult)

	logger.DebugContext(ctx, "Step finished", "node_id", step.ID(), "kind", step.Kind(), "status", stepResult.Status)

	e.publish(ctx, workflowID, events.StepCompleted{
		BaseEvent:  events.NewBaseEvent(events.StepCompletedEvent, workflowID),
		RunID:      run.ID,
		NodeID:     step.ID(),
		Kind:       step.Kind(),
		Status:     stepResult.Status,
		Error:      stepResult.Error,
		DurationMs: stepResult.Duration.Milliseconds(),
	})

	if err != nil {
		return nil, &StepError{NodeID: step.ID(), Kind: step.Kind(), Err: err}
	}

	return output, nil
}

func (e *Executor) fail(ctx context.Context, logger *slog.Logger, workflowID string, run *models.Run, err error) *models.Run {
	finished := e.now()
	run.Status = models.RunStatusFailed
	run.Error = err.Error()
	run.FinishedAt = &finished

	logger.ErrorContext(ctx, "Workflow run failed", "error", err)

	failed := events.WorkflowExecutionFailed{
		BaseEvent:  events.NewBaseEvent(events.WorkflowExecutionFailedEvent, workflowID),
		RunID:      run.ID,
		Error:      err.Error(),
		DurationMs: finished.Sub(run.StartedAt).Milliseconds(),
	}

	var stepErr *StepError
	if errors.As(err, &stepErr) {
		failed.NodeID = stepErr.NodeID
	}

	e.publish(ctx, workflowID, failed)

	return run
}

// publish logs publishing errors; lifecycle events never change a run's outcome.
func (e *Executor) publish(ctx context.Context, workflowID string, event eventbus.Event) {
	if e.eventBus == nil {
		return
	}

	err := e.eventBus.Publish(ctx, workflowID, event)
	if err != nil {
		e.logger.ErrorContext(ctx, "Failed to publish event", "event_type", event.GetType(), "error", err)
	}
}
