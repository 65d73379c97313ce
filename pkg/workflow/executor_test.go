package workflow

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dukex/flowbuilder/pkg/events"
	"github.com/dukex/flowbuilder/pkg/graph"
	"github.com/dukex/flowbuilder/pkg/idgen"
	"github.com/dukex/flowbuilder/pkg/mocks"
	"github.com/dukex/flowbuilder/pkg/models"
	"github.com/dukex/flowbuilder/pkg/registry"
	"github.com/dukex/flowbuilder/pkg/testutil"
	"github.com/dukex/flowbuilder/pkg/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newTestExecutor(t *testing.T) (*Executor, *mocks.MockEventBus, *graph.Builder) {
	t.Helper()

	reg := testutil.NewTestRegistry()
	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	executor := NewExecutor(reg, validation.NewValidator(reg), bus, nil, slog.New(slog.DiscardHandler))
	executor.ids = idgen.Sequence("run")

	return executor, bus, graph.NewBuilder(reg, idgen.Sequence("id"))
}

func eventTypes(bus *mocks.MockEventBus) []events.EventType {
	types := make([]events.EventType, 0)
	for _, event := range bus.PublishedEvents() {
		types = append(types, event.GetType())
	}

	return types
}

func TestExecutor_FilterChain(t *testing.T) {
	executor, bus, b := newTestExecutor(t)

	g, ids := testutil.ChainGraph(t, b, models.StepKindFilterData)
	require.NoError(t, b.SetParameters(g, ids[0], map[string]any{
		"field":    "age",
		"operator": "gt",
		"value":    18,
	}))

	input := map[string]any{
		"items": []any{
			map[string]any{"name": "ada", "age": 36},
			map[string]any{"name": "bob", "age": 12},
		},
	}

	run, err := executor.Execute(context.Background(), "wf-1", g, input)
	require.NoError(t, err)

	assert.Equal(t, "run-1", run.ID)
	assert.Equal(t, models.RunStatusCompleted, run.Status)
	assert.NotNil(t, run.FinishedAt)
	assert.Empty(t, run.Error)

	require.Len(t, run.Steps, 1)
	assert.Equal(t, ids[0], run.Steps[0].NodeID)
	assert.Equal(t, models.StepStatusSuccess, run.Steps[0].Status)

	assert.Equal(t, []any{map[string]any{"name": "ada", "age": 36}}, run.Output["items"])
	assert.Equal(t, 1, run.Output["matched"])

	assert.Equal(t, []events.EventType{
		events.WorkflowExecutionStartedEvent,
		events.StepCompletedEvent,
		events.WorkflowExecutionCompletedEvent,
	}, eventTypes(bus))
}

func TestExecutor_RefusesInvalidGraph(t *testing.T) {
	executor, bus, b := newTestExecutor(t)

	g := testutil.NewTestGraph(t, b)
	testutil.AddTestNode(t, b, g, models.StepKindFilterData, testutil.WithParameters(map[string]any{"field": "a"}))

	run, err := executor.Execute(context.Background(), "wf-1", g, nil)
	require.Error(t, err)
	assert.Nil(t, run)
	assert.True(t, IsNotExecutable(err))

	var notExecutable *NotExecutableError
	require.ErrorAs(t, err, &notExecutable)
	assert.Len(t, notExecutable.Result.Issues, 2)

	bus.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestExecutor_SendPostRequest(t *testing.T) {
	var received map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.NoError(t, json.Unmarshal(body, &received))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	executor, _, b := newTestExecutor(t)

	g, ids := testutil.ChainGraph(t, b, models.StepKindFilterData, models.StepKindSendPostRequest)
	require.NoError(t, b.SetParameters(g, ids[0], map[string]any{"field": "active", "operator": "eq", "value": true}))
	require.NoError(t, b.SetParameters(g, ids[1], map[string]any{"url": server.URL}))

	run, err := executor.Execute(context.Background(), "wf-1", g, map[string]any{
		"items": []any{
			map[string]any{"id": "1", "active": true},
			map[string]any{"id": "2", "active": false},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, map[string]any{
		"items":   []any{map[string]any{"id": "1", "active": true}},
		"matched": float64(1),
	}, received)

	assert.Equal(t, http.StatusOK, run.Output["status_code"])
	assert.Equal(t, map[string]any{"ok": true}, run.Output["json"])
	assert.Len(t, run.Steps, 2)
}

func TestExecutor_StepFailureAbortsRun(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	executor, bus, b := newTestExecutor(t)

	g, ids := testutil.ChainGraph(t, b, models.StepKindSendPostRequest, models.StepKindConvertFormat)
	require.NoError(t, b.SetParameters(g, ids[0], map[string]any{"url": server.URL}))
	require.NoError(t, b.SetParameters(g, ids[1], map[string]any{"to": "yaml"}))

	run, err := executor.Execute(context.Background(), "wf-1", g, map[string]any{"a": 1})
	require.Error(t, err)

	var stepErr *StepError
	require.ErrorAs(t, err, &stepErr)
	assert.Equal(t, ids[0], stepErr.NodeID)

	require.NotNil(t, run)
	assert.Equal(t, models.RunStatusFailed, run.Status)
	assert.NotEmpty(t, run.Error)
	require.Len(t, run.Steps, 1, "steps after the failure must not run")
	assert.Equal(t, models.StepStatusError, run.Steps[0].Status)

	assert.Equal(t, []events.EventType{
		events.WorkflowExecutionStartedEvent,
		events.StepCompletedEvent,
		events.WorkflowExecutionFailedEvent,
	}, eventTypes(bus))

	published := bus.PublishedEvents()
	failed, ok := published[2].(events.WorkflowExecutionFailed)
	require.True(t, ok)
	assert.Equal(t, ids[0], failed.NodeID)
}

func TestExecutor_InvalidParametersRunNoStep(t *testing.T) {
	executor, _, b := newTestExecutor(t)

	g, ids := testutil.ChainGraph(t, b, models.StepKindConvertFormat, models.StepKindWait)
	require.NoError(t, b.SetParameters(g, ids[0], map[string]any{"to": "json"}))

	run, err := executor.Execute(context.Background(), "wf-1", g, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, registry.ErrInvalidParameters)

	require.NotNil(t, run)
	assert.Equal(t, models.RunStatusFailed, run.Status)
	assert.Empty(t, run.Steps)
}

func TestExecutor_Cancelled(t *testing.T) {
	executor, _, b := newTestExecutor(t)

	g, ids := testutil.ChainGraph(t, b, models.StepKindWait)
	require.NoError(t, b.SetParameters(g, ids[0], map[string]any{"duration": "1h"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	run, err := executor.Execute(ctx, "wf-1", g, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, models.RunStatusFailed, run.Status)
}

func TestExecutor_ConvertOutput(t *testing.T) {
	executor, _, b := newTestExecutor(t)

	g, ids := testutil.ChainGraph(t, b, models.StepKindConvertFormat)
	require.NoError(t, b.SetParameters(g, ids[0], map[string]any{"to": "json"}))

	run, err := executor.Execute(context.Background(), "wf-1", g, map[string]any{"a": "b"})
	require.NoError(t, err)

	assert.Equal(t, "json", run.Output["format"])
	assert.JSONEq(t, `{"a":"b"}`, run.Output["content"].(string))
	assert.Equal(t, map[string]any{"a": "b"}, run.Input)
}

func TestExecutor_Spans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))

	reg := testutil.NewTestRegistry()
	executor := NewExecutor(reg, validation.NewValidator(reg), nil, provider.Tracer("test"), slog.New(slog.DiscardHandler))
	b := graph.NewBuilder(reg, idgen.Sequence("id"))

	g, ids := testutil.ChainGraph(t, b, models.StepKindConvertFormat)
	require.NoError(t, b.SetParameters(g, ids[0], map[string]any{"to": "yaml"}))

	_, err := executor.Execute(context.Background(), "wf-1", g, map[string]any{"a": 1})
	require.NoError(t, err)

	names := make([]string, 0)
	for _, span := range recorder.Ended() {
		names = append(names, span.Name())
	}

	assert.ElementsMatch(t, []string{"workflow.execute", "step.execute"}, names)
}
