package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/dukex/flowbuilder/pkg/channels/gochannel"
	"github.com/dukex/flowbuilder/pkg/eventbus"
	"github.com/dukex/flowbuilder/pkg/events"
	"github.com/dukex/flowbuilder/pkg/models"
	"github.com/dukex/flowbuilder/pkg/persistence/memory"
	"github.com/dukex/flowbuilder/pkg/registry"
	"github.com/dukex/flowbuilder/pkg/services"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestApp(t *testing.T) (*fiber.App, *eventbus.WatermillEventBus) {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)

	pub, sub, err := gochannel.CreateChannel(watermill.NopLogger{})
	require.NoError(t, err)

	bus := eventbus.NewWatermillEventBus(pub, sub)
	t.Cleanup(func() {
		_ = bus.Close()
	})

	api := NewAPI(logger, memory.NewPersistence(), registry.NewDefaultRegistry(logger), bus, nil)

	return api.App(), bus
}

func send(t *testing.T, app *fiber.App, method, path string, body any) (int, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewBuffer(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		err := resp.Body.Close()
		if err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp.StatusCode, respBody
}

func TestAPI_RootEndpoint(t *testing.T) {
	app, _ := setupTestApp(t)

	status, body := send(t, app, http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Flowbuilder API", string(body))
}

func TestAPI_HealthCheck(t *testing.T) {
	app, _ := setupTestApp(t)

	status, body := send(t, app, http.MethodGet, "/livez", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "OK", string(body))

	status, body = send(t, app, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Contains(t, string(body), "healthy")
}

func TestAPI_SavePublishesEvent(t *testing.T) {
	app, bus := setupTestApp(t)

	received := make(chan *events.WorkflowSaved, 1)
	require.NoError(t, bus.Handle(events.WorkflowSavedEvent, func(_ context.Context, event any) error {
		received <- event.(*events.WorkflowSaved)

		return nil
	}))
	require.NoError(t, bus.Subscribe(t.Context()))

	status, body := send(t, app, http.MethodPost, "/workflows", nil)
	require.Equal(t, http.StatusCreated, status)

	var created services.WorkflowView
	require.NoError(t, json.Unmarshal(body, &created))

	status, body = send(t, app, http.MethodPost, "/workflows/"+created.ID+"/save", nil)
	require.Equal(t, http.StatusCreated, status, string(body))

	var saved struct {
		Key string `json:"key"`
	}
	require.NoError(t, json.Unmarshal(body, &saved))

	select {
	case event := <-received:
		assert.Equal(t, created.ID, event.WorkflowID)
		assert.Equal(t, saved.Key, event.Key)
		assert.Equal(t, 2, event.NodeCount)
	case <-time.After(2 * time.Second):
		t.Fatal("workflow saved event was not delivered")
	}
}

func TestAPI_ExecuteConvertFormat(t *testing.T) {
	app, _ := setupTestApp(t)

	status, body := send(t, app, http.MethodPost, "/workflows", nil)
	require.Equal(t, http.StatusCreated, status)

	var created services.WorkflowView
	require.NoError(t, json.Unmarshal(body, &created))

	base := "/workflows/" + created.ID

	status, body = send(t, app, http.MethodPost, base+"/nodes", map[string]any{"kind": models.StepKindConvertFormat})
	require.Equal(t, http.StatusCreated, status, string(body))

	var node models.StepNode
	require.NoError(t, json.Unmarshal(body, &node))

	status, body = send(t, app, http.MethodPatch, base+"/nodes/"+node.ID, map[string]any{
		"parameters": map[string]any{"to": "yaml"},
	})
	require.Equal(t, http.StatusOK, status, string(body))

	for _, pair := range [][2]string{{created.StartID, node.ID}, {node.ID, created.EndID}} {
		status, body = send(t, app, http.MethodPost, base+"/connections", map[string]any{"source": pair[0], "target": pair[1]})
		require.Equal(t, http.StatusCreated, status, string(body))
	}

	status, body = send(t, app, http.MethodPost, base+"/execute", map[string]any{
		"input": map[string]any{"name": "flow"},
	})
	require.Equal(t, http.StatusOK, status, string(body))

	var run models.Run
	require.NoError(t, json.Unmarshal(body, &run))
	assert.Equal(t, models.RunStatusCompleted, run.Status)
	assert.Equal(t, "yaml", run.Output["format"])
	assert.Equal(t, "name: flow\n", run.Output["content"])
}
