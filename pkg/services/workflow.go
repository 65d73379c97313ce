package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/dukex/flowbuilder/pkg/eventbus"
	"github.com/dukex/flowbuilder/pkg/events"
	"github.com/dukex/flowbuilder/pkg/graph"
	"github.com/dukex/flowbuilder/pkg/idgen"
	"github.com/dukex/flowbuilder/pkg/models"
	"github.com/dukex/flowbuilder/pkg/validation"
	"github.com/dukex/flowbuilder/pkg/workflow"
)

// WorkflowView is a read-only copy of a session's graph.
type WorkflowView struct {
	ID          string              `json:"id"`
	StartID     string              `json:"start_id"`
	EndID       string              `json:"end_id"`
	Nodes       []models.StepNode   `json:"nodes"`
	Connections []models.Connection `json:"connections"`
	CreatedAt   time.Time           `json:"created_at"`
}

// SaveResult reports where a snapshot was stored and whether the saved graph is executable.
type SaveResult struct {
	Key        string            `json:"key"`
	Validation validation.Result `json:"validation"`
}

// NodeUpdate carries the optional changes of UpdateNode.
type NodeUpdate struct {
	Position   *models.Position
	Parameters map[string]any
}

type session struct {
	mu        sync.Mutex
	graph     *graph.WorkflowGraph
	createdAt time.Time
}

// Workflow owns the editing sessions. Each session holds one graph guarded
// by its own mutex; sessions never share state.
type Workflow struct {
	builder    *graph.Builder
	validator  *validation.Validator
	repository *workflow.Repository
	executor   *workflow.Executor
	eventBus   eventbus.EventPublisher
	logger     *slog.Logger
	ids        idgen.Generator

	mu       sync.RWMutex
	sessions map[string]*session
}

// NewWorkflow creates a new workflow service.
func NewWorkflow(
	builder *graph.Builder,
	validator *validation.Validator,
	repository *workflow.Repository,
	executor *workflow.Executor,
	eventBus eventbus.EventPublisher,
	logger *slog.Logger,
) *Workflow {
	return &Workflow{
		builder:    builder,
		validator:  validator,
		repository: repository,
		executor:   executor,
		eventBus:   eventBus,
		logger:     logger.With("module", "workflow_service"),
		ids:        idgen.UUID,
		sessions:   make(map[string]*session),
	}
}

// HealthCheck checks the health of the persistence layer.
func (w *Workflow) HealthCheck(ctx context.Context) (string, bool) {
	return w.repository.HealthCheck(ctx)
}

// Create opens a session holding a new graph with only start and end.
func (w *Workflow) Create(ctx context.Context) (*WorkflowView, error) {
	g, err := w.builder.NewGraph()
	if err != nil {
		return nil, err
	}

	id := w.open(g)

	w.logger.InfoContext(ctx, "Workflow session created", "workflow_id", id)

	return w.Get(ctx, id)
}

// Get returns a copy of the session's graph.
func (w *Workflow) Get(_ context.Context, id string) (*WorkflowView, error) {
	s, err := w.session("get", id)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return view(id, s), nil
}

// Discard ends a session and drops its graph.
func (w *Workflow) Discard(ctx context.Context, id string) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.sessions[id]; !ok {
		return workflowNotFound("discard", id)
	}

	delete(w.sessions, id)

	w.logger.InfoContext(ctx, "Workflow session discarded", "workflow_id", id)

	return nil
}

func (w *Workflow) AddNode(_ context.Context, id string, kind models.StepKind, pos models.Position) (models.StepNode, error) {
	var node models.StepNode

	err := w.edit("add_node", id, func(g *graph.WorkflowGraph) error {
		var err error

		node, err = w.builder.AddNode(g, kind, pos)

		return err
	})

	return node, err
}

// UpdateNode moves a node and/or replaces its parameters. Both changes apply or neither does.
func (w *Workflow) UpdateNode(_ context.Context, id, nodeID string, update NodeUpdate) (models.StepNode, error) {
	var node models.StepNode

	err := w.edit("update_node", id, func(g *graph.WorkflowGraph) error {
		current, _ := g.Node(nodeID)

		pos := current.Position
		if update.Position != nil {
			pos = *update.Position
		}

		if err := w.builder.MoveNode(g, nodeID, pos); err != nil {
			return err
		}

		if update.Parameters != nil {
			if err := w.builder.SetParameters(g, nodeID, update.Parameters); err != nil {
				// the previous position is finite, so moving back cannot fail
				_ = w.builder.MoveNode(g, nodeID, current.Position)

				return err
			}
		}

		node, _ = g.Node(nodeID)

		return nil
	})

	return node, err
}

func (w *Workflow) RemoveNode(_ context.Context, id, nodeID string) error {
	return w.edit("remove_node", id, func(g *graph.WorkflowGraph) error {
		return w.builder.RemoveNode(g, nodeID)
	})
}

func (w *Workflow) Connect(_ context.Context, id, source, target string) (models.Connection, error) {
	var conn models.Connection

	err := w.edit("connect", id, func(g *graph.WorkflowGraph) error {
		var err error

		conn, err = w.builder.Connect(g, source, target)

		return err
	})

	return conn, err
}

func (w *Workflow) Disconnect(_ context.Context, id, connectionID string) error {
	return w.edit("disconnect", id, func(g *graph.WorkflowGraph) error {
		return w.builder.Disconnect(g, connectionID)
	})
}

// Validate returns the validation result of the session's graph.
func (w *Workflow) Validate(_ context.Context, id string) (validation.Result, error) {
	var result validation.Result

	err := w.edit("validate", id, func(g *graph.WorkflowGraph) error {
		result = w.validator.Validate(g)

		return nil
	})

	return result, err
}

// Save stores a snapshot of the session's graph under a fresh key. Graphs
// with validation issues are saved too; the result reports the issues.
func (w *Workflow) Save(ctx context.Context, id string) (*SaveResult, error) {
	var (
		result *SaveResult
		counts [2]int
	)

	err := w.edit("save", id, func(g *graph.WorkflowGraph) error {
		key, err := w.repository.Save(ctx, g)
		if err != nil {
			return err
		}

		result = &SaveResult{Key: key, Validation: w.validator.Validate(g)}
		counts = [2]int{g.NodeCount(), g.ConnectionCount()}

		return nil
	})
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to save workflow", "workflow_id", id, "error", err)

		return nil, err
	}

	w.logger.InfoContext(ctx, "Workflow saved", "workflow_id", id, "key", result.Key)

	if w.eventBus != nil {
		err = w.eventBus.Publish(ctx, id, events.WorkflowSaved{
			BaseEvent:       events.NewBaseEvent(events.WorkflowSavedEvent, id),
			Key:             result.Key,
			NodeCount:       counts[0],
			ConnectionCount: counts[1],
		})
		if err != nil {
			w.logger.ErrorContext(ctx, "Failed to publish workflow saved event", "workflow_id", id, "error", err)
		}
	}

	return result, nil
}

// Load opens a new session from the snapshot stored under key.
func (w *Workflow) Load(ctx context.Context, key string) (*WorkflowView, error) {
	g, err := w.repository.Load(ctx, key)
	if err != nil {
		return nil, err
	}

	id := w.open(g)

	w.logger.InfoContext(ctx, "Workflow loaded", "workflow_id", id, "key", key)

	return w.Get(ctx, id)
}

// Execute runs a copy of the session's graph, so editing can continue while it runs.
func (w *Workflow) Execute(ctx context.Context, id string, input map[string]any) (*models.Run, error) {
	var snapshot *graph.WorkflowGraph

	err := w.edit("execute", id, func(g *graph.WorkflowGraph) error {
		snapshot = g.Clone()

		return nil
	})
	if err != nil {
		return nil, err
	}

	return w.executor.Execute(ctx, id, snapshot, input)
}

func (w *Workflow) open(g *graph.WorkflowGraph) string {
	w.mu.Lock()
	defer w.mu.Unlock()

	id := w.ids()
	for _, taken := w.sessions[id]; taken; _, taken = w.sessions[id] {
		id = w.ids()
	}

	w.sessions[id] = &session{graph: g, createdAt: time.Now().UTC()}

	return id
}

func (w *Workflow) session(op, id string) (*session, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()

	s, ok := w.sessions[id]
	if !ok {
		return nil, workflowNotFound(op, id)
	}

	return s, nil
}

// edit runs fn with exclusive access to the session's graph.
func (w *Workflow) edit(op, id string, fn func(g *graph.WorkflowGraph) error) error {
	s, err := w.session(op, id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return fn(s.graph)
}

func view(id string, s *session) *WorkflowView {
	return &WorkflowView{
		ID:          id,
		StartID:     s.graph.StartID(),
		EndID:       s.graph.EndID(),
		Nodes:       s.graph.Nodes(),
		Connections: s.graph.Connections(),
		CreatedAt:   s.createdAt,
	}
}
