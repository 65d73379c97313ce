package workflow

import (
	"context"
	"fmt"

	"github.com/dukex/flowbuilder/pkg/graph"
	"github.com/dukex/flowbuilder/pkg/idgen"
	"github.com/dukex/flowbuilder/pkg/persistence"
	"github.com/dukex/flowbuilder/pkg/serializer"
)

// Repository stores serialized workflow snapshots.
type Repository struct {
	persistence persistence.Persistence
	serializer  *serializer.Serializer
	keys        idgen.Generator
}

func NewRepository(persistence persistence.Persistence, serializer *serializer.Serializer) *Repository {
	return &Repository{
		persistence: persistence,
		serializer:  serializer,
		keys:        idgen.UUID,
	}
}

func (r *Repository) HealthCheck(ctx context.Context) (string, bool) {
	if r.persistence == nil {
		return "Persistence layer not initialized", false
	}

	if err := r.persistence.HealthCheck(ctx); err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// Save stores a snapshot of g under a fresh key and returns the key.
func (r *Repository) Save(ctx context.Context, g *graph.WorkflowGraph) (string, error) {
	key := r.keys()

	if err := r.SaveAs(ctx, key, g); err != nil {
		return "", err
	}

	return key, nil
}

// SaveAs stores a snapshot of g under key, replacing any previous snapshot.
func (r *Repository) SaveAs(ctx context.Context, key string, g *graph.WorkflowGraph) error {
	payload, err := r.serializer.Serialize(g)
	if err != nil {
		return err
	}

	err = r.persistence.Put(ctx, key, payload)
	if err != nil {
		return fmt.Errorf("failed to store workflow snapshot: %w", err)
	}

	return nil
}

// Load decodes the snapshot stored under key into a new graph.
func (r *Repository) Load(ctx context.Context, key string) (*graph.WorkflowGraph, error) {
	payload, err := r.persistence.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to load workflow snapshot: %w", err)
	}

	return r.serializer.Deserialize(payload)
}
