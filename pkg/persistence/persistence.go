// Package persistence provides the storage abstraction for serialized workflow snapshots.
package persistence

import (
	"context"
)

// Persistence stores whole workflow payloads by key. Put replaces any
// previous payload atomically: readers see either the old or the new
// payload, never a partial one. Last writer wins.
type Persistence interface {
	Put(ctx context.Context, key string, payload []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}
