// Package memory provides an in-process persistence implementation.
package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/dukex/flowbuilder/pkg/persistence"
)

// Persistence keeps payloads in a map. Contents are lost on exit.
type Persistence struct {
	mu       sync.RWMutex
	payloads map[string][]byte
}

func NewPersistence() *Persistence {
	return &Persistence{payloads: make(map[string][]byte)}
}

func (p *Persistence) Put(_ context.Context, key string, payload []byte) error {
	if err := persistence.ValidateKey(key); err != nil {
		return persistence.NewStoreError("Put", key, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.payloads[key] = slices.Clone(payload)

	return nil
}

func (p *Persistence) Get(_ context.Context, key string) ([]byte, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	payload, ok := p.payloads[key]
	if !ok {
		return nil, persistence.NewStoreError("Get", key, persistence.ErrNotFound)
	}

	return slices.Clone(payload), nil
}

func (p *Persistence) HealthCheck(_ context.Context) error {
	return nil
}

func (p *Persistence) Close(_ context.Context) error {
	return nil
}
