// Package redis provides Redis persistence implementation for workflow snapshots.
package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dukex/flowbuilder/pkg/persistence"
	goredis "github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces workflow payloads in a shared Redis database.
const DefaultKeyPrefix = "flowbuilder:workflow:"

const connectTimeout = 5 * time.Second

// Persistence stores payloads as plain Redis strings. SET replaces the whole
// value in one step, which gives the last-writer-wins semantics required.
type Persistence struct {
	client goredis.UniversalClient
	logger *slog.Logger
	prefix string
}

// NewPersistence connects to the Redis server named by databaseURL
// (redis://[user:password@]host:port/db).
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	opts, err := goredis.ParseURL(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}

	client := goredis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	err = client.Ping(pingCtx).Err()
	if err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.InfoContext(ctx, "Connected to Redis", "addr", opts.Addr, "db", opts.DB)

	return NewPersistenceWithClient(client, logger, DefaultKeyPrefix), nil
}

// NewPersistenceWithClient wraps an existing client.
func NewPersistenceWithClient(client goredis.UniversalClient, logger *slog.Logger, prefix string) *Persistence {
	return &Persistence{
		client: client,
		logger: logger,
		prefix: prefix,
	}
}

func (p *Persistence) Put(ctx context.Context, key string, payload []byte) error {
	if err := persistence.ValidateKey(key); err != nil {
		return persistence.NewStoreError("Put", key, err)
	}

	err := p.client.Set(ctx, p.prefix+key, payload, 0).Err()
	if err != nil {
		return persistence.NewStoreError("Put", key, fmt.Errorf("failed to store payload: %w", err))
	}

	return nil
}

func (p *Persistence) Get(ctx context.Context, key string) ([]byte, error) {
	payload, err := p.client.Get(ctx, p.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, persistence.NewStoreError("Get", key, persistence.ErrNotFound)
		}

		return nil, persistence.NewStoreError("Get", key, fmt.Errorf("failed to load payload: %w", err))
	}

	return payload, nil
}

// HealthCheck pings the Redis server.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.client.Ping(ctx).Err()
	if err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}

	return nil
}

// Close closes the Redis client.
func (p *Persistence) Close(ctx context.Context) error {
	err := p.client.Close()
	if err != nil {
		p.logger.ErrorContext(ctx, "Error closing Redis client", "error", err)

		return fmt.Errorf("failed to close Redis client: %w", err)
	}

	return nil
}
