// Package postgresql provides PostgreSQL persistence implementation for workflow snapshots.
package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/dukex/flowbuilder/pkg/persistence"
	"github.com/dukex/flowbuilder/pkg/persistence/sqlbase"
	_ "github.com/lib/pq"
)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewPersistence creates a new PostgreSQL persistence layer and brings the schema up to date.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		_ = database.Close()

		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())

	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		_ = database.Close()

		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return &Persistence{
		db:     database,
		logger: logger,
	}, nil
}

// Put upserts the payload. The single statement keeps writes whole.
func (p *Persistence) Put(ctx context.Context, key string, payload []byte) error {
	if err := persistence.ValidateKey(key); err != nil {
		return persistence.NewStoreError("Put", key, err)
	}

	query := `
		INSERT INTO workflow_snapshots (key, payload)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET
			payload = EXCLUDED.payload,
			updated_at = NOW()
	`

	_, err := p.db.ExecContext(ctx, query, key, payload)
	if err != nil {
		p.logger.ErrorContext(ctx, "Failed to save workflow snapshot", "key", key, "error", err)

		return persistence.NewStoreError("Put", key, fmt.Errorf("failed to save payload: %w", err))
	}

	return nil
}

func (p *Persistence) Get(ctx context.Context, key string) ([]byte, error) {
	var payload []byte

	err := p.db.QueryRowContext(ctx, "SELECT payload FROM workflow_snapshots WHERE key = $1", key).Scan(&payload)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, persistence.NewStoreError("Get", key, persistence.ErrNotFound)
		}

		return nil, persistence.NewStoreError("Get", key, fmt.Errorf("failed to load payload: %w", err))
	}

	return payload, nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// Close closes the database connection.
func (p *Persistence) Close(_ context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}
