// Package file provides file-based persistence implementation for workflow snapshots.
package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dukex/flowbuilder/pkg/persistence"
)

const workflowsDir = "workflows"

// Persistence implements the persistence.Persistence interface using the file
// system. Each payload lives in <root>/workflows/<key>.json.
type Persistence struct {
	root string
}

// NewPersistence creates a new instance of Persistence with the specified root directory.
func NewPersistence(root string) *Persistence {
	return &Persistence{root: strings.Replace(root, "file://", "", 1)}
}

// Put writes the payload to a temporary file and renames it into place, so
// readers never observe a partially written file.
func (fp *Persistence) Put(_ context.Context, key string, payload []byte) error {
	if err := persistence.ValidateKey(key); err != nil {
		return persistence.NewStoreError("Put", key, err)
	}

	dir := filepath.Join(fp.root, workflowsDir)

	err := os.MkdirAll(dir, 0o750)
	if err != nil {
		return persistence.NewStoreError("Put", key, fmt.Errorf("failed to create workflows directory: %w", err))
	}

	tmp, err := os.CreateTemp(dir, "."+key+".*.tmp")
	if err != nil {
		return persistence.NewStoreError("Put", key, fmt.Errorf("failed to create temporary file: %w", err))
	}

	_, err = tmp.Write(payload)
	if err == nil {
		err = tmp.Sync()
	}

	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}

	if err != nil {
		_ = os.Remove(tmp.Name())

		return persistence.NewStoreError("Put", key, fmt.Errorf("failed to write payload: %w", err))
	}

	err = os.Rename(tmp.Name(), fp.path(key))
	if err != nil {
		_ = os.Remove(tmp.Name())

		return persistence.NewStoreError("Put", key, fmt.Errorf("failed to move payload into place: %w", err))
	}

	return nil
}

func (fp *Persistence) Get(_ context.Context, key string) ([]byte, error) {
	if err := persistence.ValidateKey(key); err != nil {
		return nil, persistence.NewStoreError("Get", key, persistence.ErrNotFound)
	}

	payload, err := os.ReadFile(fp.path(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, persistence.NewStoreError("Get", key, persistence.ErrNotFound)
		}

		return nil, persistence.NewStoreError("Get", key, fmt.Errorf("failed to read payload: %w", err))
	}

	return payload, nil
}

// HealthCheck checks if the file persistence layer is healthy by verifying the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	info, err := os.Stat(fp.root)
	if err != nil {
		return fmt.Errorf("persistence root %s is not available: %w", fp.root, err)
	}

	if !info.IsDir() {
		return fmt.Errorf("persistence root %s is not a directory", fp.root)
	}

	return nil
}

// Close performs any necessary cleanup. For file-based persistence, there is nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

func (fp *Persistence) path(key string) string {
	return filepath.Join(fp.root, workflowsDir, key+".json")
}
