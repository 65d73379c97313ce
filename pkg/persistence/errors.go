// Package persistence provides standardized error types for persistence operations.
package persistence

import (
	"errors"
	"fmt"
	"regexp"
)

// Standard persistence error types that all implementations should use.
var (
	// ErrNotFound indicates no payload is stored under the given key.
	ErrNotFound = errors.New("workflow payload not found")

	// ErrInvalidKey indicates a key that cannot be used by every backend.
	ErrInvalidKey = errors.New("invalid storage key")
)

const maxKeyLength = 128

var keyPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._-]*$`)

// StoreError wraps storage errors with additional context.
type StoreError struct {
	Op  string // Operation being performed (e.g., "Get", "Put")
	Key string // Storage key
	Err error  // Underlying error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s operation failed for key %s: %v", e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is implements error comparison for store errors.
func (e *StoreError) Is(target error) bool {
	return errors.Is(e.Err, target)
}

// NewStoreError creates a new store error with context.
func NewStoreError(op, key string, err error) *StoreError {
	return &StoreError{
		Op:  op,
		Key: key,
		Err: err,
	}
}

// IsNotFound checks if an error indicates a missing payload.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// ValidateKey checks that key is safe as a file name, Redis key suffix and SQL value.
func ValidateKey(key string) error {
	if len(key) > maxKeyLength || !keyPattern.MatchString(key) {
		return fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}

	return nil
}
