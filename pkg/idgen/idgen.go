// Package idgen provides identifier generators. Callers must treat the
// generated identifiers as opaque strings.
package idgen

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"
)

// Generator returns a new identifier on every call.
type Generator func() string

// UUID generates random UUIDv4 identifiers.
func UUID() string {
	return uuid.New().String()
}

// Sequence returns a deterministic generator producing prefix-1, prefix-2, ...
// It is safe for concurrent use.
func Sequence(prefix string) Generator {
	var counter atomic.Uint64

	return func() string {
		return prefix + "-" + strconv.FormatUint(counter.Add(1), 10)
	}
}
