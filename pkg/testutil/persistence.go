package testutil

import (
	"context"
	"sync"
	"testing"

	"github.com/dukex/flowbuilder/pkg/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// AssertPersistenceContract runs the behaviour every persistence backend must share.
func AssertPersistenceContract(t *testing.T, p persistence.Persistence) {
	t.Helper()

	ctx := context.Background()

	t.Run("health check", func(t *testing.T) {
		require.NoError(t, p.HealthCheck(ctx))
	})

	t.Run("get unknown key", func(t *testing.T) {
		_, err := p.Get(ctx, "never-written")
		require.Error(t, err)
		assert.True(t, persistence.IsNotFound(err))
	})

	t.Run("put then get", func(t *testing.T) {
		payload := []byte(`{"version":1,"nodes":[],"connections":[]}`)

		require.NoError(t, p.Put(ctx, "contract-put-get", payload))

		got, err := p.Get(ctx, "contract-put-get")
		require.NoError(t, err)
		assert.Equal(t, payload, got)
	})

	t.Run("last writer wins", func(t *testing.T) {
		require.NoError(t, p.Put(ctx, "contract-overwrite", []byte(`{"version":1}`)))
		require.NoError(t, p.Put(ctx, "contract-overwrite", []byte(`{"version":1,"nodes":[]}`)))

		got, err := p.Get(ctx, "contract-overwrite")
		require.NoError(t, err)
		assert.Equal(t, `{"version":1,"nodes":[]}`, string(got))
	})

	t.Run("invalid key", func(t *testing.T) {
		err := p.Put(ctx, "../escape", []byte(`{}`))
		require.Error(t, err)
		assert.ErrorIs(t, err, persistence.ErrInvalidKey)
	})

	t.Run("concurrent writers", func(t *testing.T) {
		payloads := [][]byte{
			[]byte(`{"writer":"a"}`),
			[]byte(`{"writer":"b"}`),
			[]byte(`{"writer":"c"}`),
		}

		var wg sync.WaitGroup
		for _, payload := range payloads {
			wg.Add(1)

			go func() {
				defer wg.Done()

				assert.NoError(t, p.Put(ctx, "contract-concurrent", payload))
			}()
		}

		wg.Wait()

		got, err := p.Get(ctx, "contract-concurrent")
		require.NoError(t, err)
		assert.Contains(t, payloads, got)
	})
}
