package memory_test

import (
	"context"
	"testing"

	"github.com/dukex/flowbuilder/pkg/persistence/memory"
	"github.com/dukex/flowbuilder/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersistence_Contract(t *testing.T) {
	testutil.AssertPersistenceContract(t, memory.NewPersistence())
}

func TestPersistence_CopiesPayload(t *testing.T) {
	ctx := context.Background()
	p := memory.NewPersistence()

	payload := []byte(`{"version":1}`)
	require.NoError(t, p.Put(ctx, "k", payload))

	payload[0] = 'X'

	got, err := p.Get(ctx, "k")
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":1}`, string(got))
}
