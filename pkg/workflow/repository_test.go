package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/dukex/flowbuilder/pkg/idgen"
	"github.com/dukex/flowbuilder/pkg/mocks"
	"github.com/dukex/flowbuilder/pkg/models"
	"github.com/dukex/flowbuilder/pkg/persistence"
	"github.com/dukex/flowbuilder/pkg/persistence/memory"
	"github.com/dukex/flowbuilder/pkg/serializer"
	"github.com/dukex/flowbuilder/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRepository_SaveAndLoad(t *testing.T) {
	ctx := context.Background()
	b := testutil.NewTestBuilder()
	repo := NewRepository(memory.NewPersistence(), serializer.NewSerializer(b))
	repo.keys = idgen.Sequence("snapshot")

	g, _ := testutil.ChainGraph(t, b, models.StepKindWait)

	key, err := repo.Save(ctx, g)
	require.NoError(t, err)
	assert.Equal(t, "snapshot-1", key)

	loaded, err := repo.Load(ctx, key)
	require.NoError(t, err)
	assert.ElementsMatch(t, g.Nodes(), loaded.Nodes())
	assert.ElementsMatch(t, g.Connections(), loaded.Connections())

	second, err := repo.Save(ctx, g)
	require.NoError(t, err)
	assert.NotEqual(t, key, second)
}

func TestRepository_LoadErrors(t *testing.T) {
	ctx := context.Background()
	store := memory.NewPersistence()
	repo := NewRepository(store, serializer.NewSerializer(testutil.NewTestBuilder()))

	_, err := repo.Load(ctx, "missing")
	assert.True(t, persistence.IsNotFound(err))

	require.NoError(t, store.Put(ctx, "corrupt", []byte(`{"version": 7}`)))

	_, err = repo.Load(ctx, "corrupt")
	assert.ErrorIs(t, err, serializer.ErrSchemaVersionUnsupported)
}

func TestRepository_HealthCheck(t *testing.T) {
	ctx := context.Background()

	store := &mocks.MockPersistence{}
	store.On("HealthCheck", mock.Anything).Return(errors.New("disk gone")).Once()
	store.On("HealthCheck", mock.Anything).Return(nil)

	repo := NewRepository(store, nil)

	message, ok := repo.HealthCheck(ctx)
	assert.False(t, ok)
	assert.Contains(t, message, "disk gone")

	message, ok = repo.HealthCheck(ctx)
	assert.True(t, ok)
	assert.Equal(t, "Persistence layer is healthy", message)

	message, ok = NewRepository(nil, nil).HealthCheck(ctx)
	assert.False(t, ok)
	assert.Equal(t, "Persistence layer not initialized", message)
}
