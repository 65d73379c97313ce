package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dukex/flowbuilder/pkg/persistence"
	"github.com/dukex/flowbuilder/pkg/persistence/file"
	"github.com/dukex/flowbuilder/pkg/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersistence_Contract(t *testing.T) {
	testutil.AssertPersistenceContract(t, file.NewPersistence(t.TempDir()))
}

func TestPersistence_Layout(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	p := file.NewPersistence("file://" + root)

	require.NoError(t, p.Put(ctx, "abc", []byte(`{"version":1}`)))

	data, err := os.ReadFile(filepath.Join(root, "workflows", "abc.json"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":1}`, string(data))

	entries, err := os.ReadDir(filepath.Join(root, "workflows"))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files must not be left behind")
}

func TestPersistence_GetInvalidKey(t *testing.T) {
	p := file.NewPersistence(t.TempDir())

	_, err := p.Get(context.Background(), "../../etc/passwd")
	assert.True(t, persistence.IsNotFound(err))
}

func TestPersistence_HealthCheck_MissingRoot(t *testing.T) {
	p := file.NewPersistence(filepath.Join(t.TempDir(), "missing"))

	assert.Error(t, p.HealthCheck(context.Background()))
}
