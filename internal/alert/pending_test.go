package alert

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPendingStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alerts.yml")
	owner := uuid.Must(uuid.NewV7())

	store, err := OpenPendingStore(path, nil)
	require.NoError(t, err)
	require.NoError(t, store.Append(owner, "first"))
	require.NoError(t, store.Append(owner, "second"))

	reopened, err := OpenPendingStore(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 2, reopened.Count(owner))

	batch, err := reopened.Take(owner)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, batch)
}

func TestPendingStore_TakeClearsDurably(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alerts.yml")
	owner := uuid.Must(uuid.NewV7())

	store, err := OpenPendingStore(path, nil)
	require.NoError(t, err)
	require.NoError(t, store.Append(owner, "msg"))

	batch, err := store.Take(owner)
	require.NoError(t, err)
	require.Len(t, batch, 1)

	reopened, err := OpenPendingStore(path, nil)
	require.NoError(t, err)
	assert.Zero(t, reopened.Count(owner))
}

func TestPendingStore_TakeEmptyQueue(t *testing.T) {
	store, err := OpenPendingStore(filepath.Join(t.TempDir(), "alerts.yml"), nil)
	require.NoError(t, err)

	batch, err := store.Take(uuid.Must(uuid.NewV7()))
	require.NoError(t, err)
	assert.Nil(t, batch)
}

func TestOpenPendingStore_SkipsInvalidOwnerIDs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alerts.yml")
	owner := uuid.Must(uuid.NewV7())

	store, err := OpenPendingStore(path, nil)
	require.NoError(t, err)
	require.NoError(t, store.Append(owner, "keep"))

	// Corrupt the file with a bad key next to the valid one.
	data := "alerts:\n  not-a-uuid:\n    - dropped\n  " + owner.String() + ":\n    - keep\n"
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	reopened, err := OpenPendingStore(path, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, reopened.Count(owner))
	assert.Len(t, reopened.All(), 1)
}
