package blobstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStoreLifecycle(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()

	data := []byte("hello world, this is a test blob")
	require.NoError(t, store.Put(ctx, "groups/data-001.blk", data))
	require.NoError(t, store.Put(ctx, "groups/data-002.blk", []byte("second")))
	require.NoError(t, store.Put(ctx, "other/x.blk", []byte("x")))

	got, err := store.Get(ctx, "groups/data-001.blk")
	require.NoError(t, err)
	assert.Equal(t, data, got)

	// Overwrite
	require.NoError(t, store.Put(ctx, "groups/data-002.blk", []byte("replaced")))
	got, err = store.Get(ctx, "groups/data-002.blk")
	require.NoError(t, err)
	assert.Equal(t, "replaced", string(got))

	names, err := store.List(ctx, "groups/")
	require.NoError(t, err)
	assert.Equal(t, []string{"groups/data-001.blk", "groups/data-002.blk"}, names)

	all, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	require.NoError(t, store.Delete(ctx, "groups/data-001.blk"))
	require.NoError(t, store.Delete(ctx, "groups/data-001.blk"))

	_, err = store.Get(ctx, "groups/data-001.blk")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestLocalStore_Lifecycle(t *testing.T) {
	tmpDir := t.TempDir()
	store := NewLocalStore(tmpDir)

	testStoreLifecycle(t, store)

	// Blobs are plain files below root.
	_, err := os.Stat(filepath.Join(tmpDir, "groups", "data-002.blk"))
	require.NoError(t, err)
}

func TestLocalStore_ListMissingRoot(t *testing.T) {
	store := NewLocalStore(filepath.Join(t.TempDir(), "missing"))

	names, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestMemoryStore_Lifecycle(t *testing.T) {
	store := NewMemoryStore()
	testStoreLifecycle(t, store)
	assert.Equal(t, 2, store.Len())
}

func TestMemoryStore_CopiesData(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()

	data := []byte("abc")
	require.NoError(t, store.Put(ctx, "a", data))
	data[0] = 'x'

	got, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
	assert.Equal(t, int64(3), store.Size())

	require.NoError(t, store.Put(ctx, "a", []byte("abcde")))
	assert.Equal(t, int64(5), store.Size())
	require.NoError(t, store.Delete(ctx, "a"))
	assert.Zero(t, store.Size())
}

func TestStore_PutCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, NewMemoryStore().Put(ctx, "a", nil), context.Canceled)
	assert.ErrorIs(t, NewLocalStore(t.TempDir()).Put(ctx, "a", nil), context.Canceled)
}
