package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store, err := NewLocalStore(filepath.Join(root, "objects"), nil)
	require.NoError(t, err)

	src := filepath.Join(root, "doc.txt")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0o600))

	uri, err := store.Put(ctx, src)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(uri, "file://"), uri)
	assert.True(t, strings.HasSuffix(uri, ".txt"), uri)

	rc, err := store.Get(ctx, uri)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))
}

func TestLocalStorePutsAreIndependent(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store, err := NewLocalStore(root, nil)
	require.NoError(t, err)

	src := filepath.Join(t.TempDir(), "doc.txt")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o600))

	uri1, err := store.Put(ctx, src)
	require.NoError(t, err)
	uri2, err := store.Put(ctx, src)
	require.NoError(t, err)
	assert.NotEqual(t, uri1, uri2)
}

func TestLocalStoreGetMissing(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), nil)
	require.NoError(t, err)

	_, err = store.Get(context.Background(), "file:///no/such/object")
	require.Error(t, err)
}

func TestLocalStoreCreatesRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "a", "b")
	_, err := NewLocalStore(root, nil)
	require.NoError(t, err)

	info, err := os.Stat(root)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestMemStoreSeedAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewMemStore()
	uri := store.PutBytes("input.txt", []byte("seeded"))

	rc, err := store.Get(ctx, uri)
	require.NoError(t, err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "seeded", string(data))
	assert.Equal(t, 1, store.Len())
}
