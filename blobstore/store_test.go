package blobstore

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stores(t *testing.T) map[string]BlobStore {
	return map[string]BlobStore{
		"local":  NewLocalStore(t.TempDir()),
		"memory": NewMemoryStore(),
	}
}

func TestBlobStore_Lifecycle(t *testing.T) {
	ctx := context.Background()

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			data := []byte("glm payload for realization 00042")

			w, err := store.Create(ctx, "glm/iswREC.run.isw")
			require.NoError(t, err)
			n, err := w.Write(data)
			require.NoError(t, err)
			require.Equal(t, len(data), n)
			require.NoError(t, w.Close())

			require.NoError(t, store.Put(ctx, "cl/run.isw", []byte("cl")))

			blob, err := store.Open(ctx, "glm/iswREC.run.isw")
			require.NoError(t, err)
			assert.Equal(t, int64(len(data)), blob.Size())

			buf := make([]byte, 7)
			n, err = blob.ReadAt(ctx, buf, 4)
			require.NoError(t, err)
			assert.Equal(t, 7, n)
			assert.Equal(t, "payload", string(buf))

			r, err := blob.ReadRange(ctx, 28, 100)
			require.NoError(t, err)
			tail, err := io.ReadAll(r)
			require.NoError(t, err)
			require.NoError(t, r.Close())
			assert.Equal(t, "00042", string(tail))
			require.NoError(t, blob.Close())

			names, err := store.List(ctx, "")
			require.NoError(t, err)
			assert.Equal(t, []string{"cl/run.isw", "glm/iswREC.run.isw"}, names)

			names, err = store.List(ctx, "glm/")
			require.NoError(t, err)
			assert.Equal(t, []string{"glm/iswREC.run.isw"}, names)

			all, err := ReadAll(ctx, store, "glm/iswREC.run.isw")
			require.NoError(t, err)
			assert.Equal(t, data, all)

			require.NoError(t, store.Delete(ctx, "glm/iswREC.run.isw"))
			require.NoError(t, store.Delete(ctx, "glm/iswREC.run.isw"))

			_, err = store.Open(ctx, "glm/iswREC.run.isw")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestBlobStore_Overwrite(t *testing.T) {
	ctx := context.Background()

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Put(ctx, "a", []byte("first")))
			require.NoError(t, store.Put(ctx, "a", []byte("second")))

			got, err := ReadAll(ctx, store, "a")
			require.NoError(t, err)
			assert.Equal(t, "second", string(got))
		})
	}
}

func TestBlobStore_EmptyBlob(t *testing.T) {
	ctx := context.Background()

	for name, store := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, store.Put(ctx, "empty", nil))

			got, err := ReadAll(ctx, store, "empty")
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestLocalStore_NoTempFilesListed(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	store := NewLocalStore(root)

	w, err := store.Create(ctx, "pending.isw")
	require.NoError(t, err)
	_, err = w.Write([]byte("x"))
	require.NoError(t, err)

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, names)

	require.NoError(t, w.Close())
	_, err = os.Stat(filepath.Join(root, "pending.isw"))
	require.NoError(t, err)
}

func TestLocalStore_ListMissingRoot(t *testing.T) {
	store := NewLocalStore(filepath.Join(t.TempDir(), "missing"))

	names, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, names)
}
