package local

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yeetbox/yeetbox/pkg/blobstore"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(t.TempDir())
	require.NoError(t, err)
	return store
}

func TestCreateAppendRead(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	id := store.NewBlobID()

	w, err := store.CreateOrAppendOpen(ctx, id)
	require.NoError(t, err)
	require.NoError(t, w.Append(ctx, []byte("hello ")))
	require.NoError(t, w.Append(ctx, []byte("world")))
	require.NoError(t, w.Close())

	r, err := store.OpenRead(ctx, id)
	require.NoError(t, err)
	defer r.Close()

	size, err := r.Size(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(len("hello world")), size)

	buf := make([]byte, size)
	n, err := r.ReadAt(ctx, buf, 0)
	require.NoError(t, err)
	require.True(t, bytes.Equal(buf[:n], []byte("hello world")))
}

func TestOpenReadMissingReturnsErrNotFound(t *testing.T) {
	store := newTestStore(t)
	var id [16]byte

	_, err := store.OpenRead(context.Background(), id)
	require.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestReopenAppendsToExistingBlob(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	id := store.NewBlobID()

	w1, err := store.CreateOrAppendOpen(ctx, id)
	require.NoError(t, err)
	require.NoError(t, w1.Append(ctx, []byte("first-")))
	require.NoError(t, w1.Close())

	w2, err := store.CreateOrAppendOpen(ctx, id)
	require.NoError(t, err)
	require.NoError(t, w2.Append(ctx, []byte("second")))
	require.NoError(t, w2.Close())

	r, err := store.OpenRead(ctx, id)
	require.NoError(t, err)
	defer r.Close()

	size, _ := r.Size(ctx)
	buf := make([]byte, size)
	n, err := r.ReadAt(ctx, buf, 0)
	require.NoError(t, err)
	require.Equal(t, "first-second", string(buf[:n]))
}

func TestReadAtOffsetReturnsPartialTail(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	id := store.NewBlobID()

	w, err := store.CreateOrAppendOpen(ctx, id)
	require.NoError(t, err)
	require.NoError(t, w.Append(ctx, []byte("0123456789")))
	require.NoError(t, w.Close())

	r, err := store.OpenRead(ctx, id)
	require.NoError(t, err)
	defer r.Close()

	buf := make([]byte, 100)
	n, err := r.ReadAt(ctx, buf, 5)
	require.True(t, err == nil || errors.Is(err, io.EOF))
	require.Equal(t, "56789", string(buf[:n]))
}

func TestRenameMovesBlobAndInvalidatesOldID(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	oldID := store.NewBlobID()
	w, err := store.CreateOrAppendOpen(ctx, oldID)
	require.NoError(t, err)
	require.NoError(t, w.Append(ctx, []byte("payload")))
	require.NoError(t, w.Close())

	newID := store.NewBlobID()
	require.NoError(t, store.Rename(ctx, oldID, newID))

	_, err = store.OpenRead(ctx, oldID)
	require.ErrorIs(t, err, blobstore.ErrNotFound)

	r, err := store.OpenRead(ctx, newID)
	require.NoError(t, err)
	r.Close()
}

func TestDeleteIsTolerantOfMissingBlob(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	id := store.NewBlobID()

	require.NoError(t, store.Delete(ctx, id))

	w, err := store.CreateOrAppendOpen(ctx, id)
	require.NoError(t, err)
	require.NoError(t, w.Append(ctx, []byte("x")))
	require.NoError(t, w.Close())

	require.NoError(t, store.Delete(ctx, id))
	_, err = store.OpenRead(ctx, id)
	require.ErrorIs(t, err, blobstore.ErrNotFound)
}

func TestListReturnsAllBlobIDsAndIgnoresForeignFiles(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	id1 := store.NewBlobID()
	id2 := store.NewBlobID()
	for _, id := range [][16]byte{id1, id2} {
		w, err := store.CreateOrAppendOpen(ctx, id)
		require.NoError(t, err)
		require.NoError(t, w.Append(ctx, []byte("x")))
		require.NoError(t, w.Close())
	}
	require.NoError(t, os.WriteFile(filepath.Join(store.dir, "notes.txt"), []byte("x"), 0o644))

	ids, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, ids, 2)
	require.Contains(t, ids, id1)
	require.Contains(t, ids, id2)
}

func TestNewBlobIDsAreUniqueAndMonotonic(t *testing.T) {
	store := newTestStore(t)

	first := store.NewBlobID()
	second := store.NewBlobID()
	require.NotEqual(t, first, second)
	require.True(t, bytes.Compare(first[:], second[:]) < 0, "ULIDs minted in sequence must sort ascending")
}
