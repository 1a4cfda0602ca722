package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBlobSHAMatchesGit(t *testing.T) {
	assert.Equal(t, "e69de29bb2d1d6434b8b29ae775ad8c2e48c5391", BlobSHA(nil))
	assert.Equal(t, "d670460b4b4aece5915caf5c68d12f560a9fe3e4", BlobSHA([]byte("test content\n")))
}

func TestMemoryStoreCreateThenUpdate(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore("http://raw.local/o/r/main")

	created, err := store.PutObject(ctx, PutRequest{Path: "data/images/a.png", Content: []byte("one"), Message: "Upload a.png"})
	require.NoError(t, err)
	assert.Equal(t, BlobSHA([]byte("one")), created.SHA)
	assert.Contains(t, created.CommitURL, "http://raw.local/o/r/main/commit/")

	object, err := store.GetObject(ctx, "data/images/a.png")
	require.NoError(t, err)
	assert.Equal(t, created.SHA, object.SHA)
	assert.Equal(t, []byte("one"), object.Content)
	assert.Equal(t, "http://raw.local/o/r/main/data/images/a.png", object.DownloadURL)

	updated, err := store.PutObject(ctx, PutRequest{Path: "data/images/a.png", Content: []byte("two"), ExpectedSHA: object.SHA})
	require.NoError(t, err)
	assert.NotEqual(t, created.SHA, updated.SHA)
	assert.NotEqual(t, created.CommitSHA, updated.CommitSHA)
}

func TestMemoryStoreCompareAndSwap(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore("")

	_, err := store.PutObject(ctx, PutRequest{Path: "a.png", Content: []byte("one")})
	require.NoError(t, err)

	_, err = store.PutObject(ctx, PutRequest{Path: "a.png", Content: []byte("again")})
	assert.True(t, errors.Is(err, ErrConflict), "create over existing object must conflict")

	_, err = store.PutObject(ctx, PutRequest{Path: "a.png", Content: []byte("stale"), ExpectedSHA: BlobSHA([]byte("other"))})
	assert.True(t, errors.Is(err, ErrConflict), "stale sha must conflict")

	_, err = store.PutObject(ctx, PutRequest{Path: "missing.png", Content: []byte("x"), ExpectedSHA: BlobSHA([]byte("x"))})
	assert.True(t, errors.Is(err, ErrConflict), "update of missing object must conflict")

	object, err := store.GetObject(ctx, "a.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), object.Content)
}

func TestMemoryStoreListDirectory(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore("http://raw.local")

	for _, p := range []string{"data/images/b.png", "data/images/a.jpg", "data/images/nested/c.gif", "data/other.txt"} {
		_, err := store.PutObject(ctx, PutRequest{Path: p, Content: []byte(p)})
		require.NoError(t, err)
	}

	entries, err := store.ListDirectory(ctx, "data/images")
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, "a.jpg", entries[0].Name)
	assert.Equal(t, EntryTypeFile, entries[0].Type)
	assert.Equal(t, int64(len("data/images/a.jpg")), entries[0].Size)
	assert.Equal(t, "http://raw.local/data/images/a.jpg", entries[0].DownloadURL)
	assert.Equal(t, "b.png", entries[1].Name)
	assert.Equal(t, "nested", entries[2].Name)
	assert.Equal(t, EntryTypeDir, entries[2].Type)
	assert.Equal(t, "data/images/nested", entries[2].Path)
}

func TestMemoryStoreListErrors(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore("")

	_, err := store.ListDirectory(ctx, "data/images")
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Equal(t, KindNotFound, KindOf(err))

	_, err = store.PutObject(ctx, PutRequest{Path: "data/images", Content: []byte("file, not dir")})
	require.NoError(t, err)

	_, err = store.ListDirectory(ctx, "data/images")
	assert.True(t, errors.Is(err, ErrMalformed))
}

func TestMemoryStoreHonorsCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := NewMemoryStore("")
	_, err := store.PutObject(ctx, PutRequest{Path: "a.png", Content: []byte("x")})
	assert.True(t, errors.Is(err, ErrUnavailable))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestErrorFormatting(t *testing.T) {
	err := newError(KindRateLimited, "list", "data/images", 403, errors.New("API rate limit exceeded"))
	assert.Equal(t, "list data/images: rate limit exceeded (status 403): API rate limit exceeded", err.Error())
	assert.Equal(t, "rate_limited", KindRateLimited.String())
	assert.Equal(t, KindUnavailable, KindOf(errors.New("plain")))
}
