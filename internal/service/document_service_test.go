package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/andresuchdata/repo-gallery/backend-go/internal/config"
	"github.com/andresuchdata/repo-gallery/backend-go/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDocument() config.DocumentConfig {
	return config.DocumentConfig{Path: "data/airdrop/data.json", CommitMessage: "Update airdrop data"}
}

func TestUpdateDocumentCreatesThenUpdates(t *testing.T) {
	memory := storage.NewMemoryStore("http://raw.local")
	svc := NewDocumentService(memory, testRepo(), testDocument())

	result, err := svc.UpdateDocument(context.Background(), json.RawMessage(`{"a":1,"b":[1,2]}`))
	require.NoError(t, err)
	assert.Equal(t, "JSON updated successfully", result.Message)
	assert.Equal(t, "data/airdrop/data.json", result.Path)
	assert.NotEmpty(t, result.Commit)

	object, err := memory.GetObject(context.Background(), "data/airdrop/data.json")
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"a\": 1,\n  \"b\": [\n    1,\n    2\n  ]\n}", string(object.Content))

	_, err = svc.UpdateDocument(context.Background(), json.RawMessage(`[]`))
	require.NoError(t, err)
	object, err = memory.GetObject(context.Background(), "data/airdrop/data.json")
	require.NoError(t, err)
	assert.Equal(t, "[]", string(object.Content))
}

func TestUpdateDocumentRejectsInvalidJSON(t *testing.T) {
	store := newCountingStore(storage.NewMemoryStore(""))
	svc := NewDocumentService(store, testRepo(), testDocument())

	for _, raw := range []string{"", "  ", "null", "{", `{"a":}`} {
		_, err := svc.UpdateDocument(context.Background(), json.RawMessage(raw))
		assert.True(t, errors.Is(err, ErrInvalidDocument), "input %q", raw)
	}
	assert.Zero(t, store.gets.Load())
	assert.Zero(t, store.puts.Load())
}

func TestUpdateDocumentStoreErrors(t *testing.T) {
	store := &stubStore{putErr: &storage.Error{Kind: storage.KindConflict, Op: "update", StatusCode: 409}}
	svc := NewDocumentService(store, testRepo(), testDocument())

	_, err := svc.UpdateDocument(context.Background(), json.RawMessage(`{"x":true}`))
	assert.True(t, errors.Is(err, ErrConflict))
	require.Len(t, store.puts, 1)
	assert.Equal(t, "Update airdrop data", store.puts[0].Message)
	assert.Empty(t, store.puts[0].ExpectedSHA)
}

func TestUpdateDocumentMisconfigured(t *testing.T) {
	svc := NewDocumentService(&stubStore{}, config.GitHubConfig{}, testDocument())
	_, err := svc.UpdateDocument(context.Background(), json.RawMessage(`{}`))
	assert.True(t, errors.Is(err, ErrMisconfigured))

	svc = NewDocumentService(&stubStore{}, testRepo(), config.DocumentConfig{})
	_, err = svc.UpdateDocument(context.Background(), json.RawMessage(`{}`))
	assert.True(t, errors.Is(err, ErrMisconfigured))
}
