package service

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/andresuchdata/repo-gallery/backend-go/internal/config"
	"github.com/andresuchdata/repo-gallery/backend-go/internal/storage"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func pngPayload(extra string) []byte {
	return append(append([]byte(nil), pngHeader...), extra...)
}

func testRepo() config.GitHubConfig {
	return config.GitHubConfig{
		Owner:      "octo",
		Repo:       "gallery",
		Branch:     "main",
		ImagesDir:  "data/images",
		RawBaseURL: "http://raw.local",
	}
}

// countingStore counts calls on the wrapped store.
type countingStore struct {
	next  storage.ContentStore
	lists atomic.Int32
	gets  atomic.Int32
	puts  atomic.Int32
}

func newCountingStore(next storage.ContentStore) *countingStore {
	return &countingStore{next: next}
}

func (c *countingStore) ListDirectory(ctx context.Context, dir string) ([]storage.Entry, error) {
	c.lists.Add(1)
	return c.next.ListDirectory(ctx, dir)
}

func (c *countingStore) GetObject(ctx context.Context, objectPath string) (*storage.Object, error) {
	c.gets.Add(1)
	return c.next.GetObject(ctx, objectPath)
}

func (c *countingStore) PutObject(ctx context.Context, req storage.PutRequest) (*storage.PutResult, error) {
	c.puts.Add(1)
	return c.next.PutObject(ctx, req)
}

// stubStore returns canned answers.
type stubStore struct {
	mu      sync.Mutex
	entries []storage.Entry
	listErr error
	getErr  error
	putErr  error
	puts    []storage.PutRequest
}

func (s *stubStore) ListDirectory(ctx context.Context, dir string) ([]storage.Entry, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.entries, nil
}

func (s *stubStore) GetObject(ctx context.Context, objectPath string) (*storage.Object, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return nil, &storage.Error{Kind: storage.KindNotFound, Op: "get", Path: objectPath}
}

func (s *stubStore) PutObject(ctx context.Context, req storage.PutRequest) (*storage.PutResult, error) {
	s.mu.Lock()
	s.puts = append(s.puts, req)
	s.mu.Unlock()
	if s.putErr != nil {
		return nil, s.putErr
	}
	return &storage.PutResult{Path: req.Path, SHA: "sha", CommitURL: "http://commit.local/1"}, nil
}

type fakeClock struct {
	mu      sync.Mutex
	current time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{current: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.current
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	f.current = f.current.Add(d)
	f.mu.Unlock()
}

// blockingStore holds ListDirectory until release is closed or the call's context ends.
type blockingStore struct {
	next    storage.ContentStore
	lists   atomic.Int32
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newBlockingStore(next storage.ContentStore) *blockingStore {
	return &blockingStore{next: next, entered: make(chan struct{}), release: make(chan struct{})}
}

func (b *blockingStore) ListDirectory(ctx context.Context, dir string) ([]storage.Entry, error) {
	b.lists.Add(1)
	b.once.Do(func() { close(b.entered) })
	select {
	case <-b.release:
	case <-ctx.Done():
		return nil, &storage.Error{Kind: storage.KindUnavailable, Op: "list", Path: dir, Err: ctx.Err()}
	}
	return b.next.ListDirectory(ctx, dir)
}

func (b *blockingStore) GetObject(ctx context.Context, objectPath string) (*storage.Object, error) {
	return b.next.GetObject(ctx, objectPath)
}

func (b *blockingStore) PutObject(ctx context.Context, req storage.PutRequest) (*storage.PutResult, error) {
	return b.next.PutObject(ctx, req)
}
