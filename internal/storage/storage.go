package storage

import (
	"context"
	"time"
)

// Entry types reported by ListDirectory.
const (
	EntryTypeFile = "file"
	EntryTypeDir  = "dir"
)

// Entry represents one child of a directory in the content store.
type Entry struct {
	Name        string
	Path        string
	Type        string
	Size        int64
	SHA         string
	DownloadURL string
}

// Object represents a single stored file with the hash required to replace it.
type Object struct {
	Path        string
	SHA         string
	Size        int64
	Content     []byte
	DownloadURL string
}

// PutRequest describes a compare-and-swap write. An empty ExpectedSHA creates the
// object and fails with ErrConflict when something already lives at Path.
type PutRequest struct {
	Path        string
	Content     []byte
	Message     string
	ExpectedSHA string
}

// PutResult describes the stored object and the commit that produced it.
type PutResult struct {
	Path      string
	SHA       string
	CommitSHA string
	CommitURL string
	Committed time.Time
}

// ContentStore captures the path addressed, hash versioned operations the gallery needs.
type ContentStore interface {
	ListDirectory(ctx context.Context, dir string) ([]Entry, error)
	GetObject(ctx context.Context, objectPath string) (*Object, error)
	PutObject(ctx context.Context, req PutRequest) (*PutResult, error)
}
