package storage

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-process ContentStore with the same compare-and-swap rules as
// GitHub. Objects are hashed like git blobs so SHAs match what GitHub would report.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]memoryObject
	baseURL string
	commits int
	now     func() time.Time
}

type memoryObject struct {
	content []byte
	sha     string
}

// NewMemoryStore returns an empty store. baseURL prefixes download and commit URLs.
func NewMemoryStore(baseURL string) *MemoryStore {
	return &MemoryStore{
		objects: make(map[string]memoryObject),
		baseURL: strings.TrimSuffix(baseURL, "/"),
		now:     time.Now,
	}
}

// BlobSHA returns the git blob hash of content.
func BlobSHA(content []byte) string {
	h := sha1.New()
	fmt.Fprintf(h, "blob %d\x00", len(content))
	h.Write(content)
	return hex.EncodeToString(h.Sum(nil))
}

func (s *MemoryStore) ListDirectory(ctx context.Context, dir string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, newError(KindUnavailable, "list", dir, 0, err)
	}
	dir = cleanPath(dir)

	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.objects[dir]; ok {
		return nil, newError(KindMalformed, "list", dir, 0, errors.New("expected an array of files but got a single file"))
	}

	prefix := ""
	if dir != "" {
		prefix = dir + "/"
	}

	children := make(map[string]Entry)
	for objectPath, object := range s.objects {
		if !strings.HasPrefix(objectPath, prefix) {
			continue
		}
		name, _, nested := strings.Cut(strings.TrimPrefix(objectPath, prefix), "/")
		if nested {
			children[name] = Entry{Name: name, Path: prefix + name, Type: EntryTypeDir}
			continue
		}
		children[name] = Entry{
			Name:        name,
			Path:        objectPath,
			Type:        EntryTypeFile,
			Size:        int64(len(object.content)),
			SHA:         object.sha,
			DownloadURL: s.downloadURL(objectPath),
		}
	}

	if len(children) == 0 {
		return nil, newError(KindNotFound, "list", dir, 0, nil)
	}

	entries := make([]Entry, 0, len(children))
	for _, entry := range children {
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

func (s *MemoryStore) GetObject(ctx context.Context, objectPath string) (*Object, error) {
	if err := ctx.Err(); err != nil {
		return nil, newError(KindUnavailable, "get", objectPath, 0, err)
	}
	objectPath = cleanPath(objectPath)

	s.mu.RLock()
	defer s.mu.RUnlock()

	object, ok := s.objects[objectPath]
	if !ok {
		return nil, newError(KindNotFound, "get", objectPath, 0, nil)
	}
	return &Object{
		Path:        objectPath,
		SHA:         object.sha,
		Size:        int64(len(object.content)),
		Content:     append([]byte(nil), object.content...),
		DownloadURL: s.downloadURL(objectPath),
	}, nil
}

func (s *MemoryStore) PutObject(ctx context.Context, req PutRequest) (*PutResult, error) {
	op := "create"
	if req.ExpectedSHA != "" {
		op = "update"
	}
	if err := ctx.Err(); err != nil {
		return nil, newError(KindUnavailable, op, req.Path, 0, err)
	}
	objectPath := cleanPath(req.Path)
	if objectPath == "" {
		return nil, newError(KindMalformed, op, req.Path, 0, errors.New("empty path"))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, exists := s.objects[objectPath]
	switch {
	case req.ExpectedSHA == "" && exists:
		return nil, newError(KindConflict, op, objectPath, 0, errors.New(`"sha" wasn't supplied`))
	case req.ExpectedSHA != "" && !exists:
		return nil, newError(KindConflict, op, objectPath, 0, fmt.Errorf("expected %s but object does not exist", req.ExpectedSHA))
	case req.ExpectedSHA != "" && current.sha != req.ExpectedSHA:
		return nil, newError(KindConflict, op, objectPath, 0, fmt.Errorf("is at %s but expected %s", current.sha, req.ExpectedSHA))
	}

	content := append([]byte(nil), req.Content...)
	sha := BlobSHA(content)
	s.objects[objectPath] = memoryObject{content: content, sha: sha}

	s.commits++
	commitSHA := BlobSHA([]byte(fmt.Sprintf("commit %d %s %s", s.commits, objectPath, req.Message)))

	return &PutResult{
		Path:      objectPath,
		SHA:       sha,
		CommitSHA: commitSHA,
		CommitURL: fmt.Sprintf("%s/commit/%s", s.baseURL, commitSHA),
		Committed: s.now(),
	}, nil
}

func (s *MemoryStore) downloadURL(objectPath string) string {
	return s.baseURL + "/" + objectPath
}

func cleanPath(p string) string {
	return strings.Trim(p, "/")
}

var _ ContentStore = (*MemoryStore)(nil)
