package blobstore

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// ErrNotFound is returned for unknown keys.
var ErrNotFound = errors.New("blob not found")

// Blob is a stored object.
type Blob struct {
	ContentType string
	Data        []byte
}

// Store persists photos and hands back an opaque key.
type Store interface {
	Put(ctx context.Context, blob Blob) (string, error)
	Get(ctx context.Context, key string) (Blob, error)
}

// URL joins the public base with a key.
func URL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}

func newKey() string {
	return uuid.NewString()
}

type memoryStore struct {
	mu    sync.RWMutex
	blobs map[string]Blob
}

// NewMemoryStore returns a process-local store.
func NewMemoryStore() Store {
	return &memoryStore{blobs: make(map[string]Blob)}
}

func (s *memoryStore) Put(_ context.Context, blob Blob) (string, error) {
	key := newKey()
	stored := Blob{ContentType: blob.ContentType, Data: append([]byte(nil), blob.Data...)}
	s.mu.Lock()
	s.blobs[key] = stored
	s.mu.Unlock()
	return key, nil
}

func (s *memoryStore) Get(_ context.Context, key string) (Blob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	blob, ok := s.blobs[key]
	if !ok {
		return Blob{}, ErrNotFound
	}
	return Blob{ContentType: blob.ContentType, Data: append([]byte(nil), blob.Data...)}, nil
}
