package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// MemStore keeps objects in memory under mem:// URIs. It backs tests and
// short-lived invocations that never need a durable store.
type MemStore struct {
	mu      sync.Mutex
	objects map[string][]byte

	// PutErr, when set, is returned by every Put. Lets tests inject upload failures.
	PutErr error
}

func NewMemStore() *MemStore {
	return &MemStore{objects: make(map[string][]byte)}
}

func (s *MemStore) Get(ctx context.Context, uri string) (io.ReadCloser, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[uri]
	if !ok {
		return nil, fmt.Errorf("object %q not found", uri)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s *MemStore) Put(ctx context.Context, path string) (string, error) {
	if s.PutErr != nil {
		return "", s.PutErr
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	uri := "mem://" + uuid.NewString() + filepath.Ext(path)
	s.mu.Lock()
	s.objects[uri] = data
	s.mu.Unlock()
	return uri, nil
}

// PutBytes stores raw bytes directly, for seeding test inputs.
func (s *MemStore) PutBytes(name string, data []byte) string {
	uri := "mem://" + name
	s.mu.Lock()
	s.objects[uri] = append([]byte(nil), data...)
	s.mu.Unlock()
	return uri
}

// Len reports the number of stored objects.
func (s *MemStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.objects)
}
