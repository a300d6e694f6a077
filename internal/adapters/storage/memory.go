package storage

import (
	"context"
	"sync"
)

// memScheme prefixes URLs minted by the in-memory store.
const memScheme = "mem://"

// MemoryStore implements Store in process memory. It backs tests and
// single-node deployments that do not need durable artifacts.
type MemoryStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewMemoryStore creates an empty in-memory blob store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

// Upload writes data under folder/name and returns a mem:// URL.
func (s *MemoryStore) Upload(_ context.Context, data []byte, folder, name string) (string, error) {
	url := memScheme + folder + "/" + name

	s.mu.Lock()
	defer s.mu.Unlock()

	buf := make([]byte, len(data))
	copy(buf, data)
	s.blobs[url] = buf
	return url, nil
}

// Delete removes the blob behind url.
func (s *MemoryStore) Delete(_ context.Context, url string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blobs[url]; !ok {
		return false, nil
	}
	delete(s.blobs, url)
	return true, nil
}

// Get returns the stored bytes, used by tests.
func (s *MemoryStore) Get(url string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.blobs[url]
	return b, ok
}
