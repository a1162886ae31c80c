package artifact

import "sync"

// InMemory is a process-local Store for tests, examples and prototypes.
// Bytes are copied on save and retrieval so callers never alias internal
// buffers. No quotas or eviction; everything lives until Delete.
type InMemory struct {
	mu        sync.RWMutex
	artifacts map[string][]byte
}

// NewInMemory returns an empty in-memory store.
func NewInMemory() *InMemory {
	return &InMemory{artifacts: make(map[string][]byte)}
}

// Save implements Store.
func (s *InMemory) Save(name string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]byte, len(data))
	copy(cp, data)
	s.artifacts[name] = cp
	return nil
}

// Get implements Store.
func (s *InMemory) Get(name string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.artifacts[name]
	if !ok {
		return nil, ErrNotFound
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	return cp, nil
}

// List implements Store.
func (s *InMemory) List() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.artifacts))
	for name := range s.artifacts {
		names = append(names, name)
	}
	return names, nil
}

// Delete implements Store.
func (s *InMemory) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.artifacts[name]; !ok {
		return ErrNotFound
	}
	delete(s.artifacts, name)
	return nil
}
