package collector

import "sync"

// Store is the key-value slot the collector keeps its consent flag and
// session identifier in. Implementations decide durability: the consent
// store should survive restarts, the session store should not outlive the
// session.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string)
}

type MemStore struct {
	mu     sync.Mutex
	values map[string]string
}

func NewMemStore() *MemStore {
	return &MemStore{values: make(map[string]string)}
}

func (s *MemStore) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *MemStore) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}
