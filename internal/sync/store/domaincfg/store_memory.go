package domaincfg

import (
	"context"
	"sort"
	"sync"

	"syncgate/internal/sync/models"
)

// InMemoryStore keeps admin-registered domain configs in process memory.
// Configs registered here do not survive restarts; the built-in domains are
// reseeded from code regardless.
type InMemoryStore struct {
	mu      sync.RWMutex
	configs map[string]*models.DomainConfig
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{configs: make(map[string]*models.DomainConfig)}
}

func (s *InMemoryStore) Save(_ context.Context, cfg *models.DomainConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clone := *cfg
	s.configs[cfg.Domain] = &clone
	return nil
}

func (s *InMemoryStore) List(_ context.Context) ([]*models.DomainConfig, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.DomainConfig, 0, len(s.configs))
	for _, cfg := range s.configs {
		clone := *cfg
		out = append(out, &clone)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Domain < out[j].Domain })
	return out, nil
}
