package dedupe

import (
	"context"
	"sync"
	"time"

	"syncgate/internal/sync/models"
)

// InMemoryStore remembers apply outcomes with per-entry expiry. Expired
// entries are dropped lazily on read and write.
type InMemoryStore struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

type entry struct {
	result    models.ApplyResult
	expiresAt time.Time
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

func (s *InMemoryStore) Get(_ context.Context, clientRequestID string) (*models.ApplyResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[clientRequestID]
	if !ok {
		return nil, nil
	}
	if s.now().After(e.expiresAt) {
		delete(s.entries, clientRequestID)
		return nil, nil
	}
	result := e.result
	return &result, nil
}

func (s *InMemoryStore) Put(_ context.Context, clientRequestID string, result *models.ApplyResult, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for key, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, key)
		}
	}
	s.entries[clientRequestID] = entry{result: *result, expiresAt: now.Add(ttl)}
	return nil
}
