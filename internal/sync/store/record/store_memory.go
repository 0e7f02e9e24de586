package record

import (
	"context"
	"sort"
	"sync"

	"syncgate/internal/sync/models"
)

// InMemoryStore keeps sync records in process memory. Used in tests and in
// standalone deployments without Postgres.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[string]map[string]*models.Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		records: make(map[string]map[string]*models.Record),
	}
}

func (s *InMemoryStore) Get(_ context.Context, domain, recordID string) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records[domain][recordID].Clone(), nil
}

func (s *InMemoryStore) Upsert(_ context.Context, record *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	byID := s.records[record.Domain]
	if byID == nil {
		byID = make(map[string]*models.Record)
		s.records[record.Domain] = byID
	}
	byID[record.RecordID] = record.Clone()
	return nil
}

func (s *InMemoryStore) List(_ context.Context, domain string) ([]*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byID := s.records[domain]
	out := make([]*models.Record, 0, len(byID))
	for _, r := range byID {
		out = append(out, r.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RecordID < out[j].RecordID })
	return out, nil
}
