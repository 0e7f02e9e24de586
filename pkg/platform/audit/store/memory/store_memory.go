package memory

import (
	"sync"

	audit "syncgate/pkg/platform/audit"
)

// InMemoryStore keeps audit events in a bounded slice. Intended for tests
// and single-process deployments without a Kafka sink.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []audit.Event
	max    int
}

const defaultMaxEvents = 10000

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{max: defaultMaxEvents}
}

func (s *InMemoryStore) Append(event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	if len(s.events) > s.max {
		// Drop oldest to stay bounded.
		s.events = s.events[len(s.events)-s.max:]
	}
	return nil
}

// ListRecent returns the most recent events, newest last.
func (s *InMemoryStore) ListRecent(limit int) []audit.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	start := len(s.events) - limit
	if limit <= 0 || start < 0 {
		start = 0
	}
	return append([]audit.Event{}, s.events[start:]...)
}

// ListByAction filters stored events by action name, oldest first.
func (s *InMemoryStore) ListByAction(action string) []audit.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []audit.Event
	for _, e := range s.events {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = nil
}
