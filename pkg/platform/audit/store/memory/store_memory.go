package memory

import (
	"context"
	"sync"

	id "vouch/pkg/domain"
	audit "vouch/pkg/platform/audit"
)

type InMemoryStore struct {
	mu     sync.RWMutex
	events map[id.WorkerID][]audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[id.WorkerID][]audit.Event)}
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.WorkerID] = append(s.events[event.WorkerID], event)
	return nil
}

func (s *InMemoryStore) ListByWorker(_ context.Context, workerID id.WorkerID) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events[workerID]...), nil
}

