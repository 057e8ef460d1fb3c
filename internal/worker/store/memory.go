// Package store persists worker identity tokens. Stores only ever see
// ciphertext tokens; encryption happens in the service.
package store

import (
	"context"
	"sync"
	"time"

	"vouch/internal/worker/models"
	id "vouch/pkg/domain"
)

type tokenKey struct {
	worker id.WorkerID
	field  models.IdentityField
}

// InMemory is a thread-safe token store for tests and local runs.
type InMemory struct {
	mu      sync.RWMutex
	tokens  map[tokenKey]string
	updated map[id.WorkerID]time.Time
}

func NewInMemory() *InMemory {
	return &InMemory{
		tokens:  make(map[tokenKey]string),
		updated: make(map[id.WorkerID]time.Time),
	}
}

// SetToken stores token for the field. An empty token clears it.
func (s *InMemory) SetToken(_ context.Context, workerID id.WorkerID, field models.IdentityField, token string, now time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := tokenKey{worker: workerID, field: field}
	if token == "" {
		delete(s.tokens, key)
	} else {
		s.tokens[key] = token
	}
	s.updated[workerID] = now
	return nil
}

// GetToken returns the stored token; ok is false when the field is unset.
func (s *InMemory) GetToken(_ context.Context, workerID id.WorkerID, field models.IdentityField) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	token, ok := s.tokens[tokenKey{worker: workerID, field: field}]
	return token, ok, nil
}
