package sessionstate

import (
	"context"
	"sync"

	"github.com/medreport/companion/internal/core/ports"
)

// MemoryStore keeps active documents in process memory. Used when no
// redis address is configured, for single-instance deployments.
type MemoryStore struct {
	mu     sync.RWMutex
	active map[string]string
}

var _ ports.ActiveDocumentStore = (*MemoryStore)(nil)

func NewMemory() *MemoryStore {
	return &MemoryStore{active: make(map[string]string)}
}

func (s *MemoryStore) SetActive(_ context.Context, ownerID, documentID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active[ownerID] = documentID
	return nil
}

func (s *MemoryStore) Active(_ context.Context, ownerID string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active[ownerID], nil
}

func (s *MemoryStore) ClearActive(_ context.Context, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, ownerID)
	return nil
}
