package subscription

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is a thread-safe in-memory Store implementation, useful for
// tests and single-process deployments.
type MemoryStore struct {
	mu   sync.RWMutex
	subs map[uuid.UUID]Subscription
}

// NewMemoryStore creates an empty in-memory subscription store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		subs: make(map[uuid.UUID]Subscription),
	}
}

func (s *MemoryStore) Get(_ context.Context, userID uuid.UUID) (*Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.subs[userID]
	if !ok {
		return nil, ErrSubscriptionNotFound
	}
	// Return a copy so callers cannot mutate stored state.
	return &sub, nil
}

func (s *MemoryStore) Create(_ context.Context, sub *Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.subs[sub.UserID]; exists {
		return ErrSubscriptionAlreadyExists
	}

	stored := *sub
	stored.Revision = 1
	s.subs[sub.UserID] = stored
	sub.Revision = 1
	return nil
}

func (s *MemoryStore) UpdateCAS(_ context.Context, sub *Subscription, expectedRevision int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.subs[sub.UserID]
	if !ok {
		return ErrSubscriptionNotFound
	}
	if current.Revision != expectedRevision {
		return ErrConcurrencyConflict
	}

	stored := *sub
	stored.Revision = expectedRevision + 1
	s.subs[sub.UserID] = stored
	sub.Revision = stored.Revision
	return nil
}

func (s *MemoryStore) Revision(_ context.Context, userID uuid.UUID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sub, ok := s.subs[userID]
	if !ok {
		return 0, ErrSubscriptionNotFound
	}
	return sub.Revision, nil
}
