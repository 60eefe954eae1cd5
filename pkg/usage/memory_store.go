package usage

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/gatekit/pkg/subscription"
)

// MemoryStore is a thread-safe in-memory Store implementation, useful for
// tests and single-process deployments. Archived periods are retained in a
// separate map for inspection.
type MemoryStore struct {
	mu         sync.Mutex
	records    map[string]Record
	archived   map[string]Record
	thresholds map[string]struct{}
}

// NewMemoryStore creates an empty in-memory usage store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records:    make(map[string]Record),
		archived:   make(map[string]Record),
		thresholds: make(map[string]struct{}),
	}
}

func recordKey(userID uuid.UUID, feature subscription.Feature, period string) string {
	return userID.String() + ":" + string(feature) + ":" + period
}

func thresholdKey(userID uuid.UUID, feature subscription.Feature, period string, threshold int) string {
	return recordKey(userID, feature, period) + ":" + strconv.Itoa(threshold)
}

func (s *MemoryStore) Increment(_ context.Context, userID uuid.UUID, feature subscription.Feature, period string, amount, limit int64, resetAt time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := recordKey(userID, feature, period)
	rec, ok := s.records[key]
	if !ok {
		rec = Record{UserID: userID, Feature: feature, Period: period}
	}
	rec.Count += amount
	rec.Limit = limit
	rec.LastUsedAt = time.Now().UTC()
	rec.ResetAt = resetAt
	s.records[key] = rec
	return rec.Count, nil
}

func (s *MemoryStore) Decrement(_ context.Context, userID uuid.UUID, feature subscription.Feature, period string, amount int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := recordKey(userID, feature, period)
	rec, ok := s.records[key]
	if !ok {
		return 0, ErrRecordNotFound
	}
	rec.Count -= amount
	if rec.Count < 0 {
		rec.Count = 0
	}
	s.records[key] = rec
	return rec.Count, nil
}

func (s *MemoryStore) Get(_ context.Context, userID uuid.UUID, feature subscription.Feature, period string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[recordKey(userID, feature, period)]
	if !ok {
		return Record{}, ErrRecordNotFound
	}
	return rec, nil
}

func (s *MemoryStore) MarkThreshold(_ context.Context, userID uuid.UUID, feature subscription.Feature, period string, threshold int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := thresholdKey(userID, feature, period, threshold)
	if _, seen := s.thresholds[key]; seen {
		return false, nil
	}
	s.thresholds[key] = struct{}{}
	return true, nil
}

func (s *MemoryStore) ArchivePeriods(_ context.Context, userID uuid.UUID, currentPeriod string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefix := userID.String() + ":"
	for key, rec := range s.records {
		if strings.HasPrefix(key, prefix) && rec.Period != currentPeriod {
			s.archived[key] = rec
			delete(s.records, key)
		}
	}
	for key := range s.thresholds {
		if strings.HasPrefix(key, prefix) && !strings.Contains(key, ":"+currentPeriod+":") {
			delete(s.thresholds, key)
		}
	}
	return nil
}

// Archived returns the archived record for a past period, if any.
// Intended for tests and audit inspection.
func (s *MemoryStore) Archived(userID uuid.UUID, feature subscription.Feature, period string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.archived[recordKey(userID, feature, period)]
	return rec, ok
}
