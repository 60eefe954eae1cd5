package webhook

import (
	"context"
	"sync"
	"time"
)

// MemoryLog is an in-memory EventLog for tests and single-process setups.
type MemoryLog struct {
	mu      sync.Mutex
	records map[string]EventRecord
}

// NewMemoryLog creates an empty in-memory event log.
func NewMemoryLog() *MemoryLog {
	return &MemoryLog{records: make(map[string]EventRecord)}
}

func (l *MemoryLog) Begin(_ context.Context, eventID string, eventType EventType) (EventRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if rec, ok := l.records[eventID]; ok {
		rec.Attempts++
		l.records[eventID] = rec
		return rec, nil
	}

	rec := EventRecord{
		EventID:    eventID,
		Type:       eventType,
		ReceivedAt: time.Now().UTC(),
		Status:     EventPending,
		Attempts:   1,
	}
	l.records[eventID] = rec
	return rec, nil
}

func (l *MemoryLog) MarkProcessed(_ context.Context, eventID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[eventID]
	if !ok {
		return ErrEventNotFound
	}
	rec.Status = EventProcessed
	rec.LastError = ""
	l.records[eventID] = rec
	return nil
}

func (l *MemoryLog) MarkFailed(_ context.Context, eventID string, cause string, permanent bool) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[eventID]
	if !ok {
		return ErrEventNotFound
	}
	if permanent {
		rec.Status = EventFailedPermanent
	} else {
		rec.Status = EventFailed
	}
	rec.LastError = cause
	l.records[eventID] = rec
	return nil
}

func (l *MemoryLog) Get(_ context.Context, eventID string) (EventRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rec, ok := l.records[eventID]
	if !ok {
		return EventRecord{}, ErrEventNotFound
	}
	return rec, nil
}

func (l *MemoryLog) PruneBefore(_ context.Context, t time.Time) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var n int64
	for id, rec := range l.records {
		if rec.ReceivedAt.Before(t) {
			delete(l.records, id)
			n++
		}
	}
	return n, nil
}
