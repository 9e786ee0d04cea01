package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrNotFound = errors.New("session record not found")

type record[V any] struct {
	value    V
	storedAt time.Time
}

// Store is a process-wide map from session id to a single value. Writes are
// last-write-wins with no merge semantics. A retention of zero disables
// eviction entirely.
type Store[V any] struct {
	mu        sync.RWMutex
	records   map[string]record[V]
	retention time.Duration
	onEvict   func(sessionID string)
}

func NewStore[V any](retention time.Duration) *Store[V] {
	return &Store[V]{
		records:   make(map[string]record[V]),
		retention: retention,
	}
}

// SetEvictHook registers a callback invoked once per record removed by the
// janitor sweep. It is not called for explicit deletes.
func (s *Store[V]) SetEvictHook(hook func(sessionID string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onEvict = hook
}

func (s *Store[V]) Put(sessionID string, value V) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[sessionID] = record[V]{value: value, storedAt: time.Now().UTC()}
}

func (s *Store[V]) Get(sessionID string) (V, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[sessionID]
	if !ok {
		var zero V
		return zero, ErrNotFound
	}
	return rec.value, nil
}

func (s *Store[V]) Delete(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.records[sessionID]
	if ok {
		delete(s.records, sessionID)
	}
	return ok
}

// Keys returns the current set of session ids in no particular order.
func (s *Store[V]) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.records))
	for k := range s.records {
		keys = append(keys, k)
	}
	return keys
}

func (s *Store[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// StartJanitor sweeps expired records on a fixed period until ctx is done.
// Sweeps and writes are not coordinated, so a record can survive up to
// retention+period before removal.
func (s *Store[V]) StartJanitor(ctx context.Context, period time.Duration) {
	if s.retention <= 0 {
		return
	}
	if period <= 0 {
		period = s.retention
	}
	ticker := time.NewTicker(period)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.sweep()
			}
		}
	}()
}

func (s *Store[V]) sweep() {
	now := time.Now().UTC()
	var evicted []string

	s.mu.Lock()
	for id, rec := range s.records {
		if now.Sub(rec.storedAt) < s.retention {
			continue
		}
		delete(s.records, id)
		evicted = append(evicted, id)
	}
	hook := s.onEvict
	s.mu.Unlock()

	if hook != nil {
		for _, id := range evicted {
			hook(id)
		}
	}
}
