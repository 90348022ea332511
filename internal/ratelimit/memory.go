package ratelimit

import (
	"context"
	"sync"
	"time"
)

var (
	_ Store   = (*MemoryStore)(nil)
	_ Sweeper = (*MemoryStore)(nil)
)

// MemoryStore keeps records in a process-wide map. It is only consistent
// within one process; use RedisStore when several replicas share a quota.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Record)}
}

func (s *MemoryStore) Hit(ctx context.Context, key string, now time.Time, window time.Duration, max int) (Decision, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok || now.Sub(rec.WindowStart) >= window {
		rec = &Record{Count: 1, WindowStart: now}
		s.records[key] = rec
		return Decision{Allowed: true, Count: 1, Limit: max, ResetAt: now.Add(window)}, nil
	}

	resetAt := rec.WindowStart.Add(window)
	if rec.Count >= max {
		return Decision{Allowed: false, Count: rec.Count, Limit: max, ResetAt: resetAt}, nil
	}
	rec.Count++
	return Decision{Allowed: true, Count: rec.Count, Limit: max, ResetAt: resetAt}, nil
}

// Record returns a copy of the record for key.
func (s *MemoryStore) Record(key string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[key]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

// Sweep removes records whose window has elapsed and returns how many were removed.
func (s *MemoryStore) Sweep(now time.Time, window time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, rec := range s.records {
		if now.Sub(rec.WindowStart) >= window {
			delete(s.records, key)
			removed++
		}
	}
	return removed
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
