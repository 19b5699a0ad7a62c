// Pagesight - Privacy-First Web Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagesight

package dedup

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/pagesight/internal/visitor"
)

// MemoryStore is an in-process Store for tests. Entries expire lazily on
// the next check; no background sweeper runs.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[visitor.Identity]time.Time // identity -> expiry
	now     func() time.Time
}

// NewMemoryStore creates an in-memory dedup store with the given TTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		entries: make(map[visitor.Identity]time.Time),
		now:     time.Now,
	}
}

// SetNowFunc overrides the clock, enabling expiry tests without sleeping.
func (s *MemoryStore) SetNowFunc(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// CheckAndRecord implements Store with a mutex serving as the atomicity
// guarantee.
func (s *MemoryStore) CheckAndRecord(ctx context.Context, id visitor.Identity) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if expiry, ok := s.entries[id]; ok && now.Before(expiry) {
		return false, nil
	}

	s.entries[id] = now.Add(s.ttl)
	return true, nil
}

// Close implements Store.
func (s *MemoryStore) Close() error {
	return nil
}
