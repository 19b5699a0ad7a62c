// Pagesight - Privacy-First Web Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagesight

package dedup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/pagesight/internal/visitor"
)

// Key prefix for dedup entries in BadgerDB. The cache is shared with the
// session and presence stores, so every component namespaces its keys.
const dedupKeyPrefix = "seen:"

// BadgerStore implements Store on BadgerDB with TTL'd presence entries.
type BadgerStore struct {
	db  *badger.DB
	ttl time.Duration
}

// NewBadgerStore creates a dedup store on an open BadgerDB handle.
// The TTL should match the identity rotation window (24h) so "today"
// resets by expiry without an explicit sweep.
func NewBadgerStore(db *badger.DB, ttl time.Duration) *BadgerStore {
	return &BadgerStore{db: db, ttl: ttl}
}

// CheckAndRecord performs the set-if-absent check inside a single Badger
// transaction. Badger's SSI conflict detection guarantees at most one
// winner when two transactions race on the same absent key: the loser's
// commit fails with ErrConflict, which means another request recorded the
// identity first and this one is not unique.
func (s *BadgerStore) CheckAndRecord(ctx context.Context, id visitor.Identity) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	key := []byte(dedupKeyPrefix + id.String())
	unique := false

	err := s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key)
		if err == nil {
			unique = false
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("get dedup entry: %w", err)
		}

		entry := badger.NewEntry(key, nil).WithTTL(s.ttl)
		if err := txn.SetEntry(entry); err != nil {
			return fmt.Errorf("set dedup entry: %w", err)
		}
		unique = true
		return nil
	})

	if errors.Is(err, badger.ErrConflict) {
		// A concurrent request won the race for this identity.
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return unique, nil
}

// Close is a no-op: the BadgerDB handle is shared and owned by the caller.
func (s *BadgerStore) Close() error {
	return nil
}
