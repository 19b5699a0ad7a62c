// Pagesight - Privacy-First Web Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagesight

// Package session tracks session-scoped engagement aggregates and the
// short-lived "active right now" presence markers. Both are keyed by the
// client-supplied session token and live in the shared BadgerDB cache
// with independent TTLs; neither is linked to a visitor identity.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/pagesight/internal/models"
)

// Key prefix for session aggregate entries in BadgerDB.
const sessionKeyPrefix = "sess:"

// conflictRetries bounds optimistic-transaction retries under concurrent
// updates to the same session token.
const conflictRetries = 3

// ErrConflictExhausted indicates repeated write conflicts on one token.
var ErrConflictExhausted = errors.New("session: too many concurrent updates")

// Store is the session continuity store. Aggregation is monotonic so that
// out-of-order delivery of engagement beacons cannot move aggregates
// backward: scroll depth is max'd, duration takes the latest cumulative
// value, visibility changes are summed.
type Store struct {
	db  *badger.DB
	ttl time.Duration
}

// NewStore creates a session store on an open BadgerDB handle. The TTL is
// the inactivity window after which a session expires; every update
// refreshes it.
func NewStore(db *badger.DB, ttl time.Duration) *Store {
	return &Store{db: db, ttl: ttl}
}

// Apply merges one beacon's engagement delta into the session record for
// the token, creating the record if the token is new. Absence of a session
// on update is not an error; it is session creation.
func (s *Store) Apply(ctx context.Context, token string, delta models.SessionDelta) (models.SessionRecord, error) {
	var record models.SessionRecord

	for attempt := 0; attempt <= conflictRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return models.SessionRecord{}, err
		}

		err := s.db.Update(func(txn *badger.Txn) error {
			var err error
			record, err = s.merge(txn, token, delta)
			return err
		})
		if errors.Is(err, badger.ErrConflict) {
			continue
		}
		if err != nil {
			return models.SessionRecord{}, err
		}
		return record, nil
	}

	return models.SessionRecord{}, ErrConflictExhausted
}

// merge reads, merges, and rewrites the session record inside a transaction.
func (s *Store) merge(txn *badger.Txn, token string, delta models.SessionDelta) (models.SessionRecord, error) {
	key := []byte(sessionKeyPrefix + token)

	record := models.SessionRecord{
		Token:     token,
		FirstSeen: delta.SeenAt,
	}

	item, err := txn.Get(key)
	switch {
	case err == nil:
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		}); err != nil {
			return models.SessionRecord{}, fmt.Errorf("decode session record: %w", err)
		}
	case errors.Is(err, badger.ErrKeyNotFound):
		// New session.
	default:
		return models.SessionRecord{}, fmt.Errorf("get session record: %w", err)
	}

	// Monotonic aggregation.
	if delta.ScrollPercent > record.MaxScrollPercent {
		record.MaxScrollPercent = delta.ScrollPercent
	}
	if delta.DurationSeconds > record.DurationSeconds {
		record.DurationSeconds = delta.DurationSeconds
	}
	record.VisibilityChange += delta.VisibilityChange
	if delta.SeenAt.After(record.LastSeen) {
		record.LastSeen = delta.SeenAt
	}

	data, err := json.Marshal(&record)
	if err != nil {
		return models.SessionRecord{}, fmt.Errorf("encode session record: %w", err)
	}

	entry := badger.NewEntry(key, data).WithTTL(s.ttl)
	if err := txn.SetEntry(entry); err != nil {
		return models.SessionRecord{}, fmt.Errorf("set session record: %w", err)
	}

	return record, nil
}

// Get returns the current aggregates for a token. Returns false when the
// session does not exist or has expired.
func (s *Store) Get(ctx context.Context, token string) (models.SessionRecord, bool, error) {
	if err := ctx.Err(); err != nil {
		return models.SessionRecord{}, false, err
	}

	var record models.SessionRecord
	found := false

	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(sessionKeyPrefix + token))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("get session record: %w", err)
		}
		found = true
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		})
	})
	if err != nil {
		return models.SessionRecord{}, false, err
	}

	return record, found, nil
}
