// Pagesight - Privacy-First Web Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagesight

package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
)

// Key prefix for active-visitor presence markers in BadgerDB.
const activeKeyPrefix = "active:"

// ErrUnavailable signals that the presence backend could not answer.
// Callers must surface "unknown" rather than zero: zero active visitors is
// a legitimate real value and must never be conflated with failure.
var ErrUnavailable = errors.New("session: presence backend unavailable")

// Presence tracks which sessions are active right now via short-TTL
// presence markers. The marker's existence is the state; its value is
// empty.
type Presence struct {
	db  *badger.DB
	ttl time.Duration
}

// NewPresence creates a presence tracker on an open BadgerDB handle.
// The TTL is the activity window, on the order of minutes.
func NewPresence(db *badger.DB, ttl time.Duration) *Presence {
	return &Presence{db: db, ttl: ttl}
}

// MarkActive sets or refreshes the presence marker for a session token.
func (p *Presence) MarkActive(ctx context.Context, token string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := p.db.Update(func(txn *badger.Txn) error {
		entry := badger.NewEntry([]byte(activeKeyPrefix+token), nil).WithTTL(p.ttl)
		return txn.SetEntry(entry)
	})
	if err != nil {
		return fmt.Errorf("mark active: %w", err)
	}
	return nil
}

// CountActive returns the number of sessions with a live presence marker.
// On any backend failure it returns ErrUnavailable so the dashboard can
// render "unknown" instead of a misleading zero.
func (p *Presence) CountActive(ctx context.Context) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, ErrUnavailable
	}

	count := 0
	err := p.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(activeKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, ErrUnavailable
	}

	return count, nil
}
