// Pagesight - Privacy-First Web Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagesight

package services

import (
	"context"
	"errors"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/pagesight/internal/logging"
)

// BadgerGCService runs BadgerDB value-log garbage collection on a fixed
// interval. Badger never reclaims value-log space on its own; without this
// loop the expired dedup, session, and presence entries accumulate on disk
// indefinitely.
type BadgerGCService struct {
	db       *badger.DB
	interval time.Duration
	name     string
}

// NewBadgerGCService creates a GC service for the given Badger instance.
func NewBadgerGCService(db *badger.DB, interval time.Duration) *BadgerGCService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &BadgerGCService{
		db:       db,
		interval: interval,
		name:     "badger-gc",
	}
}

// Serve implements suture.Service. RunValueLogGC returns ErrNoRewrite when
// there is nothing worth rewriting; that is the steady state, not a failure.
// A successful rewrite is retried immediately since more files may qualify.
func (s *BadgerGCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			for {
				err := s.db.RunValueLogGC(0.5)
				if err == nil {
					continue
				}
				if !errors.Is(err, badger.ErrNoRewrite) {
					logging.Warn().Err(err).Msg("Badger value-log GC failed")
				}
				break
			}
		}
	}
}

// String implements fmt.Stringer for supervisor logging.
func (s *BadgerGCService) String() string {
	return s.name
}
