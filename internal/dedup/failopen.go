// Pagesight - Privacy-First Web Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagesight

package dedup

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/tomtom215/pagesight/internal/logging"
	"github.com/tomtom215/pagesight/internal/visitor"
)

// Dedup cache metrics
var (
	// DedupChecksTotal counts dedup decisions by outcome.
	DedupChecksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dedup_checks_total",
			Help: "Total number of dedup cache checks",
		},
		[]string{"outcome"}, // "unique", "seen", "fail_open"
	)

	// DedupBreakerState is 1 when the dedup cache circuit breaker is open.
	DedupBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "dedup_breaker_open",
			Help: "Whether the dedup cache circuit breaker is open (1) or closed (0)",
		},
	)
)

// FailOpenConfig configures the fail-open decorator.
type FailOpenConfig struct {
	// Timeout bounds each CheckAndRecord call against the backing store.
	// Default: 500ms
	Timeout time.Duration

	// BreakerFailureThreshold is the number of consecutive backend
	// failures before the breaker opens and skips the backend entirely.
	// Default: 5
	BreakerFailureThreshold uint32

	// BreakerOpenDuration is how long the breaker stays open before a
	// probe is allowed through. Default: 30s
	BreakerOpenDuration time.Duration
}

// FailOpen wraps a Store with the documented fail-open contract: any
// backend error, timeout, or open circuit resolves to unique=true and a
// nil error. Every call site gets the guarantee uniformly instead of by
// convention.
//
// Rationale: undercounting (treating a returning visitor as new) is less
// harmful than marking all traffic non-unique during an outage, which
// would silently zero the unique-visitor metric for the outage's duration.
type FailOpen struct {
	inner   Store
	timeout time.Duration
	breaker *gobreaker.CircuitBreaker[bool]
}

// NewFailOpen wraps the given store with the fail-open policy.
func NewFailOpen(inner Store, cfg FailOpenConfig) *FailOpen {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 500 * time.Millisecond
	}
	if cfg.BreakerFailureThreshold == 0 {
		cfg.BreakerFailureThreshold = 5
	}
	if cfg.BreakerOpenDuration <= 0 {
		cfg.BreakerOpenDuration = 30 * time.Second
	}

	settings := gobreaker.Settings{
		Name:    "dedup-cache",
		Timeout: cfg.BreakerOpenDuration,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if to == gobreaker.StateOpen {
				DedupBreakerState.Set(1)
			} else {
				DedupBreakerState.Set(0)
			}
			logging.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("Dedup cache circuit breaker state change")
		},
	}

	return &FailOpen{
		inner:   inner,
		timeout: cfg.Timeout,
		breaker: gobreaker.NewCircuitBreaker[bool](settings),
	}
}

// CheckAndRecord returns the backend's decision when it is healthy, and
// unique=true with a nil error on any failure. It never returns an error.
func (f *FailOpen) CheckAndRecord(ctx context.Context, id visitor.Identity) (bool, error) {
	unique, err := f.breaker.Execute(func() (bool, error) {
		callCtx, cancel := context.WithTimeout(ctx, f.timeout)
		defer cancel()
		return f.checkWithDeadline(callCtx, id)
	})
	if err != nil {
		DedupChecksTotal.WithLabelValues("fail_open").Inc()
		logging.Ctx(ctx).Warn().Err(err).Msg("Dedup cache unavailable, assuming unique")
		return true, nil
	}

	if unique {
		DedupChecksTotal.WithLabelValues("unique").Inc()
	} else {
		DedupChecksTotal.WithLabelValues("seen").Inc()
	}
	return unique, nil
}

// checkWithDeadline runs the backend call in a goroutine so a hung backend
// cannot hang the request past the configured timeout. An abandoned call
// may still complete and mark the identity; that partial completion is
// harmless for later requests.
func (f *FailOpen) checkWithDeadline(ctx context.Context, id visitor.Identity) (bool, error) {
	type result struct {
		unique bool
		err    error
	}

	ch := make(chan result, 1)
	go func() {
		unique, err := f.inner.CheckAndRecord(ctx, id)
		ch <- result{unique: unique, err: err}
	}()

	select {
	case res := <-ch:
		return res.unique, res.err
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// Close closes the underlying store.
func (f *FailOpen) Close() error {
	return f.inner.Close()
}
