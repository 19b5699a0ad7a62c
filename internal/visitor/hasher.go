// Pagesight - Privacy-First Web Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagesight

package visitor

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"
)

// Identity hashing errors. These indicate programming errors: validation
// has already guaranteed non-empty inputs by the time the hasher runs, so
// hitting one of these is a server fault, not a client-input case.
var (
	ErrEmptyIP        = errors.New("visitor: ip must not be empty")
	ErrEmptyUserAgent = errors.New("visitor: user agent must not be empty")
	ErrZeroTime       = errors.New("visitor: time must not be zero")
)

// Identity is the pseudonymous, daily-rotating visitor identity: a SHA-256
// digest over (ip, user agent, UTC calendar day). It exists only in memory
// for the duration of one request; only its membership in the dedup cache
// is ever recorded.
type Identity [sha256.Size]byte

// String returns the hex encoding of the digest, used as the cache key.
func (id Identity) String() string {
	return hex.EncodeToString(id[:])
}

// Hash derives the visitor identity for the given request attributes.
//
// The date component is truncated to UTC day granularity, which is the
// rotation mechanism: identical (ip, ua) inputs on the same UTC day always
// produce the same digest, and crossing midnight UTC always changes it.
// The digest is one-way; neither the IP nor the user agent is recoverable.
func Hash(ip, userAgent string, at time.Time) (Identity, error) {
	if ip == "" {
		return Identity{}, ErrEmptyIP
	}
	if userAgent == "" {
		return Identity{}, ErrEmptyUserAgent
	}
	if at.IsZero() {
		return Identity{}, ErrZeroTime
	}

	day := at.UTC().Format("2006-01-02")

	h := sha256.New()
	h.Write([]byte(ip))
	h.Write([]byte{'|'})
	h.Write([]byte(userAgent))
	h.Write([]byte{'|'})
	h.Write([]byte(day))

	var id Identity
	copy(id[:], h.Sum(nil))
	return id, nil
}
