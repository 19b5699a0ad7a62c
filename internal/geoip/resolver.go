// Pagesight - Privacy-First Web Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagesight

// Package geoip resolves client IPs to ISO country codes using an offline
// MaxMind GeoLite2 database. Lookups against a loaded database never fail:
// private addresses, loopback, and database misses all resolve to the
// empty string, which persists as NULL. A missing or corrupt database file
// is a startup-time configuration failure, not a per-request error.
package geoip

import (
	"fmt"
	"net"

	"github.com/oschwald/geoip2-golang"

	"github.com/tomtom215/pagesight/internal/metrics"
)

// Resolver maps a client IP to a 2-letter country code, empty for unknown.
type Resolver interface {
	// CountryCode returns the ISO 3166-1 alpha-2 code, or "" when the
	// address cannot be resolved.
	CountryCode(ip string) string

	// Close releases the underlying database handle.
	Close() error
}

// MaxMindResolver implements Resolver over a GeoLite2 .mmdb file.
// The reader is read-only and safe for concurrent lookups.
type MaxMindResolver struct {
	reader *geoip2.Reader
}

// Open loads the database file. Failure here is fatal to the service;
// provisioning of the file itself is an operational concern.
func Open(path string) (*MaxMindResolver, error) {
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open geoip database %s: %w", path, err)
	}
	return &MaxMindResolver{reader: reader}, nil
}

// CountryCode implements Resolver.
func (r *MaxMindResolver) CountryCode(ip string) string {
	parsed := net.ParseIP(ip)
	if parsed == nil || parsed.IsLoopback() || parsed.IsPrivate() || parsed.IsUnspecified() {
		metrics.GeoIPLookupsTotal.WithLabelValues("miss").Inc()
		return ""
	}

	record, err := r.reader.Country(parsed)
	if err != nil || record == nil || record.Country.IsoCode == "" {
		metrics.GeoIPLookupsTotal.WithLabelValues("miss").Inc()
		return ""
	}

	metrics.GeoIPLookupsTotal.WithLabelValues("hit").Inc()
	return record.Country.IsoCode
}

// Close implements Resolver.
func (r *MaxMindResolver) Close() error {
	return r.reader.Close()
}

// NopResolver is used when GeoIP is disabled: every lookup is unknown.
type NopResolver struct{}

// CountryCode implements Resolver.
func (NopResolver) CountryCode(string) string { return "" }

// Close implements Resolver.
func (NopResolver) Close() error { return nil }
