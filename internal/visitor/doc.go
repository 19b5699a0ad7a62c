// Pagesight - Privacy-First Web Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagesight

// Package visitor contains the pure per-request classifiers of the
// ingestion pipeline: the rotating visitor identity hasher, the bot
// filter, and the referrer categorizer. Nothing in this package holds
// state or performs I/O.
package visitor
