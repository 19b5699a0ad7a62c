// Pagesight - Privacy-First Web Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagesight

// Package supervisor provides the suture-based supervision tree that keeps
// Pagesight's long-running components alive.
//
// The tree has two child layers under the root: a cache layer for BadgerDB
// maintenance and an API layer for the HTTP server. Failures restart the
// crashed service with exponential backoff; a persistent failure in one
// layer never takes down the other.
package supervisor
