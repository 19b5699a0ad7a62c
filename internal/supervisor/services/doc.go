// Pagesight - Privacy-First Web Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagesight

// Package services contains suture.Service wrappers that adapt component
// lifecycles (blocking serve loops, periodic maintenance) to the
// supervisor's context-aware Serve contract.
package services
