// Pagesight - Privacy-First Web Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagesight

// Package api provides the HTTP boundary of Pagesight: the multi-transport
// collection endpoint, health probes, and the small dashboard-facing read
// surface, routed with Chi.
//
// The collection endpoint accepts the same logical payload over three
// transports. POST (sendBeacon and fetch-keepalive are indistinguishable
// on the wire) answers honestly: 204 on success, 4xx on invalid payloads,
// 5xx on storage failure. GET carries the payload base64-encoded in the
// `data` query parameter and always answers 200 with a 1x1 transparent
// GIF, whether or not the pipeline ran; the image beacon must be
// indistinguishable from an ordinary image load so that blockers and
// curious clients cannot detect tracker failure. The invisible-failure
// path is counted in Prometheus metrics, which is the only place it is
// observable.
package api
