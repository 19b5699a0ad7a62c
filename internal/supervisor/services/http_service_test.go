// Pagesight - Privacy-First Web Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagesight

package services

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"
)

// mockHTTPServer implements HTTPServer for lifecycle tests.
type mockHTTPServer struct {
	listenErr   error
	shutdownErr error
	stopCh      chan struct{}
	shutdowns   int
}

func newMockHTTPServer() *mockHTTPServer {
	return &mockHTTPServer{stopCh: make(chan struct{})}
}

func (m *mockHTTPServer) ListenAndServe() error {
	if m.listenErr != nil {
		return m.listenErr
	}
	<-m.stopCh
	return http.ErrServerClosed
}

func (m *mockHTTPServer) Shutdown(_ context.Context) error {
	m.shutdowns++
	close(m.stopCh)
	return m.shutdownErr
}

func TestHTTPServerService_Serve(t *testing.T) {
	t.Run("startup_failure_returned", func(t *testing.T) {
		server := newMockHTTPServer()
		server.listenErr = errors.New("address in use")
		svc := NewHTTPServerService(server, time.Second)

		err := svc.Serve(context.Background())
		if err == nil {
			t.Fatal("Expected error from failed startup")
		}
	})

	t.Run("graceful_shutdown_on_cancel", func(t *testing.T) {
		server := newMockHTTPServer()
		svc := NewHTTPServerService(server, time.Second)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- svc.Serve(ctx) }()

		time.Sleep(10 * time.Millisecond)
		cancel()

		select {
		case err := <-done:
			if !errors.Is(err, context.Canceled) {
				t.Errorf("Expected context.Canceled, got: %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Serve did not return after cancellation")
		}

		if server.shutdowns != 1 {
			t.Errorf("shutdowns = %d, want 1", server.shutdowns)
		}
	})

	t.Run("shutdown_failure_returned", func(t *testing.T) {
		server := newMockHTTPServer()
		server.shutdownErr = errors.New("connections still open")
		svc := NewHTTPServerService(server, time.Second)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- svc.Serve(ctx) }()

		time.Sleep(10 * time.Millisecond)
		cancel()

		select {
		case err := <-done:
			if err == nil || errors.Is(err, context.Canceled) {
				t.Errorf("Expected shutdown error, got: %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Fatal("Serve did not return after cancellation")
		}
	})
}

func TestHTTPServerService_String(t *testing.T) {
	svc := NewHTTPServerService(newMockHTTPServer(), 0)
	if svc.String() != "http-server" {
		t.Errorf("String() = %q, want http-server", svc.String())
	}
}
