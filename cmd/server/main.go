// Pagesight - Privacy-First Web Analytics
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/pagesight

// Package main is the entry point for the Pagesight collector.
//
// Pagesight is a self-hosted, privacy-first web analytics collector. It
// ingests telemetry events from a browser tracker over three transports
// (beacon POST, fetch POST, and a base64 image pixel), derives anonymous
// daily-rotating visitor identities, and persists pageview records without
// ever storing an IP address or raw user agent.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: layered settings from env vars and config.yaml (Koanf v2)
//  2. BadgerDB: dedup cache, session continuity, and presence markers
//  3. GeoIP: offline MaxMind country database (optional)
//  4. DuckDB: durable pageview store
//  5. Ingest pipeline: bot filter, identity hasher, fail-open dedup
//  6. HTTP server: collection endpoint, dashboard API, Prometheus scrape
//
// Long-running components run under a suture supervisor tree: the Badger
// value-log GC loop in the cache layer and the HTTP server in the API
// layer, so a failure in one restarts without taking down the other.
//
// # Configuration
//
// Environment variables use the PAGESIGHT_ prefix, e.g.:
//
//	export PAGESIGHT_SERVER_PORT=8484
//	export PAGESIGHT_DATABASE_PATH=/data/pagesight.duckdb
//	export PAGESIGHT_CACHE_IN_MEMORY=true
//	export PAGESIGHT_GEOIP_ENABLED=true
//	export PAGESIGHT_GEOIP_PATH=/data/GeoLite2-Country.mmdb
//	export PAGESIGHT_SECURITY_CORS_ORIGINS=https://example.com
//	./pagesight
//
// # Signal Handling
//
// The server handles graceful shutdown on SIGINT and SIGTERM: it stops
// accepting new connections, waits for in-flight requests, then closes the
// cache and database.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	badger "github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/pagesight/internal/api"
	"github.com/tomtom215/pagesight/internal/config"
	"github.com/tomtom215/pagesight/internal/database"
	"github.com/tomtom215/pagesight/internal/dedup"
	"github.com/tomtom215/pagesight/internal/geoip"
	"github.com/tomtom215/pagesight/internal/ingest"
	"github.com/tomtom215/pagesight/internal/logging"
	"github.com/tomtom215/pagesight/internal/session"
	"github.com/tomtom215/pagesight/internal/supervisor"
	"github.com/tomtom215/pagesight/internal/supervisor/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})

	logging.Info().
		Str("addr", cfg.Server.Addr()).
		Str("db_path", cfg.Database.Path).
		Bool("geoip_enabled", cfg.GeoIP.Enabled).
		Msg("Starting Pagesight")

	// BadgerDB backs the dedup cache, session aggregates, and presence
	// markers. All three are rebuildable, so in-memory mode is a valid
	// production choice for small sites.
	cache, err := openCache(&cfg.Cache)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open cache")
	}
	defer func() {
		if err := cache.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing cache")
		}
	}()

	// A configured-but-unreadable GeoIP database is a deployment error,
	// not something to silently degrade around at startup.
	var resolver ingest.GeoResolver
	if cfg.GeoIP.Enabled {
		mmdb, err := geoip.Open(cfg.GeoIP.Path)
		if err != nil {
			logging.Fatal().Err(err).Str("path", cfg.GeoIP.Path).Msg("Failed to open GeoIP database")
		}
		defer func() {
			if err := mmdb.Close(); err != nil {
				logging.Error().Err(err).Msg("Error closing GeoIP database")
			}
		}()
		resolver = mmdb
		logging.Info().Str("path", cfg.GeoIP.Path).Msg("GeoIP resolution enabled")
	} else {
		resolver = geoip.NopResolver{}
		logging.Info().Msg("GeoIP resolution disabled")
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized")

	dedupStore := dedup.NewFailOpen(
		dedup.NewBadgerStore(cache, cfg.Cache.DedupTTL),
		dedup.FailOpenConfig{Timeout: cfg.Cache.Timeout},
	)
	sessions := session.NewStore(cache, cfg.Cache.SessionTTL)
	presence := session.NewPresence(cache, cfg.Cache.ActiveTTL)

	processor := ingest.NewProcessor(dedupStore, sessions, presence, resolver, db)
	handler := api.NewHandler(processor, presence, db, db)
	router := api.NewRouter(handler, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Bridge zerolog to slog for sutureslog.
	slogLogger := logging.NewSlogLogger()

	tree, err := supervisor.NewTree(slogLogger, supervisor.DefaultTreeConfig())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	if !cfg.Cache.InMemory {
		tree.AddCacheService(services.NewBadgerGCService(cache, cfg.Cache.GCInterval))
	}

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Application stopped gracefully")
}

// openCache opens the BadgerDB instance shared by the dedup, session, and
// presence stores. Badger's own logger is silenced; supervisor and store
// logs cover the interesting events.
func openCache(cfg *config.CacheConfig) (*badger.DB, error) {
	opts := badger.DefaultOptions(cfg.Dir).
		WithLogger(nil).
		WithInMemory(cfg.InMemory)
	if cfg.InMemory {
		opts.Dir = ""
		opts.ValueDir = ""
	}
	return badger.Open(opts)
}
