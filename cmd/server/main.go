// Meridian - World Event Intelligence and Geographic Anomaly Detection
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/meridian

// Package main is the entry point for the Meridian server.
//
// Meridian ingests normalized world events, scans them for geographic
// anomalies per domain, and synthesizes situation briefs through a cascade
// of free-tier text-generation models with a deterministic local fallback.
//
// The server initializes components in the following order:
//
//  1. Configuration: Koanf v2 layered sources (defaults, YAML file, env)
//  2. Logging: global zerolog logger
//  3. Event store: embedded BadgerDB with retention TTL
//  4. Detection: geo-domain anomaly detector plus its refresh loop
//  5. Brief synthesis: the model cascade
//  6. HTTP API: Chi router with ingest, query, anomaly, and brief routes
//
// The refresh loop and HTTP server run under a suture supervision tree and
// shut down gracefully on SIGINT and SIGTERM.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/meridian/internal/api"
	"github.com/tomtom215/meridian/internal/brief"
	"github.com/tomtom215/meridian/internal/config"
	"github.com/tomtom215/meridian/internal/detection"
	"github.com/tomtom215/meridian/internal/logging"
	"github.com/tomtom215/meridian/internal/store"
	"github.com/tomtom215/meridian/internal/supervisor"
	"github.com/tomtom215/meridian/internal/supervisor/services"
)

func main() {
	if err := run(); err != nil {
		logging.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}
	logging.Init(cfg.Logging)

	logging.Info().
		Str("host", cfg.Server.Host).
		Int("port", cfg.Server.Port).
		Bool("in_memory_store", cfg.Store.InMemory).
		Msg("starting meridian")
	if cfg.Brief.APIKey == "" {
		logging.Warn().Msg("no brief API credential configured, briefs will use the local summary")
	}

	eventStore, err := store.Open(store.Config{
		Path:      cfg.Store.Path,
		InMemory:  cfg.Store.InMemory,
		Retention: cfg.Store.Retention,
	})
	if err != nil {
		return fmt.Errorf("open event store: %w", err)
	}
	defer func() {
		if err := eventStore.Close(); err != nil {
			logging.Error().Err(err).Msg("event store close failed")
		}
	}()

	detector := detection.NewDetector(cfg.Detection.Detector())
	refresh := services.NewRefreshService(eventStore, detector, cfg.Detection.RefreshInterval)
	synth := brief.NewSynthesizer(cfg.Brief)

	handlers := api.NewHandlers(eventStore, refresh, synth)
	router := api.NewRouter(handlers, api.RouterConfig{
		CORSOrigins:     cfg.Server.CORSOrigins,
		RateLimitReqs:   cfg.Server.RateLimitReqs,
		RateLimitWindow: cfg.Server.RateLimitWindow,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	treeCfg := supervisor.DefaultTreeConfig()
	treeCfg.ShutdownTimeout = cfg.Server.ShutdownTimeout
	tree := supervisor.NewTree(logging.NewSlogLogger(), treeCfg)
	tree.AddAnalysisService(refresh)
	tree.AddAPIService(services.NewHTTPService(server, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = tree.Serve(ctx)
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("supervisor: %w", err)
	}
	logging.Info().Msg("meridian stopped")
	return nil
}
