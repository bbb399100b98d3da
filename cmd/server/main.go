// SurviveBase - Survival Crafting Game Catalog
// Copyright 2026 Jiwoo Kim (jwkim-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwkim-dev/survivebase

// Command server runs the SurviveBase catalog service: the HTTP API, the
// tiered catalog cache, and (when enabled) the internal collection
// scheduler, under one suture supervision tree.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/jwkim-dev/survivebase/internal/api"
	"github.com/jwkim-dev/survivebase/internal/cache"
	"github.com/jwkim-dev/survivebase/internal/collector"
	"github.com/jwkim-dev/survivebase/internal/config"
	"github.com/jwkim-dev/survivebase/internal/database"
	"github.com/jwkim-dev/survivebase/internal/logging"
	"github.com/jwkim-dev/survivebase/internal/source"
	"github.com/jwkim-dev/survivebase/internal/supervisor"
	"github.com/jwkim-dev/survivebase/internal/supervisor/services"
)

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("Server failed")
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Timestamp: true,
	})
	logging.Info().Str("addr", listenAddr(cfg)).Msg("Starting SurviveBase")

	db, err := database.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	tiered := cache.New(db, cfg.Cache.SnapshotPath, cfg.Cache.SeedPath, cfg.Cache.MemoryTTL, cfg.Cache.StaleAfter)

	spy := source.NewSpyClient(&cfg.SteamSpy)
	store := source.NewBreakerClient(source.NewStoreClient(&cfg.SteamStore))
	coll := collector.New(cfg, spy, store, db, tiered)

	handler := api.NewHandler(tiered, db, cfg)
	admin := api.NewAdminHandler(coll)
	router := api.NewRouter(handler, admin, &cfg.Server)

	server := &http.Server{
		Addr:         listenAddr(cfg),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	tree.AddAPIService(services.NewHTTPServerService(server, supervisor.DefaultTreeConfig().ShutdownTimeout))
	if cfg.Jobs.Enabled {
		tree.AddJobService(collector.NewScheduler(coll, &cfg.Jobs))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = tree.Serve(ctx)
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("supervisor: %w", err)
	}
	logging.Info().Msg("Shutdown complete")
	return nil
}

func listenAddr(cfg *config.Config) string {
	return fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
}
