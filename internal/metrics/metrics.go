// SurviveBase - Survival Crafting Game Catalog
// Copyright 2026 Jiwoo Kim (jwkim-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwkim-dev/survivebase

// Package metrics provides Prometheus instrumentation for SurviveBase:
// upstream fetch latency and retries, catalog cache efficiency, database
// upserts, and collection job outcomes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Upstream fetch metrics
	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "survivebase_fetch_duration_seconds",
			Help:    "Duration of upstream API requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"source"}, // "steamspy", "steamstore"
	)

	FetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "survivebase_fetch_errors_total",
			Help: "Total number of failed upstream API requests",
		},
		[]string{"source", "kind"}, // kind: "rate_limited", "status", "network"
	)

	FetchRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "survivebase_fetch_retries_total",
			Help: "Total number of upstream request retries",
		},
		[]string{"source"},
	)

	// Circuit breaker state: 0 = closed, 1 = half-open, 2 = open
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "survivebase_circuit_breaker_state",
			Help: "Current circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "survivebase_circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// Catalog cache metrics
	CacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "survivebase_cache_hits_total",
			Help: "Total number of catalog cache hits per tier",
		},
		[]string{"tier"}, // "memory", "database", "snapshot", "seed"
	)

	CacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "survivebase_cache_misses_total",
			Help: "Total number of catalog reads that fell through the memory tier",
		},
	)

	// Database metrics
	GamesUpserted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "survivebase_games_upserted_total",
			Help: "Total number of games upserted to the database",
		},
	)

	UpsertBatchErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "survivebase_upsert_batch_errors_total",
			Help: "Total number of upsert batches that failed and were skipped",
		},
	)

	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "survivebase_db_query_duration_seconds",
			Help:    "Duration of DuckDB queries in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"operation"},
	)

	// Collection job metrics
	CollectionRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "survivebase_collection_runs_total",
			Help: "Total number of collection job runs by type and outcome",
		},
		[]string{"job", "status"}, // job: "full", "incremental"; status: "ok", "error"
	)

	CollectionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "survivebase_collection_duration_seconds",
			Help:    "Duration of collection job runs in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1200},
		},
		[]string{"job"},
	)

	CatalogSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "survivebase_catalog_size",
			Help: "Number of games currently in the catalog",
		},
	)
)
