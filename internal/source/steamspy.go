// SurviveBase - Survival Crafting Game Catalog
// Copyright 2026 Jiwoo Kim (jwkim-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwkim-dev/survivebase

// Package source implements the upstream API clients: SteamSpy (tag-indexed
// coarse metadata) and the Steam storefront appdetails endpoint (rich
// per-game metadata).
package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/goccy/go-json"

	"github.com/jwkim-dev/survivebase/internal/config"
	"github.com/jwkim-dev/survivebase/internal/fetch"
	"github.com/jwkim-dev/survivebase/internal/logging"
	"github.com/jwkim-dev/survivebase/internal/metrics"
)

// TagRecord is the coarse per-game record returned by SteamSpy. Its tag
// list is authoritative for catalog filtering; the query tag it was found
// under is not recorded.
type TagRecord struct {
	AppID           int64
	Name            string
	Tags            []string
	Positive        int
	Negative        int
	Owners          string
	AveragePlaytime int
}

// rawSpyRecord mirrors the SteamSpy JSON wire format. Tags arrive as a
// tag -> vote-count object.
type rawSpyRecord struct {
	AppID          int64          `json:"appid"`
	Name           string         `json:"name"`
	Positive       int            `json:"positive"`
	Negative       int            `json:"negative"`
	Owners         string         `json:"owners"`
	AverageForever int            `json:"average_forever"`
	Tags           map[string]int `json:"tags"`
}

// SpyClient queries the SteamSpy API. SteamSpy enforces a strict global rate
// limit of ~1 request/second with no documented concurrent-request
// allowance, so all requests go through a shared gate with concurrency 1.
type SpyClient struct {
	cfg        *config.SteamSpyConfig
	httpClient *http.Client
	gate       *fetch.Gate
	retry      fetch.RetryOptions
}

// NewSpyClient creates a SteamSpy client from configuration.
func NewSpyClient(cfg *config.SteamSpyConfig) *SpyClient {
	retry := fetch.DefaultRetryOptions("steamspy")
	if cfg.RetryAttempts > 0 {
		retry.MaxRetries = cfg.RetryAttempts
	}
	if cfg.RetryDelay > 0 {
		retry.InitialDelay = cfg.RetryDelay
	}
	return &SpyClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		gate:       fetch.NewGate(cfg.RequestSpacing),
		retry:      retry,
	}
}

// FetchTag queries SteamSpy for all games under a single tag, with retry on
// transient failures.
func (c *SpyClient) FetchTag(ctx context.Context, tag string) ([]TagRecord, error) {
	return fetch.WithRetry(ctx, c.retry, func() ([]TagRecord, error) {
		return c.fetchTagOnce(ctx, tag)
	})
}

func (c *SpyClient) fetchTagOnce(ctx context.Context, tag string) ([]TagRecord, error) {
	query := url.Values{}
	query.Set("request", "tag")
	query.Set("tag", tag)
	reqURL := fmt.Sprintf("%s?%s", c.cfg.URL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.FetchErrors.WithLabelValues("steamspy", "network").Inc()
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()
	metrics.FetchDuration.WithLabelValues("steamspy").Observe(time.Since(start).Seconds())

	// 429 must be recognized before the generic status check so it is
	// classified as rate-limited rather than a plain upstream error.
	if resp.StatusCode == http.StatusTooManyRequests {
		metrics.FetchErrors.WithLabelValues("steamspy", "rate_limited").Inc()
		return nil, fetch.ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		metrics.FetchErrors.WithLabelValues("steamspy", "status").Inc()
		return nil, &fetch.StatusError{Source: "steamspy", StatusCode: resp.StatusCode}
	}

	// SteamSpy returns an object keyed by appid string.
	var raw map[string]rawSpyRecord
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	records := make([]TagRecord, 0, len(raw))
	for _, r := range raw {
		records = append(records, TagRecord{
			AppID:           r.AppID,
			Name:            r.Name,
			Tags:            tagsByVotes(r.Tags),
			Positive:        r.Positive,
			Negative:        r.Negative,
			Owners:          r.Owners,
			AveragePlaytime: r.AverageForever,
		})
	}
	sort.Slice(records, func(i, j int) bool { return records[i].AppID < records[j].AppID })
	return records, nil
}

// tagsByVotes flattens the SteamSpy tag->votes object into a list ordered
// by descending vote count, ties broken alphabetically for determinism.
func tagsByVotes(votes map[string]int) []string {
	tags := make([]string, 0, len(votes))
	for tag := range votes {
		tags = append(tags, tag)
	}
	sort.Slice(tags, func(i, j int) bool {
		if votes[tags[i]] != votes[tags[j]] {
			return votes[tags[i]] > votes[tags[j]]
		}
		return tags[i] < tags[j]
	})
	return tags
}

// CollectTags queries every configured tag and merges the results into one
// map keyed by appid, deduplicated first-seen-wins: a game appearing under
// several tags keeps the record from the first tag processed, unchanged.
// Per-tag failures are logged and skipped; the caller decides whether an
// empty result aborts the run. Returns the map and the unique game count.
func (c *SpyClient) CollectTags(ctx context.Context) (map[int64]TagRecord, int, error) {
	results := fetch.Map(ctx, c.cfg.Tags, 1, c.gate, func(ctx context.Context, tag string, _ int) ([]TagRecord, error) {
		records, err := c.FetchTag(ctx, tag)
		if err != nil {
			return nil, fmt.Errorf("tag %q: %w", tag, err)
		}
		logging.Info().Str("tag", tag).Int("games", len(records)).Msg("Fetched SteamSpy tag")
		return records, nil
	})

	games := make(map[int64]TagRecord)
	for _, result := range results {
		if !result.Ok() {
			logging.Warn().Err(result.Err).Msg("SteamSpy tag query failed, skipping")
			continue
		}
		for _, record := range result.Value {
			if _, seen := games[record.AppID]; seen {
				continue // first-seen-wins
			}
			games[record.AppID] = record
		}
	}

	if err := ctx.Err(); err != nil {
		return games, len(games), err
	}
	return games, len(games), nil
}
