// SurviveBase - Survival Crafting Game Catalog
// Copyright 2026 Jiwoo Kim (jwkim-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwkim-dev/survivebase

package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/goccy/go-json"

	"github.com/jwkim-dev/survivebase/internal/config"
	"github.com/jwkim-dev/survivebase/internal/fetch"
	"github.com/jwkim-dev/survivebase/internal/logging"
	"github.com/jwkim-dev/survivebase/internal/metrics"
	"github.com/jwkim-dev/survivebase/internal/models"
)

// Steam category IDs mapped to capability flags. Several distinct co-op
// category IDs all collapse into the single coop flag.
const (
	categorySingleplayer = 2
	categoryMultiplayer  = 1
	categoryCoop         = 9
	categoryOnlineCoop   = 38
	categoryLANCoop      = 48
)

// maxScreenshots caps the screenshots carried into the catalog.
const maxScreenshots = 5

// DetailRecord is the normalized rich per-game record from the storefront.
type DetailRecord struct {
	AppID       int64
	Name        string
	Description string
	HeaderImage string
	Screenshots []string
	Price       models.Price
	ReleaseDate string
	Genres      []string
	Categories  models.Categories
}

// storeEnvelope is the appdetails response: an object keyed by appid string.
type storeEnvelope map[string]struct {
	Success bool          `json:"success"`
	Data    *rawStoreGame `json:"data"`
}

type rawStoreGame struct {
	Type             string `json:"type"`
	Name             string `json:"name"`
	SteamAppID       int64  `json:"steam_appid"`
	IsFree           bool   `json:"is_free"`
	ShortDescription string `json:"short_description"`
	HeaderImage      string `json:"header_image"`
	Screenshots      []struct {
		PathFull string `json:"path_full"`
	} `json:"screenshots"`
	PriceOverview *struct {
		Initial         int `json:"initial"`
		Final           int `json:"final"`
		DiscountPercent int `json:"discount_percent"`
	} `json:"price_overview"`
	ReleaseDate *struct {
		ComingSoon bool   `json:"coming_soon"`
		Date       string `json:"date"`
	} `json:"release_date"`
	Genres []struct {
		Description string `json:"description"`
	} `json:"genres"`
	Categories []struct {
		ID int `json:"id"`
	} `json:"categories"`
}

// StoreClient queries the Steam storefront appdetails API. The storefront
// rate limit is undocumented (~200 requests per 5 minutes), so concurrency
// and request spacing are tuned conservatively from configuration.
type StoreClient struct {
	cfg        *config.SteamStoreConfig
	httpClient *http.Client
	gate       *fetch.Gate
	retry      fetch.RetryOptions
}

// NewStoreClient creates a storefront client from configuration.
func NewStoreClient(cfg *config.SteamStoreConfig) *StoreClient {
	retry := fetch.DefaultRetryOptions("steamstore")
	if cfg.RetryAttempts > 0 {
		retry.MaxRetries = cfg.RetryAttempts
	}
	if cfg.RetryDelay > 0 {
		retry.InitialDelay = cfg.RetryDelay
	}
	return &StoreClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		gate:       fetch.NewGate(cfg.RequestSpacing),
		retry:      retry,
	}
}

// Gate exposes the client's rate gate so batch drivers share it.
func (c *StoreClient) Gate() *fetch.Gate {
	return c.gate
}

// FetchGame fetches and normalizes detail for one appid, with retry on
// transient failures. A (nil, nil) return means the storefront has no usable
// record for this appid: a delisted or invalid id, or a non-game entity
// (DLC, video). That is a normal outcome, not an error.
func (c *StoreClient) FetchGame(ctx context.Context, appID int64) (*DetailRecord, error) {
	return fetch.WithRetry(ctx, c.retry, func() (*DetailRecord, error) {
		return c.fetchGameOnce(ctx, appID)
	})
}

func (c *StoreClient) fetchGameOnce(ctx context.Context, appID int64) (*DetailRecord, error) {
	query := url.Values{}
	query.Set("appids", strconv.FormatInt(appID, 10))
	query.Set("cc", c.cfg.CountryCode)
	query.Set("l", c.cfg.Language)
	reqURL := fmt.Sprintf("%s/appdetails?%s", c.cfg.URL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.FetchErrors.WithLabelValues("steamstore", "network").Inc()
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()
	metrics.FetchDuration.WithLabelValues("steamstore").Observe(time.Since(start).Seconds())

	// 429 must be checked before the generic non-OK check: a rate-limited
	// response is otherwise indistinguishable from a plain upstream error
	// and would not be retried as rate-limited.
	if resp.StatusCode == http.StatusTooManyRequests {
		metrics.FetchErrors.WithLabelValues("steamstore", "rate_limited").Inc()
		return nil, fetch.ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		metrics.FetchErrors.WithLabelValues("steamstore", "status").Inc()
		return nil, &fetch.StatusError{Source: "steamstore", StatusCode: resp.StatusCode}
	}

	var envelope storeEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	entry, ok := envelope[strconv.FormatInt(appID, 10)]
	if !ok || !entry.Success || entry.Data == nil {
		return nil, nil // delisted or invalid appid
	}
	game := entry.Data

	// Only games enter the catalog, not DLC, videos, soundtracks, etc.
	if game.Type != "game" {
		return nil, nil
	}

	return normalizeStoreGame(game), nil
}

// normalizeStoreGame converts the raw wire format into a DetailRecord.
func normalizeStoreGame(game *rawStoreGame) *DetailRecord {
	categoryIDs := make(map[int]bool, len(game.Categories))
	for _, c := range game.Categories {
		categoryIDs[c.ID] = true
	}

	price := models.Price{IsFree: game.IsFree}
	if game.PriceOverview != nil {
		price.Initial = game.PriceOverview.Initial
		price.Final = game.PriceOverview.Final
		price.DiscountPercent = game.PriceOverview.DiscountPercent
	}

	// Empty release date means unreleased ("coming soon") or unknown.
	releaseDate := ""
	if game.ReleaseDate != nil && !game.ReleaseDate.ComingSoon {
		releaseDate = game.ReleaseDate.Date
	}

	screenshots := make([]string, 0, maxScreenshots)
	for _, s := range game.Screenshots {
		if len(screenshots) == maxScreenshots {
			break
		}
		screenshots = append(screenshots, s.PathFull)
	}

	genres := make([]string, 0, len(game.Genres))
	for _, g := range game.Genres {
		genres = append(genres, g.Description)
	}

	return &DetailRecord{
		AppID:       game.SteamAppID,
		Name:        game.Name,
		Description: game.ShortDescription,
		HeaderImage: game.HeaderImage,
		Screenshots: screenshots,
		Price:       price,
		ReleaseDate: releaseDate,
		Genres:      genres,
		Categories: models.Categories{
			Singleplayer: categoryIDs[categorySingleplayer],
			Multiplayer:  categoryIDs[categoryMultiplayer],
			Coop: categoryIDs[categoryCoop] ||
				categoryIDs[categoryOnlineCoop] ||
				categoryIDs[categoryLANCoop],
		},
	}
}

// DetailSource fetches detail records for a list of appids. Implemented by
// StoreClient and by its circuit-breaker wrapper.
type DetailSource interface {
	FetchGame(ctx context.Context, appID int64) (*DetailRecord, error)
	Gate() *fetch.Gate
}

// ProgressFunc reports batch progress as (completed, total). It is invoked
// after every finished appid whether or not it produced a record.
type ProgressFunc func(completed, total int)

// FetchGames fetches details for all appids through a bounded worker pool
// sharing the source's rate gate. The returned map contains only appids that
// produced a valid normalized record; per-appid failures are logged and
// dropped, never aborting the batch.
func FetchGames(ctx context.Context, src DetailSource, concurrency int, appIDs []int64, onProgress ProgressFunc) map[int64]*DetailRecord {
	total := len(appIDs)
	var completed atomic.Int64

	results := fetch.Map(ctx, appIDs, concurrency, src.Gate(), func(ctx context.Context, appID int64, _ int) (*DetailRecord, error) {
		record, err := src.FetchGame(ctx, appID)
		done := int(completed.Add(1))
		if onProgress != nil {
			onProgress(done, total)
		}
		if err != nil {
			return nil, fmt.Errorf("appid %d: %w", appID, err)
		}
		return record, nil
	})

	games := make(map[int64]*DetailRecord, len(results))
	for i, result := range results {
		if !result.Ok() {
			logging.Warn().Err(result.Err).Int64("appid", appIDs[i]).Msg("Steam Store fetch failed, skipping")
			continue
		}
		if result.Value != nil {
			games[appIDs[i]] = result.Value
		}
	}
	return games
}
