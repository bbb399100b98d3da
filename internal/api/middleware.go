// SurviveBase - Survival Crafting Game Catalog
// Copyright 2026 Jiwoo Kim (jwkim-dev)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/jwkim-dev/survivebase

package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/jwkim-dev/survivebase/internal/logging"
)

// RequestID assigns a unique ID to every request, carries it through the
// context, and echoes it in the X-Request-ID header. An inbound
// X-Request-ID from a trusted proxy is preserved.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get("X-Request-ID")
			if requestID == "" {
				requestID = logging.GenerateRequestID()
			}
			ctx := logging.ContextWithRequestID(r.Context(), requestID)
			w.Header().Set("X-Request-ID", requestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestLogger logs one line per request at debug level.
func RequestLogger() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logging.Ctx(r.Context()).Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Dur("duration", time.Since(start)).
				Msg("Request handled")
		})
	}
}

// CORS builds the CORS handler from configured origins. With no origins
// configured, cross-origin requests are refused.
func CORS(origins []string) func(http.Handler) http.Handler {
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		MaxAge:         86400,
	})
}

// RateLimit limits requests per IP per minute.
func RateLimit(requestsPerMinute int) func(http.Handler) http.Handler {
	return httprate.Limit(
		requestsPerMinute,
		time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			NewResponseWriter(w, r).Error(http.StatusTooManyRequests, ErrCodeTooManyRequests, "Rate limit exceeded")
		}),
	)
}

// BearerAuth gates a route group behind a static bearer token. With no
// token configured the group is disabled outright rather than left open.
func BearerAuth(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token == "" {
				NewResponseWriter(w, r).Unauthorized("Admin endpoints are not configured")
				return
			}
			header := r.Header.Get("Authorization")
			presented, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(presented), []byte(token)) != 1 {
				logging.Ctx(r.Context()).Warn().Str("path", r.URL.Path).Msg("Rejected admin request with invalid token")
				NewResponseWriter(w, r).Unauthorized("Invalid or missing bearer token")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
