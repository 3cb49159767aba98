// Zonevalue - Assessed Land Value Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/zonevalue

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tomtom215/zonevalue/internal/config"
	"github.com/tomtom215/zonevalue/internal/middleware"
)

// Router sets up HTTP routes using Chi router.
type Router struct {
	handler       *Handler
	chiMiddleware *ChiMiddleware
	apiKey        string
}

// NewRouter builds a Router from the security section.
func NewRouter(handler *Handler, sec config.SecurityConfig) *Router {
	mwConfig := ChiMiddlewareConfigFromSecurity(sec)
	mwConfig.RateLimitOnLimit = handler.RateLimited

	return &Router{
		handler:       handler,
		chiMiddleware: NewChiMiddleware(mwConfig),
		apiKey:        sec.APIKey,
	}
}

// chiMiddleware adapts http.HandlerFunc middleware to Chi's func(http.Handler) http.Handler.
func chiMiddleware(mw func(http.HandlerFunc) http.HandlerFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return mw(next.ServeHTTP)
	}
}

// SetupChi configures all HTTP routes.
func (router *Router) SetupChi() http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDWithLogging())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(router.chiMiddleware.CORS()) // must be global to answer OPTIONS preflight

	r.NotFound(router.handler.NotFound)
	r.MethodNotAllowed(router.handler.MethodNotAllowed)

	r.Get("/health", router.handler.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(router.chiMiddleware.RateLimit())
		r.Use(middleware.APIKey(router.apiKey, router.handler.Unauthorized))
		r.Use(chiMiddleware(middleware.PrometheusMetrics))

		r.Post("/lookup", router.handler.Lookup)
		r.Post("/lookup-zip", router.handler.LookupZip)
	})

	return r
}
