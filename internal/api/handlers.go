// Zonevalue - Assessed Land Value Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/zonevalue

package api

import (
	"context"
	"net/http"

	"github.com/tomtom215/zonevalue/internal/logging"
	"github.com/tomtom215/zonevalue/internal/models"
	"github.com/tomtom215/zonevalue/internal/validation"
)

// Lookuper answers zone lookups. *lookup.Service implements it.
type Lookuper interface {
	ByCoordinate(ctx context.Context, lat, lng float64) models.Result
	ByPostalCode(ctx context.Context, zip string) models.Result
}

// Handler contains dependencies for API handlers.
type Handler struct {
	lookup Lookuper
}

// NewHandler creates a new API handler.
func NewHandler(lookup Lookuper) *Handler {
	return &Handler{lookup: lookup}
}

// Lookup handles POST /lookup.
func (h *Handler) Lookup(w http.ResponseWriter, r *http.Request) {
	var req LookupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		logging.CtxDebug(r.Context()).Strs("fields", verr.Fields()).Msg("Rejected coordinate lookup")
		respondFailure(w, http.StatusBadRequest, models.ErrInvalidCoordinate, verr.Error())
		return
	}

	respondResult(w, h.lookup.ByCoordinate(r.Context(), *req.Lat, *req.Lng))
}

// LookupZip handles POST /lookup-zip.
func (h *Handler) LookupZip(w http.ResponseWriter, r *http.Request) {
	var req LookupZipRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		logging.CtxDebug(r.Context()).Strs("fields", verr.Fields()).Msg("Rejected postal lookup")
		respondFailure(w, http.StatusBadRequest, models.ErrInvalidPostalCode, verr.Error())
		return
	}

	respondResult(w, h.lookup.ByPostalCode(r.Context(), string(req.Zip)))
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, healthResponse{OK: true})
}

// NotFound answers unknown routes with the failure envelope.
func (h *Handler) NotFound(w http.ResponseWriter, _ *http.Request) {
	respondFailure(w, http.StatusNotFound, "not found", "")
}

// MethodNotAllowed answers known routes called with the wrong method.
func (h *Handler) MethodNotAllowed(w http.ResponseWriter, _ *http.Request) {
	respondFailure(w, http.StatusMethodNotAllowed, "method not allowed", "")
}

// Unauthorized is the API key gate's rejection handler.
func (h *Handler) Unauthorized(w http.ResponseWriter, _ *http.Request) {
	respondFailure(w, http.StatusUnauthorized, "unauthorized", "")
}

// RateLimited is the rate limiter's rejection handler.
func (h *Handler) RateLimited(w http.ResponseWriter, _ *http.Request) {
	respondFailure(w, http.StatusTooManyRequests, "rate limit exceeded", "")
}
