// Zonevalue - Assessed Land Value Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/zonevalue

package api

import (
	"errors"
	"net/http"

	"github.com/goccy/go-json"

	"github.com/tomtom215/zonevalue/internal/logging"
	"github.com/tomtom215/zonevalue/internal/models"
)

// maxBodyBytes bounds request bodies; lookup bodies are a few dozen bytes.
const maxBodyBytes = 16 << 10

// ErrInvalidJSON is the label for bodies that do not decode.
const ErrInvalidJSON = "invalid JSON"

// lookupResponse is the success body. Zone fields are always present, null
// when the upstream did not supply them.
type lookupResponse struct {
	Success              bool     `json:"success"`
	AssessedValuePerArea *float64 `json:"assessedValuePerArea"`
	ZoneID               *string  `json:"zoneId"`
	ZoneName             *string  `json:"zoneName"`
	Cached               bool     `json:"cached"`

	Zip string `json:"zip,omitempty"`
	*models.GeocodeMatch
}

// failureResponse is the failure body.
type failureResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Detail  string `json:"detail,omitempty"`
	Cached  bool   `json:"cached,omitempty"`

	Zip string `json:"zip,omitempty"`
	*models.GeocodeMatch
}

type healthResponse struct {
	OK bool `json:"ok"`
}

// respondJSON sends a JSON response with proper headers.
func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	data, err := json.Marshal(body)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// respondFailure sends the failure envelope.
func respondFailure(w http.ResponseWriter, status int, label, detail string) {
	respondJSON(w, status, failureResponse{Error: label, Detail: detail})
}

// respondResult renders a lookup outcome.
func respondResult(w http.ResponseWriter, res models.Result) {
	status, body := ResultBody(res)
	respondJSON(w, status, body)
}

// ResultBody returns the HTTP status and JSON body for a lookup outcome.
// Operational failures answer 200; only a validation failure escaping the
// orchestrator maps to 400.
func ResultBody(res models.Result) (int, interface{}) {
	if res.Success() {
		return http.StatusOK, lookupResponse{
			Success:              true,
			AssessedValuePerArea: res.Zone.AssessedValuePerArea,
			ZoneID:               res.Zone.ZoneID,
			ZoneName:             res.Zone.ZoneName,
			Cached:               res.Cached,
			Zip:                  res.PostalCode,
			GeocodeMatch:         res.Geocode,
		}
	}

	status := http.StatusOK
	if res.Kind == models.ErrorKindValidation {
		status = http.StatusBadRequest
	}

	label := res.Error
	if label == "" {
		label = models.ErrUpstream
	}
	detail := res.Zone.Detail()
	if detail == label {
		detail = ""
	}

	return status, failureResponse{
		Error:        label,
		Detail:       detail,
		Cached:       res.Cached,
		Zip:          res.PostalCode,
		GeocodeMatch: res.Geocode,
	}
}

// decodeJSON decodes the request body into v, answering 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		detail := "request body must be a JSON object"
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			detail = "request body too large"
		}
		logging.CtxDebug(r.Context()).Err(err).Str("path", r.URL.Path).Msg("Rejected malformed request body")
		respondFailure(w, http.StatusBadRequest, ErrInvalidJSON, detail)
		return false
	}
	return true
}
