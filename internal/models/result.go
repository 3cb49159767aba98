// Zonevalue - Assessed Land Value Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/zonevalue

package models

// GeocodeMatch is the coordinate a postal code resolved to.
type GeocodeMatch struct {
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
	Address string  `json:"address"`
	Score   float64 `json:"score"`
}

// Result is what a lookup returns and what the outcome cache stores.
type Result struct {
	Zone ZoneResult `json:"zone"`

	// Kind is ErrorKindNone on success.
	Kind ErrorKind `json:"kind,omitempty"`
	// Error is the short client-facing label for a failure.
	Error string `json:"error,omitempty"`

	PostalCode string        `json:"zip,omitempty"`
	Geocode    *GeocodeMatch `json:"geocode,omitempty"`

	// Cached is set by the lookup service on a cache hit. It is never stored.
	Cached bool `json:"-"`
}

// Success reports whether the lookup produced a zone answer.
func (r Result) Success() bool {
	return r.Zone.Success
}

// FromZone wraps a normalized zone result. Failed zone results are
// classified as upstream data errors.
func FromZone(z ZoneResult) Result {
	if z.Success {
		return Result{Zone: z}
	}
	label := z.Detail()
	if label == "" {
		label = ErrUpstream
	}
	return Result{Zone: z, Kind: ErrorKindUpstreamData, Error: label}
}

// Failure builds a failed Result.
func Failure(kind ErrorKind, label, detail string) Result {
	return Result{
		Zone:  ZoneFailure(detail),
		Kind:  kind,
		Error: label,
	}
}

// Clone returns a deep copy so cached values cannot be mutated by callers.
func (r Result) Clone() Result {
	out := r
	out.Zone = r.Zone.clone()
	if r.Geocode != nil {
		g := *r.Geocode
		out.Geocode = &g
	}
	return out
}
