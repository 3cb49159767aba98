// Zonevalue - Assessed Land Value Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/zonevalue

// Package models holds the value types shared by the relay components.
package models

// ErrorKind classifies why a lookup failed.
type ErrorKind string

const (
	ErrorKindNone              ErrorKind = ""
	ErrorKindValidation        ErrorKind = "validation"
	ErrorKindAuthorization     ErrorKind = "authorization"
	ErrorKindUpstreamTransport ErrorKind = "upstream_transport"
	ErrorKindUpstreamData      ErrorKind = "upstream_data"
	ErrorKindGeocode           ErrorKind = "geocode"
	ErrorKindInternal          ErrorKind = "internal"
)

// Short error labels returned to clients in the "error" field.
const (
	ErrNoAttributes      = "no attributes returned"
	ErrUpstream          = "upstream error"
	ErrUpstreamAuth      = "upstream authorization failed"
	ErrGeocodeFailed     = "geocode failed"
	ErrInvalidCoordinate = "invalid coordinates"
	ErrInvalidPostalCode = "invalid zip"
	ErrInternal          = "internal error"
)

// ZoneResult is the normalized answer of one zone-query round-trip.
// Pointer fields are nil when the upstream did not supply the attribute.
type ZoneResult struct {
	Success              bool     `json:"success"`
	AssessedValuePerArea *float64 `json:"assessedValuePerArea"`
	ZoneID               *string  `json:"zoneId"`
	ZoneName             *string  `json:"zoneName"`
	ErrorDetail          *string  `json:"errorDetail,omitempty"`
}

// ZoneSuccess builds a successful ZoneResult.
func ZoneSuccess(value *float64, zoneID, zoneName *string) ZoneResult {
	return ZoneResult{
		Success:              true,
		AssessedValuePerArea: value,
		ZoneID:               zoneID,
		ZoneName:             zoneName,
	}
}

// ZoneFailure builds a failed ZoneResult carrying detail.
func ZoneFailure(detail string) ZoneResult {
	return ZoneResult{Success: false, ErrorDetail: &detail}
}

// Detail returns the error detail or "".
func (z ZoneResult) Detail() string {
	if z.ErrorDetail == nil {
		return ""
	}
	return *z.ErrorDetail
}

// clone returns a copy that shares no pointers with z.
func (z ZoneResult) clone() ZoneResult {
	out := ZoneResult{Success: z.Success}
	if z.AssessedValuePerArea != nil {
		v := *z.AssessedValuePerArea
		out.AssessedValuePerArea = &v
	}
	if z.ZoneID != nil {
		v := *z.ZoneID
		out.ZoneID = &v
	}
	if z.ZoneName != nil {
		v := *z.ZoneName
		out.ZoneName = &v
	}
	if z.ErrorDetail != nil {
		v := *z.ErrorDetail
		out.ErrorDetail = &v
	}
	return out
}
