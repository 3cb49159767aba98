// Zonevalue - Assessed Land Value Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/zonevalue

package models

// CoordinateQuery is a WGS84 point lookup.
type CoordinateQuery struct {
	Lat float64 `json:"lat" validate:"finite,latitude"`
	Lng float64 `json:"lng" validate:"finite,longitude"`
}

// PostalQuery is a postal-code lookup. Zip may contain separators or a
// country prefix; only its digits are significant.
type PostalQuery struct {
	Zip string `json:"zip" validate:"required,postalcode"`
}
