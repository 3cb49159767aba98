// Zonevalue - Assessed Land Value Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/zonevalue

package api

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-json"
)

// LookupRequest is the body of POST /lookup. Pointer fields distinguish an
// absent coordinate from 0.
type LookupRequest struct {
	Lat *float64 `json:"lat" validate:"required,finite,latitude"`
	Lng *float64 `json:"lng" validate:"required,finite,longitude"`
}

// LookupZipRequest is the body of POST /lookup-zip.
type LookupZipRequest struct {
	Zip PostalCode `json:"zip" validate:"required,postalcode"`
}

// PostalCode accepts either a JSON string or a bare JSON number, since
// clients commonly send 10681 rather than "10681".
type PostalCode string

// UnmarshalJSON implements json.Unmarshaler.
func (p *PostalCode) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*p = ""
		return nil
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*p = PostalCode(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("zip must be a string or number: %w", err)
	}
	*p = PostalCode(n.String())
	return nil
}
