// Zonevalue - Assessed Land Value Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/zonevalue

package cache

import (
	"crypto/sha256"
	"fmt"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/zonevalue/internal/validation"
)

// Query kinds used as key prefixes.
const (
	KindCoordinate = "coord"
	KindPostalCode = "zip"
)

// GenerateKey creates a cache key from a prefix and parameters.
func GenerateKey(prefix string, params interface{}) string {
	data, err := json.Marshal(params)
	if err != nil {
		return fmt.Sprintf("%s:%v", prefix, params)
	}

	hash := sha256.Sum256(data)
	return fmt.Sprintf("%s:%x", prefix, hash[:16])
}

// Keyer derives canonical cache keys for lookup queries. Inputs that differ
// only in formatting or in digits beyond Precision map to the same key.
type Keyer struct {
	Namespace string
	Precision int
}

// NewKeyer creates a Keyer.
func NewKeyer(namespace string, precision int) Keyer {
	return Keyer{Namespace: namespace, Precision: precision}
}

// Coordinate returns the key for a point lookup.
func (k Keyer) Coordinate(lat, lng float64) string {
	return GenerateKey(k.prefix(KindCoordinate), CanonicalCoordinate(lat, lng, k.Precision))
}

// PostalCode returns the key for a postal-code lookup. Non-digits are ignored.
func (k Keyer) PostalCode(zip string) string {
	return GenerateKey(k.prefix(KindPostalCode), validation.DigitsOnly(zip))
}

func (k Keyer) prefix(kind string) string {
	if k.Namespace == "" {
		return kind
	}
	return k.Namespace + ":" + kind
}

// CanonicalCoordinate renders lat,lng at a fixed precision with -0 folded into 0.
func CanonicalCoordinate(lat, lng float64, precision int) string {
	return formatFixed(lat, precision) + "," + formatFixed(lng, precision)
}

func formatFixed(v float64, precision int) string {
	s := strconv.FormatFloat(v, 'f', precision, 64)
	if strings.HasPrefix(s, "-") && strings.Trim(s[1:], "0.") == "" {
		return s[1:]
	}
	return s
}
