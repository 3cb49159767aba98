// Zonevalue - Assessed Land Value Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/zonevalue

package cache

import (
	"math"
	"strconv"
	"strings"
	"testing"

	"pgregory.net/rapid"
)

func TestCanonicalCoordinate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		lat, lng  float64
		precision int
		want      string
	}{
		{37.983810, 23.727539, 5, "37.98381,23.72754"},
		{37.9838095, 23.7275391, 5, "37.98381,23.72754"},
		{-0.0000001, 0, 5, "0.00000,0.00000"},
		{math.Copysign(0, -1), -0.0, 3, "0.000,0.000"},
		{-33.5, -70.26, 1, "-33.5,-70.3"},
		{40, 22, 0, "40,22"},
	}

	for _, tt := range tests {
		if got := CanonicalCoordinate(tt.lat, tt.lng, tt.precision); got != tt.want {
			t.Errorf("CanonicalCoordinate(%v, %v, %d) = %q, want %q", tt.lat, tt.lng, tt.precision, got, tt.want)
		}
	}
}

func TestKeyer(t *testing.T) {
	t.Parallel()

	k := NewKeyer("zonevalue", 5)

	a := k.Coordinate(37.983810, 23.727539)
	b := k.Coordinate(37.9838095, 23.7275391)
	if a != b {
		t.Errorf("formatting differences should share a key: %s vs %s", a, b)
	}
	if !strings.HasPrefix(a, "zonevalue:coord:") {
		t.Errorf("coordinate key prefix: %s", a)
	}
	if a == k.Coordinate(37.98382, 23.727539) {
		t.Error("distinct points at precision should not collide")
	}

	z := k.PostalCode("GR-106 81")
	if z != k.PostalCode("10681") {
		t.Error("postal key should ignore non-digits")
	}
	if !strings.HasPrefix(z, "zonevalue:zip:") {
		t.Errorf("postal key prefix: %s", z)
	}

	if NewKeyer("other", 5).PostalCode("10681") == z {
		t.Error("namespace should partition keys")
	}
}

func TestKeyer_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		precision := rapid.IntRange(0, 8).Draw(t, "precision")
		lat := rapid.Float64Range(-90, 90).Draw(t, "lat")
		lng := rapid.Float64Range(-180, 180).Draw(t, "lng")
		k := NewKeyer("zonevalue", precision)

		key := k.Coordinate(lat, lng)
		if key != k.Coordinate(lat, lng) {
			t.Fatalf("key not deterministic for (%v, %v)", lat, lng)
		}

		// Re-keying the canonical rendering yields the same key.
		canon := CanonicalCoordinate(lat, lng, precision)
		parts := strings.Split(canon, ",")
		if len(parts) != 2 {
			t.Fatalf("canonical form %q", canon)
		}
		rlat, err := strconv.ParseFloat(parts[0], 64)
		if err != nil {
			t.Fatalf("parse %q: %v", parts[0], err)
		}
		rlng, err := strconv.ParseFloat(parts[1], 64)
		if err != nil {
			t.Fatalf("parse %q: %v", parts[1], err)
		}
		if k.Coordinate(rlat, rlng) != key {
			t.Fatalf("canonical rendering %q keyed differently", canon)
		}

		for _, part := range parts {
			if v, _ := strconv.ParseFloat(part, 64); v == 0 && strings.HasPrefix(part, "-") {
				t.Fatalf("negative zero leaked into %q", canon)
			}
		}
	})
}

func TestPostalKey_Properties(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		digits := rapid.StringMatching(`[0-9]{5}`).Draw(t, "digits")
		noise := rapid.StringMatching(`[ A-Za-z\-]{0,4}`).Draw(t, "noise")
		k := NewKeyer("zonevalue", 5)

		decorated := noise + digits[:2] + noise + digits[2:]
		if k.PostalCode(decorated) != k.PostalCode(digits) {
			t.Fatalf("%q and %q should share a key", decorated, digits)
		}
	})
}
