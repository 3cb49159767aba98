// Zonevalue - Assessed Land Value Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/zonevalue

package models

import "testing"

func TestFromZone(t *testing.T) {
	t.Parallel()

	v, id := 3500.0, "42"
	ok := FromZone(ZoneSuccess(&v, &id, nil))
	if !ok.Success() || ok.Kind != ErrorKindNone || ok.Error != "" {
		t.Errorf("unexpected success result: %+v", ok)
	}

	failed := FromZone(ZoneFailure(ErrNoAttributes))
	if failed.Success() {
		t.Fatal("expected failure")
	}
	if failed.Kind != ErrorKindUpstreamData {
		t.Errorf("Kind = %q, want %q", failed.Kind, ErrorKindUpstreamData)
	}
	if failed.Error != ErrNoAttributes {
		t.Errorf("Error = %q, want %q", failed.Error, ErrNoAttributes)
	}
}

func TestClone_IsIndependent(t *testing.T) {
	t.Parallel()

	v, id, name := 1200.5, "7", "Plaka"
	orig := Result{
		Zone:    ZoneSuccess(&v, &id, &name),
		Geocode: &GeocodeMatch{Lat: 37.97, Lng: 23.72, Score: 99},
	}
	c := orig.Clone()
	*c.Zone.AssessedValuePerArea = 1
	*c.Zone.ZoneName = "changed"
	c.Geocode.Score = 0

	if *orig.Zone.AssessedValuePerArea != 1200.5 {
		t.Error("clone shares value pointer")
	}
	if *orig.Zone.ZoneName != "Plaka" {
		t.Error("clone shares name pointer")
	}
	if orig.Geocode.Score != 99 {
		t.Error("clone shares geocode pointer")
	}
}
