// Zonevalue - Assessed Land Value Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/zonevalue

package upstream

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"github.com/tomtom215/zonevalue/internal/config"
)

// Supported spatial references.
const (
	WKIDWGS84        = 4326
	WKIDWebMercator  = 3857
	earthRadiusMeter = 6378137.0
)

// Query styles select the ArcGIS operation and the record-set key of the response.
const (
	StyleQuery    = "query"
	StyleIdentify = "identify"
)

// ZoneQuery describes the zone-layer operation. Which layer, CRS and
// output fields are authoritative has changed over time, so all of it
// is configuration.
type ZoneQuery struct {
	Path       string
	Style      string
	WKID       int
	OutFields  []string
	SpatialRel string
}

// NewZoneQuery builds a ZoneQuery from the upstream configuration.
func NewZoneQuery(cfg config.UpstreamConfig) ZoneQuery {
	style := cfg.QueryStyle
	if style == "" {
		style = StyleQuery
	}
	spatialRel := cfg.SpatialRel
	if spatialRel == "" {
		spatialRel = "esriSpatialRelIntersects"
	}
	return ZoneQuery{
		Path:       cfg.ZoneQueryPath,
		Style:      style,
		WKID:       cfg.WKID,
		OutFields:  cfg.OutFields,
		SpatialRel: spatialRel,
	}
}

// Project converts a WGS84 coordinate to the given spatial reference.
// Unknown WKIDs are treated as WGS84.
func Project(lat, lng float64, wkid int) (x, y float64) {
	if wkid != WKIDWebMercator {
		return lng, lat
	}
	x = earthRadiusMeter * lng * math.Pi / 180
	y = earthRadiusMeter * math.Log(math.Tan(math.Pi/4+lat*math.Pi/360))
	return x, y
}

// Params returns the query string for a point lookup at (lat, lng).
func (q ZoneQuery) Params(lat, lng float64) url.Values {
	x, y := Project(lat, lng, q.WKID)
	wkid := strconv.Itoa(q.WKID)
	geometry := fmt.Sprintf(`{"x":%s,"y":%s,"spatialReference":{"wkid":%d}}`, formatCoord(x), formatCoord(y), q.WKID)

	v := url.Values{}
	v.Set("f", "json")
	v.Set("geometry", geometry)
	v.Set("geometryType", "esriGeometryPoint")
	v.Set("returnGeometry", "false")

	if q.Style == StyleIdentify {
		// identify needs a display context; a tiny extent around the point suffices.
		d := 0.0001
		if q.WKID == WKIDWebMercator {
			d = 10
		}
		v.Set("sr", wkid)
		v.Set("layers", "all")
		v.Set("tolerance", "1")
		v.Set("mapExtent", strings.Join([]string{
			formatCoord(x - d), formatCoord(y - d), formatCoord(x + d), formatCoord(y + d),
		}, ","))
		v.Set("imageDisplay", "400,400,96")
		return v
	}

	v.Set("inSR", wkid)
	v.Set("spatialRel", q.SpatialRel)
	v.Set("outFields", strings.Join(q.OutFields, ","))
	return v
}

func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
