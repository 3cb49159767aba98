// Zonevalue - Assessed Land Value Relay
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/zonevalue

/*
Package lookup composes the session-gated relay, the normalizer, the outcome
cache and the geocoder into the two supported queries.

By coordinate:
  - validate (finite, WGS84 range)
  - serve from cache when present (Cached=true)
  - otherwise project to the layer CRS, relay the zone query, normalize, cache

By postal code:
  - normalize to five digits
  - serve from cache when present
  - otherwise geocode "<zip> <locality>", reject absent or low-score matches,
    run the coordinate flow on the match and merge the geocode metadata

Every outcome except validation and internal failures is cached, with the
short failure TTL for failed outcomes. Concurrent identical misses share one
upstream round-trip.
*/
package lookup

import (
	"context"
	"fmt"
	"net/url"
	"runtime/debug"

	"golang.org/x/sync/singleflight"

	"github.com/tomtom215/zonevalue/internal/cache"
	"github.com/tomtom215/zonevalue/internal/logging"
	"github.com/tomtom215/zonevalue/internal/metrics"
	"github.com/tomtom215/zonevalue/internal/models"
	"github.com/tomtom215/zonevalue/internal/normalize"
	"github.com/tomtom215/zonevalue/internal/upstream"
	"github.com/tomtom215/zonevalue/internal/validation"
)

// Query kinds used in metrics and logs.
const (
	KindCoordinate = "coordinate"
	KindPostal     = "postal"
)

// Relay executes a zone-layer call. *upstream.Relay implements it.
type Relay interface {
	Call(ctx context.Context, targetPath string, params url.Values) upstream.Result
}

// Geocoder resolves postal codes. *geocode.Client implements it.
type Geocoder interface {
	PostalQuery(zip string) string
	Geocode(ctx context.Context, text string) (models.GeocodeMatch, error)
}

// Dependencies wires a Service.
type Dependencies struct {
	Relay      Relay
	Geocoder   Geocoder
	Cache      *cache.OutcomeCache
	Keyer      cache.Keyer
	ZoneQuery  upstream.ZoneQuery
	Normalizer *normalize.Normalizer
}

// Service answers zone lookups.
type Service struct {
	relay      Relay
	geocoder   Geocoder
	cache      *cache.OutcomeCache
	keyer      cache.Keyer
	query      upstream.ZoneQuery
	normalizer *normalize.Normalizer
	group      singleflight.Group
}

// NewService creates a Service. A nil Normalizer uses the built-in field lists.
func NewService(deps Dependencies) *Service {
	n := deps.Normalizer
	if n == nil {
		n = normalize.New(normalize.DefaultFields())
	}
	return &Service{
		relay:      deps.Relay,
		geocoder:   deps.Geocoder,
		cache:      deps.Cache,
		keyer:      deps.Keyer,
		query:      deps.ZoneQuery,
		normalizer: n,
	}
}

// ByCoordinate looks up the zone containing (lat, lng).
func (s *Service) ByCoordinate(ctx context.Context, lat, lng float64) (res models.Result) {
	ctx = withCorrelation(ctx)
	defer s.finish(ctx, KindCoordinate, &res)

	return s.coordinate(ctx, lat, lng)
}

// ByPostalCode geocodes zip and looks up the zone at the matched point.
func (s *Service) ByPostalCode(ctx context.Context, zip string) (res models.Result) {
	ctx = withCorrelation(ctx)
	defer s.finish(ctx, KindPostal, &res)

	q := models.PostalQuery{Zip: zip}
	if verr := validation.ValidateStruct(&q); verr != nil {
		return models.Failure(models.ErrorKindValidation, models.ErrInvalidPostalCode, verr.Error())
	}
	digits, _ := validation.NormalizePostalCode(zip)

	return s.cached(ctx, s.keyer.PostalCode(digits), func(ctx context.Context) models.Result {
		return s.resolvePostal(ctx, digits)
	})
}

func (s *Service) coordinate(ctx context.Context, lat, lng float64) models.Result {
	q := models.CoordinateQuery{Lat: lat, Lng: lng}
	if verr := validation.ValidateStruct(&q); verr != nil {
		return models.Failure(models.ErrorKindValidation, models.ErrInvalidCoordinate, verr.Error())
	}

	return s.cached(ctx, s.keyer.Coordinate(lat, lng), func(ctx context.Context) models.Result {
		return s.queryZone(ctx, lat, lng)
	})
}

func (s *Service) resolvePostal(ctx context.Context, digits string) models.Result {
	match, err := s.geocoder.Geocode(ctx, s.geocoder.PostalQuery(digits))
	if err != nil {
		logging.CtxWarn(ctx).Err(err).Str("zip", digits).Msg("Postal code did not geocode")
		res := models.Failure(models.ErrorKindGeocode, models.ErrGeocodeFailed, err.Error())
		res.PostalCode = digits
		return res
	}

	res := s.coordinate(ctx, match.Lat, match.Lng)
	if res.Kind == models.ErrorKindValidation {
		res = models.Failure(models.ErrorKindGeocode, models.ErrGeocodeFailed,
			fmt.Sprintf("geocoder returned an invalid point (%v, %v)", match.Lat, match.Lng))
	}
	res.Cached = false
	res.PostalCode = digits
	res.Geocode = &match
	return res
}

func (s *Service) queryZone(ctx context.Context, lat, lng float64) models.Result {
	out := s.relay.Call(ctx, s.query.Path, s.query.Params(lat, lng))
	if !out.OK {
		label := models.ErrUpstream
		if out.Kind == models.ErrorKindAuthorization {
			label = models.ErrUpstreamAuth
		}
		return models.Failure(out.Kind, label, out.Detail)
	}
	return models.FromZone(s.normalizer.Normalize(out.Payload, s.query.Style))
}

// cached serves key from the outcome cache or runs fill once for all
// concurrent callers and stores its result.
func (s *Service) cached(ctx context.Context, key string, fill func(context.Context) models.Result) models.Result {
	if res, ok := s.cache.Get(ctx, key); ok {
		res.Cached = true
		return res
	}

	// The shared call outlives any single caller.
	shared := context.WithoutCancel(ctx)
	v, _, _ := s.group.Do(key, func() (interface{}, error) {
		if res, ok := s.cache.Get(shared, key); ok {
			res.Cached = true
			return res, nil
		}
		res := fill(shared)
		if cacheable(res) {
			s.cache.Put(shared, key, res)
		}
		return res, nil
	})

	return v.(models.Result).Clone()
}

func cacheable(res models.Result) bool {
	return res.Kind != models.ErrorKindValidation && res.Kind != models.ErrorKindInternal
}

// finish converts panics into internal failures and records the outcome.
func (s *Service) finish(ctx context.Context, kind string, res *models.Result) {
	if p := recover(); p != nil {
		logging.Ctx(ctx).Error().
			Str("panic", fmt.Sprint(p)).
			Str("stack", string(debug.Stack())).
			Str("kind", kind).
			Msg("Recovered from panic during lookup")
		*res = models.Failure(models.ErrorKindInternal, models.ErrInternal, fmt.Sprint(p))
	}

	outcome := "success"
	switch {
	case !res.Success():
		outcome = string(res.Kind)
	case res.Cached:
		outcome = "cached"
	}
	metrics.RecordLookup(kind, outcome)

	logging.CtxDebug(ctx).
		Str("kind", kind).
		Str("outcome", outcome).
		Bool("cached", res.Cached).
		Msg("Lookup finished")
}

func withCorrelation(ctx context.Context) context.Context {
	if logging.CorrelationIDFromContext(ctx) != "" {
		return ctx
	}
	return logging.ContextWithNewCorrelationID(ctx)
}
