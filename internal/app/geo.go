package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"tripfinder/internal/domain"
)

const airportLimit = 5

// GeoResolver turns city names into coordinates and coordinates into nearby airports.
// Both lookups are cached; a cache failure only costs an upstream call.
type GeoResolver struct {
	geocode  domain.GeocodeClient
	airports domain.AirportClient
	creds    domain.CredentialProvider
	cache    domain.Cache
	cacheTTL time.Duration
}

func NewGeoResolver(g domain.GeocodeClient, a domain.AirportClient, creds domain.CredentialProvider, c domain.Cache, ttl time.Duration) *GeoResolver {
	return &GeoResolver{geocode: g, airports: a, creds: creds, cache: c, cacheTTL: ttl}
}

func (r *GeoResolver) ResolveCity(ctx context.Context, name string) (domain.CityLocation, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.CityLocation{}, domain.ValidationError{Field: "city", Msg: "required"}
	}
	key := cityKey(name)
	var loc domain.CityLocation
	if r.cacheGet(ctx, key, &loc) {
		return loc, nil
	}

	matches, err := r.geocode.SearchCity(ctx, name)
	if err != nil {
		return domain.CityLocation{}, err
	}
	if len(matches) == 0 {
		return domain.CityLocation{}, domain.NotFoundError{Resource: fmt.Sprintf("city %q", name)}
	}
	loc = matches[0]
	r.cacheSet(ctx, key, loc)
	return loc, nil
}

// ResolveAirports returns up to five airports nearest to the point.
func (r *GeoResolver) ResolveAirports(ctx context.Context, lon, lat float64) ([]domain.Airport, error) {
	key := airportsKey(lat, lon)
	var cached []domain.Airport
	if r.cacheGet(ctx, key, &cached) && len(cached) > 0 {
		return cached, nil
	}

	airports, err := withTokenRetry(ctx, r.creds, "airports", func(token string) ([]domain.Airport, error) {
		return r.airports.NearbyAirports(ctx, token, lon, lat, airportLimit)
	})
	if err != nil {
		return nil, err
	}
	if len(airports) == 0 {
		return nil, domain.NotFoundError{Resource: "airports near this city"}
	}
	if len(airports) > airportLimit {
		airports = airports[:airportLimit]
	}
	r.cacheSet(ctx, key, airports)
	return airports, nil
}

func cityKey(name string) string {
	return "geo:city:" + strings.ToLower(strings.TrimSpace(name))
}

func airportsKey(lat, lon float64) string {
	return fmt.Sprintf("geo:airports:%.4f:%.4f", lat, lon)
}

func (r *GeoResolver) cacheGet(ctx context.Context, key string, dst any) bool {
	if r.cache == nil {
		return false
	}
	ok, err := r.cache.Get(ctx, key, dst)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache get failed")
		return false
	}
	return ok
}

func (r *GeoResolver) cacheSet(ctx context.Context, key string, v any) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Set(ctx, key, v, int(r.cacheTTL.Seconds())); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("cache set failed")
	}
}

// withTokenRetry calls fn with the current token. On ErrUnauthorized it refreshes once
// and calls again; whatever the second call returns is final.
func withTokenRetry[T any](ctx context.Context, creds domain.CredentialProvider, service string, fn func(token string) (T, error)) (T, error) {
	var zero T
	token, err := creds.Token(ctx)
	if err != nil {
		return zero, err
	}
	v, err := fn(token)
	if err == nil || !errors.Is(err, domain.ErrUnauthorized) {
		return v, err
	}

	log.Info().Str("service", service).Msg("bearer rejected; refreshing token")
	if err := creds.Refresh(ctx); err != nil {
		if !domain.IsUpstreamAuth(err) {
			err = domain.UpstreamAuthError{Err: err}
		}
		return zero, err
	}
	if token, err = creds.Token(ctx); err != nil {
		return zero, err
	}
	v, err = fn(token)
	if errors.Is(err, domain.ErrUnauthorized) {
		return zero, domain.UpstreamError{Service: service, Msg: "still unauthorized after token refresh", Err: err}
	}
	return v, err
}
