package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"tripfinder/internal/domain"
)

// WarmService refreshes the geo cache for a city ahead of user traffic.
type WarmService struct {
	geo   *GeoResolver
	cache domain.Cache
}

func NewWarmService(geo *GeoResolver, cache domain.Cache) *WarmService {
	return &WarmService{geo: geo, cache: cache}
}

// WarmCity evicts and re-resolves one city and its airports. Lookups that legitimately
// find nothing are logged as misses; anything else surfaces.
func (s *WarmService) WarmCity(ctx context.Context, name string) (int, error) {
	// 1) City: drop any stale entry so the resolver goes upstream.
	if s.cache != nil {
		_ = s.cache.Del(ctx, cityKey(name))
	}
	loc, err := s.geo.ResolveCity(ctx, name)
	if domain.IsNotFound(err) {
		log.Warn().Str("city", name).Msg("warm miss: city")
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	// 2) Airports around the resolved point.
	if s.cache != nil {
		_ = s.cache.Del(ctx, airportsKey(loc.Latitude, loc.Longitude))
	}
	airports, err := s.geo.ResolveAirports(ctx, loc.Longitude, loc.Latitude)
	if domain.IsNotFound(err) {
		log.Warn().Str("city", name).Msg("warm miss: airports")
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return len(airports), nil
}
