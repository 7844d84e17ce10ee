package domain

import "context"

type TripRepository interface {
	Create(ctx context.Context, t Trip) (string, error)
	Update(ctx context.Context, id string, fields map[string]any) error
	Get(ctx context.Context, id string) (Trip, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, u User) (int64, error)
	GetUserByEmail(ctx context.Context, email string) (User, error)
}

// CredentialProvider holds the bearer token for the airport API.
// Token never fetches; Refresh is called reactively after ErrUnauthorized.
type CredentialProvider interface {
	Token(ctx context.Context) (string, error)
	Refresh(ctx context.Context) error
}

type GeocodeClient interface {
	SearchCity(ctx context.Context, name string) ([]CityLocation, error)
}

type AirportClient interface {
	// NearbyAirports returns ErrUnauthorized when the bearer is rejected.
	NearbyAirports(ctx context.Context, bearer string, lon, lat float64, limit int) ([]Airport, error)
}

type FlightClient interface {
	SearchFlights(ctx context.Context, q FlightQuery) (FlightSearchResponse, error)
}

// HotelClient returns raw payloads; completeness varies by provider.
type HotelClient interface {
	ListHotels(ctx context.Context, lat, lon float64) ([]map[string]any, error)
	Rates(ctx context.Context, q RateQuery) ([]map[string]any, error)
	Details(ctx context.Context, hotelID string) (map[string]any, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
