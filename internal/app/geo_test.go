package app_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"tripfinder/internal/app"
	"tripfinder/internal/domain"
)

var unauthorized = domain.UpstreamError{Service: "amadeus", Err: domain.ErrUnauthorized}

func chicagoAirports(n int) []domain.Airport {
	codes := []string{"ORD", "MDW", "RFD", "MKE", "GYY", "SBN", "CMI"}
	out := make([]domain.Airport, 0, n)
	for _, c := range codes[:n] {
		out = append(out, domain.Airport{IATACode: c})
	}
	return out
}

func TestResolveCity(t *testing.T) {
	geo := &fakeGeocode{matches: map[string][]domain.CityLocation{
		"Paris": {{Name: "Paris", Country: "FR", Latitude: 48.85, Longitude: 2.35}, {Name: "Paris", Country: "US"}},
	}}
	cache := newFakeCache()
	r := app.NewGeoResolver(geo, nil, nil, cache, time.Hour)
	ctx := context.Background()

	loc, err := r.ResolveCity(ctx, "Paris")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if loc.Country != "FR" || loc.Longitude != 2.35 {
		t.Fatalf("expected first match, got %+v", loc)
	}

	// second lookup is served from cache
	if _, err := r.ResolveCity(ctx, "paris "); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if geo.calls != 1 {
		t.Fatalf("expected a single upstream call, got %d", geo.calls)
	}

	if _, err := r.ResolveCity(ctx, "Atlantis"); !domain.IsNotFound(err) {
		t.Fatalf("zero matches must be NotFoundError, got %v", err)
	}
	if _, err := r.ResolveCity(ctx, "  "); !domain.IsValidation(err) {
		t.Fatalf("blank city must be ValidationError, got %v", err)
	}
}

func TestResolveAirports_RefreshesOnceOnUnauthorized(t *testing.T) {
	creds := &fakeCreds{token: "stale", next: "fresh"}
	air := &fakeAirports{results: []airportResult{
		{err: unauthorized},
		{airports: chicagoAirports(2)},
	}}
	r := app.NewGeoResolver(nil, air, creds, nil, time.Hour)

	got, err := r.ResolveAirports(context.Background(), -87.6, 41.8)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("unexpected airports: %+v", got)
	}
	if creds.refreshes != 1 {
		t.Fatalf("expected one refresh, got %d", creds.refreshes)
	}
	if len(air.tokens) != 2 || air.tokens[0] != "stale" || air.tokens[1] != "fresh" {
		t.Fatalf("retry must use the refreshed token, got %v", air.tokens)
	}
}

func TestResolveAirports_SecondUnauthorizedSurfaces(t *testing.T) {
	creds := &fakeCreds{token: "stale", next: "still-bad"}
	air := &fakeAirports{results: []airportResult{{err: unauthorized}}}
	r := app.NewGeoResolver(nil, air, creds, nil, time.Hour)

	_, err := r.ResolveAirports(context.Background(), 0, 0)
	if !domain.IsUpstream(err) || !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected UpstreamError wrapping ErrUnauthorized, got %v", err)
	}
	if creds.refreshes != 1 || len(air.tokens) != 2 {
		t.Fatalf("expected exactly one refresh and one retry, got %d refreshes, %d calls", creds.refreshes, len(air.tokens))
	}
}

func TestResolveAirports_RefreshFailureIsAuthError(t *testing.T) {
	creds := &fakeCreds{token: "", refreshErr: domain.UpstreamAuthError{Status: 401}}
	air := &fakeAirports{results: []airportResult{{err: unauthorized}}}
	r := app.NewGeoResolver(nil, air, creds, nil, time.Hour)

	_, err := r.ResolveAirports(context.Background(), 0, 0)
	if !domain.IsUpstreamAuth(err) {
		t.Fatalf("expected UpstreamAuthError, got %v", err)
	}
	if len(air.tokens) != 1 {
		t.Fatalf("no retry after failed refresh, got %d calls", len(air.tokens))
	}
}

func TestResolveAirports_OtherErrorsSkipRefresh(t *testing.T) {
	creds := &fakeCreds{token: "ok"}
	air := &fakeAirports{results: []airportResult{{err: domain.UpstreamError{Service: "amadeus", Msg: "bad status 500"}}}}
	r := app.NewGeoResolver(nil, air, creds, nil, time.Hour)

	_, err := r.ResolveAirports(context.Background(), 0, 0)
	if !domain.IsUpstream(err) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if creds.refreshes != 0 {
		t.Fatalf("refresh only follows ErrUnauthorized")
	}
}

func TestResolveAirports_EmptyAndCapped(t *testing.T) {
	creds := &fakeCreds{token: "ok"}
	r := app.NewGeoResolver(nil, &fakeAirports{results: []airportResult{{airports: nil}}}, creds, nil, time.Hour)
	if _, err := r.ResolveAirports(context.Background(), 0, 0); !domain.IsNotFound(err) {
		t.Fatalf("empty result must be NotFoundError, got %v", err)
	}

	cache := newFakeCache()
	air := &fakeAirports{results: []airportResult{{airports: chicagoAirports(7)}}}
	r = app.NewGeoResolver(nil, air, creds, cache, time.Hour)
	got, err := r.ResolveAirports(context.Background(), -87.6, 41.8)
	if err != nil || len(got) != 5 {
		t.Fatalf("expected 5 airports, got %d (%v)", len(got), err)
	}
	if _, err := r.ResolveAirports(context.Background(), -87.6, 41.8); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(air.tokens) != 1 {
		t.Fatalf("cached airports must skip upstream, got %d calls", len(air.tokens))
	}
}
