package amadeus_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"tripfinder/internal/adapters/amadeus"
	"tripfinder/internal/adapters/httpx"
	"tripfinder/internal/domain"
)

func TestTokenProvider_RefreshStoresToken(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/security/oauth2/token" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_ = r.ParseForm()
		if r.PostForm.Get("grant_type") != "client_credentials" || r.PostForm.Get("client_id") != "id" {
			t.Errorf("unexpected form: %v", r.PostForm)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"tok-1","token_type":"Bearer","expires_in":1799}`))
	}))
	defer ts.Close()

	p := amadeus.NewTokenProvider(httpx.New("amadeus", 100, 1, time.Second), ts.URL, "id", "secret")
	ctx := context.Background()

	tok, _ := p.Token(ctx)
	if tok != "" {
		t.Fatalf("token must not be fetched proactively, got %q", tok)
	}
	if err := p.Refresh(ctx); err != nil {
		t.Fatalf("refresh: %v", err)
	}
	tok, _ = p.Token(ctx)
	if tok != "tok-1" {
		t.Fatalf("expected tok-1, got %q", tok)
	}
}

func TestTokenProvider_NonSuccessIsUpstreamAuthError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"invalid_client"}`))
	}))
	defer ts.Close()

	p := amadeus.NewTokenProvider(httpx.New("amadeus", 100, 1, time.Second), ts.URL, "id", "bad")
	err := p.Refresh(context.Background())

	var ae domain.UpstreamAuthError
	if !errors.As(err, &ae) {
		t.Fatalf("expected UpstreamAuthError, got %v", err)
	}
	if ae.Status != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", ae.Status)
	}
}

func TestTokenProvider_ConcurrentRefreshCollapses(t *testing.T) {
	var hits int32
	release := make(chan struct{})
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		<-release
		_, _ = w.Write([]byte(`{"access_token":"shared","expires_in":1799}`))
	}))
	defer ts.Close()

	p := amadeus.NewTokenProvider(httpx.New("amadeus", 100, 1, 5*time.Second), ts.URL, "id", "secret")

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- p.Refresh(context.Background())
		}()
	}
	// let every goroutine join the in-flight exchange before answering it
	time.Sleep(100 * time.Millisecond)
	close(release)
	wg.Wait()
	close(errs)

	for err := range errs {
		if err != nil {
			t.Fatalf("refresh: %v", err)
		}
	}
	if n := atomic.LoadInt32(&hits); n != 1 {
		t.Fatalf("expected a single token exchange, got %d", n)
	}
	if tok, _ := p.Token(context.Background()); tok != "shared" {
		t.Fatalf("unexpected token %q", tok)
	}
}

func TestAirportClient_NearbyAirports(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if r.URL.Query().Get("page[limit]") != "5" {
			t.Errorf("limit not forwarded: %s", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{"data":[
			{"iataCode":"ORD","name":"O'HARE INTL","address":{"cityName":"CHICAGO"},"geoCode":{"latitude":41.97,"longitude":-87.9},"distance":{"value":22,"unit":"KM"}},
			{"iataCode":"","name":"heliport"},
			{"iataCode":"MDW","name":"MIDWAY","address":{"cityName":"CHICAGO"},"distance":{"value":10,"unit":"MI"}}
		]}`))
	}))
	defer ts.Close()

	c := amadeus.NewAirportClient(httpx.New("amadeus", 100, 1, time.Second), ts.URL)
	ctx := context.Background()

	_, err := c.NearbyAirports(ctx, "stale", -87.6, 41.8, 5)
	if !errors.Is(err, domain.ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	got, err := c.NearbyAirports(ctx, "good", -87.6, 41.8, 5)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 2 || got[0].IATACode != "ORD" || got[1].IATACode != "MDW" {
		t.Fatalf("unexpected airports: %+v", got)
	}
	if got[1].DistanceKm < 16 || got[1].DistanceKm > 16.2 {
		t.Fatalf("miles not converted: %v", got[1].DistanceKm)
	}
}

func TestAirportClient_MissingDataKey(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"errors":[]}`))
	}))
	defer ts.Close()

	c := amadeus.NewAirportClient(httpx.New("amadeus", 100, 1, time.Second), ts.URL)
	_, err := c.NearbyAirports(context.Background(), "t", 0, 0, 5)
	if !domain.IsUpstream(err) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
}
