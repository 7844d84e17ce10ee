package app_test

import (
	"context"
	"encoding/json"
	"sync"

	"tripfinder/internal/domain"
)

// ---- fakes ----

type fakeCache struct {
	mu    sync.Mutex
	store map[string][]byte
	dels  []string
}

func newFakeCache() *fakeCache { return &fakeCache{store: map[string][]byte{}} }

func (c *fakeCache) Get(ctx context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.store[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[key] = b
	return nil
}

func (c *fakeCache) Del(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
	c.dels = append(c.dels, key)
	return nil
}

type fakeGeocode struct {
	matches map[string][]domain.CityLocation
	err     error
	calls   int
}

func (f *fakeGeocode) SearchCity(ctx context.Context, name string) ([]domain.CityLocation, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.matches[name], nil
}

// fakeAirports answers from results in order; the last entry repeats.
type fakeAirports struct {
	results []airportResult
	tokens  []string
}

type airportResult struct {
	airports []domain.Airport
	err      error
}

func (f *fakeAirports) NearbyAirports(ctx context.Context, bearer string, lon, lat float64, limit int) ([]domain.Airport, error) {
	f.tokens = append(f.tokens, bearer)
	i := len(f.tokens) - 1
	if i >= len(f.results) {
		i = len(f.results) - 1
	}
	r := f.results[i]
	return r.airports, r.err
}

type fakeCreds struct {
	token      string
	next       string
	refreshErr error
	refreshes  int
}

func (f *fakeCreds) Token(ctx context.Context) (string, error) { return f.token, nil }

func (f *fakeCreds) Refresh(ctx context.Context) error {
	f.refreshes++
	if f.refreshErr != nil {
		return f.refreshErr
	}
	f.token = f.next
	return nil
}

type fakeFlights struct {
	resp  domain.FlightSearchResponse
	err   error
	calls int
	last  domain.FlightQuery
}

func (f *fakeFlights) SearchFlights(ctx context.Context, q domain.FlightQuery) (domain.FlightSearchResponse, error) {
	f.calls++
	f.last = q
	return f.resp, f.err
}

type fakeHotels struct {
	list       []map[string]any
	rates      []map[string]any
	details    map[string]map[string]any
	detailErrs map[string]error

	mu          sync.Mutex
	rateQuery   domain.RateQuery
	detailCalls []string
}

func (f *fakeHotels) ListHotels(ctx context.Context, lat, lon float64) ([]map[string]any, error) {
	return f.list, nil
}

func (f *fakeHotels) Rates(ctx context.Context, q domain.RateQuery) ([]map[string]any, error) {
	f.rateQuery = q
	return f.rates, nil
}

func (f *fakeHotels) Details(ctx context.Context, hotelID string) (map[string]any, error) {
	f.mu.Lock()
	f.detailCalls = append(f.detailCalls, hotelID)
	f.mu.Unlock()
	if err := f.detailErrs[hotelID]; err != nil {
		return nil, err
	}
	return f.details[hotelID], nil
}

type fakeTrips struct {
	trips   map[string]domain.Trip
	updates []map[string]any
	nextID  string
}

func newFakeTrips() *fakeTrips { return &fakeTrips{trips: map[string]domain.Trip{}, nextID: "trip-1"} }

func (f *fakeTrips) Create(ctx context.Context, t domain.Trip) (string, error) {
	t.ID = f.nextID
	f.trips[t.ID] = t
	return t.ID, nil
}

func (f *fakeTrips) Update(ctx context.Context, id string, fields map[string]any) error {
	t, ok := f.trips[id]
	if !ok {
		return domain.ErrNotFound
	}
	f.updates = append(f.updates, fields)
	for k, v := range fields {
		switch k {
		case domain.FieldCabinClass:
			t.CabinClass = v.(string)
		case domain.FieldOriginAirport:
			t.OriginAirport = v.(string)
		case domain.FieldDestinationAirport:
			t.DestinationAirport = v.(string)
		case domain.FieldFlights:
			t.Flights = v.(*domain.FlightSearchResponse)
		case domain.FieldItineraryID:
			t.ItineraryID = v.(string)
		case domain.FieldCheckIn:
			t.CheckIn = v.(string)
		case domain.FieldCheckOut:
			t.CheckOut = v.(string)
		}
	}
	f.trips[id] = t
	return nil
}

func (f *fakeTrips) Get(ctx context.Context, id string) (domain.Trip, error) {
	t, ok := f.trips[id]
	if !ok {
		return domain.Trip{}, domain.ErrNotFound
	}
	return t, nil
}

type fakeUsers struct {
	byEmail map[string]domain.User
}

func (f *fakeUsers) CreateUser(ctx context.Context, u domain.User) (int64, error) {
	if f.byEmail == nil {
		f.byEmail = map[string]domain.User{}
	}
	if _, ok := f.byEmail[u.Email]; ok {
		return 0, domain.ErrConflict
	}
	u.ID = int64(len(f.byEmail) + 1)
	f.byEmail[u.Email] = u
	return u.ID, nil
}

func (f *fakeUsers) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	u, ok := f.byEmail[email]
	if !ok {
		return domain.User{}, domain.ErrNotFound
	}
	return u, nil
}

// ---- fixtures ----

// sampleFlights: JFK -> ORD -> SFO outbound with a 2h15m ORD connection, direct inbound.
func sampleFlights() domain.FlightSearchResponse {
	return domain.FlightSearchResponse{
		Itineraries: []domain.RawItinerary{{
			ID:     "it-1",
			LegIDs: []string{"L-out", "L-in"},
			PricingOptions: []domain.PricingOption{
				{AgentIDs: []string{"ag-2"}, Price: domain.Price{Amount: 1200, Currency: "USD"}, Items: []domain.PricingItem{{DeepLink: "/book/expensive"}}},
				{AgentIDs: []string{"ag-1"}, Price: domain.Price{Amount: 900, Currency: "USD"}, Items: []domain.PricingItem{{DeepLink: "/book/it-1"}}},
			},
		}},
		Legs: []domain.RawLeg{
			{
				ID: "L-out", OriginPlaceID: "p-jfk", DestinationPlaceID: "p-sfo",
				Departure: "2025-06-01T07:00:00", Arrival: "2025-06-01T15:00:00",
				DurationInMinutes: 480, StopCount: 1, SegmentIDs: []string{"S1", "S2"},
			},
			{
				ID: "L-in", OriginPlaceID: "p-sfo", DestinationPlaceID: "p-jfk",
				Departure: "2025-06-08T09:30:00", Arrival: "2025-06-08T18:00:00",
				DurationInMinutes: 330, StopCount: 0, SegmentIDs: []string{"S3"},
			},
		},
		Segments: []domain.RawSegment{
			{ID: "S1", OriginPlaceID: "p-jfk", DestinationPlaceID: "p-ord", Departure: "2025-06-01T07:00:00", Arrival: "2025-06-01T10:00:00"},
			{ID: "S2", OriginPlaceID: "p-ord", DestinationPlaceID: "p-sfo", Departure: "2025-06-01T12:15:00", Arrival: "2025-06-01T15:00:00"},
			{ID: "S3", OriginPlaceID: "p-sfo", DestinationPlaceID: "p-jfk", Departure: "2025-06-08T09:30:00", Arrival: "2025-06-08T18:00:00"},
		},
		Places: []domain.RawPlace{
			{ID: "p-jfk", IATA: "JFK"},
			{ID: "p-ord", IATA: "ORD"},
			{ID: "p-sfo", IATA: "SFO"},
		},
		Agents: []domain.RawAgent{{ID: "ag-1", Name: "Cheap Fares"}, {ID: "ag-2", Name: "Pricey"}},
	}
}
