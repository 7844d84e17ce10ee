package app_test

import (
	"context"
	"errors"
	"sort"
	"testing"

	"tripfinder/internal/app"
	"tripfinder/internal/domain"
)

func TestStayWindowFor(t *testing.T) {
	flights := sampleFlights()
	w, err := app.StayWindowFor(&flights, "it-1")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if w.CheckIn != "2025-06-01T15:00:00" || w.CheckOut != "2025-06-08T09:30:00" {
		t.Fatalf("unexpected window: %+v", w)
	}

	if _, err := app.StayWindowFor(&flights, "nope"); !domain.IsNotFound(err) {
		t.Fatalf("unknown itinerary must be NotFoundError, got %v", err)
	}
	if _, err := app.StayWindowFor(nil, "it-1"); !domain.IsNotFound(err) {
		t.Fatalf("trip without flights must be NotFoundError, got %v", err)
	}

	flights.Legs[0].SegmentIDs = []string{"S1", "S-gone"}
	if _, err := app.StayWindowFor(&flights, "it-1"); !domain.IsDataConsistency(err) {
		t.Fatalf("dangling segment must be DataConsistencyError, got %v", err)
	}
}

func photoList(n int) []any {
	out := make([]any, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, map[string]any{"url": "https://img/" + string(rune('a'+i)) + ".jpg"})
	}
	return out
}

func rate(id string, amount float64) map[string]any {
	return map[string]any{
		"hotelId": id,
		"roomTypes": []any{map[string]any{
			"rates": []any{map[string]any{
				"retailRate": map[string]any{
					"suggestedSellingPrice": []any{map[string]any{"amount": amount, "currency": "EUR"}},
				},
			}},
		}},
	}
}

func sampleHotels() *fakeHotels {
	return &fakeHotels{
		list: []map[string]any{
			{"id": "h1", "name": "Stars Only", "hotelDescription": "four stars", "city": "Paris", "address": "1 Rue A", "rating": 0.0, "stars": 4.0},
			{"id": "h2", "name": "Rated", "city": "Paris", "rating": 3.5, "stars": 4.0},
			{"id": "h3", "name": "Sold Out", "rating": 9.0},
		},
		rates: []map[string]any{rate("h2", 310.5), rate("h1", 199)},
		details: map[string]map[string]any{
			"h1": {
				"hotelImages":          photoList(5),
				"hotelFacilities":      []any{"Wifi", "Bar"},
				"policies":             []any{map[string]any{"name": "Pets", "description": "No pets"}},
				"checkinCheckoutTimes": map[string]any{"checkin": "15:00", "checkout": "11:00"},
				"reviewCount":          1234.0,
			},
			"h2": {"hotelFacilities": []any{"Pool"}},
		},
	}
}

var stay = domain.StayWindow{CheckIn: "2025-06-01T15:00:00", CheckOut: "2025-06-08T09:30:00"}

func TestHotelAggregator_FlattensRatedHotels(t *testing.T) {
	fh := sampleHotels()
	agg := app.NewHotelAggregator(fh, 2, "USD")

	got, err := agg.Aggregate(context.Background(), app.HotelSearch{Lat: 48.85, Lon: 2.35, Stay: stay, Travelers: 2})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 2 || got[0].ID != "h1" || got[1].ID != "h2" {
		t.Fatalf("expected rated hotels in list order, got %+v", got)
	}

	q := fh.rateQuery
	if q.CheckIn != "2025-06-01" || q.CheckOut != "2025-06-08" || q.Adults != 2 || len(q.HotelIDs) != 3 {
		t.Fatalf("unexpected rate query: %+v", q)
	}
	sort.Strings(fh.detailCalls)
	if len(fh.detailCalls) != 2 || fh.detailCalls[0] != "h1" || fh.detailCalls[1] != "h2" {
		t.Fatalf("details must be fetched for rated hotels only, got %v", fh.detailCalls)
	}

	h1 := got[0]
	if h1.Rating != 8 {
		t.Fatalf("rating 0 with 4 stars must give 8, got %v", h1.Rating)
	}
	if h1.Price != 199 || h1.Currency != "EUR" {
		t.Fatalf("unexpected price: %v %s", h1.Price, h1.Currency)
	}
	if len(h1.Photos) != 3 || len(h1.AllPhotos) != 5 {
		t.Fatalf("expected 3 preview photos of 5, got %d/%d", len(h1.Photos), len(h1.AllPhotos))
	}
	if h1.CheckIn != "15:00" || h1.CheckOut != "11:00" || h1.ReviewCount != 1234 {
		t.Fatalf("detail fields not mapped: %+v", h1)
	}
	if len(h1.Policies) != 1 || h1.Policies[0] != "No pets" {
		t.Fatalf("unexpected policies: %v", h1.Policies)
	}
	if h1.Description != "four stars" || h1.Address != "1 Rue A" {
		t.Fatalf("identity fields not mapped: %+v", h1)
	}

	h2 := got[1]
	if h2.Rating != 3.5 {
		t.Fatalf("explicit rating must win over stars, got %v", h2.Rating)
	}
	if h2.Photos == nil || len(h2.Photos) != 0 || len(h2.AllPhotos) != 0 {
		t.Fatalf("missing hotelImages must give empty photo lists, got %#v", h2.Photos)
	}
	if h2.CheckIn != "" || h2.Address != "" {
		t.Fatalf("missing fields must default, got %+v", h2)
	}
}

func TestHotelAggregator_DetailNotFoundDegrades(t *testing.T) {
	fh := sampleHotels()
	fh.detailErrs = map[string]error{"h1": domain.UpstreamError{Service: "hotels", Err: domain.ErrNotFound}}

	got, err := app.NewHotelAggregator(fh, 4, "USD").Aggregate(context.Background(), app.HotelSearch{Stay: stay, Travelers: 1})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 2 || got[0].ID != "h1" || len(got[0].Amenities) != 0 || got[0].Price != 199 {
		t.Fatalf("h1 must survive with list and rate fields only: %+v", got)
	}
}

func TestHotelAggregator_DetailFailureAborts(t *testing.T) {
	fh := sampleHotels()
	boom := domain.UpstreamError{Service: "hotels", Err: errors.New("bad status 500")}
	fh.detailErrs = map[string]error{"h2": boom}

	_, err := app.NewHotelAggregator(fh, 4, "USD").Aggregate(context.Background(), app.HotelSearch{Stay: stay, Travelers: 1})
	if !domain.IsUpstream(err) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
}

func TestHotelAggregator_NothingBookable(t *testing.T) {
	fh := sampleHotels()
	fh.rates = nil

	_, err := app.NewHotelAggregator(fh, 4, "USD").Aggregate(context.Background(), app.HotelSearch{Stay: stay, Travelers: 1})
	if !domain.IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if len(fh.detailCalls) != 0 {
		t.Fatalf("no details should be fetched without rates")
	}
}
