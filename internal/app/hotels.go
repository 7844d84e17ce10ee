package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"tripfinder/internal/adapters/observability"
	"tripfinder/internal/domain"
)

// StayWindowFor derives hotel dates from the chosen itinerary: check-in is the arrival of the
// outbound leg's last segment, check-out the departure of the inbound leg's first segment.
func StayWindowFor(flights *domain.FlightSearchResponse, itineraryID string) (domain.StayWindow, error) {
	if flights == nil {
		return domain.StayWindow{}, domain.NotFoundError{Resource: "flight search"}
	}
	t := buildFlightTables(*flights)
	raw, ok := t.itineraries[itineraryID]
	if !ok {
		return domain.StayWindow{}, domain.NotFoundError{Resource: fmt.Sprintf("itinerary %q", itineraryID)}
	}
	if len(raw.LegIDs) != 2 {
		return domain.StayWindow{}, domain.DataConsistencyError{
			Table: "itineraries", ID: raw.ID,
			Err: fmt.Errorf("expected outbound and inbound leg, got %d legs", len(raw.LegIDs)),
		}
	}

	outbound, ok := t.legs[raw.LegIDs[0]]
	if !ok {
		return domain.StayWindow{}, domain.DataConsistencyError{Table: "legs", ID: raw.LegIDs[0]}
	}
	inbound, ok := t.legs[raw.LegIDs[1]]
	if !ok {
		return domain.StayWindow{}, domain.DataConsistencyError{Table: "legs", ID: raw.LegIDs[1]}
	}
	outSegs, err := t.legSegments(outbound)
	if err != nil {
		return domain.StayWindow{}, err
	}
	inSegs, err := t.legSegments(inbound)
	if err != nil {
		return domain.StayWindow{}, err
	}

	// a leg without segment ids still carries its own endpoints
	w := domain.StayWindow{CheckIn: outbound.Arrival, CheckOut: inbound.Departure}
	if len(outSegs) > 0 {
		w.CheckIn = outSegs[len(outSegs)-1].Arrival
	}
	if len(inSegs) > 0 {
		w.CheckOut = inSegs[0].Departure
	}
	return w, nil
}

// stayDate trims a timestamp to the YYYY-MM-DD the rates API expects.
func stayDate(ts string) (string, error) {
	t, err := parseTimestamp(ts)
	if err != nil {
		return "", err
	}
	return t.Format("2006-01-02"), nil
}

type HotelSearch struct {
	Lat       float64
	Lon       float64
	Stay      domain.StayWindow
	Travelers int
}

// HotelAggregator joins the hotel list, rate quotes and detail records.
// Unlike flights, a missing field degrades that field only.
type HotelAggregator struct {
	client   domain.HotelClient
	workers  int
	currency string
}

func NewHotelAggregator(c domain.HotelClient, workers int, currency string) *HotelAggregator {
	if workers <= 0 {
		workers = 4
	}
	return &HotelAggregator{client: c, workers: workers, currency: currency}
}

func (a *HotelAggregator) Aggregate(ctx context.Context, q HotelSearch) ([]domain.HotelOffer, error) {
	if q.Travelers < 1 {
		return nil, domain.ValidationError{Field: "travelers", Msg: "must be at least 1"}
	}
	checkIn, err := stayDate(q.Stay.CheckIn)
	if err != nil {
		return nil, domain.DataConsistencyError{Table: "segments", ID: "check-in", Err: err}
	}
	checkOut, err := stayDate(q.Stay.CheckOut)
	if err != nil {
		return nil, domain.DataConsistencyError{Table: "segments", ID: "check-out", Err: err}
	}

	list, err := a.client.ListHotels(ctx, q.Lat, q.Lon)
	if err != nil {
		return nil, err
	}
	hotelsByID := make(map[string]map[string]any, len(list))
	order := make([]string, 0, len(list))
	for _, h := range list {
		id := idOf(h, hotelAliases, "id")
		if id == "" {
			continue
		}
		if _, dup := hotelsByID[id]; dup {
			continue
		}
		hotelsByID[id] = h
		order = append(order, id)
	}
	if len(order) == 0 {
		return nil, domain.NotFoundError{Resource: "hotels near destination"}
	}

	rates, err := a.client.Rates(ctx, domain.RateQuery{
		HotelIDs: order,
		CheckIn:  checkIn,
		CheckOut: checkOut,
		Adults:   q.Travelers,
		Currency: a.currency,
	})
	if err != nil {
		return nil, err
	}
	ratesByID := make(map[string]map[string]any, len(rates))
	for _, r := range rates {
		if id := idOf(r, rateAliases, "hotelId"); id != "" {
			if _, dup := ratesByID[id]; !dup {
				ratesByID[id] = r
			}
		}
	}

	// only quoted hotels are bookable
	rated := make([]string, 0, len(ratesByID))
	for _, id := range order {
		if _, ok := ratesByID[id]; ok {
			rated = append(rated, id)
		}
	}
	if len(rated) == 0 {
		return nil, domain.NotFoundError{Resource: "hotel availability for these dates"}
	}

	details, err := a.fetchDetails(ctx, rated)
	if err != nil {
		return nil, err
	}

	out := make([]domain.HotelOffer, 0, len(rated))
	for i, id := range rated {
		out = append(out, mapHotelOffer(hotelsByID[id], ratesByID[id], details[i], a.currency))
	}
	observability.ObservePipeline("hotels", len(out))
	return out, nil
}

// fetchDetails fans out with bounded concurrency. Result i belongs to ids[i]; a hotel
// the provider has no content for yields a nil record.
func (a *HotelAggregator) fetchDetails(ctx context.Context, ids []string) ([]map[string]any, error) {
	details := make([]map[string]any, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, id := range ids {
		i, id := i, id
		g.Go(func() error {
			d, err := a.client.Details(gctx, id)
			if errors.Is(err, domain.ErrNotFound) {
				log.Warn().Str("hotel_id", id).Msg("hotel details not found; degrading fields")
				return nil
			}
			if err != nil {
				return err
			}
			details[i] = d
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return details, nil
}
