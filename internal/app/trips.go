package app

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"tripfinder/internal/domain"
)

var iataRe = regexp.MustCompile(`^[A-Z]{3}$`)

var cabinClasses = map[string]bool{"economy": true, "premium_economy": true, "business": true, "first": true}

// TripService drives one trip through its stages: city search, airport selection,
// itinerary selection.
type TripService struct {
	trips        domain.TripRepository
	geo          *GeoResolver
	flights      domain.FlightClient
	hotels       *HotelAggregator
	deepLinkBase string
	currency     string
}

func NewTripService(trips domain.TripRepository, geo *GeoResolver, flights domain.FlightClient, hotels *HotelAggregator, deepLinkBase, currency string) *TripService {
	return &TripService{trips: trips, geo: geo, flights: flights, hotels: hotels, deepLinkBase: deepLinkBase, currency: currency}
}

type SearchRequest struct {
	OriginCity      string `json:"originCity"`
	DestinationCity string `json:"destinationCity"`
	DepartDate      string `json:"departDate"`
	ReturnDate      string `json:"returnDate"`
	Travelers       int    `json:"travelers"`
}

func (r SearchRequest) Validate() error {
	if strings.TrimSpace(r.OriginCity) == "" {
		return domain.ValidationError{Field: "originCity", Msg: "required"}
	}
	if strings.TrimSpace(r.DestinationCity) == "" {
		return domain.ValidationError{Field: "destinationCity", Msg: "required"}
	}
	dep, err := time.Parse("2006-01-02", r.DepartDate)
	if err != nil {
		return domain.ValidationError{Field: "departDate", Msg: "expected YYYY-MM-DD"}
	}
	ret, err := time.Parse("2006-01-02", r.ReturnDate)
	if err != nil {
		return domain.ValidationError{Field: "returnDate", Msg: "expected YYYY-MM-DD"}
	}
	if ret.Before(dep) {
		return domain.ValidationError{Field: "returnDate", Msg: "must not be before departDate"}
	}
	if r.Travelers < 1 {
		return domain.ValidationError{Field: "travelers", Msg: "must be at least 1"}
	}
	return nil
}

type SearchResult struct {
	TripID              string              `json:"tripId"`
	Origin              domain.CityLocation `json:"origin"`
	Destination         domain.CityLocation `json:"destination"`
	OriginAirports      []domain.Airport    `json:"originAirports"`
	DestinationAirports []domain.Airport    `json:"destinationAirports"`
}

// StartSearch resolves both cities to airport candidates and opens a trip with
// placeholder cabin and airport fields.
func (s *TripService) StartSearch(ctx context.Context, userID int64, req SearchRequest) (SearchResult, error) {
	if err := req.Validate(); err != nil {
		return SearchResult{}, err
	}
	origin, err := s.geo.ResolveCity(ctx, req.OriginCity)
	if err != nil {
		return SearchResult{}, err
	}
	dest, err := s.geo.ResolveCity(ctx, req.DestinationCity)
	if err != nil {
		return SearchResult{}, err
	}
	originAirports, err := s.geo.ResolveAirports(ctx, origin.Longitude, origin.Latitude)
	if err != nil {
		return SearchResult{}, err
	}
	destAirports, err := s.geo.ResolveAirports(ctx, dest.Longitude, dest.Latitude)
	if err != nil {
		return SearchResult{}, err
	}

	id, err := s.trips.Create(ctx, domain.Trip{
		UserID:             userID,
		OriginCity:         strings.TrimSpace(req.OriginCity),
		DestinationCity:    strings.TrimSpace(req.DestinationCity),
		DepartDate:         req.DepartDate,
		ReturnDate:         req.ReturnDate,
		Travelers:          req.Travelers,
		CabinClass:         domain.PendingCabin,
		OriginAirport:      domain.PendingAirport,
		DestinationAirport: domain.PendingAirport,
		DestinationLat:     dest.Latitude,
		DestinationLon:     dest.Longitude,
	})
	if err != nil {
		return SearchResult{}, err
	}
	log.Info().Str("trip_id", id).Int64("user_id", userID).Msg("trip created")
	return SearchResult{
		TripID:              id,
		Origin:              origin,
		Destination:         dest,
		OriginAirports:      originAirports,
		DestinationAirports: destAirports,
	}, nil
}

type AirportSelection struct {
	OriginAirport      string `json:"originAirport"`
	DestinationAirport string `json:"destinationAirport"`
	CabinClass         string `json:"cabinClass"`
}

func (a *AirportSelection) normalize() error {
	a.OriginAirport = strings.ToUpper(strings.TrimSpace(a.OriginAirport))
	a.DestinationAirport = strings.ToUpper(strings.TrimSpace(a.DestinationAirport))
	a.CabinClass = strings.ToLower(strings.TrimSpace(a.CabinClass))
	if a.CabinClass == "" {
		a.CabinClass = "economy"
	}
	if !iataRe.MatchString(a.OriginAirport) {
		return domain.ValidationError{Field: "originAirport", Msg: "expected a 3-letter IATA code"}
	}
	if !iataRe.MatchString(a.DestinationAirport) {
		return domain.ValidationError{Field: "destinationAirport", Msg: "expected a 3-letter IATA code"}
	}
	if !cabinClasses[a.CabinClass] {
		return domain.ValidationError{Field: "cabinClass", Msg: "one of economy, premium_economy, business, first"}
	}
	return nil
}

// SelectAirports searches flights for the chosen pair, then stores the raw tables so
// later stages never re-query the flight API.
func (s *TripService) SelectAirports(ctx context.Context, userID int64, tripID string, sel AirportSelection) ([]domain.Itinerary, error) {
	if err := sel.normalize(); err != nil {
		return nil, err
	}
	trip, err := s.ownedTrip(ctx, userID, tripID)
	if err != nil {
		return nil, err
	}

	resp, err := s.flights.SearchFlights(ctx, domain.FlightQuery{
		Origin:      sel.OriginAirport,
		Destination: sel.DestinationAirport,
		DepartDate:  trip.DepartDate,
		ReturnDate:  trip.ReturnDate,
		Travelers:   trip.Travelers,
		CabinClass:  sel.CabinClass,
		Currency:    s.currency,
	})
	if err != nil {
		return nil, err
	}
	its, err := NormalizeItineraries(resp, trip.Travelers, s.deepLinkBase)
	if err != nil {
		return nil, err
	}

	if err := s.trips.Update(ctx, trip.ID, map[string]any{
		domain.FieldCabinClass:         sel.CabinClass,
		domain.FieldOriginAirport:      sel.OriginAirport,
		domain.FieldDestinationAirport: sel.DestinationAirport,
		domain.FieldFlights:            &resp,
	}); err != nil {
		return nil, err
	}
	return its, nil
}

// Itineraries re-renders the stored search without calling the flight API.
func (s *TripService) Itineraries(ctx context.Context, userID int64, tripID string) ([]domain.Itinerary, error) {
	trip, err := s.ownedTrip(ctx, userID, tripID)
	if err != nil {
		return nil, err
	}
	if trip.Flights == nil {
		return nil, domain.NotFoundError{Resource: "flight search for this trip"}
	}
	return NormalizeItineraries(*trip.Flights, trip.Travelers, s.deepLinkBase)
}

type HotelResult struct {
	ItineraryID string              `json:"itineraryId"`
	Stay        domain.StayWindow   `json:"stay"`
	Hotels      []domain.HotelOffer `json:"hotels"`
}

// SelectItinerary pins the itinerary and its stay window on the trip, then lists hotels
// at the destination for that window.
func (s *TripService) SelectItinerary(ctx context.Context, userID int64, tripID, itineraryID string) (HotelResult, error) {
	if strings.TrimSpace(itineraryID) == "" {
		return HotelResult{}, domain.ValidationError{Field: "itineraryId", Msg: "required"}
	}
	trip, err := s.ownedTrip(ctx, userID, tripID)
	if err != nil {
		return HotelResult{}, err
	}
	stay, err := StayWindowFor(trip.Flights, itineraryID)
	if err != nil {
		return HotelResult{}, err
	}
	if err := s.trips.Update(ctx, trip.ID, map[string]any{
		domain.FieldItineraryID: itineraryID,
		domain.FieldCheckIn:     stay.CheckIn,
		domain.FieldCheckOut:    stay.CheckOut,
	}); err != nil {
		return HotelResult{}, err
	}

	hotels, err := s.hotels.Aggregate(ctx, HotelSearch{
		Lat:       trip.DestinationLat,
		Lon:       trip.DestinationLon,
		Stay:      stay,
		Travelers: trip.Travelers,
	})
	if err != nil {
		return HotelResult{}, err
	}
	return HotelResult{ItineraryID: itineraryID, Stay: stay, Hotels: hotels}, nil
}

func (s *TripService) GetTrip(ctx context.Context, userID int64, tripID string) (domain.Trip, error) {
	return s.ownedTrip(ctx, userID, tripID)
}

// ownedTrip hides other users' trips behind the same answer as a missing one.
func (s *TripService) ownedTrip(ctx context.Context, userID int64, tripID string) (domain.Trip, error) {
	t, err := s.trips.Get(ctx, tripID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.Trip{}, domain.NotFoundError{Resource: "trip", Err: err}
	}
	if err != nil {
		return domain.Trip{}, err
	}
	if t.UserID != userID {
		return domain.Trip{}, domain.NotFoundError{Resource: "trip"}
	}
	return t, nil
}
