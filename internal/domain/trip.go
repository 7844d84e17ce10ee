package domain

import "time"

// Trip carries search criteria and the raw flight tables between request stages.
type Trip struct {
	ID                 string
	UserID             int64
	OriginCity         string
	DestinationCity    string
	DepartDate         string
	ReturnDate         string
	Travelers          int
	CabinClass         string
	OriginAirport      string
	DestinationAirport string
	DestinationLat     float64
	DestinationLon     float64
	Flights            *FlightSearchResponse // nil until airports are chosen
	ItineraryID        string
	CheckIn            string
	CheckOut           string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Placeholders written at airport-search time, before the user picks.
const (
	PendingCabin   = "pending"
	PendingAirport = "---"
)

// Field keys accepted by TripRepository.Update.
const (
	FieldCabinClass         = "cabin_class"
	FieldOriginAirport      = "origin_airport"
	FieldDestinationAirport = "destination_airport"
	FieldDestinationLat     = "destination_lat"
	FieldDestinationLon     = "destination_lon"
	FieldFlights            = "flights"
	FieldItineraryID        = "itinerary_id"
	FieldCheckIn            = "check_in"
	FieldCheckOut           = "check_out"
)

type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
}
