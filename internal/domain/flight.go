package domain

// FlightSearchResponse is the flight-offer search payload: itinerary records plus the
// id-keyed reference tables they point into. A nil Itineraries means the key was absent.
type FlightSearchResponse struct {
	Itineraries []RawItinerary `json:"itineraries"`
	Legs        []RawLeg       `json:"legs"`
	Segments    []RawSegment   `json:"segments"`
	Places      []RawPlace     `json:"places"`
	Agents      []RawAgent     `json:"agents"`
}

type RawItinerary struct {
	ID             string          `json:"id"`
	LegIDs         []string        `json:"legIds"`
	PricingOptions []PricingOption `json:"pricingOptions"`
}

type PricingOption struct {
	AgentIDs []string      `json:"agentIds"`
	Price    Price         `json:"price"`
	Items    []PricingItem `json:"items"`
}

type Price struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency,omitempty"`
}

type PricingItem struct {
	AgentID  string `json:"agentId,omitempty"`
	DeepLink string `json:"deepLink"`
}

type RawLeg struct {
	ID                 string   `json:"id"`
	OriginPlaceID      string   `json:"originPlaceId"`
	DestinationPlaceID string   `json:"destinationPlaceId"`
	Departure          string   `json:"departureDateTime"`
	Arrival            string   `json:"arrivalDateTime"`
	DurationInMinutes  int      `json:"durationInMinutes"`
	StopCount          int      `json:"stopCount"`
	SegmentIDs         []string `json:"segmentIds"`
}

type RawSegment struct {
	ID                 string `json:"id"`
	OriginPlaceID      string `json:"originPlaceId"`
	DestinationPlaceID string `json:"destinationPlaceId"`
	Departure          string `json:"departureDateTime"`
	Arrival            string `json:"arrivalDateTime"`
	DurationInMinutes  int    `json:"durationInMinutes,omitempty"`
	FlightNumber       string `json:"marketingFlightNumber,omitempty"`
}

type RawPlace struct {
	ID   string `json:"id"`
	IATA string `json:"iata"`
	Name string `json:"name,omitempty"`
	Type string `json:"type,omitempty"`
}

type RawAgent struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// FlightQuery keys one flight-offer search.
type FlightQuery struct {
	Origin      string
	Destination string
	DepartDate  string // YYYY-MM-DD
	ReturnDate  string // YYYY-MM-DD
	Travelers   int
	CabinClass  string
	Currency    string
}

// Leg is the display projection of one direction of a round trip.
type Leg struct {
	Origin          string   `json:"origin,omitempty"`
	Destination     string   `json:"destination,omitempty"`
	Departure       string   `json:"departure"`
	Arrival         string   `json:"arrival"`
	DurationMinutes int      `json:"durationMinutes"`
	StopCount       int      `json:"stopCount"`
	Layovers        []string `json:"layovers"`
	LayoverSummary  string   `json:"layoverSummary"`
}

type Itinerary struct {
	ID        string  `json:"id"`
	Outbound  Leg     `json:"outbound"`
	Inbound   Leg     `json:"inbound"`
	Price     float64 `json:"price"`
	Currency  string  `json:"currency,omitempty"`
	AgentName string  `json:"agentName"`
	DeepLink  string  `json:"deepLink"`
}
