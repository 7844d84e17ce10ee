package domain

// RateQuery asks for quotes on a set of hotels for one stay.
type RateQuery struct {
	HotelIDs  []string
	CheckIn   string // YYYY-MM-DD
	CheckOut  string // YYYY-MM-DD
	Adults    int
	Currency  string
	Residency string
}

// HotelOffer is a flattened, display-ready hotel record.
// Every field but ID tolerates absence upstream.
type HotelOffer struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	City        string   `json:"city"`
	Address     string   `json:"address"`
	Rating      float64  `json:"rating"` // out of 10
	ReviewCount int64    `json:"reviewCount"`
	Price       float64  `json:"price"`
	Currency    string   `json:"currency,omitempty"`
	Photos      []string `json:"photos"` // at most 3
	AllPhotos   []string `json:"allPhotos"`
	Amenities   []string `json:"amenities"`
	Policies    []string `json:"policies"`
	CheckIn     string   `json:"checkIn"`
	CheckOut    string   `json:"checkOut"`
}

// StayWindow is derived from the chosen itinerary, not user input.
type StayWindow struct {
	CheckIn  string `json:"checkIn"`  // timestamp as received
	CheckOut string `json:"checkOut"` // timestamp as received
}
