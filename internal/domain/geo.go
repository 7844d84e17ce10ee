package domain

type CityLocation struct {
	Name      string  `json:"name"`
	Country   string  `json:"country,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type Airport struct {
	IATACode   string  `json:"iataCode"`
	Name       string  `json:"name"`
	CityName   string  `json:"cityName,omitempty"`
	Latitude   float64 `json:"latitude"`
	Longitude  float64 `json:"longitude"`
	DistanceKm float64 `json:"distanceKm,omitempty"`
}
