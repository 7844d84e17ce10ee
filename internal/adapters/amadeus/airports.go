package amadeus

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"tripfinder/internal/adapters/httpx"
	"tripfinder/internal/domain"
)

type AirportClient struct {
	base string
	hx   *httpx.Client
}

func NewAirportClient(hx *httpx.Client, base string) *AirportClient {
	return &AirportClient{base: strings.TrimRight(base, "/"), hx: hx}
}

type airportsResponse struct {
	Data *[]struct {
		IATACode string `json:"iataCode"`
		Name     string `json:"name"`
		Address  struct {
			CityName string `json:"cityName"`
		} `json:"address"`
		GeoCode struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"geoCode"`
		Distance struct {
			Value float64 `json:"value"`
			Unit  string  `json:"unit"`
		} `json:"distance"`
	} `json:"data"`
}

// NearbyAirports lists airports around a point, nearest first.
// A rejected bearer comes back as an UpstreamError wrapping domain.ErrUnauthorized.
func (c *AirportClient) NearbyAirports(ctx context.Context, bearer string, lon, lat float64, limit int) ([]domain.Airport, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("sort", "distance")
	q.Set("page[limit]", strconv.Itoa(limit))

	h := http.Header{}
	if bearer != "" {
		h.Set("Authorization", "Bearer "+bearer)
	}

	var out airportsResponse
	if err := c.hx.Get(ctx, c.base+"/v1/reference-data/locations/airports?"+q.Encode(), h, &out); err != nil {
		return nil, domain.UpstreamError{Service: c.hx.Service(), Err: err}
	}
	if out.Data == nil {
		return nil, domain.UpstreamError{Service: c.hx.Service(), Msg: "response missing data", Err: errors.New("missing data key")}
	}

	airports := make([]domain.Airport, 0, len(*out.Data))
	for _, a := range *out.Data {
		if a.IATACode == "" {
			continue
		}
		km := a.Distance.Value
		if strings.EqualFold(a.Distance.Unit, "MI") {
			km = km * 1.609344
		}
		airports = append(airports, domain.Airport{
			IATACode:   a.IATACode,
			Name:       a.Name,
			CityName:   a.Address.CityName,
			Latitude:   a.GeoCode.Latitude,
			Longitude:  a.GeoCode.Longitude,
			DistanceKm: km,
		})
		if limit > 0 && len(airports) == limit {
			break
		}
	}
	return airports, nil
}
