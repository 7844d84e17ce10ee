package geocode

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"tripfinder/internal/adapters/httpx"
	"tripfinder/internal/domain"
)

// Client resolves free-text city names through an API-key secured geocoding endpoint.
type Client struct {
	base string
	key  string
	hx   *httpx.Client
}

func New(hx *httpx.Client, base, key string) *Client {
	return &Client{base: strings.TrimRight(base, "/"), key: key, hx: hx}
}

type match struct {
	Name      string  `json:"name"`
	Country   string  `json:"country"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// SearchCity returns every match in upstream order; an empty slice is a valid answer.
func (c *Client) SearchCity(ctx context.Context, name string) ([]domain.CityLocation, error) {
	q := url.Values{}
	q.Set("city", name)
	h := http.Header{}
	h.Set("X-Api-Key", c.key)

	var out []match
	if err := c.hx.Get(ctx, c.base+"/geocoding?"+q.Encode(), h, &out); err != nil {
		return nil, domain.UpstreamError{Service: c.hx.Service(), Err: err}
	}
	locs := make([]domain.CityLocation, 0, len(out))
	for _, m := range out {
		locs = append(locs, domain.CityLocation{
			Name:      m.Name,
			Country:   m.Country,
			Latitude:  m.Latitude,
			Longitude: m.Longitude,
		})
	}
	return locs, nil
}
