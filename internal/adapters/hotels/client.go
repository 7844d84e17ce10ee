package hotels

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

const (
	defaultRadiusMeters = 10000
	defaultListLimit    = 20
)

// Client talks to the hotel content and rates API. Payloads are returned as loose
// maps because field coverage differs hotel by hotel.
type Client struct {
	base      string
	key       string
	hx        *httpx.Client
	radius    int
	listLimit int
}

func New(hx *httpx.Client, base, key string) *Client {
	return &Client{
		base:      strings.TrimRight(base, "/"),
		key:       key,
		hx:        hx,
		radius:    defaultRadiusMeters,
		listLimit: defaultListLimit,
	}
}

func (c *Client) headers() http.Header {
	h := http.Header{}
	h.Set("X-API-Key", c.key)
	h.Set("Accept", "application/json")
	return h
}

type listEnvelope struct {
	Data *[]map[string]any `json:"data"`
}

type detailEnvelope struct {
	Data *map[string]any `json:"data"`
}

var errNoData = errors.New("missing data key")

func (c *Client) ListHotels(ctx context.Context, lat, lon float64) ([]map[string]any, error) {
	q := url.Values{}
	q.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("radius", strconv.Itoa(c.radius))
	q.Set("limit", strconv.Itoa(c.listLimit))

	var env listEnvelope
	if err := c.hx.Get(ctx, c.base+"/data/hotels?"+q.Encode(), c.headers(), &env); err != nil {
		return nil, domain.UpstreamError{Service: c.hx.Service(), Err: err}
	}
	if env.Data == nil {
		return nil, domain.UpstreamError{Service: c.hx.Service(), Msg: "hotel list missing data", Err: errNoData}
	}
	return *env.Data, nil
}

type occupancy struct {
	Adults int `json:"adults"`
}

type ratesRequest struct {
	HotelIDs         []string    `json:"hotelIds"`
	CheckIn          string      `json:"checkin"`
	CheckOut         string      `json:"checkout"`
	Occupancies      []occupancy `json:"occupancies"`
	Currency         string      `json:"currency"`
	GuestNationality string      `json:"guestNationality"`
}

// Rates quotes every hotel in q at once. Hotels without availability are simply absent.
func (c *Client) Rates(ctx context.Context, q domain.RateQuery) ([]map[string]any, error) {
	if len(q.HotelIDs) == 0 {
		return []map[string]any{}, nil
	}
	adults := q.Adults
	if adults < 1 {
		adults = 1
	}
	residency := q.Residency
	if residency == "" {
		residency = "US"
	}
	body := ratesRequest{
		HotelIDs:         q.HotelIDs,
		CheckIn:          q.CheckIn,
		CheckOut:         q.CheckOut,
		Occupancies:      []occupancy{{Adults: adults}},
		Currency:         q.Currency,
		GuestNationality: residency,
	}

	var env listEnvelope
	if err := c.hx.PostJSON(ctx, c.base+"/hotels/rates", c.headers(), body, &env); err != nil {
		return nil, domain.UpstreamError{Service: c.hx.Service(), Err: err}
	}
	if env.Data == nil {
		return nil, domain.UpstreamError{Service: c.hx.Service(), Msg: "rates missing data", Err: errNoData}
	}
	return *env.Data, nil
}

// Details returns domain.ErrNotFound (wrapped) when the provider has no content for the hotel.
func (c *Client) Details(ctx context.Context, hotelID string) (map[string]any, error) {
	q := url.Values{}
	q.Set("hotelId", hotelID)

	var env detailEnvelope
	if err := c.hx.Get(ctx, c.base+"/data/hotel?"+q.Encode(), c.headers(), &env); err != nil {
		return nil, domain.UpstreamError{Service: c.hx.Service(), Msg: "hotel " + hotelID, Err: err}
	}
	if env.Data == nil {
		return nil, domain.UpstreamError{Service: c.hx.Service(), Msg: "hotel details missing data", Err: errNoData}
	}
	return *env.Data, nil
}
