package flights

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"tripfinder/internal/adapters/httpx"
	"tripfinder/internal/domain"
)

// Client queries the flight-offer search API. The payload is returned untouched;
// flattening happens in the normalizer.
type Client struct {
	base string
	key  string
	hx   *httpx.Client
}

func New(hx *httpx.Client, base, key string) *Client {
	return &Client{base: strings.TrimRight(base, "/"), key: key, hx: hx}
}

type searchRequest struct {
	Origin      string `json:"originIata"`
	Destination string `json:"destinationIata"`
	DepartDate  string `json:"outboundDate"`
	ReturnDate  string `json:"returnDate"`
	Adults      int    `json:"adults"`
	CabinClass  string `json:"cabinClass"`
	Currency    string `json:"currency"`
}

// SearchFlights runs one round-trip search. A response without an itineraries key
// usually means a key or auth problem on the provider side.
func (c *Client) SearchFlights(ctx context.Context, q domain.FlightQuery) (domain.FlightSearchResponse, error) {
	h := http.Header{}
	h.Set("x-api-key", c.key)

	body := searchRequest{
		Origin:      strings.ToUpper(q.Origin),
		Destination: strings.ToUpper(q.Destination),
		DepartDate:  q.DepartDate,
		ReturnDate:  q.ReturnDate,
		Adults:      q.Travelers,
		CabinClass:  CabinCode(q.CabinClass),
		Currency:    q.Currency,
	}

	var out domain.FlightSearchResponse
	if err := c.hx.PostJSON(ctx, c.base+"/flights/search", h, body, &out); err != nil {
		return domain.FlightSearchResponse{}, domain.UpstreamError{Service: c.hx.Service(), Err: err}
	}
	if out.Itineraries == nil {
		return domain.FlightSearchResponse{}, domain.UpstreamError{
			Service: c.hx.Service(),
			Msg:     "response missing itineraries",
			Err:     errors.New("missing itineraries key"),
		}
	}
	return out, nil
}

// NormalizeCabin maps user input to one of economy, premium_economy, business, first.
func NormalizeCabin(class string) string {
	switch strings.ToLower(strings.TrimSpace(class)) {
	case "premium", "premium_economy", "premium economy", "premiumeconomy", "w":
		return "premium_economy"
	case "business", "biz", "j", "c":
		return "business"
	case "first", "f":
		return "first"
	default:
		return "economy"
	}
}

// CabinCode is the provider's enum for a cabin class.
func CabinCode(class string) string {
	return "CABIN_CLASS_" + strings.ToUpper(NormalizeCabin(class))
}
