package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"tripfinder/internal/adapters/observability"
	"tripfinder/internal/domain"
)

// flightTables indexes one search response by id. Built once per response and shared
// by every itinerary in it.
type flightTables struct {
	itineraries map[string]domain.RawItinerary
	legs        map[string]domain.RawLeg
	segments    map[string]domain.RawSegment
	places      map[string]domain.RawPlace
	agents      map[string]domain.RawAgent
}

func buildFlightTables(resp domain.FlightSearchResponse) flightTables {
	t := flightTables{
		itineraries: make(map[string]domain.RawItinerary, len(resp.Itineraries)),
		legs:        make(map[string]domain.RawLeg, len(resp.Legs)),
		segments:    make(map[string]domain.RawSegment, len(resp.Segments)),
		places:      make(map[string]domain.RawPlace, len(resp.Places)),
		agents:      make(map[string]domain.RawAgent, len(resp.Agents)),
	}
	for _, it := range resp.Itineraries {
		t.itineraries[it.ID] = it
	}
	for _, l := range resp.Legs {
		t.legs[l.ID] = l
	}
	for _, s := range resp.Segments {
		t.segments[s.ID] = s
	}
	for _, p := range resp.Places {
		t.places[p.ID] = p
	}
	for _, a := range resp.Agents {
		t.agents[a.ID] = a
	}
	return t
}

// NormalizeItineraries flattens a search response into display records, preserving input order.
// Any dangling leg, segment or place reference aborts the whole batch.
func NormalizeItineraries(resp domain.FlightSearchResponse, travelers int, deepLinkBase string) ([]domain.Itinerary, error) {
	if travelers < 1 {
		return nil, domain.ValidationError{Field: "travelers", Msg: "must be at least 1"}
	}
	if resp.Itineraries == nil {
		return nil, domain.UpstreamError{Service: "flights", Msg: "response missing itineraries"}
	}
	if len(resp.Itineraries) == 0 {
		return nil, domain.NotFoundError{Resource: "flights"}
	}

	t := buildFlightTables(resp)
	out := make([]domain.Itinerary, 0, len(resp.Itineraries))
	for _, raw := range resp.Itineraries {
		it, err := t.flattenItinerary(raw, travelers, deepLinkBase)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	observability.ObservePipeline("itineraries", len(out))
	return out, nil
}

func (t flightTables) flattenItinerary(raw domain.RawItinerary, travelers int, deepLinkBase string) (domain.Itinerary, error) {
	if len(raw.LegIDs) != 2 {
		return domain.Itinerary{}, domain.DataConsistencyError{
			Table: "itineraries", ID: raw.ID,
			Err: fmt.Errorf("expected outbound and inbound leg, got %d legs", len(raw.LegIDs)),
		}
	}
	outbound, err := t.flattenLeg(raw.LegIDs[0])
	if err != nil {
		return domain.Itinerary{}, err
	}
	inbound, err := t.flattenLeg(raw.LegIDs[1])
	if err != nil {
		return domain.Itinerary{}, err
	}

	opt, ok := cheapestOption(raw.PricingOptions)
	if !ok {
		return domain.Itinerary{}, domain.DataConsistencyError{
			Table: "itineraries", ID: raw.ID, Err: errors.New("no pricing options"),
		}
	}

	it := domain.Itinerary{
		ID:       raw.ID,
		Outbound: outbound,
		Inbound:  inbound,
		// TODO: check the provider per-person flag once exposed; totals are taken to cover the whole party
		Price:    opt.Price.Amount / float64(travelers),
		Currency: opt.Price.Currency,
	}
	if len(opt.AgentIDs) > 0 {
		// agent display is cosmetic; a dangling id leaves the name blank
		if a, ok := t.agents[opt.AgentIDs[0]]; ok {
			it.AgentName = a.Name
		}
	}
	if len(opt.Items) > 0 {
		it.DeepLink = deepLink(deepLinkBase, opt.Items[0].DeepLink)
	}
	return it, nil
}

func (t flightTables) flattenLeg(id string) (domain.Leg, error) {
	raw, ok := t.legs[id]
	if !ok {
		return domain.Leg{}, domain.DataConsistencyError{Table: "legs", ID: id}
	}
	segs, err := t.legSegments(raw)
	if err != nil {
		return domain.Leg{}, err
	}

	leg := domain.Leg{
		Origin:      t.placeCode(raw.OriginPlaceID),
		Destination: t.placeCode(raw.DestinationPlaceID),
		Departure:   raw.Departure,
		Arrival:     raw.Arrival,
		StopCount:   raw.StopCount,
		Layovers:    make([]string, 0, max(len(segs)-1, 0)),
	}

	total := 0
	for i := 0; i+1 < len(segs); i++ {
		gap, err := layoverMinutes(segs[i], segs[i+1])
		if err != nil {
			return domain.Leg{}, err
		}
		place, ok := t.places[segs[i].DestinationPlaceID]
		if !ok {
			return domain.Leg{}, domain.DataConsistencyError{Table: "places", ID: segs[i].DestinationPlaceID}
		}
		leg.Layovers = append(leg.Layovers, fmt.Sprintf("%dh %dm layover at %s", gap/60, gap%60, displayCode(place)))
		total += gap
	}
	leg.LayoverSummary = strings.Join(leg.Layovers, ", ")
	leg.DurationMinutes = raw.DurationInMinutes - total
	return leg, nil
}

func (t flightTables) legSegments(leg domain.RawLeg) ([]domain.RawSegment, error) {
	segs := make([]domain.RawSegment, 0, len(leg.SegmentIDs))
	for _, sid := range leg.SegmentIDs {
		s, ok := t.segments[sid]
		if !ok {
			return nil, domain.DataConsistencyError{Table: "segments", ID: sid}
		}
		segs = append(segs, s)
	}
	return segs, nil
}

// placeCode is best effort; leg endpoints are display only.
func (t flightTables) placeCode(id string) string {
	if p, ok := t.places[id]; ok {
		return displayCode(p)
	}
	return ""
}

func displayCode(p domain.RawPlace) string {
	if p.IATA != "" {
		return p.IATA
	}
	return p.Name
}

// layoverMinutes is the whole-minute gap between one segment's arrival and the next departure.
// Both ends are local to the connecting airport, so when only one carries an offset the other
// is read in that offset.
func layoverMinutes(arriving, departing domain.RawSegment) (int, error) {
	arr, arrZoned, err := parseTimestampIn(arriving.Arrival, time.UTC)
	if err != nil {
		return 0, domain.DataConsistencyError{Table: "segments", ID: arriving.ID, Err: err}
	}
	dep, depZoned, err := parseTimestampIn(departing.Departure, time.UTC)
	if err != nil {
		return 0, domain.DataConsistencyError{Table: "segments", ID: departing.ID, Err: err}
	}
	switch {
	case arrZoned && !depZoned:
		dep, _, _ = parseTimestampIn(departing.Departure, arr.Location())
	case depZoned && !arrZoned:
		arr, _, _ = parseTimestampIn(arriving.Arrival, dep.Location())
	}
	gap := dep.Sub(arr)
	if gap < 0 {
		return 0, domain.DataConsistencyError{
			Table: "segments", ID: departing.ID,
			Err: fmt.Errorf("departs %s before previous arrival", gap.Abs()),
		}
	}
	return int(gap / time.Minute), nil
}

var naiveLayouts = []string{"2006-01-02T15:04:05", "2006-01-02T15:04", "2006-01-02 15:04:05"}

// parseTimestamp accepts RFC3339 with an offset, or a naive local time read as UTC.
func parseTimestamp(s string) (time.Time, error) {
	ts, _, err := parseTimestampIn(s, time.UTC)
	return ts, err
}

// parseTimestampIn reads naive values in loc; the bool reports whether s carried its own offset.
func parseTimestampIn(s string, loc *time.Location) (time.Time, bool, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, true, nil
	}
	for _, layout := range naiveLayouts {
		if ts, err := time.ParseInLocation(layout, s, loc); err == nil {
			return ts, false, nil
		}
	}
	return time.Time{}, false, fmt.Errorf("unparseable timestamp %q", s)
}

// cheapestOption keeps the first option on ties.
func cheapestOption(opts []domain.PricingOption) (domain.PricingOption, bool) {
	if len(opts) == 0 {
		return domain.PricingOption{}, false
	}
	best := opts[0]
	for _, o := range opts[1:] {
		if o.Price.Amount < best.Price.Amount {
			best = o
		}
	}
	return best, true
}

func deepLink(base, path string) string {
	if path == "" {
		return ""
	}
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}
