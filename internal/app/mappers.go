package app

import (
	"strconv"
	"strings"

	"tripfinder/internal/domain"
)

/********** alias registries (single source of truth) **********/

// Paths are tried in order; dots descend into objects and numeric parts index arrays.
var hotelAliases = map[string][]string{
	"id":          {"id", "hotelId", "hotel_id"},
	"name":        {"name", "hotelName", "hotel_name"},
	"description": {"hotelDescription", "description", "markdown_description"},
	"city":        {"city", "address.city", "location.city"},
	"address": {
		"address", "address.line", "address_raw", "full_address",
		"address1", "location.address", "street_address",
	},
	"rating":      {"rating", "reviewScore", "review_score"},
	"stars":       {"stars", "starRating", "star_rating"},
	"reviewCount": {"reviewCount", "review_count", "reviewsCount"},
	"photos":      {"hotelImages", "images", "photos"},
	"amenities":   {"hotelFacilities", "facilities", "amenities"},
	"policies":    {"policies", "hotelImportantInformation"},
	"checkIn":     {"checkinCheckoutTimes.checkin", "checkinCheckoutTimes.checkin_start", "checkin_time"},
	"checkOut":    {"checkinCheckoutTimes.checkout", "checkout_time"},
}

var rateAliases = map[string][]string{
	"hotelId": {"hotelId", "hotel_id", "id"},
	"amount": {
		"roomTypes.0.rates.0.retailRate.suggestedSellingPrice.0.amount",
		"roomTypes.0.rates.0.retailRate.total.0.amount",
		"roomTypes.0.offerRetailRate.amount",
		"price",
	},
	"currency": {
		"roomTypes.0.rates.0.retailRate.suggestedSellingPrice.0.currency",
		"roomTypes.0.rates.0.retailRate.total.0.currency",
		"roomTypes.0.offerRetailRate.currency",
		"currency",
	},
}

const maxPreviewPhotos = 3

/********** tiny helpers **********/

// lookupAny: safe nested lookup with dot paths on maps and arrays.
func lookupAny(m map[string]any, path string) any {
	cur := any(m)
	for _, part := range strings.Split(path, ".") {
		switch obj := cur.(type) {
		case map[string]any:
			v, ok := obj[part]
			if !ok {
				return nil
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(part)
			if err != nil || i < 0 || i >= len(obj) {
				return nil
			}
			cur = obj[i]
		default:
			return nil
		}
	}
	return cur
}

// lookupStr returns string at path or "".
func lookupStr(m map[string]any, path string) string {
	if v := lookupAny(m, path); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// firstNonEmptyAlias: first non-empty string for a named alias set.
func firstNonEmptyAlias(m map[string]any, aliases map[string][]string, key string) string {
	for _, p := range aliases[key] {
		if s := strings.TrimSpace(lookupStr(m, p)); s != "" {
			return s
		}
	}
	return ""
}

func joinNonEmpty(sep string, parts ...string) string {
	var out []string
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return strings.Join(out, sep)
}

// getFloatFlexible: number from several paths (float64/int/string like "8,0").
func getFloatFlexible(m map[string]any, paths ...string) *float64 {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			f := v
			return &f
		case int:
			f := float64(v)
			return &f
		case string:
			s := strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
			if s == "" {
				continue
			}
			if f, err := strconv.ParseFloat(s, 64); err == nil {
				return &f
			}
		}
	}
	return nil
}

// firstInt64Flexible: int64 from several paths (float64/int/string).
func firstInt64Flexible(m map[string]any, paths ...string) *int64 {
	for _, k := range paths {
		switch v := lookupAny(m, k).(type) {
		case float64:
			x := int64(v)
			return &x
		case int:
			x := int64(v)
			return &x
		case int64:
			x := v
			return &x
		case string:
			s := strings.TrimSpace(v)
			if s == "" {
				continue
			}
			if n, err := strconv.ParseInt(s, 10, 64); err == nil {
				return &n
			}
		}
	}
	return nil
}

// firstSliceStrings: accept []any with either strings or {url/src/description/name}.
func firstSliceStrings(m map[string]any, paths ...string) []string {
	for _, k := range paths {
		raw, ok := lookupAny(m, k).([]any)
		if !ok {
			continue
		}
		out := make([]string, 0, len(raw))
		for _, it := range raw {
			switch t := it.(type) {
			case string:
				if t != "" {
					out = append(out, t)
				}
			case map[string]any:
				for _, f := range []string{"url", "urlHd", "src", "description", "name"} {
					if u, ok := t[f].(string); ok && u != "" {
						out = append(out, u)
						break
					}
				}
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

// idOf reads an id that may arrive as a string or a number.
func idOf(m map[string]any, aliases map[string][]string, key string) string {
	if s := firstNonEmptyAlias(m, aliases, key); s != "" {
		return s
	}
	if n := firstInt64Flexible(m, aliases[key]...); n != nil {
		return strconv.FormatInt(*n, 10)
	}
	return ""
}

/********** hotel mapper **********/

// hotelRating is out of 10: an explicit positive rating wins, else stars doubled, else 0.
func hotelRating(sources ...map[string]any) float64 {
	for _, m := range sources {
		if f := getFloatFlexible(m, hotelAliases["rating"]...); f != nil && *f > 0 {
			return *f
		}
	}
	for _, m := range sources {
		if f := getFloatFlexible(m, hotelAliases["stars"]...); f != nil && *f > 0 {
			return *f * 2
		}
	}
	return 0
}

func hotelAddress(m map[string]any) string {
	if s := firstNonEmptyAlias(m, hotelAliases, "address"); s != "" {
		return s
	}
	// compose from components when no single field is present
	return joinNonEmpty(", ",
		lookupStr(m, "address.addressLine1"),
		lookupStr(m, "address.street"),
		lookupStr(m, "address.city"),
		lookupStr(m, "address.zip"),
		lookupStr(m, "address.country"),
	)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// mapHotelOffer merges one hotel list entry with its rate quote and optional detail record.
// Every field other than the id degrades independently when its source key is absent.
func mapHotelOffer(hotel, rate, detail map[string]any, fallbackCurrency string) domain.HotelOffer {
	o := domain.HotelOffer{
		ID:          idOf(hotel, hotelAliases, "id"),
		Name:        firstNonEmptyAlias(hotel, hotelAliases, "name"),
		Description: firstNonEmptyAlias(hotel, hotelAliases, "description"),
		City:        firstNonEmptyAlias(hotel, hotelAliases, "city"),
		Address:     hotelAddress(hotel),
		Rating:      hotelRating(hotel, detail),
		Currency:    firstNonEmptyAlias(rate, rateAliases, "currency"),
	}
	if o.Name == "" {
		o.Name = firstNonEmptyAlias(detail, hotelAliases, "name")
	}
	if o.Description == "" {
		o.Description = firstNonEmptyAlias(detail, hotelAliases, "description")
	}
	if o.Currency == "" {
		o.Currency = fallbackCurrency
	}
	if f := getFloatFlexible(rate, rateAliases["amount"]...); f != nil {
		o.Price = *f
	}
	if n := firstInt64Flexible(detail, hotelAliases["reviewCount"]...); n != nil {
		o.ReviewCount = *n
	} else if n := firstInt64Flexible(hotel, hotelAliases["reviewCount"]...); n != nil {
		o.ReviewCount = *n
	}

	o.AllPhotos = nonNil(firstSliceStrings(detail, hotelAliases["photos"]...))
	if len(o.AllPhotos) > maxPreviewPhotos {
		o.Photos = o.AllPhotos[:maxPreviewPhotos:maxPreviewPhotos]
	} else {
		o.Photos = o.AllPhotos
	}
	o.Amenities = nonNil(firstSliceStrings(detail, hotelAliases["amenities"]...))
	o.Policies = nonNil(firstSliceStrings(detail, hotelAliases["policies"]...))
	o.CheckIn = firstNonEmptyAlias(detail, hotelAliases, "checkIn")
	o.CheckOut = firstNonEmptyAlias(detail, hotelAliases, "checkOut")
	return o
}
