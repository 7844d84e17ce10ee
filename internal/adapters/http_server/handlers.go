package httpserver

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"tripfinder/internal/app"
	"tripfinder/internal/domain"
)

const maxBodyBytes = 1 << 20

type TripAPI interface {
	StartSearch(ctx context.Context, userID int64, req app.SearchRequest) (app.SearchResult, error)
	SelectAirports(ctx context.Context, userID int64, tripID string, sel app.AirportSelection) ([]domain.Itinerary, error)
	Itineraries(ctx context.Context, userID int64, tripID string) ([]domain.Itinerary, error)
	SelectItinerary(ctx context.Context, userID int64, tripID, itineraryID string) (app.HotelResult, error)
	GetTrip(ctx context.Context, userID int64, tripID string) (domain.Trip, error)
}

type AuthAPI interface {
	Register(ctx context.Context, email, name, password string) (domain.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	ParseToken(raw string) (int64, error)
}

type Handlers struct {
	Trips TripAPI
	Auth  AuthAPI
	// Ping backs /healthz when set.
	Ping func(ctx context.Context) error
}

type problem struct {
	Type     string `json:"type"`
	Title    string `json:"title"`
	Status   int    `json:"status"`
	Detail   string `json:"detail,omitempty"`
	Redirect string `json:"redirect,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", h.health)
	s.mux.Route("/v1", func(r chi.Router) {
		r.Post("/auth/register", h.register)
		r.Post("/auth/login", h.login)

		r.Group(func(r chi.Router) {
			r.Use(Auth(h.Auth.ParseToken))
			r.Post("/trips", h.startSearch)
			r.Get("/trips/{id}", h.getTrip)
			r.Post("/trips/{id}/flights", h.selectAirports)
			r.Get("/trips/{id}/itineraries", h.listItineraries)
			r.Post("/trips/{id}/hotels", h.selectItinerary)
		})
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	writeProblemBody(w, problem{Type: "about:blank", Title: title, Status: status, Detail: detail})
}

func writeProblemBody(w http.ResponseWriter, p problem) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	if err := json.NewEncoder(w).Encode(p); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps the domain error taxonomy onto HTTP. Upstream failures point the
// client back home; corrupt payloads and credential failures stay opaque.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case domain.IsValidation(err):
		writeProblem(w, http.StatusBadRequest, "Invalid Request", err.Error())
	case errors.Is(err, app.ErrInvalidCredentials):
		writeProblem(w, http.StatusUnauthorized, "Unauthorized", err.Error())
	case errors.Is(err, domain.ErrConflict):
		writeProblem(w, http.StatusConflict, "Conflict", "account already exists")
	case domain.IsUpstreamAuth(err):
		log.Error().Err(err).Str("route", routeOf(r)).Msg("upstream credential refresh failed")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "server error")
	case domain.IsDataConsistency(err):
		log.Error().Err(err).Str("route", routeOf(r)).Msg("inconsistent upstream payload")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "server error")
	case domain.IsNotFound(err):
		writeProblem(w, http.StatusNotFound, "Not Found", "no "+notFoundSubject(err)+" found")
	case domain.IsUpstream(err):
		log.Warn().Err(err).Str("route", routeOf(r)).Msg("upstream request failed")
		writeProblemBody(w, problem{
			Type: "about:blank", Title: "Bad Gateway", Status: http.StatusBadGateway,
			Detail: "a travel provider is unavailable, please try again", Redirect: "/",
		})
	default:
		log.Error().Err(err).Str("route", routeOf(r)).Msg("unhandled error")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "server error")
	}
}

func notFoundSubject(err error) string {
	var nf domain.NotFoundError
	if errors.As(err, &nf) && nf.Resource != "" {
		return nf.Resource
	}
	return "results"
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return domain.ValidationError{Field: "body", Msg: "malformed JSON: " + err.Error()}
	}
	return nil
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// writeCached serves v with a weak ETag and honours If-None-Match.
func writeCached(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write cached body")
	}
}

/********** health **********/

func (h *Handlers) health(w http.ResponseWriter, r *http.Request) {
	if h.Ping != nil {
		if err := h.Ping(r.Context()); err != nil {
			log.Warn().Err(err).Msg("health check failed")
			writeProblem(w, http.StatusServiceUnavailable, "Service Unavailable", "dependency check failed")
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

/********** auth **********/

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handlers) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	u, err := h.Auth.Register(r.Context(), req.Email, req.Name, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"id": u.ID, "email": u.Email, "name": u.Name})
}

func (h *Handlers) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	tok, err := h.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": tok, "tokenType": "Bearer"})
}

/********** trips **********/

type tripView struct {
	ID                 string    `json:"id"`
	OriginCity         string    `json:"originCity"`
	DestinationCity    string    `json:"destinationCity"`
	DepartDate         string    `json:"departDate"`
	ReturnDate         string    `json:"returnDate"`
	Travelers          int       `json:"travelers"`
	CabinClass         string    `json:"cabinClass"`
	OriginAirport      string    `json:"originAirport"`
	DestinationAirport string    `json:"destinationAirport"`
	HasFlights         bool      `json:"hasFlights"`
	ItineraryID        string    `json:"itineraryId,omitempty"`
	CheckIn            string    `json:"checkIn,omitempty"`
	CheckOut           string    `json:"checkOut,omitempty"`
	CreatedAt          time.Time `json:"createdAt"`
	UpdatedAt          time.Time `json:"updatedAt"`
}

func toTripView(t domain.Trip) tripView {
	return tripView{
		ID:                 t.ID,
		OriginCity:         t.OriginCity,
		DestinationCity:    t.DestinationCity,
		DepartDate:         t.DepartDate,
		ReturnDate:         t.ReturnDate,
		Travelers:          t.Travelers,
		CabinClass:         t.CabinClass,
		OriginAirport:      t.OriginAirport,
		DestinationAirport: t.DestinationAirport,
		HasFlights:         t.Flights != nil,
		ItineraryID:        t.ItineraryID,
		CheckIn:            t.CheckIn,
		CheckOut:           t.CheckOut,
		CreatedAt:          t.CreatedAt,
		UpdatedAt:          t.UpdatedAt,
	}
}

func (h *Handlers) startSearch(w http.ResponseWriter, r *http.Request) {
	var req app.SearchRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.Trips.StartSearch(r.Context(), userIDFrom(r.Context()), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	w.Header().Set("Location", "/v1/trips/"+res.TripID)
	writeJSON(w, http.StatusCreated, res)
}

func (h *Handlers) getTrip(w http.ResponseWriter, r *http.Request) {
	t, err := h.Trips.GetTrip(r.Context(), userIDFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCached(w, r, toTripView(t))
}

func (h *Handlers) selectAirports(w http.ResponseWriter, r *http.Request) {
	var sel app.AirportSelection
	if err := decodeJSON(w, r, &sel); err != nil {
		writeError(w, r, err)
		return
	}
	its, err := h.Trips.SelectAirports(r.Context(), userIDFrom(r.Context()), chi.URLParam(r, "id"), sel)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"itineraries": its})
}

func (h *Handlers) listItineraries(w http.ResponseWriter, r *http.Request) {
	its, err := h.Trips.Itineraries(r.Context(), userIDFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeCached(w, r, map[string]any{"itineraries": its})
}

type selectItineraryRequest struct {
	ItineraryID string `json:"itineraryId"`
}

func (h *Handlers) selectItinerary(w http.ResponseWriter, r *http.Request) {
	var req selectItineraryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.Trips.SelectItinerary(r.Context(), userIDFrom(r.Context()), chi.URLParam(r, "id"), req.ItineraryID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
