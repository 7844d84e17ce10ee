package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"

	"tripfinder/internal/domain"
)

const dateLayout = "2006-01-02"

func valStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func valJSON(v any) (any, error) {
	if v == nil {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func valDate(s string) (any, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return nil, domain.ValidationError{Field: "date", Msg: fmt.Sprintf("expected YYYY-MM-DD, got %q", s)}
	}
	return t, nil
}

type Repo struct{ db *sql.DB }

func New(db *sql.DB) *Repo { return &Repo{db: db} }

func (r *Repo) Ping(ctx context.Context) error { return r.db.PingContext(ctx) }

/********** trips **********/

func (r *Repo) Create(ctx context.Context, t domain.Trip) (string, error) {
	if t.Travelers < 1 {
		return "", domain.ValidationError{Field: "travelers", Msg: "must be at least 1"}
	}
	dep, err := valDate(t.DepartDate)
	if err != nil {
		return "", err
	}
	ret, err := valDate(t.ReturnDate)
	if err != nil {
		return "", err
	}
	var flights any
	if t.Flights != nil {
		if flights, err = valJSON(t.Flights); err != nil {
			return "", fmt.Errorf("marshal flight tables: %w", err)
		}
	}

	id := uuid.NewString()
	_, err = r.db.ExecContext(ctx, insertTripSQL,
		id,
		t.UserID,
		t.OriginCity,
		t.DestinationCity,
		dep,
		ret,
		t.Travelers,
		t.CabinClass,
		t.OriginAirport,
		t.DestinationAirport,
		t.DestinationLat,
		t.DestinationLon,
		flights,
		valStr(t.ItineraryID),
		valStr(t.CheckIn),
		valStr(t.CheckOut),
	)
	if err != nil {
		return "", fmt.Errorf("insert trip: %w", err)
	}
	return id, nil
}

// tripPatch is the typed view of the loose field map accepted by Update.
type tripPatch struct {
	CabinClass         *string                      `mapstructure:"cabin_class"`
	OriginAirport      *string                      `mapstructure:"origin_airport"`
	DestinationAirport *string                      `mapstructure:"destination_airport"`
	DestinationLat     *float64                     `mapstructure:"destination_lat"`
	DestinationLon     *float64                     `mapstructure:"destination_lon"`
	Flights            *domain.FlightSearchResponse `mapstructure:"flights"`
	ItineraryID        *string                      `mapstructure:"itinerary_id"`
	CheckIn            *string                      `mapstructure:"check_in"`
	CheckOut           *string                      `mapstructure:"check_out"`
}

func decodePatch(fields map[string]any) (tripPatch, error) {
	var p tripPatch
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      &p,
		ErrorUnused: true,
	})
	if err != nil {
		return p, err
	}
	if err := dec.Decode(fields); err != nil {
		return p, domain.ValidationError{Field: "fields", Msg: "decode trip fields: " + err.Error()}
	}
	return p, nil
}

// assignments returns "col = ?" fragments and their args in a stable column order.
func (p tripPatch) assignments() ([]string, []any, error) {
	var sets []string
	var args []any
	add := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}
	if p.CabinClass != nil {
		add("cabin_class", *p.CabinClass)
	}
	if p.OriginAirport != nil {
		add("origin_airport", *p.OriginAirport)
	}
	if p.DestinationAirport != nil {
		add("destination_airport", *p.DestinationAirport)
	}
	if p.DestinationLat != nil {
		add("destination_lat", *p.DestinationLat)
	}
	if p.DestinationLon != nil {
		add("destination_lon", *p.DestinationLon)
	}
	if p.Flights != nil {
		js, err := valJSON(p.Flights)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal flight tables: %w", err)
		}
		add("flight_tables", js)
	}
	if p.ItineraryID != nil {
		add("itinerary_id", valStr(*p.ItineraryID))
	}
	if p.CheckIn != nil {
		add("check_in", valStr(*p.CheckIn))
	}
	if p.CheckOut != nil {
		add("check_out", valStr(*p.CheckOut))
	}
	return sets, args, nil
}

// Update writes the given fields; concurrent updates are last-write-wins.
func (r *Repo) Update(ctx context.Context, id string, fields map[string]any) error {
	if len(fields) == 0 {
		return nil
	}
	p, err := decodePatch(fields)
	if err != nil {
		return err
	}
	sets, args, err := p.assignments()
	if err != nil {
		return err
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)

	res, err := r.db.ExecContext(ctx, updateTripPrefix+strings.Join(sets, ", ")+updateTripSuffix, args...)
	if err != nil {
		return fmt.Errorf("update trip %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n > 0 {
		return nil
	}
	var one int
	if err := r.db.QueryRowContext(ctx, tripExistsSQL, id).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}
	return nil
}

func (r *Repo) Get(ctx context.Context, id string) (domain.Trip, error) {
	var (
		t                  domain.Trip
		dep, ret           time.Time
		flights            sql.NullString
		itin, ciRaw, coRaw sql.NullString
	)
	err := r.db.QueryRowContext(ctx, getTripSQL, id).Scan(
		&t.ID,
		&t.UserID,
		&t.OriginCity,
		&t.DestinationCity,
		&dep,
		&ret,
		&t.Travelers,
		&t.CabinClass,
		&t.OriginAirport,
		&t.DestinationAirport,
		&t.DestinationLat,
		&t.DestinationLon,
		&flights,
		&itin,
		&ciRaw,
		&coRaw,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Trip{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Trip{}, err
	}
	t.DepartDate = dep.Format(dateLayout)
	t.ReturnDate = ret.Format(dateLayout)
	t.ItineraryID = itin.String
	t.CheckIn = ciRaw.String
	t.CheckOut = coRaw.String
	if flights.Valid && flights.String != "" {
		var fr domain.FlightSearchResponse
		if err := json.Unmarshal([]byte(flights.String), &fr); err != nil {
			return domain.Trip{}, fmt.Errorf("decode flight tables for trip %s: %w", id, err)
		}
		t.Flights = &fr
	}
	return t, nil
}

/********** users **********/

func (r *Repo) CreateUser(ctx context.Context, u domain.User) (int64, error) {
	res, err := r.db.ExecContext(ctx, insertUserSQL, u.Email, u.Name, u.PasswordHash)
	if err != nil {
		var me *gomysql.MySQLError
		if errors.As(err, &me) && me.Number == errDuplicateEntry {
			return 0, fmt.Errorf("user %s: %w", u.Email, domain.ErrConflict)
		}
		return 0, fmt.Errorf("insert user: %w", err)
	}
	return res.LastInsertId()
}

func (r *Repo) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	var u domain.User
	err := r.db.QueryRowContext(ctx, getUserByEmailSQL, email).Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.User{}, err
	}
	return u, nil
}
