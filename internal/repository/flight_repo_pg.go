package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const flightColumns = `id, flight_code, origin_airport, destination_airport, departure_time, arrival_time,
	base_price::text, status, version, created_at, updated_at`

type PGFlightRepository struct {
	db Querier
}

func NewFlightRepository(db Querier) FlightRepository {
	return &PGFlightRepository{db: db}
}

func (r *PGFlightRepository) Create(ctx context.Context, f *domain.Flight) error {
	err := r.db.QueryRow(ctx, `INSERT INTO flights
		(id, flight_code, origin_airport, destination_airport, departure_time, arrival_time, base_price, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7::numeric, $8)
		RETURNING version, created_at, updated_at`,
		f.ID, f.Code, f.Origin, f.Destination, f.DepartureTime, f.ArrivalTime, f.BasePrice.StringFixed(2), f.Status).
		Scan(&f.Version, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return translate(ctx, fmt.Errorf("insert flight: %w", err))
	}
	return nil
}

func (r *PGFlightRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Flight, error) {
	return r.get(ctx, `SELECT `+flightColumns+` FROM flights WHERE id=$1`, id)
}

func (r *PGFlightRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Flight, error) {
	return r.get(ctx, `SELECT `+flightColumns+` FROM flights WHERE id=$1 FOR UPDATE`, id)
}

func (r *PGFlightRepository) get(ctx context.Context, query string, id uuid.UUID) (*domain.Flight, error) {
	f, err := scanFlight(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: flight %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, translate(ctx, err)
	}
	return f, nil
}

func (r *PGFlightRepository) List(ctx context.Context, filter FlightFilter) ([]domain.Flight, error) {
	var (
		conds []string
		args  []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if filter.Status != nil {
		add("status=$%d", *filter.Status)
	}
	if filter.DepartureFrom != nil {
		add("departure_time >= $%d", *filter.DepartureFrom)
	}
	if filter.DepartureTo != nil {
		add("departure_time <= $%d", *filter.DepartureTo)
	}
	if filter.Origin != "" {
		add("origin_airport=$%d", filter.Origin)
	}
	if filter.Destination != "" {
		add("destination_airport=$%d", filter.Destination)
	}

	query := `SELECT ` + flightColumns + ` FROM flights`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY departure_time, flight_code`

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, translate(ctx, err)
	}
	defer rows.Close()

	flights := make([]domain.Flight, 0)
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, translate(ctx, err)
		}
		flights = append(flights, *f)
	}
	return flights, translate(ctx, rows.Err())
}

func (r *PGFlightRepository) UpdateStatus(ctx context.Context, id uuid.UUID, expectedVersion int64, status domain.FlightStatus) (*domain.Flight, error) {
	f, err := scanFlight(r.db.QueryRow(ctx, `UPDATE flights SET status=$1, version=version+1, updated_at=now()
		WHERE id=$2 AND version=$3
		RETURNING `+flightColumns, status, id, expectedVersion))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, r.missOrConflict(ctx, id)
	}
	if err != nil {
		return nil, translate(ctx, err)
	}
	return f, nil
}

func (r *PGFlightRepository) missOrConflict(ctx context.Context, id uuid.UUID) error {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM flights WHERE id=$1)`, id).Scan(&exists); err != nil {
		return translate(ctx, err)
	}
	if !exists {
		return fmt.Errorf("%w: flight %s", domain.ErrNotFound, id)
	}
	return fmt.Errorf("%w: flight %s changed since it was read", domain.ErrConcurrentModification, id)
}

// Delete issues the cascade explicitly, tickets first. Callers run it inside
// Store.WithinTx.
func (r *PGFlightRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM tickets WHERE flight_id=$1`, id); err != nil {
		return translate(ctx, fmt.Errorf("delete flight tickets: %w", err))
	}
	if _, err := r.db.Exec(ctx, `DELETE FROM bookings WHERE flight_id=$1`, id); err != nil {
		return translate(ctx, fmt.Errorf("delete flight bookings: %w", err))
	}
	cmd, err := r.db.Exec(ctx, `DELETE FROM flights WHERE id=$1`, id)
	if err != nil {
		return translate(ctx, fmt.Errorf("delete flight: %w", err))
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: flight %s", domain.ErrNotFound, id)
	}
	return nil
}

func scanFlight(row rowScanner) (*domain.Flight, error) {
	var (
		f     domain.Flight
		price string
	)
	if err := row.Scan(&f.ID, &f.Code, &f.Origin, &f.Destination, &f.DepartureTime, &f.ArrivalTime,
		&price, &f.Status, &f.Version, &f.CreatedAt, &f.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if f.BasePrice, err = decimal.NewFromString(price); err != nil {
		return nil, fmt.Errorf("parse base price %q: %w", price, err)
	}
	return &f, nil
}

var _ FlightRepository = (*PGFlightRepository)(nil)
