package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const (
	bookingColumns = `id, user_id, flight_id, total_price::text, status, paid_at, version, created_at, updated_at`
	ticketColumns  = `id, booking_id, flight_id, passenger_name, passenger_passport_num, seat_num, seat_class,
	price::text, released, created_at, updated_at`
)

type PGBookingRepository struct {
	db Querier
}

func NewBookingRepository(db Querier) BookingRepository {
	return &PGBookingRepository{db: db}
}

// Create inserts the booking row and its tickets. It refuses bookings whose
// tickets do not belong to the booking's flight or whose total differs from
// the ticket sum. Callers run it inside Store.WithinTx.
func (r *PGBookingRepository) Create(ctx context.Context, b *domain.Booking) error {
	if err := CheckNewBooking(b); err != nil {
		return err
	}

	if err := r.db.QueryRow(ctx, `INSERT INTO bookings (id, user_id, flight_id, total_price, status, paid_at)
		VALUES ($1, $2, $3, $4::numeric, $5, $6)
		RETURNING version, created_at, updated_at`,
		b.ID, b.UserID, b.FlightID, b.TotalPrice.StringFixed(2), b.Status, b.PaidAt).
		Scan(&b.Version, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return translate(ctx, fmt.Errorf("insert booking: %w", err))
	}

	batch := &pgx.Batch{}
	for i, t := range b.Tickets {
		batch.Queue(`INSERT INTO tickets
			(id, booking_id, flight_id, passenger_name, passenger_passport_num, seat_num, seat_class, price, released, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8::numeric, $9, $10)
			RETURNING created_at, updated_at`,
			t.ID, t.BookingID, t.FlightID, t.PassengerName, t.PassportNumber, t.SeatNumber, t.SeatClass,
			t.Price.StringFixed(2), t.Released, i)
	}
	results := r.db.SendBatch(ctx, batch)
	for i := range b.Tickets {
		if err := results.QueryRow().Scan(&b.Tickets[i].CreatedAt, &b.Tickets[i].UpdatedAt); err != nil {
			_ = results.Close()
			return translate(ctx, fmt.Errorf("insert ticket for seat %s: %w", b.Tickets[i].SeatNumber, err))
		}
	}
	if err := results.Close(); err != nil {
		return translate(ctx, fmt.Errorf("insert tickets: %w", err))
	}
	return nil
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%w: booking %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return nil, translate(ctx, err)
	}

	tickets, err := r.queryTickets(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE booking_id=$1 ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	b.Tickets = tickets
	return b, nil
}

func (r *PGBookingRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE user_id=$1 ORDER BY created_at, id`, userID)
	if err != nil {
		return nil, translate(ctx, err)
	}
	bookings := make([]domain.Booking, 0)
	index := make(map[uuid.UUID]int)
	ids := make([]string, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			rows.Close()
			return nil, translate(ctx, err)
		}
		index[b.ID] = len(bookings)
		ids = append(ids, b.ID.String())
		bookings = append(bookings, *b)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, translate(ctx, err)
	}
	if len(bookings) == 0 {
		return bookings, nil
	}

	tickets, err := r.queryTickets(ctx, `SELECT `+ticketColumns+` FROM tickets
		WHERE booking_id = ANY($1::uuid[]) ORDER BY booking_id, position`, ids)
	if err != nil {
		return nil, err
	}
	for _, t := range tickets {
		i := index[t.BookingID]
		bookings[i].Tickets = append(bookings[i].Tickets, t)
	}
	return bookings, nil
}

func (r *PGBookingRepository) ListTicketsByFlight(ctx context.Context, flightID uuid.UUID) ([]domain.Ticket, error) {
	return r.queryTickets(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE flight_id=$1 ORDER BY seat_num`, flightID)
}

func (r *PGBookingRepository) TakenSeats(ctx context.Context, flightID uuid.UUID) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT seat_num FROM tickets WHERE flight_id=$1 AND NOT released`, flightID)
	if err != nil {
		return nil, translate(ctx, err)
	}
	seats, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, translate(ctx, err)
	}
	return seats, nil
}

func (r *PGBookingRepository) UpdateStatus(ctx context.Context, id uuid.UUID, expectedVersion int64, status domain.BookingStatus, paidAt *time.Time) (*domain.Booking, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, `UPDATE bookings
		SET status=$1, paid_at=COALESCE($2, paid_at), version=version+1, updated_at=now()
		WHERE id=$3 AND version=$4
		RETURNING `+bookingColumns, status, paidAt, id, expectedVersion))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, r.missOrConflict(ctx, id)
	}
	if err != nil {
		return nil, translate(ctx, err)
	}
	return b, nil
}

func (r *PGBookingRepository) missOrConflict(ctx context.Context, id uuid.UUID) error {
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM bookings WHERE id=$1)`, id).Scan(&exists); err != nil {
		return translate(ctx, err)
	}
	if !exists {
		return fmt.Errorf("%w: booking %s", domain.ErrNotFound, id)
	}
	return fmt.Errorf("%w: booking %s changed since it was read", domain.ErrConcurrentModification, id)
}

func (r *PGBookingRepository) ReleaseSeats(ctx context.Context, bookingID uuid.UUID) error {
	if _, err := r.db.Exec(ctx, `UPDATE tickets SET released=true, updated_at=now() WHERE booking_id=$1 AND NOT released`, bookingID); err != nil {
		return translate(ctx, fmt.Errorf("release seats: %w", err))
	}
	return nil
}

// Delete removes tickets first, then the booking. Callers run it inside
// Store.WithinTx.
func (r *PGBookingRepository) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM tickets WHERE booking_id=$1`, id); err != nil {
		return translate(ctx, fmt.Errorf("delete booking tickets: %w", err))
	}
	cmd, err := r.db.Exec(ctx, `DELETE FROM bookings WHERE id=$1`, id)
	if err != nil {
		return translate(ctx, fmt.Errorf("delete booking: %w", err))
	}
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%w: booking %s", domain.ErrNotFound, id)
	}
	return nil
}

func (r *PGBookingRepository) queryTickets(ctx context.Context, query string, args ...any) ([]domain.Ticket, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, translate(ctx, err)
	}
	defer rows.Close()

	tickets := make([]domain.Ticket, 0)
	for rows.Next() {
		var (
			t     domain.Ticket
			price string
		)
		if err := rows.Scan(&t.ID, &t.BookingID, &t.FlightID, &t.PassengerName, &t.PassportNumber, &t.SeatNumber,
			&t.SeatClass, &price, &t.Released, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, translate(ctx, err)
		}
		if t.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("parse ticket price %q: %w", price, err)
		}
		tickets = append(tickets, t)
	}
	return tickets, translate(ctx, rows.Err())
}

func scanBooking(row rowScanner) (*domain.Booking, error) {
	var (
		b     domain.Booking
		total string
	)
	if err := row.Scan(&b.ID, &b.UserID, &b.FlightID, &total, &b.Status, &b.PaidAt, &b.Version, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	var err error
	if b.TotalPrice, err = decimal.NewFromString(total); err != nil {
		return nil, fmt.Errorf("parse total price %q: %w", total, err)
	}
	return &b, nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)
