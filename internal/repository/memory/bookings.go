package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/repository"
	"github.com/google/uuid"
)

type bookingRepo struct {
	s *Store
}

func (r *bookingRepo) Create(ctx context.Context, b *domain.Booking) error {
	return r.s.write(ctx, func(st *state) error {
		if _, exists := st.bookings[b.ID]; exists {
			return fmt.Errorf("%w: booking %s already exists", domain.ErrConstraintViolation, b.ID)
		}
		if _, ok := st.users[b.UserID]; !ok {
			return fmt.Errorf("%w: user %s", domain.ErrNotFound, b.UserID)
		}
		if _, ok := st.flights[b.FlightID]; !ok {
			return fmt.Errorf("%w: flight %s", domain.ErrNotFound, b.FlightID)
		}
		if err := repository.CheckNewBooking(b); err != nil {
			return err
		}

		held := heldSeats(st, b.FlightID)
		for _, t := range b.Tickets {
			if t.Released {
				continue
			}
			if _, taken := held[t.SeatNumber]; taken {
				return fmt.Errorf("%w: seat %s on flight %s is already held", domain.ErrConstraintViolation, t.SeatNumber, b.FlightID)
			}
			held[t.SeatNumber] = struct{}{}
		}

		now := r.s.now()
		b.Version = 1
		b.CreatedAt, b.UpdatedAt = now, now
		for i := range b.Tickets {
			b.Tickets[i].CreatedAt, b.Tickets[i].UpdatedAt = now, now
		}
		row := *b
		row.Tickets = nil
		st.bookings[b.ID] = row
		st.tickets[b.ID] = append([]domain.Ticket(nil), b.Tickets...)
		return nil
	})
}

func heldSeats(st *state, flightID uuid.UUID) map[string]struct{} {
	held := make(map[string]struct{})
	for id, b := range st.bookings {
		if b.FlightID != flightID {
			continue
		}
		for _, t := range st.tickets[id] {
			if !t.Released {
				held[t.SeatNumber] = struct{}{}
			}
		}
	}
	return held
}

func (st *state) booking(id uuid.UUID) (domain.Booking, bool) {
	b, ok := st.bookings[id]
	if !ok {
		return b, false
	}
	b.Tickets = append([]domain.Ticket(nil), st.tickets[id]...)
	return b, true
}

func (r *bookingRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	var out domain.Booking
	err := r.s.read(ctx, func(st *state) error {
		b, ok := st.booking(id)
		if !ok {
			return fmt.Errorf("%w: booking %s", domain.ErrNotFound, id)
		}
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *bookingRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Booking, error) {
	bookings := make([]domain.Booking, 0)
	err := r.s.read(ctx, func(st *state) error {
		for id, b := range st.bookings {
			if b.UserID == userID {
				full, _ := st.booking(id)
				bookings = append(bookings, full)
			}
		}
		return nil
	})
	sort.Slice(bookings, func(i, j int) bool {
		if !bookings[i].CreatedAt.Equal(bookings[j].CreatedAt) {
			return bookings[i].CreatedAt.Before(bookings[j].CreatedAt)
		}
		return bookings[i].ID.String() < bookings[j].ID.String()
	})
	return bookings, err
}

func (r *bookingRepo) ListTicketsByFlight(ctx context.Context, flightID uuid.UUID) ([]domain.Ticket, error) {
	tickets := make([]domain.Ticket, 0)
	err := r.s.read(ctx, func(st *state) error {
		for id, b := range st.bookings {
			if b.FlightID == flightID {
				tickets = append(tickets, st.tickets[id]...)
			}
		}
		return nil
	})
	sort.Slice(tickets, func(i, j int) bool { return tickets[i].SeatNumber < tickets[j].SeatNumber })
	return tickets, err
}

func (r *bookingRepo) TakenSeats(ctx context.Context, flightID uuid.UUID) ([]string, error) {
	var seats []string
	err := r.s.read(ctx, func(st *state) error {
		for seat := range heldSeats(st, flightID) {
			seats = append(seats, seat)
		}
		return nil
	})
	sort.Strings(seats)
	return seats, err
}

func (r *bookingRepo) UpdateStatus(ctx context.Context, id uuid.UUID, expectedVersion int64, status domain.BookingStatus, paidAt *time.Time) (*domain.Booking, error) {
	var out domain.Booking
	err := r.s.write(ctx, func(st *state) error {
		b, ok := st.bookings[id]
		if !ok {
			return fmt.Errorf("%w: booking %s", domain.ErrNotFound, id)
		}
		if b.Version != expectedVersion {
			return fmt.Errorf("%w: booking %s changed since it was read", domain.ErrConcurrentModification, id)
		}
		b.Status = status
		if paidAt != nil {
			b.PaidAt = paidAt
		}
		b.Version++
		b.UpdatedAt = r.s.now()
		st.bookings[id] = b
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *bookingRepo) ReleaseSeats(ctx context.Context, bookingID uuid.UUID) error {
	return r.s.write(ctx, func(st *state) error {
		tickets := st.tickets[bookingID]
		now := r.s.now()
		for i := range tickets {
			if !tickets[i].Released {
				tickets[i].Released = true
				tickets[i].UpdatedAt = now
			}
		}
		return nil
	})
}

func (r *bookingRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return r.s.write(ctx, func(st *state) error {
		if _, ok := st.bookings[id]; !ok {
			return fmt.Errorf("%w: booking %s", domain.ErrNotFound, id)
		}
		delete(st.tickets, id)
		delete(st.bookings, id)
		return nil
	})
}
