package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, s *Store) (domain.User, domain.Flight) {
	t.Helper()
	ctx := context.Background()

	user := domain.User{ID: uuid.New(), FirstName: "John", LastName: "Doe", Email: "john.doe@example.com", PasswordHash: "x", Role: domain.RoleUser}
	require.NoError(t, s.Users().Create(ctx, &user))

	departure := time.Now().Add(48 * time.Hour)
	flight := domain.Flight{
		ID:            uuid.New(),
		Code:          "FL1000",
		Origin:        "JFK",
		Destination:   "LAX",
		DepartureTime: departure,
		ArrivalTime:   departure.Add(5 * time.Hour),
		BasePrice:     decimal.RequireFromString("200.00"),
		Status:        domain.FlightStatusActive,
	}
	require.NoError(t, s.Flights().Create(ctx, &flight))
	return user, flight
}

func newBooking(user domain.User, flight domain.Flight, seats ...string) *domain.Booking {
	b := &domain.Booking{ID: uuid.New(), UserID: user.ID, FlightID: flight.ID, Status: domain.BookingStatusBooked}
	for _, seat := range seats {
		b.Tickets = append(b.Tickets, domain.Ticket{
			ID:             uuid.New(),
			BookingID:      b.ID,
			FlightID:       flight.ID,
			PassengerName:  "Alice Anderson",
			PassportNumber: "P12345678",
			SeatNumber:     seat,
			SeatClass:      domain.SeatClassEconomy,
			Price:          flight.BasePrice,
		})
	}
	b.TotalPrice = b.TicketTotal()
	return b
}

func TestStore_WithinTx_RollsBackOnError(t *testing.T) {
	s := NewStore(time.Second)
	user, flight := seed(t, s)
	ctx := context.Background()

	boom := errors.New("boom")
	err := s.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		if err := tx.Bookings().Create(ctx, newBooking(user, flight, "12A")); err != nil {
			return err
		}
		seats, err := tx.Bookings().TakenSeats(ctx, flight.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"12A"}, seats)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	seats, err := s.Bookings().TakenSeats(ctx, flight.ID)
	require.NoError(t, err)
	assert.Empty(t, seats)
}

func TestStore_WithinTx_TimesOutWaitingForLock(t *testing.T) {
	s := NewStore(50 * time.Millisecond)
	ctx := context.Background()

	started := make(chan struct{})
	proceed := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- s.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
			close(started)
			<-proceed
			return nil
		})
	}()
	<-started

	err := s.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		return nil
	})
	assert.ErrorIs(t, err, domain.ErrTimeout)
	close(proceed)

	// The holder overran its own deadline, so its writes are discarded.
	assert.ErrorIs(t, <-done, domain.ErrTimeout)
}

func TestStore_WithinTx_CancelledIsNotTimeout(t *testing.T) {
	s := NewStore(time.Second)
	ctx, cancel := context.WithCancel(context.Background())

	err := s.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		user := domain.User{ID: uuid.New(), FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", PasswordHash: "x", Role: domain.RoleUser}
		err := tx.Users().Create(ctx, &user)
		cancel()
		return err
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, domain.ErrTimeout)

	users, err := s.Users().List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, users)
}

func TestStore_HeldSeatIsUnique(t *testing.T) {
	s := NewStore(time.Second)
	user, flight := seed(t, s)
	ctx := context.Background()

	first := newBooking(user, flight, "12A")
	require.NoError(t, s.Bookings().Create(ctx, first))

	err := s.Bookings().Create(ctx, newBooking(user, flight, "12A"))
	assert.ErrorIs(t, err, domain.ErrConstraintViolation)

	require.NoError(t, s.Bookings().ReleaseSeats(ctx, first.ID))
	assert.NoError(t, s.Bookings().Create(ctx, newBooking(user, flight, "12A")))
}

func TestStore_BookingInvariants(t *testing.T) {
	s := NewStore(time.Second)
	user, flight := seed(t, s)
	ctx := context.Background()

	wrongTotal := newBooking(user, flight, "12A", "12B")
	wrongTotal.TotalPrice = decimal.RequireFromString("1.00")
	assert.ErrorIs(t, s.Bookings().Create(ctx, wrongTotal), domain.ErrConstraintViolation)

	empty := newBooking(user, flight)
	assert.ErrorIs(t, s.Bookings().Create(ctx, empty), domain.ErrConstraintViolation)

	wrongFlight := newBooking(user, flight, "12A")
	wrongFlight.Tickets[0].FlightID = uuid.New()
	assert.ErrorIs(t, s.Bookings().Create(ctx, wrongFlight), domain.ErrConstraintViolation)

	unknownUser := newBooking(domain.User{ID: uuid.New()}, flight, "12A")
	assert.ErrorIs(t, s.Bookings().Create(ctx, unknownUser), domain.ErrNotFound)
}

func TestStore_UpdateStatusVersionCheck(t *testing.T) {
	s := NewStore(time.Second)
	user, flight := seed(t, s)
	ctx := context.Background()

	b := newBooking(user, flight, "12A")
	require.NoError(t, s.Bookings().Create(ctx, b))

	now := time.Now()
	updated, err := s.Bookings().UpdateStatus(ctx, b.ID, b.Version, domain.BookingStatusPaid, &now)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)
	require.NotNil(t, updated.PaidAt)

	_, err = s.Bookings().UpdateStatus(ctx, b.ID, b.Version, domain.BookingStatusCancelled, nil)
	assert.ErrorIs(t, err, domain.ErrConcurrentModification)

	_, err = s.Flights().UpdateStatus(ctx, flight.ID, flight.Version+5, domain.FlightStatusDelayed)
	assert.ErrorIs(t, err, domain.ErrConcurrentModification)

	_, err = s.Bookings().UpdateStatus(ctx, uuid.New(), 1, domain.BookingStatusPaid, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStore_DeleteCascades(t *testing.T) {
	s := NewStore(time.Second)
	user, flight := seed(t, s)
	ctx := context.Background()

	b := newBooking(user, flight, "12A", "12B")
	require.NoError(t, s.Bookings().Create(ctx, b))

	require.NoError(t, s.Flights().Delete(ctx, flight.ID))

	_, err := s.Bookings().GetByID(ctx, b.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	tickets, err := s.Bookings().ListTicketsByFlight(ctx, flight.ID)
	require.NoError(t, err)
	assert.Empty(t, tickets)

	_, err = s.Users().GetByID(ctx, user.ID)
	assert.NoError(t, err)
	assert.ErrorIs(t, s.Flights().Delete(ctx, flight.ID), domain.ErrNotFound)
}

func TestStore_UniqueEmailAndCode(t *testing.T) {
	s := NewStore(time.Second)
	user, flight := seed(t, s)
	ctx := context.Background()

	dupUser := user
	dupUser.ID = uuid.New()
	assert.ErrorIs(t, s.Users().Create(ctx, &dupUser), domain.ErrConstraintViolation)

	dupFlight := flight
	dupFlight.ID = uuid.New()
	assert.ErrorIs(t, s.Flights().Create(ctx, &dupFlight), domain.ErrConstraintViolation)
}
