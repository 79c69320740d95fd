package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/google/uuid"
)

// Store is the entity store. A Store handed to the WithinTx callback is bound
// to that transaction: all of its writes commit together or not at all.
type Store interface {
	Users() UserRepository
	Flights() FlightRepository
	Bookings() BookingRepository
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx Store) error) error
	Ping(ctx context.Context) error
}

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	// Delete removes the user with its bookings and their tickets.
	Delete(ctx context.Context, id uuid.UUID) error
}

type FlightFilter struct {
	Status        *domain.FlightStatus
	DepartureFrom *time.Time
	DepartureTo   *time.Time
	Origin        string
	Destination   string
}

func (f FlightFilter) IsZero() bool {
	return f.Status == nil && f.DepartureFrom == nil && f.DepartureTo == nil && f.Origin == "" && f.Destination == ""
}

// Match applies the filter to a single flight.
func (f FlightFilter) Match(fl domain.Flight) bool {
	if f.Status != nil && fl.Status != *f.Status {
		return false
	}
	if f.DepartureFrom != nil && fl.DepartureTime.Before(*f.DepartureFrom) {
		return false
	}
	if f.DepartureTo != nil && fl.DepartureTime.After(*f.DepartureTo) {
		return false
	}
	if f.Origin != "" && fl.Origin != f.Origin {
		return false
	}
	if f.Destination != "" && fl.Destination != f.Destination {
		return false
	}
	return true
}

type FlightRepository interface {
	Create(ctx context.Context, flight *domain.Flight) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Flight, error)
	// GetForUpdate reads the flight and locks it until the surrounding
	// transaction ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Flight, error)
	List(ctx context.Context, filter FlightFilter) ([]domain.Flight, error)
	// UpdateStatus writes the status only if the stored version still equals
	// expectedVersion, otherwise it fails with domain.ErrConcurrentModification.
	UpdateStatus(ctx context.Context, id uuid.UUID, expectedVersion int64, status domain.FlightStatus) (*domain.Flight, error)
	// Delete removes the flight with its bookings and tickets.
	Delete(ctx context.Context, id uuid.UUID) error
}

type BookingRepository interface {
	// Create inserts the booking together with booking.Tickets.
	Create(ctx context.Context, booking *domain.Booking) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Booking, error)
	ListTicketsByFlight(ctx context.Context, flightID uuid.UUID) ([]domain.Ticket, error)
	// TakenSeats lists seat numbers held by unreleased tickets on the flight.
	TakenSeats(ctx context.Context, flightID uuid.UUID) ([]string, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, expectedVersion int64, status domain.BookingStatus, paidAt *time.Time) (*domain.Booking, error)
	// ReleaseSeats marks every ticket of the booking as released.
	ReleaseSeats(ctx context.Context, bookingID uuid.UUID) error
	// Delete removes the booking and its tickets.
	Delete(ctx context.Context, id uuid.UUID) error
}

// CheckNewBooking enforces the booking invariants the schema cannot express:
// at least one ticket, every ticket on the booking's flight, and a total equal
// to the ticket sum.
func CheckNewBooking(b *domain.Booking) error {
	if len(b.Tickets) == 0 {
		return fmt.Errorf("%w: booking %s has no tickets", domain.ErrConstraintViolation, b.ID)
	}
	for _, t := range b.Tickets {
		if t.BookingID != b.ID || t.FlightID != b.FlightID {
			return fmt.Errorf("%w: ticket %s does not belong to booking %s on flight %s",
				domain.ErrConstraintViolation, t.ID, b.ID, b.FlightID)
		}
		if !t.Price.IsPositive() {
			return fmt.Errorf("%w: ticket %s price must be positive", domain.ErrConstraintViolation, t.ID)
		}
	}
	if !b.TotalPrice.Equal(b.TicketTotal()) {
		return fmt.Errorf("%w: booking total %s differs from ticket sum %s",
			domain.ErrConstraintViolation, b.TotalPrice.StringFixed(2), b.TicketTotal().StringFixed(2))
	}
	return nil
}
