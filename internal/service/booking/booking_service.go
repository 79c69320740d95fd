package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/kafka"
	"github.com/Domenick1991/flightbooking/internal/pricing"
	"github.com/Domenick1991/flightbooking/internal/repository"
	"github.com/Domenick1991/flightbooking/internal/seats"
	"github.com/Domenick1991/flightbooking/internal/service/flights"
	"github.com/Domenick1991/flightbooking/internal/validation"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

type BookingUseCase interface {
	CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error)
	UpdateBookingStatus(ctx context.Context, id uuid.UUID, status domain.BookingStatus) (*domain.Booking, error)
	GetBooking(ctx context.Context, id uuid.UUID) (*domain.Booking, error)
	ListBookingsForUser(ctx context.Context, userID uuid.UUID) ([]domain.Booking, error)
	DeleteBooking(ctx context.Context, id uuid.UUID) error
}

// SeatLocker takes short advisory holds on requested seats so that two
// requests racing for the same seat fail fast. Holds never decide
// availability.
type SeatLocker interface {
	AcquireSeatLock(ctx context.Context, flightID uuid.UUID, seat string, ttl time.Duration) (bool, error)
	ReleaseSeatLock(ctx context.Context, flightID uuid.UUID, seat string) error
}

type Producer interface {
	PublishWithRetry(ctx context.Context, topic, key string, value interface{}, maxRetries int) error
}

// publishAttempts bounds event delivery after commit. The producer logs each
// failed attempt; the final error is dropped because the change is committed.
const publishAttempts = 3

type PassengerInput struct {
	Name           string           `json:"name" validate:"required,max=50"`
	PassportNumber string           `json:"passport_number" validate:"required,passport"`
	SeatClass      domain.SeatClass `json:"seat_class" validate:"oneof=economy business first"`
	SeatNumber     string           `json:"seat_number,omitempty" validate:"omitempty,max=3"`
}

type CreateBookingInput struct {
	UserID     uuid.UUID        `json:"user_id" validate:"required"`
	FlightID   uuid.UUID        `json:"flight_id" validate:"required"`
	Passengers []PassengerInput `json:"passengers" validate:"dive"`
}

type BookingService struct {
	store              repository.Store
	allocator          *seats.Allocator
	locks              SeatLocker
	holdTTL            time.Duration
	producer           Producer
	bookingTopic       string
	notificationsTopic string
	validate           *validation.Validator
	now                func() time.Time
}

type BookingServiceOption func(*BookingService)

func WithSeatLocks(locks SeatLocker, ttl time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		s.locks = locks
		s.holdTTL = ttl
	}
}

func WithProducer(producer Producer, bookingTopic string) BookingServiceOption {
	return func(s *BookingService) {
		s.producer = producer
		s.bookingTopic = bookingTopic
	}
}

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

func WithClock(now func() time.Time) BookingServiceOption {
	return func(s *BookingService) {
		s.now = now
	}
}

func NewBookingService(store repository.Store, allocator *seats.Allocator, opts ...BookingServiceOption) *BookingService {
	service := &BookingService{
		store:     store,
		allocator: allocator,
		validate:  validation.New(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(service)
	}
	return service
}

func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*domain.Booking, error) {
	flight, err := s.store.Flights().GetByID(ctx, input.FlightID)
	if err != nil {
		return nil, err
	}
	if err := s.checkBookable(flight); err != nil {
		return nil, err
	}
	if len(input.Passengers) == 0 {
		return nil, fmt.Errorf("%w: flight %s", domain.ErrEmptyBooking, flight.Code)
	}
	input.Passengers = normalizePassengers(input.Passengers)
	if err := s.validate.Struct(input); err != nil {
		return nil, err
	}

	release, err := s.holdSeats(ctx, flight.ID, input.Passengers)
	if err != nil {
		return nil, err
	}
	defer release()

	var (
		booking *domain.Booking
		user    *domain.User
	)
	err = s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		locked, err := tx.Flights().GetForUpdate(ctx, input.FlightID)
		if err != nil {
			return err
		}
		if err := s.checkBookable(locked); err != nil {
			return err
		}
		if user, err = tx.Users().GetByID(ctx, input.UserID); err != nil {
			return err
		}
		taken, err := tx.Bookings().TakenSeats(ctx, locked.ID)
		if err != nil {
			return err
		}
		booking, err = s.stage(locked, user.ID, input.Passengers, lo.Associate(taken, func(seat string) (string, struct{}) {
			return seat, struct{}{}
		}))
		if err != nil {
			return err
		}
		if err := tx.Bookings().Create(ctx, booking); err != nil {
			if errors.Is(err, domain.ErrConstraintViolation) {
				return fmt.Errorf("%w: %w", domain.ErrSeatUnavailable, err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, kafka.EventBookingCreated, booking, user.Email)
	return booking, nil
}

func (s *BookingService) checkBookable(flight *domain.Flight) error {
	if flights.IsBookable(*flight, s.now()) {
		return nil
	}
	return fmt.Errorf("%w: flight %s is %s, departure %s", domain.ErrFlightNotBookable,
		flight.Code, flight.Status, flight.DepartureTime.Format(time.RFC3339))
}

// stage allocates a seat and a price for every passenger. Requested seats
// are placed first so auto-assignment cannot take a seat another passenger
// of the same request asked for. taken is extended with every allocated
// seat.
func (s *BookingService) stage(flight *domain.Flight, userID uuid.UUID, passengers []PassengerInput, taken map[string]struct{}) (*domain.Booking, error) {
	seatFor := make([]string, len(passengers))
	for i, p := range passengers {
		if p.SeatNumber == "" {
			continue
		}
		seat, err := s.allocator.Check(p.SeatNumber, p.SeatClass, taken)
		if err != nil {
			return nil, fmt.Errorf("passenger %d: %w", i+1, err)
		}
		taken[seat] = struct{}{}
		seatFor[i] = seat
	}
	for i, p := range passengers {
		if seatFor[i] != "" {
			continue
		}
		seat, err := s.allocator.Assign(p.SeatClass, taken)
		if err != nil {
			return nil, fmt.Errorf("passenger %d: %w", i+1, err)
		}
		taken[seat] = struct{}{}
		seatFor[i] = seat
	}

	booking := &domain.Booking{
		ID:       uuid.New(),
		UserID:   userID,
		FlightID: flight.ID,
		Status:   domain.BookingStatusBooked,
		Tickets:  make([]domain.Ticket, 0, len(passengers)),
	}
	for i, p := range passengers {
		price, err := pricing.TicketPrice(flight.BasePrice, p.SeatClass)
		if err != nil {
			return nil, err
		}
		booking.Tickets = append(booking.Tickets, domain.Ticket{
			ID:             uuid.New(),
			BookingID:      booking.ID,
			FlightID:       flight.ID,
			PassengerName:  p.Name,
			PassportNumber: p.PassportNumber,
			SeatNumber:     seatFor[i],
			SeatClass:      p.SeatClass,
			Price:          price,
		})
	}
	booking.TotalPrice = pricing.BookingTotal(lo.Map(booking.Tickets, func(t domain.Ticket, _ int) decimal.Decimal {
		return t.Price
	}))
	return booking, nil
}

// holdSeats takes advisory holds on the explicitly requested seats. The
// returned func releases them.
func (s *BookingService) holdSeats(ctx context.Context, flightID uuid.UUID, passengers []PassengerInput) (func(), error) {
	noop := func() {}
	if s.locks == nil {
		return noop, nil
	}

	var held []string
	release := func() {
		ctx := context.WithoutCancel(ctx)
		for _, seat := range held {
			_ = s.locks.ReleaseSeatLock(ctx, flightID, seat)
		}
	}
	for _, p := range passengers {
		if p.SeatNumber == "" {
			continue
		}
		row, letter, err := seats.Parse(p.SeatNumber)
		if err != nil {
			release()
			return noop, err
		}
		seat := seats.Format(row, letter)
		if lo.Contains(held, seat) {
			continue
		}
		ok, err := s.locks.AcquireSeatLock(ctx, flightID, seat, s.holdTTL)
		if err != nil {
			release()
			return noop, fmt.Errorf("seat hold %s: %w", seat, err)
		}
		if !ok {
			release()
			return noop, fmt.Errorf("%w: seat %s is being booked by another request", domain.ErrSeatUnavailable, seat)
		}
		held = append(held, seat)
	}
	return release, nil
}

func (s *BookingService) UpdateBookingStatus(ctx context.Context, id uuid.UUID, status domain.BookingStatus) (*domain.Booking, error) {
	var (
		updated *domain.Booking
		user    *domain.User
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		current, err := tx.Bookings().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := CheckTransition(*current, status); err != nil {
			return err
		}

		var paidAt *time.Time
		if status == domain.BookingStatusPaid {
			now := s.now().UTC()
			paidAt = &now
		}
		if _, err := tx.Bookings().UpdateStatus(ctx, id, current.Version, status, paidAt); err != nil {
			return err
		}
		if current.Status.HoldsSeats() && !status.HoldsSeats() {
			if err := tx.Bookings().ReleaseSeats(ctx, id); err != nil {
				return err
			}
		}

		if updated, err = tx.Bookings().GetByID(ctx, id); err != nil {
			return err
		}
		user, err = tx.Users().GetByID(ctx, current.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, kafka.EventBookingStatusChanged, updated, user.Email)
	return updated, nil
}

func (s *BookingService) GetBooking(ctx context.Context, id uuid.UUID) (*domain.Booking, error) {
	return s.store.Bookings().GetByID(ctx, id)
}

func (s *BookingService) ListBookingsForUser(ctx context.Context, userID uuid.UUID) ([]domain.Booking, error) {
	var bookings []domain.Booking
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		if _, err := tx.Users().GetByID(ctx, userID); err != nil {
			return err
		}
		var err error
		bookings, err = tx.Bookings().ListByUser(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return bookings, nil
}

// DeleteBooking purges the booking and its tickets regardless of status.
func (s *BookingService) DeleteBooking(ctx context.Context, id uuid.UUID) error {
	var deleted *domain.Booking
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		var err error
		if deleted, err = tx.Bookings().GetByID(ctx, id); err != nil {
			return err
		}
		return tx.Bookings().Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.publish(ctx, kafka.EventBookingDeleted, deleted, "")
	return nil
}

func normalizePassengers(in []PassengerInput) []PassengerInput {
	out := make([]PassengerInput, len(in))
	for i, p := range in {
		p.Name = strings.TrimSpace(p.Name)
		p.PassportNumber = strings.ToUpper(strings.TrimSpace(p.PassportNumber))
		p.SeatNumber = strings.ToUpper(strings.TrimSpace(p.SeatNumber))
		if p.SeatClass == "" {
			p.SeatClass = domain.SeatClassEconomy
		}
		out[i] = p
	}
	return out
}

// publish is best effort: the booking is already committed.
func (s *BookingService) publish(ctx context.Context, eventType string, booking *domain.Booking, email string) {
	if s.producer == nil || s.bookingTopic == "" {
		return
	}
	event := kafka.BookingEvent{
		Type:       eventType,
		BookingID:  booking.ID.String(),
		UserID:     booking.UserID.String(),
		FlightID:   booking.FlightID.String(),
		Email:      email,
		Status:     string(booking.Status),
		TotalPrice: booking.TotalPrice.StringFixed(pricing.Precision),
		Seats: lo.Map(booking.Tickets, func(t domain.Ticket, _ int) string {
			return t.SeatNumber
		}),
		OccurredAt: s.now().UTC(),
	}
	key := booking.ID.String()
	_ = s.producer.PublishWithRetry(ctx, s.bookingTopic, key, event, publishAttempts)
	if s.notificationsTopic != "" && email != "" {
		_ = s.producer.PublishWithRetry(ctx, s.notificationsTopic, key, event, publishAttempts)
	}
}

var _ BookingUseCase = (*BookingService)(nil)
