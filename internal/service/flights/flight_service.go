package flights

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/kafka"
	"github.com/Domenick1991/flightbooking/internal/pricing"
	"github.com/Domenick1991/flightbooking/internal/repository"
	"github.com/Domenick1991/flightbooking/internal/validation"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var maxBasePrice = decimal.RequireFromString("999999.99")

type FlightUseCase interface {
	CreateFlight(ctx context.Context, input CreateFlightInput) (*domain.Flight, error)
	GetFlight(ctx context.Context, id uuid.UUID) (*domain.Flight, error)
	ListFlights(ctx context.Context, filter repository.FlightFilter) ([]domain.Flight, error)
	UpdateFlightStatus(ctx context.Context, id uuid.UUID, status domain.FlightStatus) (*domain.Flight, error)
	DeleteFlight(ctx context.Context, id uuid.UUID) error
}

// FlightCache caches the unfiltered flight list. GetFlights returns nil on a
// miss.
type FlightCache interface {
	GetFlights(ctx context.Context) ([]domain.Flight, error)
	SetFlights(ctx context.Context, flights []domain.Flight) error
	InvalidateFlights(ctx context.Context) error
}

type Producer interface {
	PublishWithRetry(ctx context.Context, topic, key string, value interface{}, maxRetries int) error
}

// publishAttempts bounds event delivery after commit. The producer logs each
// failed attempt; the final error is dropped because the change is committed.
const publishAttempts = 3

type CreateFlightInput struct {
	Code          string          `json:"flight_code" validate:"required,flightcode"`
	Origin        string          `json:"origin_airport" validate:"required,iata"`
	Destination   string          `json:"destination_airport" validate:"required,iata,nefield=Origin"`
	DepartureTime time.Time       `json:"departure_time" validate:"required"`
	ArrivalTime   time.Time       `json:"arrival_time" validate:"required,gtfield=DepartureTime"`
	BasePrice     decimal.Decimal `json:"base_price"`
}

type FlightService struct {
	store       repository.Store
	cache       FlightCache
	producer    Producer
	flightTopic string
	validate    *validation.Validator
	now         func() time.Time

	// cacheGen counts invalidations made by this instance.
	cacheGen atomic.Uint64
}

type FlightServiceOption func(*FlightService)

func WithProducer(producer Producer, topic string) FlightServiceOption {
	return func(s *FlightService) {
		s.producer = producer
		s.flightTopic = topic
	}
}

func WithClock(now func() time.Time) FlightServiceOption {
	return func(s *FlightService) {
		s.now = now
	}
}

// NewFlightService accepts a nil cache.
func NewFlightService(store repository.Store, cache FlightCache, opts ...FlightServiceOption) *FlightService {
	s := &FlightService{
		store:    store,
		cache:    cache,
		validate: validation.New(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *FlightService) CreateFlight(ctx context.Context, input CreateFlightInput) (*domain.Flight, error) {
	input.Code = strings.ToUpper(strings.TrimSpace(input.Code))
	input.Origin = strings.ToUpper(strings.TrimSpace(input.Origin))
	input.Destination = strings.ToUpper(strings.TrimSpace(input.Destination))
	if err := s.validate.Struct(input); err != nil {
		return nil, err
	}
	if !input.BasePrice.IsPositive() || input.BasePrice.GreaterThan(maxBasePrice) {
		return nil, fmt.Errorf("%w: base_price must be within 0.01..%s", domain.ErrInvalidInput, maxBasePrice.StringFixed(pricing.Precision))
	}
	if !input.BasePrice.Equal(pricing.Round(input.BasePrice)) {
		return nil, fmt.Errorf("%w: base_price has more than %d decimal places", domain.ErrInvalidInput, pricing.Precision)
	}

	flight := &domain.Flight{
		ID:            uuid.New(),
		Code:          input.Code,
		Origin:        input.Origin,
		Destination:   input.Destination,
		DepartureTime: input.DepartureTime.UTC(),
		ArrivalTime:   input.ArrivalTime.UTC(),
		BasePrice:     input.BasePrice,
		Status:        domain.FlightStatusActive,
	}
	if err := s.store.Flights().Create(ctx, flight); err != nil {
		return nil, err
	}
	s.invalidate(ctx)
	return flight, nil
}

func (s *FlightService) GetFlight(ctx context.Context, id uuid.UUID) (*domain.Flight, error) {
	return s.store.Flights().GetByID(ctx, id)
}

// ListFlights serves the unfiltered list from cache when possible. Cache
// errors fall through to the store.
func (s *FlightService) ListFlights(ctx context.Context, filter repository.FlightFilter) ([]domain.Flight, error) {
	// A list read before an invalidation of this instance is not cached. Writes
	// from other instances can still leave a stale list for up to the cache TTL.
	cacheable := s.cache != nil && filter.IsZero()
	gen := s.cacheGen.Load()
	if cacheable {
		if cached, err := s.cache.GetFlights(ctx); err == nil && cached != nil {
			return cached, nil
		}
	}

	flights, err := s.store.Flights().List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if cacheable && s.cacheGen.Load() == gen {
		_ = s.cache.SetFlights(ctx, flights)
	}
	return flights, nil
}

func (s *FlightService) UpdateFlightStatus(ctx context.Context, id uuid.UUID, status domain.FlightStatus) (*domain.Flight, error) {
	var (
		previous domain.FlightStatus
		updated  *domain.Flight
	)
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		current, err := tx.Flights().GetByID(ctx, id)
		if err != nil {
			return err
		}
		if err := CheckTransition(current.Status, status); err != nil {
			return fmt.Errorf("flight %s: %w", current.Code, err)
		}
		previous = current.Status
		updated, err = tx.Flights().UpdateStatus(ctx, id, current.Version, status)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx)
	s.publish(ctx, previous, updated)
	return updated, nil
}

func (s *FlightService) DeleteFlight(ctx context.Context, id uuid.UUID) error {
	err := s.store.WithinTx(ctx, func(ctx context.Context, tx repository.Store) error {
		return tx.Flights().Delete(ctx, id)
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx)
	return nil
}

func (s *FlightService) invalidate(ctx context.Context) {
	s.cacheGen.Add(1)
	if s.cache != nil {
		_ = s.cache.InvalidateFlights(ctx)
	}
}

func (s *FlightService) publish(ctx context.Context, from domain.FlightStatus, flight *domain.Flight) {
	if s.producer == nil || s.flightTopic == "" {
		return
	}
	event := kafka.FlightEvent{
		Type:       kafka.EventFlightStatusChanged,
		FlightID:   flight.ID.String(),
		FlightCode: flight.Code,
		From:       string(from),
		To:         string(flight.Status),
		OccurredAt: s.now().UTC(),
	}
	_ = s.producer.PublishWithRetry(ctx, s.flightTopic, flight.ID.String(), event, publishAttempts)
}

var _ FlightUseCase = (*FlightService)(nil)
