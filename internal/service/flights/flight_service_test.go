package flights

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/kafka"
	"github.com/Domenick1991/flightbooking/internal/repository"
	"github.com/Domenick1991/flightbooking/internal/repository/memory"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockCache struct {
	mock.Mock
}

func (m *MockCache) GetFlights(ctx context.Context) ([]domain.Flight, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Flight), args.Error(1)
}

func (m *MockCache) SetFlights(ctx context.Context, flights []domain.Flight) error {
	args := m.Called(ctx, flights)
	return args.Error(0)
}

func (m *MockCache) InvalidateFlights(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

type MockProducer struct {
	mock.Mock
}

func (m *MockProducer) PublishWithRetry(ctx context.Context, topic, key string, value interface{}, maxRetries int) error {
	args := m.Called(ctx, topic, key, value, maxRetries)
	return args.Error(0)
}

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func testInput(code string) CreateFlightInput {
	return CreateFlightInput{
		Code:          code,
		Origin:        "jfk",
		Destination:   "LAX",
		DepartureTime: testNow.Add(48 * time.Hour),
		ArrivalTime:   testNow.Add(54 * time.Hour),
		BasePrice:     decimal.RequireFromString("200.00"),
	}
}

func newService(t *testing.T, cache FlightCache, opts ...FlightServiceOption) (*FlightService, *memory.Store) {
	t.Helper()
	store := memory.NewStore(time.Second)
	opts = append([]FlightServiceOption{WithClock(func() time.Time { return testNow })}, opts...)
	return NewFlightService(store, cache, opts...), store
}

func TestFlightService_CreateFlight_Success(t *testing.T) {
	mockCache := &MockCache{}
	service, _ := newService(t, mockCache)
	ctx := context.Background()

	mockCache.On("InvalidateFlights", ctx).Return(nil).Once()

	flight, err := service.CreateFlight(ctx, testInput("fl1000"))

	require.NoError(t, err)
	assert.Equal(t, "FL1000", flight.Code)
	assert.Equal(t, "JFK", flight.Origin)
	assert.Equal(t, domain.FlightStatusActive, flight.Status)
	assert.Equal(t, int64(1), flight.Version)
	mockCache.AssertExpectations(t)
}

func TestFlightService_CreateFlight_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*CreateFlightInput)
	}{
		{"missing code", func(in *CreateFlightInput) { in.Code = "" }},
		{"bad airport", func(in *CreateFlightInput) { in.Origin = "JF" }},
		{"same airports", func(in *CreateFlightInput) { in.Destination = "JFK" }},
		{"arrival before departure", func(in *CreateFlightInput) { in.ArrivalTime = in.DepartureTime.Add(-time.Hour) }},
		{"zero price", func(in *CreateFlightInput) { in.BasePrice = decimal.Zero }},
		{"negative price", func(in *CreateFlightInput) { in.BasePrice = decimal.RequireFromString("-1") }},
		{"sub-cent price", func(in *CreateFlightInput) { in.BasePrice = decimal.RequireFromString("10.005") }},
		{"price too high", func(in *CreateFlightInput) { in.BasePrice = decimal.RequireFromString("1000000") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, store := newService(t, nil)
			input := testInput("FL1000")
			tt.modify(&input)

			_, err := service.CreateFlight(context.Background(), input)

			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			flights, err := store.Flights().List(context.Background(), repository.FlightFilter{})
			require.NoError(t, err)
			assert.Empty(t, flights)
		})
	}
}

func TestFlightService_CreateFlight_DuplicateCode(t *testing.T) {
	service, _ := newService(t, nil)
	ctx := context.Background()

	_, err := service.CreateFlight(ctx, testInput("FL1000"))
	require.NoError(t, err)

	_, err = service.CreateFlight(ctx, testInput("FL1000"))
	assert.ErrorIs(t, err, domain.ErrConstraintViolation)
}

func TestFlightService_ListFlights_CacheMiss(t *testing.T) {
	mockCache := &MockCache{}
	service, store := newService(t, mockCache)
	ctx := context.Background()

	flight := &domain.Flight{
		ID: uuid.New(), Code: "FL1000", Origin: "JFK", Destination: "LAX",
		DepartureTime: testNow.Add(time.Hour), ArrivalTime: testNow.Add(5 * time.Hour),
		BasePrice: decimal.NewFromInt(200), Status: domain.FlightStatusActive,
	}
	require.NoError(t, store.Flights().Create(ctx, flight))

	mockCache.On("GetFlights", ctx).Return(nil, nil).Once()
	mockCache.On("SetFlights", ctx, []domain.Flight{*flight}).Return(nil).Once()

	result, err := service.ListFlights(ctx, repository.FlightFilter{})

	require.NoError(t, err)
	assert.Equal(t, []domain.Flight{*flight}, result)
	mockCache.AssertExpectations(t)
}

func TestFlightService_ListFlights_CacheHit(t *testing.T) {
	mockCache := &MockCache{}
	service, _ := newService(t, mockCache)
	ctx := context.Background()

	cached := []domain.Flight{{ID: uuid.New(), Code: "FL2000"}}
	mockCache.On("GetFlights", ctx).Return(cached, nil).Once()

	result, err := service.ListFlights(ctx, repository.FlightFilter{})

	require.NoError(t, err)
	assert.Equal(t, cached, result)
	mockCache.AssertExpectations(t)
	mockCache.AssertNotCalled(t, "SetFlights", mock.Anything, mock.Anything)
}

func TestFlightService_ListFlights_CacheError(t *testing.T) {
	mockCache := &MockCache{}
	service, _ := newService(t, mockCache)
	ctx := context.Background()

	mockCache.On("GetFlights", ctx).Return(nil, errors.New("cache error")).Once()
	mockCache.On("SetFlights", ctx, []domain.Flight{}).Return(nil).Once()

	result, err := service.ListFlights(ctx, repository.FlightFilter{})

	require.NoError(t, err)
	assert.Empty(t, result)
	mockCache.AssertExpectations(t)
}

type hookedStore struct {
	repository.Store
	beforeList func()
}

func (s *hookedStore) Flights() repository.FlightRepository {
	return &hookedFlights{FlightRepository: s.Store.Flights(), beforeList: s.beforeList}
}

type hookedFlights struct {
	repository.FlightRepository
	beforeList func()
}

func (f *hookedFlights) List(ctx context.Context, filter repository.FlightFilter) ([]domain.Flight, error) {
	if f.beforeList != nil {
		f.beforeList()
	}
	return f.FlightRepository.List(ctx, filter)
}

func TestFlightService_ListFlights_SkipsCacheAfterConcurrentInvalidation(t *testing.T) {
	mockCache := &MockCache{}
	store := &hookedStore{Store: memory.NewStore(time.Second)}
	service := NewFlightService(store, mockCache, WithClock(func() time.Time { return testNow }))
	ctx := context.Background()

	mockCache.On("InvalidateFlights", ctx).Return(nil)
	flight, err := service.CreateFlight(ctx, testInput("FL1000"))
	require.NoError(t, err)

	store.beforeList = func() {
		store.beforeList = nil
		_, err := service.UpdateFlightStatus(ctx, flight.ID, domain.FlightStatusDelayed)
		require.NoError(t, err)
	}
	mockCache.On("GetFlights", ctx).Return(nil, nil).Once()

	_, err = service.ListFlights(ctx, repository.FlightFilter{})

	require.NoError(t, err)
	mockCache.AssertNotCalled(t, "SetFlights", mock.Anything, mock.Anything)
	mockCache.AssertNumberOfCalls(t, "InvalidateFlights", 2)
}

func TestFlightService_ListFlights_FilterBypassesCache(t *testing.T) {
	mockCache := &MockCache{}
	service, _ := newService(t, mockCache)
	ctx := context.Background()

	mockCache.On("InvalidateFlights", ctx).Return(nil)
	_, err := service.CreateFlight(ctx, testInput("FL1000"))
	require.NoError(t, err)
	second := testInput("FL1001")
	second.Origin = "SFO"
	_, err = service.CreateFlight(ctx, second)
	require.NoError(t, err)

	result, err := service.ListFlights(ctx, repository.FlightFilter{Origin: "SFO"})

	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.Equal(t, "FL1001", result[0].Code)
	mockCache.AssertNotCalled(t, "GetFlights", mock.Anything)
}

func TestFlightService_UpdateFlightStatus(t *testing.T) {
	mockCache := &MockCache{}
	mockProducer := &MockProducer{}
	service, _ := newService(t, mockCache, WithProducer(mockProducer, "flight-events"))
	ctx := context.Background()

	mockCache.On("InvalidateFlights", ctx).Return(nil)
	flight, err := service.CreateFlight(ctx, testInput("FL1000"))
	require.NoError(t, err)

	mockProducer.On("PublishWithRetry", ctx, "flight-events", flight.ID.String(), kafka.FlightEvent{
		Type:       kafka.EventFlightStatusChanged,
		FlightID:   flight.ID.String(),
		FlightCode: "FL1000",
		From:       "active",
		To:         "delayed",
		OccurredAt: testNow,
	}, publishAttempts).Return(nil).Once()

	updated, err := service.UpdateFlightStatus(ctx, flight.ID, domain.FlightStatusDelayed)

	require.NoError(t, err)
	assert.Equal(t, domain.FlightStatusDelayed, updated.Status)
	assert.Equal(t, int64(2), updated.Version)
	mockProducer.AssertExpectations(t)
	mockCache.AssertNumberOfCalls(t, "InvalidateFlights", 2)
}

func TestFlightService_UpdateFlightStatus_Rejected(t *testing.T) {
	mockProducer := &MockProducer{}
	service, _ := newService(t, nil, WithProducer(mockProducer, "flight-events"))
	ctx := context.Background()

	flight, err := service.CreateFlight(ctx, testInput("FL1000"))
	require.NoError(t, err)
	mockProducer.On("PublishWithRetry", ctx, "flight-events", flight.ID.String(), mock.Anything, publishAttempts).Return(errors.New("broker down"))

	_, err = service.UpdateFlightStatus(ctx, flight.ID, domain.FlightStatusLanded)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	// publish failures do not fail the transition
	_, err = service.UpdateFlightStatus(ctx, flight.ID, domain.FlightStatusCancelled)
	require.NoError(t, err)
	_, err = service.UpdateFlightStatus(ctx, flight.ID, domain.FlightStatusActive)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = service.UpdateFlightStatus(ctx, uuid.New(), domain.FlightStatusDelayed)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	stored, err := service.GetFlight(ctx, flight.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.FlightStatusCancelled, stored.Status)
	mockProducer.AssertNumberOfCalls(t, "PublishWithRetry", 1)
}

func TestFlightService_DeleteFlight(t *testing.T) {
	mockCache := &MockCache{}
	service, _ := newService(t, mockCache)
	ctx := context.Background()

	mockCache.On("InvalidateFlights", ctx).Return(nil)
	flight, err := service.CreateFlight(ctx, testInput("FL1000"))
	require.NoError(t, err)

	require.NoError(t, service.DeleteFlight(ctx, flight.ID))

	_, err = service.GetFlight(ctx, flight.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, service.DeleteFlight(ctx, flight.ID), domain.ErrNotFound)
	mockCache.AssertNumberOfCalls(t, "InvalidateFlights", 2)
}
