package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/repository"
	"github.com/Domenick1991/flightbooking/internal/service/flights"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func sampleFlight() *domain.Flight {
	departure := time.Date(2026, 3, 4, 9, 30, 0, 0, time.UTC)
	return &domain.Flight{
		ID:            uuid.New(),
		Code:          "FL1000",
		Origin:        "JFK",
		Destination:   "LAX",
		DepartureTime: departure,
		ArrivalTime:   departure.Add(6 * time.Hour),
		BasePrice:     decimal.NewFromInt(200),
		Status:        domain.FlightStatusActive,
		Version:       1,
	}
}

func TestFlightHandler_list(t *testing.T) {
	mockService := &MockFlightUseCase{}
	handler := NewFlightHandler(mockService)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/flights?status=active&origin=jfk&from=2026-03-01T00:00:00Z", nil)

	flight := sampleFlight()
	mockService.On("ListFlights", mock.Anything, mock.MatchedBy(func(f repository.FlightFilter) bool {
		return f.Status != nil && *f.Status == domain.FlightStatusActive &&
			f.Origin == "JFK" && f.Destination == "" &&
			f.DepartureFrom != nil && f.DepartureFrom.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) &&
			f.DepartureTo == nil
	})).Return([]domain.Flight{*flight}, nil).Once()

	handler.list(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var response []flightResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response, 1)
	assert.Equal(t, "FL1000", response[0].Code)
	assert.Equal(t, "200.00", response[0].BasePrice)
	mockService.AssertExpectations(t)
}

func TestFlightHandler_list_BadQuery(t *testing.T) {
	for _, query := range []string{"status=boarding", "from=yesterday", "to=2026-13-01"} {
		t.Run(query, func(t *testing.T) {
			mockService := &MockFlightUseCase{}
			handler := NewFlightHandler(mockService)
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/flights?"+query, nil)

			handler.list(c)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			mockService.AssertNotCalled(t, "ListFlights", mock.Anything, mock.Anything)
		})
	}
}

func TestFlightHandler_create(t *testing.T) {
	mockService := &MockFlightUseCase{}
	handler := NewFlightHandler(mockService)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	flight := sampleFlight()
	input := flights.CreateFlightInput{
		Code:          flight.Code,
		Origin:        flight.Origin,
		Destination:   flight.Destination,
		DepartureTime: flight.DepartureTime,
		ArrivalTime:   flight.ArrivalTime,
		BasePrice:     decimal.RequireFromString("200"),
	}
	c.Request = jsonRequest(t, http.MethodPost, "/api/v1/flights", input)
	mockService.On("CreateFlight", mock.Anything, mock.MatchedBy(func(in flights.CreateFlightInput) bool {
		return in.Code == "FL1000" && in.BasePrice.Equal(input.BasePrice) && in.DepartureTime.Equal(input.DepartureTime)
	})).Return(flight, nil).Once()

	handler.create(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	mockService.AssertExpectations(t)
}

func TestFlightHandler_get_NotFound(t *testing.T) {
	mockService := &MockFlightUseCase{}
	handler := NewFlightHandler(mockService)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	id := uuid.New()
	c.Params = gin.Params{{Key: "id", Value: id.String()}}
	c.Request = httptest.NewRequest(http.MethodGet, "/api/v1/flights/"+id.String(), nil)
	mockService.On("GetFlight", mock.Anything, id).Return(nil, domain.ErrNotFound).Once()

	handler.get(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	mockService.AssertExpectations(t)
}

func TestFlightHandler_updateStatus(t *testing.T) {
	mockService := &MockFlightUseCase{}
	handler := NewFlightHandler(mockService)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	flight := sampleFlight()
	flight.Status = domain.FlightStatusDelayed
	c.Params = gin.Params{{Key: "id", Value: flight.ID.String()}}
	c.Request = jsonRequest(t, http.MethodPatch, "/api/v1/flights/"+flight.ID.String()+"/status", statusRequest{Status: "delayed"})
	mockService.On("UpdateFlightStatus", mock.Anything, flight.ID, domain.FlightStatusDelayed).Return(flight, nil).Once()

	handler.updateStatus(c)

	assert.Equal(t, http.StatusOK, w.Code)
	var response flightResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Equal(t, "delayed", response.Status)
	mockService.AssertExpectations(t)
}

func TestFlightHandler_updateStatus_MissingStatus(t *testing.T) {
	mockService := &MockFlightUseCase{}
	handler := NewFlightHandler(mockService)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	id := uuid.New()
	c.Params = gin.Params{{Key: "id", Value: id.String()}}
	c.Request = jsonRequest(t, http.MethodPatch, "/api/v1/flights/"+id.String()+"/status", map[string]string{})

	handler.updateStatus(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockService.AssertNotCalled(t, "UpdateFlightStatus", mock.Anything, mock.Anything, mock.Anything)
}
