package flights

import (
	"testing"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestCheckTransition(t *testing.T) {
	tests := []struct {
		from, to domain.FlightStatus
		wantErr  error
	}{
		{domain.FlightStatusActive, domain.FlightStatusStarted, nil},
		{domain.FlightStatusActive, domain.FlightStatusInactive, nil},
		{domain.FlightStatusActive, domain.FlightStatusDelayed, nil},
		{domain.FlightStatusActive, domain.FlightStatusCancelled, nil},
		{domain.FlightStatusInactive, domain.FlightStatusActive, nil},
		{domain.FlightStatusStarted, domain.FlightStatusEnRoute, nil},
		{domain.FlightStatusEnRoute, domain.FlightStatusLanded, nil},
		{domain.FlightStatusDelayed, domain.FlightStatusActive, nil},
		{domain.FlightStatusActive, domain.FlightStatusLanded, domain.ErrInvalidTransition},
		{domain.FlightStatusActive, domain.FlightStatusActive, domain.ErrInvalidTransition},
		{domain.FlightStatusEnRoute, domain.FlightStatusDelayed, domain.ErrInvalidTransition},
		{domain.FlightStatusLanded, domain.FlightStatusActive, domain.ErrInvalidTransition},
		{domain.FlightStatusCancelled, domain.FlightStatusActive, domain.ErrInvalidTransition},
		{domain.FlightStatusActive, domain.FlightStatus("boarding"), domain.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			err := CheckTransition(tt.from, tt.to)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestIsTerminal(t *testing.T) {
	assert.True(t, IsTerminal(domain.FlightStatusLanded))
	assert.True(t, IsTerminal(domain.FlightStatusCancelled))
	assert.False(t, IsTerminal(domain.FlightStatusDelayed))
}

func TestIsBookable(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(24 * time.Hour)

	tests := []struct {
		name   string
		flight domain.Flight
		want   bool
	}{
		{"active future", domain.Flight{Status: domain.FlightStatusActive, DepartureTime: future}, true},
		{"delayed future", domain.Flight{Status: domain.FlightStatusDelayed, DepartureTime: future}, true},
		{"active departed", domain.Flight{Status: domain.FlightStatusActive, DepartureTime: now}, false},
		{"inactive", domain.Flight{Status: domain.FlightStatusInactive, DepartureTime: future}, false},
		{"cancelled", domain.Flight{Status: domain.FlightStatusCancelled, DepartureTime: future}, false},
		{"started", domain.Flight{Status: domain.FlightStatusStarted, DepartureTime: future}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsBookable(tt.flight, now))
		})
	}
}
