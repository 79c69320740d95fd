package flights

import (
	"fmt"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/samber/lo"
)

var transitions = map[domain.FlightStatus][]domain.FlightStatus{
	domain.FlightStatusActive:    {domain.FlightStatusStarted, domain.FlightStatusInactive, domain.FlightStatusDelayed, domain.FlightStatusCancelled},
	domain.FlightStatusInactive:  {domain.FlightStatusActive, domain.FlightStatusDelayed, domain.FlightStatusCancelled},
	domain.FlightStatusStarted:   {domain.FlightStatusEnRoute, domain.FlightStatusDelayed, domain.FlightStatusCancelled},
	domain.FlightStatusEnRoute:   {domain.FlightStatusLanded, domain.FlightStatusCancelled},
	domain.FlightStatusDelayed:   {domain.FlightStatusActive, domain.FlightStatusCancelled},
	domain.FlightStatusLanded:    nil,
	domain.FlightStatusCancelled: nil,
}

func CanTransition(from, to domain.FlightStatus) bool {
	return lo.Contains(transitions[from], to)
}

// CheckTransition returns ErrInvalidInput for an unknown target status and
// ErrInvalidTransition for a move the table does not allow.
func CheckTransition(from, to domain.FlightStatus) error {
	if !to.Valid() {
		return fmt.Errorf("%w: unknown flight status %q", domain.ErrInvalidInput, to)
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: flight %s -> %s", domain.ErrInvalidTransition, from, to)
	}
	return nil
}

func IsTerminal(status domain.FlightStatus) bool {
	return len(transitions[status]) == 0
}

// IsBookable reports whether new bookings may be placed on the flight.
func IsBookable(flight domain.Flight, now time.Time) bool {
	switch flight.Status {
	case domain.FlightStatusActive, domain.FlightStatusDelayed:
		return flight.DepartureTime.After(now)
	default:
		return false
	}
}
