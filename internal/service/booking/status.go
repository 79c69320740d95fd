package booking

import (
	"fmt"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/samber/lo"
)

var transitions = map[domain.BookingStatus][]domain.BookingStatus{
	domain.BookingStatusBooked:    {domain.BookingStatusPaid, domain.BookingStatusCancelled},
	domain.BookingStatusPaid:      {domain.BookingStatusCancelled, domain.BookingStatusRefunded},
	domain.BookingStatusCancelled: {domain.BookingStatusRefunded},
	domain.BookingStatusRefunded:  nil,
}

// CheckTransition validates moving b to status. A cancelled booking can only
// be refunded if it was paid before.
func CheckTransition(b domain.Booking, to domain.BookingStatus) error {
	if !to.Valid() {
		return fmt.Errorf("%w: unknown booking status %q", domain.ErrInvalidInput, to)
	}
	if !lo.Contains(transitions[b.Status], to) {
		return fmt.Errorf("%w: booking %s -> %s", domain.ErrInvalidTransition, b.Status, to)
	}
	if b.Status == domain.BookingStatusCancelled && to == domain.BookingStatusRefunded && b.PaidAt == nil {
		return fmt.Errorf("%w: booking %s was never paid", domain.ErrInvalidTransition, b.ID)
	}
	return nil
}
