package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type BookingStatus string

const (
	BookingStatusBooked    BookingStatus = "booked"
	BookingStatusPaid      BookingStatus = "paid"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusRefunded  BookingStatus = "refunded"
)

func (s BookingStatus) Valid() bool {
	switch s {
	case BookingStatusBooked, BookingStatusPaid, BookingStatusCancelled, BookingStatusRefunded:
		return true
	}
	return false
}

// HoldsSeats reports whether tickets under a booking in this status still
// occupy their seats.
func (s BookingStatus) HoldsSeats() bool {
	return s == BookingStatusBooked || s == BookingStatusPaid
}

type Booking struct {
	ID         uuid.UUID       `json:"id"`
	UserID     uuid.UUID       `json:"user_id"`
	FlightID   uuid.UUID       `json:"flight_id"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Status     BookingStatus   `json:"status"`
	PaidAt     *time.Time      `json:"paid_at,omitempty"`
	Version    int64           `json:"version"`
	Tickets    []Ticket        `json:"tickets"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// TicketTotal sums the prices of the loaded tickets.
func (b Booking) TicketTotal() decimal.Decimal {
	total := decimal.Zero
	for _, t := range b.Tickets {
		total = total.Add(t.Price)
	}
	return total
}
