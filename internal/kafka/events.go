package kafka

import "time"

const (
	EventBookingCreated       = "booking_created"
	EventBookingStatusChanged = "booking_status_changed"
	EventBookingDeleted       = "booking_deleted"
	EventFlightStatusChanged  = "flight_status_changed"
)

type BookingEvent struct {
	Type       string    `json:"type"`
	BookingID  string    `json:"booking_id"`
	UserID     string    `json:"user_id"`
	FlightID   string    `json:"flight_id"`
	Email      string    `json:"email,omitempty"`
	Status     string    `json:"status"`
	TotalPrice string    `json:"total_price"`
	Seats      []string  `json:"seats,omitempty"`
	OccurredAt time.Time `json:"occurred_at"`
}

type FlightEvent struct {
	Type       string    `json:"type"`
	FlightID   string    `json:"flight_id"`
	FlightCode string    `json:"flight_code"`
	From       string    `json:"from_status"`
	To         string    `json:"to_status"`
	OccurredAt time.Time `json:"occurred_at"`
}
