package api

import (
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/pricing"
	"github.com/samber/lo"
)

type userResponse struct {
	ID        string    `json:"id"`
	FirstName string    `json:"firstname"`
	LastName  string    `json:"lastname"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

func newUserResponse(u domain.User) userResponse {
	return userResponse{
		ID:        u.ID.String(),
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Role:      string(u.Role),
		CreatedAt: u.CreatedAt,
	}
}

type flightResponse struct {
	ID            string    `json:"id"`
	Code          string    `json:"flight_code"`
	Origin        string    `json:"origin_airport"`
	Destination   string    `json:"destination_airport"`
	DepartureTime time.Time `json:"departure_time"`
	ArrivalTime   time.Time `json:"arrival_time"`
	BasePrice     string    `json:"base_price"`
	Status        string    `json:"status"`
	Version       int64     `json:"version"`
}

func newFlightResponse(f domain.Flight) flightResponse {
	return flightResponse{
		ID:            f.ID.String(),
		Code:          f.Code,
		Origin:        f.Origin,
		Destination:   f.Destination,
		DepartureTime: f.DepartureTime,
		ArrivalTime:   f.ArrivalTime,
		BasePrice:     f.BasePrice.StringFixed(pricing.Precision),
		Status:        string(f.Status),
		Version:       f.Version,
	}
}

type ticketResponse struct {
	ID             string `json:"id"`
	PassengerName  string `json:"passenger_name"`
	PassportNumber string `json:"passport_number"`
	SeatNumber     string `json:"seat_number"`
	SeatClass      string `json:"seat_class"`
	Price          string `json:"price"`
	Released       bool   `json:"released"`
}

type bookingResponse struct {
	ID         string           `json:"id"`
	UserID     string           `json:"user_id"`
	FlightID   string           `json:"flight_id"`
	Status     string           `json:"status"`
	TotalPrice string           `json:"total_price"`
	PaidAt     *time.Time       `json:"paid_at,omitempty"`
	Version    int64            `json:"version"`
	Tickets    []ticketResponse `json:"tickets"`
	CreatedAt  time.Time        `json:"created_at"`
}

func newBookingResponse(b domain.Booking) bookingResponse {
	return bookingResponse{
		ID:         b.ID.String(),
		UserID:     b.UserID.String(),
		FlightID:   b.FlightID.String(),
		Status:     string(b.Status),
		TotalPrice: b.TotalPrice.StringFixed(pricing.Precision),
		PaidAt:     b.PaidAt,
		Version:    b.Version,
		Tickets: lo.Map(b.Tickets, func(t domain.Ticket, _ int) ticketResponse {
			return ticketResponse{
				ID:             t.ID.String(),
				PassengerName:  t.PassengerName,
				PassportNumber: t.PassportNumber,
				SeatNumber:     t.SeatNumber,
				SeatClass:      string(t.SeatClass),
				Price:          t.Price.StringFixed(pricing.Precision),
				Released:       t.Released,
			}
		}),
		CreatedAt: b.CreatedAt,
	}
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}
