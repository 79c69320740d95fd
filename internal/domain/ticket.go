package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type SeatClass string

const (
	SeatClassEconomy  SeatClass = "economy"
	SeatClassBusiness SeatClass = "business"
	SeatClassFirst    SeatClass = "first"
)

var SeatClasses = []SeatClass{SeatClassEconomy, SeatClassBusiness, SeatClassFirst}

func (c SeatClass) Valid() bool {
	switch c {
	case SeatClassEconomy, SeatClassBusiness, SeatClassFirst:
		return true
	}
	return false
}

type Ticket struct {
	ID             uuid.UUID       `json:"id"`
	BookingID      uuid.UUID       `json:"booking_id"`
	FlightID       uuid.UUID       `json:"flight_id"`
	PassengerName  string          `json:"passenger_name"`
	PassportNumber string          `json:"passenger_passport_num"`
	SeatNumber     string          `json:"seat_num"`
	SeatClass      SeatClass       `json:"seat_class"`
	Price          decimal.Decimal `json:"price"`
	// Released tickets no longer hold their seat.
	Released  bool      `json:"released"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
