package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type FlightStatus string

const (
	FlightStatusActive    FlightStatus = "active"
	FlightStatusInactive  FlightStatus = "inactive"
	FlightStatusStarted   FlightStatus = "started"
	FlightStatusEnRoute   FlightStatus = "en_route"
	FlightStatusLanded    FlightStatus = "landed"
	FlightStatusCancelled FlightStatus = "cancelled"
	FlightStatusDelayed   FlightStatus = "delayed"
)

var FlightStatuses = []FlightStatus{
	FlightStatusActive,
	FlightStatusInactive,
	FlightStatusStarted,
	FlightStatusEnRoute,
	FlightStatusLanded,
	FlightStatusCancelled,
	FlightStatusDelayed,
}

func (s FlightStatus) Valid() bool {
	for _, known := range FlightStatuses {
		if s == known {
			return true
		}
	}
	return false
}

type Flight struct {
	ID            uuid.UUID       `json:"id"`
	Code          string          `json:"flight_code"`
	Origin        string          `json:"origin_airport"`
	Destination   string          `json:"destination_airport"`
	DepartureTime time.Time       `json:"departure_time"`
	ArrivalTime   time.Time       `json:"arrival_time"`
	BasePrice     decimal.Decimal `json:"base_price"`
	Status        FlightStatus    `json:"status"`
	// Version is bumped on every status change.
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
