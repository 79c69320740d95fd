package email

import (
	"context"
	"fmt"
	"strings"

	"github.com/Domenick1991/flightbooking/internal/kafka"
	"github.com/Domenick1991/flightbooking/internal/metrics"
	"github.com/sirupsen/logrus"
)

// Sender delivers booking notifications. Delivery is a structured log line;
// there is no mail transport.
type Sender struct {
	log logrus.FieldLogger
}

func NewSender(log logrus.FieldLogger) *Sender {
	return &Sender{log: log}
}

func (s *Sender) Send(ctx context.Context, event kafka.BookingEvent) error {
	if event.Email == "" {
		s.log.WithField("booking_id", event.BookingID).Debug("no recipient, notification skipped")
		return nil
	}
	s.log.WithFields(logrus.Fields{
		"to":         event.Email,
		"booking_id": event.BookingID,
		"type":       event.Type,
	}).Info(Subject(event))
	metrics.NotificationsSent.WithLabelValues(event.Type).Inc()
	return nil
}

func Subject(event kafka.BookingEvent) string {
	switch event.Type {
	case kafka.EventBookingCreated:
		return fmt.Sprintf("Booking %s confirmed: seats %s, total %s",
			shortID(event.BookingID), strings.Join(event.Seats, ", "), event.TotalPrice)
	case kafka.EventBookingStatusChanged:
		return fmt.Sprintf("Booking %s is now %s", shortID(event.BookingID), event.Status)
	default:
		return fmt.Sprintf("Booking %s update", shortID(event.BookingID))
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
