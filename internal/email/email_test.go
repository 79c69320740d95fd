package email

import (
	"context"
	"testing"

	"github.com/Domenick1991/flightbooking/internal/kafka"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSender_Send(t *testing.T) {
	logger, hook := test.NewNullLogger()
	sender := NewSender(logger)

	err := sender.Send(context.Background(), kafka.BookingEvent{
		Type:       kafka.EventBookingCreated,
		BookingID:  "5f1d7a4e-0000-0000-0000-000000000000",
		Email:      "ada@example.com",
		TotalPrice: "900.00",
		Seats:      []string{"12A", "8A", "3A"},
	})

	require.NoError(t, err)
	require.Len(t, hook.Entries, 1)
	entry := hook.LastEntry()
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, "ada@example.com", entry.Data["to"])
	assert.Equal(t, "Booking 5f1d7a4e confirmed: seats 12A, 8A, 3A, total 900.00", entry.Message)
}

func TestSender_Send_NoRecipient(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.InfoLevel)

	err := NewSender(logger).Send(context.Background(), kafka.BookingEvent{Type: kafka.EventBookingDeleted})

	require.NoError(t, err)
	assert.Empty(t, hook.Entries)
}

func TestSubject(t *testing.T) {
	assert.Equal(t, "Booking abc is now paid", Subject(kafka.BookingEvent{
		Type: kafka.EventBookingStatusChanged, BookingID: "abc", Status: "paid",
	}))
	assert.Equal(t, "Booking abc update", Subject(kafka.BookingEvent{BookingID: "abc"}))
}
