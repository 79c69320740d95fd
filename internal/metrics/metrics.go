package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests total number of handled HTTP requests (counter)
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "http",
			Name:      "requests_total",
			Help:      "The total number of handled HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration time spent serving HTTP requests (histogram)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "http",
			Name:      "request_duration_seconds",
			Help:      "Time spent serving HTTP requests",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	// BookingOutcomes booking attempts by result (counter)
	BookingOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookings",
			Name:      "create_total",
			Help:      "Booking attempts by outcome",
		},
		[]string{"outcome"},
	)

	// TicketsIssued total number of tickets in successfully created bookings (counter)
	TicketsIssued = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookings",
			Name:      "tickets_issued_total",
			Help:      "The total number of issued tickets",
		},
		[]string{"seat_class"},
	)

	// BookingTransitions booking status changes (counter)
	BookingTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "bookings",
			Name:      "status_changes_total",
			Help:      "Booking status changes by target status",
		},
		[]string{"status"},
	)

	// NotificationsSent notifications handled by the worker (counter)
	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "notifications",
			Name:      "sent_total",
			Help:      "Booking notifications handled by the worker",
		},
		[]string{"type"},
	)
)
