package api

import (
	"context"
	"net/http"
	"time"

	"github.com/Domenick1991/flightbooking/internal/service/booking"
	"github.com/Domenick1991/flightbooking/internal/service/flights"
	"github.com/Domenick1991/flightbooking/internal/service/users"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Services struct {
	Users    users.UserUseCase
	Flights  flights.FlightUseCase
	Bookings booking.BookingUseCase
	Health   HealthChecker
}

func NewRouter(svc Services, log logrus.FieldLogger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(log), Metrics())

	router.GET("/", index)
	router.GET("/healthz", health(svc.Health))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	NewUserHandler(svc.Users, svc.Bookings).Register(v1.Group("/users"))
	NewFlightHandler(svc.Flights).Register(v1.Group("/flights"))
	NewBookingHandler(svc.Bookings).Register(v1.Group("/bookings"))
	return router
}

func index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "flightbooking",
		"endpoints": []string{
			"/api/v1/users",
			"/api/v1/flights",
			"/api/v1/bookings",
			"/healthz",
			"/metrics",
		},
	})
}

func health(checker HealthChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := checker.Ping(ctx); err != nil {
			_ = c.Error(err)
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
