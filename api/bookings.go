package api

import (
	"errors"
	"net/http"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/metrics"
	"github.com/Domenick1991/flightbooking/internal/service/booking"
	"github.com/gin-gonic/gin"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
	router.GET("/:id", h.get)
	router.DELETE("/:id", h.delete)
	router.PATCH("/:id/status", h.updateStatus)
}

func (h *BookingHandler) create(c *gin.Context) {
	var req booking.CreateBookingInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	created, err := h.service.CreateBooking(c.Request.Context(), req)
	metrics.BookingOutcomes.WithLabelValues(outcome(err)).Inc()
	if err != nil {
		writeError(c, err)
		return
	}
	for _, t := range created.Tickets {
		metrics.TicketsIssued.WithLabelValues(string(t.SeatClass)).Inc()
	}
	c.JSON(http.StatusCreated, newBookingResponse(*created))
}

func (h *BookingHandler) get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	found, err := h.service.GetBooking(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newBookingResponse(*found))
}

func (h *BookingHandler) delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteBooking(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *BookingHandler) updateStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	updated, err := h.service.UpdateBookingStatus(c.Request.Context(), id, domain.BookingStatus(req.Status))
	if err != nil {
		writeError(c, err)
		return
	}
	metrics.BookingTransitions.WithLabelValues(req.Status).Inc()
	c.JSON(http.StatusOK, newBookingResponse(*updated))
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "created"
	case errors.Is(err, domain.ErrSeatUnavailable):
		return "seat_unavailable"
	case errors.Is(err, domain.ErrFlightNotBookable):
		return "flight_not_bookable"
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrEmptyBooking):
		return "invalid"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
