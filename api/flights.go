package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/repository"
	"github.com/Domenick1991/flightbooking/internal/service/flights"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
)

type FlightHandler struct {
	service flights.FlightUseCase
}

func NewFlightHandler(service flights.FlightUseCase) *FlightHandler {
	return &FlightHandler{service: service}
}

func (h *FlightHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
	router.GET("", h.list)
	router.GET("/:id", h.get)
	router.DELETE("/:id", h.delete)
	router.PATCH("/:id/status", h.updateStatus)
}

func (h *FlightHandler) create(c *gin.Context) {
	var req flights.CreateFlightInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	flight, err := h.service.CreateFlight(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newFlightResponse(*flight))
}

func (h *FlightHandler) list(c *gin.Context) {
	filter, err := parseFlightFilter(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	list, err := h.service.ListFlights(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, lo.Map(list, func(f domain.Flight, _ int) flightResponse { return newFlightResponse(f) }))
}

func (h *FlightHandler) get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	flight, err := h.service.GetFlight(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newFlightResponse(*flight))
}

func (h *FlightHandler) delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteFlight(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *FlightHandler) updateStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	flight, err := h.service.UpdateFlightStatus(c.Request.Context(), id, domain.FlightStatus(req.Status))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newFlightResponse(*flight))
}

type flightQuery struct {
	Status      string `form:"status"`
	From        string `form:"from"`
	To          string `form:"to"`
	Origin      string `form:"origin"`
	Destination string `form:"destination"`
}

func parseFlightFilter(c *gin.Context) (repository.FlightFilter, error) {
	var (
		q      flightQuery
		filter repository.FlightFilter
		err    error
	)
	if err = c.ShouldBindQuery(&q); err != nil {
		return filter, err
	}
	if q.Status != "" {
		status := domain.FlightStatus(q.Status)
		if !status.Valid() {
			return filter, fmt.Errorf("invalid status %q", q.Status)
		}
		filter.Status = &status
	}
	if filter.DepartureFrom, err = parseTime("from", q.From); err != nil {
		return filter, err
	}
	if filter.DepartureTo, err = parseTime("to", q.To); err != nil {
		return filter, err
	}
	filter.Origin = strings.ToUpper(q.Origin)
	filter.Destination = strings.ToUpper(q.Destination)
	return filter, nil
}

func parseTime(name, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q, want RFC 3339", name, value)
	}
	return &ts, nil
}
