package api

import (
	"net/http"

	"github.com/Domenick1991/flightbooking/internal/domain"
	"github.com/Domenick1991/flightbooking/internal/service/booking"
	"github.com/Domenick1991/flightbooking/internal/service/users"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

type UserHandler struct {
	service  users.UserUseCase
	bookings booking.BookingUseCase
}

func NewUserHandler(service users.UserUseCase, bookings booking.BookingUseCase) *UserHandler {
	return &UserHandler{service: service, bookings: bookings}
}

func (h *UserHandler) Register(router *gin.RouterGroup) {
	router.POST("", h.create)
	router.GET("", h.list)
	router.GET("/:id", h.get)
	router.DELETE("/:id", h.delete)
	router.GET("/:id/bookings", h.bookingsOf)
}

func (h *UserHandler) create(c *gin.Context) {
	var req users.CreateUserInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	user, err := h.service.CreateUser(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newUserResponse(*user))
}

func (h *UserHandler) list(c *gin.Context) {
	list, err := h.service.ListUsers(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, lo.Map(list, func(u domain.User, _ int) userResponse { return newUserResponse(u) }))
}

func (h *UserHandler) get(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	user, err := h.service.GetUser(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(*user))
}

func (h *UserHandler) delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteUser(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) bookingsOf(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	list, err := h.bookings.ListBookingsForUser(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, lo.Map(list, func(b domain.Booking, _ int) bookingResponse { return newBookingResponse(b) }))
}

func pathID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}
