package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/studentacc/accommodation-booking/internal/repository"
	"github.com/studentacc/accommodation-booking/internal/service"
)

// Booker is the booking workflow.
type Booker interface {
	Book(ctx context.Context, accommodationID uint64, who service.Identity) (*service.BookingResult, error)
	Cancel(ctx context.Context, bookingID uint64, who service.Identity) error
	ListMine(ctx context.Context, who service.Identity) ([]repository.BookingDetail, error)
}

// BookingHandler serves the student booking endpoints.  JWT, session and
// role checks happen in middleware.
type BookingHandler struct {
	Bookings Booker
	Log      *logrus.Logger
}

func NewBookingHandler(b Booker, log *logrus.Logger) *BookingHandler {
	return &BookingHandler{Bookings: b, Log: log}
}

// Book handles POST /v1/accommodations/:id/book.  It answers 201 with the
// booking, 404 for an unknown accommodation and 409 when no room is left.
func (h *BookingHandler) Book(c echo.Context) error {
	who, err := identity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	accID, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid accommodation id")
	}
	res, err := h.Bookings.Book(c.Request().Context(), accID, who)
	if err != nil {
		return serviceError(c, h.Log, err)
	}
	return c.JSON(http.StatusCreated, bookingFromResult(res))
}

// ListMine handles GET /v1/my-bookings.
func (h *BookingHandler) ListMine(c echo.Context) error {
	who, err := identity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	list, err := h.Bookings.ListMine(c.Request().Context(), who)
	if err != nil {
		return serverError(c, h.Log, err, "failed to list bookings")
	}
	out := make([]bookingDTO, 0, len(list))
	for _, d := range list {
		out = append(out, bookingFromDetail(d))
	}
	return c.JSON(http.StatusOK, echo.Map{"data": out})
}

// Cancel handles DELETE /v1/my-bookings/:id.
func (h *BookingHandler) Cancel(c echo.Context) error {
	who, err := identity(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	id, ok := pathID(c, "id")
	if !ok {
		return badRequest(c, "invalid booking id")
	}
	if err := h.Bookings.Cancel(c.Request().Context(), id, who); err != nil {
		return serviceError(c, h.Log, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "booking cancelled"})
}
