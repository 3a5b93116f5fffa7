package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/seat-inventory/internal/seatmap"
	"github.com/iliyamo/seat-inventory/internal/service"
)

// ReservationHandler exposes the seat reservation commands over HTTP.  JWT
// authentication and role checks are applied by middleware before any of
// these run; handlers only read the holder identity out of the context.
type ReservationHandler struct {
	Reservations *service.ReservationService
}

// NewReservationHandler constructs a ReservationHandler.
func NewReservationHandler(svc *service.ReservationService) *ReservationHandler {
	if svc == nil {
		panic("nil service passed to NewReservationHandler")
	}
	return &ReservationHandler{Reservations: svc}
}

// Reserve handles POST /v1/seats/:id/reserve.  It reserves the seat for the
// authenticated holder and returns 201 with the expiration deadline.  An
// occupied seat yields 409; a repeat request by the current holder yields
// 409 with a distinct message and does not disturb the existing
// reservation; losing the write race beyond the retry budget yields 409
// with a retryable error.
func (h *ReservationHandler) Reserve(c echo.Context) error {
	holderID, err := getHolderID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	seatID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat id"})
	}
	rec, err := h.Reservations.Reserve(c.Request().Context(), seatID, holderID)
	if err != nil {
		switch {
		case errors.Is(err, seatmap.ErrSeatNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "seat not found"})
		case errors.Is(err, seatmap.ErrAlreadyHeld):
			return c.JSON(http.StatusConflict, echo.Map{"error": "seat already held by you"})
		case errors.Is(err, seatmap.ErrSeatNotAvailable):
			return c.JSON(http.StatusConflict, echo.Map{"error": "seat not available"})
		case errors.Is(err, service.ErrReservationFailed):
			return c.JSON(http.StatusConflict, echo.Map{"error": "reservation failed, please retry"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"seat_id":    rec.SeatID,
		"event_id":   rec.EventID,
		"expires_at": rec.Deadline.Format(time.RFC3339),
	})
}

// Release handles DELETE /v1/seats/:id/reservation.  Release always
// succeeds: a seat that is already available, or already paid, is a no-op
// and the response says so via the released flag.
func (h *ReservationHandler) Release(c echo.Context) error {
	if _, err := getHolderID(c); err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	seatID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat id"})
	}
	released, err := h.Reservations.Release(c.Request().Context(), seatID)
	if err != nil {
		switch {
		case errors.Is(err, seatmap.ErrSeatNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "seat not found"})
		case errors.Is(err, service.ErrReservationFailed):
			return c.JSON(http.StatusConflict, echo.Map{"error": "release failed, please retry"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"released": released})
}

// MarkPaid handles POST /v1/seats/:id/paid.  Called by the ticket service
// (role SERVICE) once a ticket is bound to the seat; the reservation stops
// expiring from that point on.
func (h *ReservationHandler) MarkPaid(c echo.Context) error {
	seatID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat id"})
	}
	err := h.Reservations.MarkPaid(c.Request().Context(), seatID)
	if err != nil {
		switch {
		case errors.Is(err, seatmap.ErrSeatNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "seat not found"})
		case errors.Is(err, seatmap.ErrSeatNotReserved):
			return c.JSON(http.StatusConflict, echo.Map{"error": "seat not reserved"})
		case errors.Is(err, service.ErrReservationFailed):
			return c.JSON(http.StatusConflict, echo.Map{"error": "mark paid failed, please retry"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.NoContent(http.StatusNoContent)
}

// RevertPaid handles POST /v1/seats/:id/paid/revert.  Compensates a
// cancelled payment; the seat becomes available again.
func (h *ReservationHandler) RevertPaid(c echo.Context) error {
	seatID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat id"})
	}
	err := h.Reservations.RevertPaid(c.Request().Context(), seatID)
	if err != nil {
		switch {
		case errors.Is(err, seatmap.ErrSeatNotFound):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "seat not found"})
		case errors.Is(err, seatmap.ErrSeatNotPaid):
			return c.JSON(http.StatusConflict, echo.Map{"error": "seat not paid"})
		case errors.Is(err, service.ErrReservationFailed):
			return c.JSON(http.StatusConflict, echo.Map{"error": "revert failed, please retry"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.NoContent(http.StatusNoContent)
}
