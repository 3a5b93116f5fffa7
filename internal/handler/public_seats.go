package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/seat-inventory/internal/repository"
	"github.com/iliyamo/seat-inventory/internal/service"
)

// PublicHandler exposes the read-only seat map view.  No authentication is
// required so buyers can inspect availability before logging in; live
// updates after this initial snapshot arrive over the real-time channel.
type PublicHandler struct {
	Reservations *service.ReservationService
}

// NewPublicHandler constructs a PublicHandler.
func NewPublicHandler(svc *service.ReservationService) *PublicHandler {
	if svc == nil {
		panic("nil service passed to NewPublicHandler")
	}
	return &PublicHandler{Reservations: svc}
}

// seatView is one seat in the public listing.  Holder identity is not
// exposed publicly; only the state is.
type seatView struct {
	ID       uint64 `json:"id"`
	Row      string `json:"row"`
	Number   uint32 `json:"number"`
	Category string `json:"category"`
	State    string `json:"state"`
}

// GetEventSeats handles GET /v1/events/:id/seats.  It returns every seat of
// the event's map with its category name and current state.
func (h *PublicHandler) GetEventSeats(c echo.Context) error {
	eventID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	m, err := h.Reservations.EventSeats(c.Request().Context(), eventID)
	if err != nil {
		if errors.Is(err, repository.ErrSeatMapNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "seat map not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	categories := make(map[uint64]string, len(m.Categories))
	for _, cat := range m.Categories {
		categories[cat.ID] = cat.Name
	}
	seats := make([]seatView, 0, len(m.Seats))
	for _, s := range m.Seats {
		seats = append(seats, seatView{
			ID:       s.ID,
			Row:      s.Row,
			Number:   s.Number,
			Category: categories[s.CategoryID],
			State:    string(s.State),
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"event_id": m.Info.EventID,
		"seats":    seats,
	})
}
