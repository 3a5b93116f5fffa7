package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/iliyamo/seat-inventory/internal/repository"
	"github.com/iliyamo/seat-inventory/internal/seatmap"
)

// AdminHandler manages the seat map layout: initializing a map for an event
// and registering categories and seats.  All routes require the ADMIN role.
type AdminHandler struct {
	SeatMaps *repository.SeatMapRepo
}

// NewAdminHandler constructs an AdminHandler.
func NewAdminHandler(repo *repository.SeatMapRepo) *AdminHandler {
	if repo == nil {
		panic("nil repository passed to NewAdminHandler")
	}
	return &AdminHandler{SeatMaps: repo}
}

// CreateSeatMap handles POST /v1/events/:id/seatmap.  It initializes the
// seating layout for an event.  Each event owns at most one map; a second
// attempt returns 409.
func (h *AdminHandler) CreateSeatMap(c echo.Context) error {
	eventID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	m, err := h.SeatMaps.CreateMap(c.Request().Context(), eventID)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "seat map already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"seat_map_id": m.ID,
		"event_id":    m.EventID,
	})
}

// AddCategory handles POST /v1/events/:id/categories.  The request body
// carries a name, a decimal base price and an optional priority flag.  The
// name must be unique within the map, compared case-insensitively.
func (h *AdminHandler) AddCategory(c echo.Context) error {
	eventID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var body struct {
		Name      string `json:"name"`
		BasePrice string `json:"base_price"`
		Priority  bool   `json:"priority"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.Name = strings.TrimSpace(body.Name)
	if body.Name == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name is required"})
	}
	price, err := decimal.NewFromString(body.BasePrice)
	if err != nil || price.IsNegative() {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid base_price"})
	}

	ctx := c.Request().Context()
	m, err := h.SeatMaps.GetMapByEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrSeatMapNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "seat map not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	cat, err := m.AddCategory(body.Name, price, body.Priority)
	if err != nil {
		if errors.Is(err, seatmap.ErrDuplicateCategory) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "category name already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if err := h.SeatMaps.InsertCategory(ctx, cat); err != nil {
		// The duplicate could also arrive via a concurrent insert; the
		// unique constraint is the final arbiter.
		if errors.Is(err, repository.ErrDuplicate) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "category name already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"category_id": cat.ID,
		"name":        cat.Name,
		"base_price":  cat.BasePrice.String(),
		"priority":    cat.Priority,
	})
}

// AddSeat handles POST /v1/events/:id/seats.  The request body names the
// row, seat number and category.  (row, number) must be unique within the
// map and the category must already be registered.
func (h *AdminHandler) AddSeat(c echo.Context) error {
	eventID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid event id"})
	}
	var body struct {
		Row      string `json:"row"`
		Number   uint32 `json:"number"`
		Category string `json:"category"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.Row = strings.ToUpper(strings.TrimSpace(body.Row))
	if body.Row == "" || body.Number == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "row and number are required"})
	}

	ctx := c.Request().Context()
	m, err := h.SeatMaps.GetMapByEvent(ctx, eventID)
	if err != nil {
		if errors.Is(err, repository.ErrSeatMapNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "seat map not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	seat, err := m.AddSeat(body.Row, body.Number, body.Category)
	if err != nil {
		switch {
		case errors.Is(err, seatmap.ErrUnknownCategory):
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "unknown category"})
		case errors.Is(err, seatmap.ErrDuplicateSeat):
			return c.JSON(http.StatusConflict, echo.Map{"error": "seat already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if err := h.SeatMaps.InsertSeat(ctx, seat); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "seat already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"seat_id": seat.ID,
		"row":     seat.Row,
		"number":  seat.Number,
		"state":   seat.State,
	})
}
