package handler // handler defines the HTTP handlers for the seat engine

import (
	"errors"
	"strconv"

	"github.com/labstack/echo/v4"
)

// getHolderID extracts the authenticated holder id from echo.Context, where
// the JWT middleware stored the token's subject claim.  JWT numeric claims
// arrive as float64; string subjects are parsed for robustness.
func getHolderID(c echo.Context) (uint64, error) {
	v := c.Get("user_id")
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int:
		return uint64(t), nil
	case int64:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	case string:
		if n, err := strconv.ParseUint(t, 10, 64); err == nil {
			return n, nil
		}
	}
	return 0, errors.New("invalid user_id in context")
}

// pathID parses a positive numeric path parameter.
func pathID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}
