package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/seat-inventory/internal/config"
	"github.com/iliyamo/seat-inventory/internal/handler"
	"github.com/iliyamo/seat-inventory/internal/middleware"
)

// Handlers bundles every HTTP handler the router wires up.
type Handlers struct {
	Auth        *handler.AuthHandler
	Public      *handler.PublicHandler
	Reservation *handler.ReservationHandler
	Admin       *handler.AdminHandler
}

// Register mounts all routes on the provided Echo instance.
//
// Route layout:
//
//	/healthz, /metrics              — unauthenticated operational endpoints
//	/v1/auth/*                      — register and login
//	/v1/events/:id/seats  (GET)     — public seat availability
//	/v1/seats/:id/*                 — reservation lifecycle, JWT required
//	/v1/events/:id/*      (POST)    — seat map administration, ADMIN only
//
// MarkPaid and RevertPaid are driven by the payment service, so they accept
// SERVICE and ADMIN roles only; a holder never flips a seat to PAID directly.
func Register(e *echo.Echo, h Handlers, cfg config.Config, rdb *redis.Client) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	auth := e.Group("/v1/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)

	e.GET("/v1/events/:id/seats", h.Public.GetEventSeats)

	limiter := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	seats := e.Group("/v1/seats")
	seats.Use(middleware.JWTAuth(cfg.JWTSecret))

	holds := seats.Group("", middleware.RequireRole("HOLDER", "ADMIN"), limiter)
	holds.POST("/:id/reserve", h.Reservation.Reserve)
	holds.DELETE("/:id/reservation", h.Reservation.Release)

	payments := seats.Group("", middleware.RequireRole("SERVICE", "ADMIN"))
	payments.POST("/:id/paid", h.Reservation.MarkPaid)
	payments.POST("/:id/paid/revert", h.Reservation.RevertPaid)

	admin := e.Group("/v1/events")
	admin.Use(middleware.JWTAuth(cfg.JWTSecret))
	admin.Use(middleware.RequireRole("ADMIN"))
	admin.POST("/:id/seatmap", h.Admin.CreateSeatMap)
	admin.POST("/:id/categories", h.Admin.AddCategory)
	admin.POST("/:id/seats", h.Admin.AddSeat)
}
