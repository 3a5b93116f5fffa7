package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/seat-inventory/internal/config"
	"github.com/iliyamo/seat-inventory/internal/database"
	"github.com/iliyamo/seat-inventory/internal/handler"
	"github.com/iliyamo/seat-inventory/internal/notifier"
	"github.com/iliyamo/seat-inventory/internal/queue"
	"github.com/iliyamo/seat-inventory/internal/repository"
	"github.com/iliyamo/seat-inventory/internal/router"
	"github.com/iliyamo/seat-inventory/internal/service"

	internalclock "github.com/iliyamo/seat-inventory/internal/clock"
)

func main() {
	// Load .env if present; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
	}

	var live notifier.Notifier = notifier.Noop{}
	if rdb != nil {
		live = notifier.NewRedisNotifier(rdb, logger)
	}

	publisher := queue.NewPublisher(cfg.AMQPURL, logger)
	defer publisher.Close()

	seatMaps := repository.NewSeatMapRepo(db)
	holders := repository.NewHolderRepo(db)
	clk := internalclock.NewSystem()

	reservations := service.NewReservationService(seatMaps, live, publisher,
		clk, cfg.ReservationTTL, logger)
	scheduler := service.NewExpiryScheduler(reservations, seatMaps,
		clk, cfg.ReservationTTL, cfg.SweepInterval, logger)
	reservations.SetTimers(scheduler)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go scheduler.Run(ctx)
	go func() {
		if err := queue.StartTicketCancelledConsumer(ctx, cfg.AMQPURL, reservations, logger); err != nil {
			logger.Error("ticket-cancelled consumer stopped", "error", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())

	router.Register(e, router.Handlers{
		Auth:        handler.NewAuthHandler(cfg, holders),
		Public:      handler.NewPublicHandler(reservations),
		Reservation: handler.NewReservationHandler(reservations),
		Admin:       handler.NewAdminHandler(seatMaps),
	}, cfg, rdb)

	addr := ":" + cfg.Port
	go func() {
		logger.Info("listening", "addr", addr, "env", cfg.Env)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Error("server stopped", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}
	scheduler.Stop()
}
