package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/vr-campus-tours/internal/booking"
	"github.com/iliyamo/vr-campus-tours/internal/config"
	"github.com/iliyamo/vr-campus-tours/internal/database"
	"github.com/iliyamo/vr-campus-tours/internal/handler"
	"github.com/iliyamo/vr-campus-tours/internal/middleware"
	"github.com/iliyamo/vr-campus-tours/internal/payment"
	"github.com/iliyamo/vr-campus-tours/internal/queue"
	"github.com/iliyamo/vr-campus-tours/internal/repository"
	"github.com/iliyamo/vr-campus-tours/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()
	rlCfg := config.LoadRateLimitConfig()
	cacheCfg := config.LoadCacheConfig()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	// Redis is best effort. A nil client degrades rate limiting and the
	// response cache to pass-through; the API itself keeps working.
	rdb := config.NewRedisClient()

	users := repository.NewUserRepo(db)
	sessions := repository.NewSessionRepo(db)
	bookings := repository.NewBookingRepo(db)
	stats := repository.NewStatsRepo(db)

	reserver := booking.NewReserver(bookings)
	payments := payment.NewClient()

	h := router.Handlers{
		Auth:     handler.NewAuthHandler(cfg, users, sessions),
		Bookings: handler.NewBookingHandler(bookings, reserver, payments),
		Admin:    handler.NewAdminHandler(bookings, users, stats),
		Colleges: handler.NewCollegeHandler(),
		Health:   handler.NewHealthHandler(db, middleware.LimiterStatus(rlCfg, rdb)),
	}

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	router.Register(e, h, cfg, rlCfg, cacheCfg, rdb)

	// Background workers stop when workerCtx is cancelled during shutdown.
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	// The consumer reconnects on its own; a missing broker only costs the
	// booking log, never a request.
	go func() {
		if err := queue.StartBookingConsumer(workerCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("queue consumer stopped: %v", err)
		}
	}()

	// Sweep long-expired session rows once an hour.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
			}
			ctx, cancel := context.WithTimeout(workerCtx, 30*time.Second)
			n, err := sessions.DeleteExpired(ctx)
			cancel()
			if err != nil {
				log.Printf("session sweep: %v", err)
			} else if n > 0 {
				log.Printf("session sweep: removed %d expired sessions", n)
			}
		}
	}()

	go func() {
		addr := ":" + cfg.Port
		log.Printf("listening on %s (env=%s)", addr, cfg.Env)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	stopWorkers()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	if rdb != nil {
		_ = rdb.Close()
	}
	_ = db.Close()
}
