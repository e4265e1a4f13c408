package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"

	"github.com/studentacc/accommodation-booking/internal/config"
	"github.com/studentacc/accommodation-booking/internal/handler"
	"github.com/studentacc/accommodation-booking/internal/middleware"
	"github.com/studentacc/accommodation-booking/internal/notify"
	"github.com/studentacc/accommodation-booking/internal/queue"
	"github.com/studentacc/accommodation-booking/internal/repository"
	"github.com/studentacc/accommodation-booking/internal/router"
	"github.com/studentacc/accommodation-booking/internal/service"
	"github.com/studentacc/accommodation-booking/internal/storage"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return serve(ctx)
		},
	}
}

func serve(ctx context.Context) error {
	cfg := config.Load()
	sessCfg, err := config.LoadSessionConfig()
	if err != nil {
		return err
	}
	log := config.NewLogger()

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	sessions := repository.NewSessionRepo(db)
	if _, err := applySessionPolicy(ctx, sessions, sessCfg.StartupPolicy, time.Now(), log); err != nil {
		return err
	}

	rdb := config.NewRedisClient()
	if rdb != nil {
		defer rdb.Close()
	}

	notifyCfg := config.LoadNotifyConfig()
	gateway, err := notify.FromConfig(ctx, notifyCfg, log)
	if err != nil {
		return err
	}
	images, err := storage.NewS3(ctx, config.LoadStorageConfig())
	if err != nil {
		return err
	}

	users := repository.NewUserRepo(db)
	owners := repository.NewOwnerRepo(db)
	accommodations := repository.NewAccommodationRepo(db)
	rooms := repository.NewRoomRepo(db)
	amenities := repository.NewAmenityRepo(db)
	discounts := repository.NewDiscountRepo(db)
	students := repository.NewStudentRepo(db)
	bookings := repository.NewBookingRepo(db)

	catalogSvc := service.NewCatalogService(accommodations, rooms, log)
	bookingSvc := service.NewBookingService(accommodations, students, bookings, gateway, log)

	authH := handler.NewAuthHandler(cfg, sessCfg, users, sessions, log)
	catalogH := handler.NewCatalogHandler(catalogSvc, log)
	adminH := &handler.AdminHandler{
		Owners:         owners,
		Accommodations: accommodations,
		Rooms:          rooms,
		Amenities:      amenities,
		Discounts:      discounts,
		Images:         images,
		Log:            log,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.Use(middleware.NoCache(), middleware.RequestLogger(log))

	session := []echo.MiddlewareFunc{
		middleware.JWTAuth(cfg.JWTSecret),
		middleware.SessionGuard(sessions, sessCfg.TTL, log),
	}
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH)
	router.RegisterPublic(e, catalogH, middleware.NewRedisCache(config.LoadCacheConfig(), rdb, log))
	router.RegisterStudent(e, router.Student{
		Auth:      authH,
		Catalog:   catalogH,
		Bookings:  handler.NewBookingHandler(bookingSvc, log),
		Session:   session,
		BookLimit: middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, log),
	})
	router.RegisterAdmin(e, adminH, session...)

	if config.ConsumerEnabled() && notifyCfg.AMQPURL != "" {
		c := &queue.Consumer{URL: notifyCfg.AMQPURL, Queue: notifyCfg.QueueName, LogPath: notifyCfg.BookingLog, Log: log}
		go func() {
			if err := c.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("booking consumer stopped")
			}
		}()
	}

	addr := ":" + cfg.Port
	errc := make(chan error, 1)
	go func() {
		log.WithField("addr", addr).WithField("env", cfg.Env).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(shutdownCtx)
}
