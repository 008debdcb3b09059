package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/rs/zerolog"

	httpapi "github.com/geoweather/tracker/internal/api/http"
	"github.com/geoweather/tracker/internal/config"
	"github.com/geoweather/tracker/internal/scheduler"
	"github.com/geoweather/tracker/internal/store"
	"github.com/geoweather/tracker/internal/syncer"
	"github.com/geoweather/tracker/internal/weather"
	"github.com/geoweather/tracker/internal/weather/providers"
)

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Str("service", "geoweather").Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	startupCtx, startupCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer startupCancel()

	// Relational store for canonical locations.
	locStore, err := store.NewPostgresLocationStore(startupCtx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer locStore.Close()

	if err := locStore.Migrate(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("failed to apply migrations")
	}

	// Append-only document store for observations.
	obsStore, err := store.NewMongoObservationStore(startupCtx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mongo")
	}
	defer obsStore.Close(context.Background())

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}
	provider := providers.NewOpenWeatherProvider(httpClient, cfg.OpenWeatherAPIKey)

	orchestrator := syncer.New(locStore, provider, obsStore, syncer.Config{
		Workers:    cfg.SyncWorkers,
		BatchLimit: cfg.SyncBatchLimit,
	}, log, nil)

	sched := scheduler.New(orchestrator, cfg.FetchInterval, cfg.SyncRunTimeout, log)
	if err := sched.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start scheduler")
	}
	defer sched.Stop()

	// Read side over both stores.
	service := weather.NewService(locStore, obsStore)

	app := fiber.New(fiber.Config{
		AppName:               "geoweather",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	app.Use(logger.New())
	app.Use(recover.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "geoweather",
		})
	})

	httpapi.RegisterRoutes(app, service, orchestrator, cfg.SyncRunTimeout)

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Error().Err(err).Msg("fiber server stopped")
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during shutdown")
	}
}
