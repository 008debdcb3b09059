package httpapi

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/geoweather/tracker/internal/syncer"
	"github.com/geoweather/tracker/internal/weather"
)

var validate = validator.New()

// SyncRunner triggers one on-demand sync run.
type SyncRunner interface {
	Run(ctx context.Context) (syncer.SyncRunResult, error)
}

// RegisterRoutes wires the HTTP handlers into the Fiber app. The read
// endpoints serve the presentation layer: the snapshot feeds the live
// map, history feeds the trend chart, and the key list feeds the
// location selector.
func RegisterRoutes(app *fiber.App, service *weather.Service, runner SyncRunner, runTimeout time.Duration) {
	v1 := app.Group("/api/v1")

	v1.Get("/snapshot", func(c *fiber.Ctx) error {
		entries, err := service.LatestSnapshot(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read snapshot")
		}

		// An empty log renders as no data, never as an error.
		return c.JSON(fiber.Map{
			"count":   len(entries),
			"entries": entries,
		})
	})

	v1.Get("/locations", func(c *fiber.Ctx) error {
		keys, err := service.LocationKeys(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to list locations")
		}
		return c.JSON(fiber.Map{
			"count":     len(keys),
			"locations": keys,
		})
	})

	v1.Get("/locations/:name/history", func(c *fiber.Ctx) error {
		var req historyRequest
		req.Name = c.Params("name")
		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		observations, err := service.History(c.Context(), req.Name)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "failed to read history")
		}

		// Unknown keys are an empty history, not a 404.
		return c.JSON(fiber.Map{
			"location":     req.Name,
			"count":        len(observations),
			"observations": observations,
		})
	})

	v1.Post("/sync", func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.Context(), runTimeout)
		defer cancel()

		result, err := runner.Run(ctx)
		if err != nil {
			var orchErr *syncer.OrchestratorError
			if errors.As(err, &orchErr) {
				return fiber.NewError(fiber.StatusServiceUnavailable, orchErr.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, "sync run failed")
		}

		return c.JSON(result)
	})
}

// historyRequest holds the path parameter for the history endpoint.
type historyRequest struct {
	Name string `validate:"required"`
}
