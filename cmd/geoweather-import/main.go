// geoweather-import loads a CSV of raw location records into the
// relational store, cleaning and deduplicating on the way in. Safe to
// re-run: rows are upserted by name.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/geoweather/tracker/internal/config"
	"github.com/geoweather/tracker/internal/locations"
	"github.com/geoweather/tracker/internal/store"
)

func main() {
	log := zerolog.New(os.Stdout).With().Timestamp().Str("service", "geoweather-import").Logger()

	csvPath := flag.String("csv", "cities.csv", "path to the location CSV")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	locStore, err := store.NewPostgresLocationStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer locStore.Close()

	if err := locStore.Migrate(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("failed to apply migrations")
	}

	rows, err := locations.ReadCSVFile(*csvPath, cfg.CSVColumns)
	if err != nil {
		log.Fatal().Err(err).Str("csv", *csvPath).Msg("failed to read location source")
	}

	loader := locations.NewLoader(locStore, log)
	report, err := loader.Load(ctx, rows)
	if err != nil {
		log.Fatal().Err(err).Msg("location load failed; batch rolled back")
	}

	log.Info().
		Int("input", report.Input).
		Int("missingDropped", report.MissingDropped).
		Int("invalidDropped", report.InvalidDropped).
		Int("duplicatesDropped", report.DuplicatesDropped).
		Int("persisted", report.Persisted).
		Msg("location load complete")
}
