// Command migrate creates or updates the service's tables and exits.
package main

import (
	"flag"
	"os"
	"time"

	"axis-backend/internal/config"
	"axis-backend/internal/infrastructure/database"

	"github.com/rs/zerolog"
)

func main() {
	dbURL := flag.String("db", "", "Database URL (defaults to the configured DATABASE_URL_* for APP_ENV)")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().
		Timestamp().
		Logger()

	url := *dbURL
	if url == "" {
		cfg, err := config.Load()
		if err != nil {
			logger.Fatal().Err(err).Msg("config load failed")
		}
		url = cfg.DatabaseURL
	}
	if url == "" {
		logger.Fatal().Msg("database URL required: use -db flag or set DATABASE_URL_DEV / DATABASE_URL_PROD")
	}

	db, err := database.Open(url)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to get database handle")
	}
	defer sqlDB.Close()

	logger.Info().Msg("running database migrations")
	if err := database.AutoMigrate(db); err != nil {
		logger.Fatal().Err(err).Msg("migration failed")
	}
	logger.Info().Msg("migrations complete")
}
