package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"axis-backend/internal/config"
	"axis-backend/internal/interfaces/router"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("config load: " + err.Error())
	}
	logger := cfg.ConfigureLogging()

	app, deps, err := router.CreateApp(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("app create failed")
	}

	// Verify connections before accepting traffic.
	sqlDB, err := deps.DB.DB()
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres: get DB")
	}
	if err := sqlDB.Ping(); err != nil {
		logger.Fatal().Err(err).Msg("postgres connection failed")
	}
	logger.Info().Msg("postgres connected")
	if err := deps.Rdb.Ping(context.Background()).Err(); err != nil {
		logger.Fatal().Err(err).Msg("redis connection failed")
	}
	logger.Info().Msg("redis connected")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	dispatcher := deps.Dispatcher
	if cfg.SendinblueAPIKey == "" {
		logger.Warn().Msg("SENDINBLUE_API_KEY not set; emails will be marked sent without delivery")
	}
	go dispatcher.Run(ctx)

	sweeper := deps.Sweeper
	if err := sweeper.Start(cfg.NotifySweepSchedule); err != nil {
		logger.Fatal().Err(err).Msg("notification sweeper start failed")
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Msgf("Server running at http://localhost:%s", cfg.Port)
		logger.Info().Msgf("Health check: http://localhost:%s/health/json", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			logger.Error().Err(err).Msg("server stopped")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info().Str("signal", sig.String()).Msg("shutting down")

	cancel()
	<-sweeper.Stop().Done()
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Error().Err(err).Msg("server shutdown failed")
	}
	if err := deps.Rdb.Close(); err != nil {
		logger.Warn().Err(err).Msg("redis close failed")
	}
	if err := sqlDB.Close(); err != nil {
		logger.Warn().Err(err).Msg("postgres close failed")
	}
	logger.Info().Msg("shutdown complete")
}
