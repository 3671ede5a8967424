package config

import (
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env                 string
	Port                string
	DatabaseURL         string
	RedisURL            string
	SiteURL             string // base of invitation links: <SiteURL>/invite/<token>
	SendinblueAPIKey    string // SENDINBLUE_API_KEY for transactional email (Brevo)
	MailFrom            string // MAIL_FROM sender email (default noreply@axis.app)
	FrontendURLEndsWith string
	DevPassword         string
	HealthAdminKey      string
	InternalAPIKey      string // shared secret for the auth service's notification requests
	LogLevel            string
	NotifySweepSchedule string
	NotifyMaxAttempts   int
	ProfileCacheTTL     time.Duration
}

// IsProduction reports whether the service runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("PORT", "8080")
	v.SetDefault("SITE_URL", "http://localhost:3000")
	v.SetDefault("MAIL_FROM", "noreply@axis.app")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("NOTIFY_SWEEP_SCHEDULE", "@every 1m")
	v.SetDefault("NOTIFY_MAX_ATTEMPTS", 5)
	v.SetDefault("PROFILE_CACHE_TTL", "5m")

	env := v.GetString("NODE_ENV")
	if env == "" {
		env = v.GetString("APP_ENV")
	}
	if env == "" {
		env = "development"
	}

	dbURL := v.GetString("DATABASE_URL_DEV")
	if env == "production" {
		dbURL = v.GetString("DATABASE_URL_PROD")
	} else if env == "test" {
		dbURL = v.GetString("DATABASE_URL_TEST")
	}
	if dbURL == "" {
		dbURL = os.Getenv("DATABASE_URL")
	}

	return &Config{
		Env:                 env,
		Port:                v.GetString("PORT"),
		DatabaseURL:         dbURL,
		RedisURL:            v.GetString("REDIS_URL"),
		SiteURL:             strings.TrimRight(strings.TrimSpace(v.GetString("SITE_URL")), "/"),
		SendinblueAPIKey:    v.GetString("SENDINBLUE_API_KEY"),
		MailFrom:            v.GetString("MAIL_FROM"),
		FrontendURLEndsWith: v.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:         v.GetString("DEV_PASSWORD"),
		HealthAdminKey:      v.GetString("HEALTH_ADMIN_KEY"),
		InternalAPIKey:      v.GetString("INTERNAL_API_KEY"),
		LogLevel:            v.GetString("LOG_LEVEL"),
		NotifySweepSchedule: v.GetString("NOTIFY_SWEEP_SCHEDULE"),
		NotifyMaxAttempts:   v.GetInt("NOTIFY_MAX_ATTEMPTS"),
		ProfileCacheTTL:     v.GetDuration("PROFILE_CACHE_TTL"),
	}, nil
}

// ConfigureLogging sets the global zerolog level and, outside production,
// switches to the console writer.
func (c *Config) ConfigureLogging() zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(c.LogLevel))
	if err != nil || c.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "axis-api").Logger()
	if !c.IsProduction() {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
	log.Logger = logger
	return logger
}
