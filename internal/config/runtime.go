package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultHTTPAddr       = ":8080"
	defaultDatabaseURL    = "rentmate.db"
	defaultJWTSecret      = "change-me-jwt-secret"
	defaultJWTTTL         = "24h"
	defaultTimezone       = "Asia/Jakarta"
	defaultBackendURL     = "http://localhost:3001"
	defaultBackendTimeout = "5s"
	defaultReminderCron   = "*/15 * * * *"
	defaultReminderLead   = "2h"
	defaultMaxProofBytes  = "5242880"
	defaultSettingsFile   = "settings.yaml"
	defaultRedisChannel   = "rentmate:events"
)

type RuntimeConfig struct {
	AppEnv         string
	HTTPAddr       string
	DatabaseURL    string
	JWTSecret      string
	JWTTTL         time.Duration
	Location       *time.Location
	BackendURL     string
	BackendTimeout time.Duration
	RedisURL       string
	RedisChannel   string
	SlackWebhook   string
	ReminderCron   string
	ReminderLead   time.Duration
	MaxProofBytes  int
	SettingsFile   string
}

func LoadRuntimeConfig() (*RuntimeConfig, error) {
	cfg := &RuntimeConfig{}
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = strings.TrimSpace(os.Getenv("ENV"))
	}
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.HTTPAddr = strings.TrimSpace(getEnv("HTTP_ADDR", defaultHTTPAddr))
	cfg.DatabaseURL = strings.TrimSpace(getEnv("DATABASE_URL", defaultDatabaseURL))
	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret))
	cfg.BackendURL = strings.TrimRight(strings.TrimSpace(getEnv("BACKEND_URL", defaultBackendURL)), "/")
	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.RedisChannel = strings.TrimSpace(getEnv("REDIS_CHANNEL", defaultRedisChannel))
	cfg.SlackWebhook = strings.TrimSpace(os.Getenv("SLACK_WEBHOOK_URL"))
	cfg.ReminderCron = strings.TrimSpace(getEnv("REMINDER_CRON", defaultReminderCron))
	cfg.SettingsFile = strings.TrimSpace(getEnv("SETTINGS_FILE", defaultSettingsFile))

	var err error
	cfg.JWTTTL, err = parseDurationEnv("JWT_TTL", defaultJWTTTL)
	if err != nil {
		return nil, err
	}

	cfg.BackendTimeout, err = parseDurationEnv("BACKEND_TIMEOUT", defaultBackendTimeout)
	if err != nil {
		return nil, err
	}

	cfg.ReminderLead, err = parseDurationEnv("REMINDER_LEAD", defaultReminderLead)
	if err != nil {
		return nil, err
	}

	cfg.MaxProofBytes, err = parseIntEnv("MAX_PROOF_BYTES", defaultMaxProofBytes)
	if err != nil {
		return nil, err
	}

	tz := strings.TrimSpace(getEnv("TIMEZONE", defaultTimezone))
	cfg.Location, err = time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE value %q: %w", tz, err)
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	log.Printf("runtime config: env=%s addr=%s backend=%s timezone=%s redis=%t slack=%t",
		cfg.AppEnv, cfg.HTTPAddr, cfg.BackendURL, cfg.Location, cfg.RedisURL != "", cfg.SlackWebhook != "")

	return cfg, nil
}

func validateConfig(cfg *RuntimeConfig) error {
	if cfg.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be > 0")
	}
	if cfg.BackendTimeout <= 0 {
		return fmt.Errorf("BACKEND_TIMEOUT must be > 0")
	}
	if cfg.ReminderLead <= 0 {
		return fmt.Errorf("REMINDER_LEAD must be > 0")
	}
	if cfg.MaxProofBytes <= 0 {
		return fmt.Errorf("MAX_PROOF_BYTES must be > 0")
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL must not be empty")
	}

	if isProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/release JWT_SECRET must be set and not default")
		}
	}

	return nil
}

func isProdLike(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "prod" || env == "production" || env == "release"
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func parseIntEnv(name, fallback string) (int, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return n, nil
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
