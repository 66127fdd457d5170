package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/agrowatch/pest-advisory-service/internal/domain"
)

// Location store backends.
const (
	LocationSourceCSV      = "csv"
	LocationSourcePostgres = "postgres"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Village dataset.
	LocationSource string // "csv" or "postgres"
	LocationsPath  string
	PostgresDSN    string

	// Classifier artifacts.
	ModelDir           string
	RemoteModelTimeout time.Duration

	// Risk policy and scoring.
	RiskThreshold float64
	ScoreFallback bool

	// SMS alert publishing.
	KafkaBrokers    []string
	KafkaAlertTopic string
	AlertsEnabled   bool
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDurationEnv("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	remoteTimeout, err := parseDurationEnv("REMOTE_MODEL_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	threshold, err := parseThreshold()
	if err != nil {
		return nil, err
	}

	alertsEnabled := false
	if v := os.Getenv("SMS_ALERTS_ENABLED"); v != "" {
		alertsEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		LocationSource: envOrDefault("LOCATION_SOURCE", LocationSourceCSV),
		LocationsPath:  envOrDefault("LOCATIONS_PATH", "data/locations.csv"),
		PostgresDSN:    os.Getenv("POSTGRES_DSN"),

		ModelDir:           envOrDefault("MODEL_DIR", "data/models"),
		RemoteModelTimeout: remoteTimeout,

		RiskThreshold: threshold,
		ScoreFallback: envOrDefault("SCORE_FALLBACK", "true") == "true",

		KafkaBrokers:    parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaAlertTopic: envOrDefault("KAFKA_ALERT_TOPIC", "pest-sms-alerts"),
		AlertsEnabled:   alertsEnabled,
	}

	switch cfg.LocationSource {
	case LocationSourceCSV:
		if cfg.LocationsPath == "" {
			return nil, errors.New("LOCATIONS_PATH is required when LOCATION_SOURCE is csv")
		}
	case LocationSourcePostgres:
		if cfg.PostgresDSN == "" {
			return nil, errors.New("POSTGRES_DSN is required when LOCATION_SOURCE is postgres")
		}
	default:
		return nil, fmt.Errorf("invalid LOCATION_SOURCE %q (expected csv or postgres)", cfg.LocationSource)
	}

	if cfg.ModelDir == "" {
		return nil, errors.New("MODEL_DIR is required")
	}
	if cfg.AlertsEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("SMS_ALERTS_ENABLED is true but KAFKA_BROKERS is not set")
		}
		if cfg.KafkaAlertTopic == "" {
			return nil, errors.New("SMS_ALERTS_ENABLED is true but KAFKA_ALERT_TOPIC is not set")
		}
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDurationEnv(key, fallback string) (time.Duration, error) {
	raw := envOrDefault(key, fallback)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s %q", key, raw)
	}
	return d, nil
}

// parseThreshold reads RISK_THRESHOLD; the cutoff must be a probability
// strictly inside (0, 1).
func parseThreshold() (float64, error) {
	raw := os.Getenv("RISK_THRESHOLD")
	if raw == "" {
		return domain.DefaultRiskThreshold, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 || v >= 1 {
		return 0, fmt.Errorf("invalid RISK_THRESHOLD %q", raw)
	}
	return v, nil
}

func parseBrokers(raw string) []string {
	var brokers []string
	for _, b := range strings.Split(raw, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
