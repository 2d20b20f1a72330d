package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/aq-forecast-gateway/internal/domain"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/robfig/cron/v3"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr           string
	LogLevel           string
	LogFormat          string
	ShutdownTimeout    time.Duration
	CORSAllowedOrigins []string
	MaxUploadBytes     int64

	// Prediction API configuration.
	PredictAPIURL     string
	PredictAPITimeout time.Duration
	ModelCacheSize    int

	// Dashboard sessions kept for latest-wins arbitration.
	SessionCacheSize int

	// Monitoring site catalog. SitesFile overrides the built-in sites.
	SitesFile string
	Sites     []domain.Site

	// Result publishing (feature-flagged via PUBLISH_ENABLED / KAFKA_BROKERS).
	KafkaBrokers      []string
	KafkaResultsTopic string
	PublishEnabled    bool

	// Cron spec for the live refresher. Empty disables it.
	LiveRefreshSchedule string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	apiTimeout, err := time.ParseDuration(sharedcfg.EnvOrDefault("PREDICT_API_TIMEOUT", "30s"))
	if err != nil || apiTimeout <= 0 {
		return nil, errors.New("invalid PREDICT_API_TIMEOUT")
	}

	maxUpload, err := parsePositiveInt("MAX_UPLOAD_BYTES", 5<<20)
	if err != nil {
		return nil, err
	}
	modelCacheSize, err := parsePositiveInt("MODEL_CACHE_SIZE", 64)
	if err != nil {
		return nil, err
	}
	sessionCacheSize, err := parsePositiveInt("SESSION_CACHE_SIZE", 1000)
	if err != nil {
		return nil, err
	}

	var brokers []string
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		brokers = sharedcfg.ParseBrokers(v)
	}
	publishEnabled := len(brokers) > 0
	if v := os.Getenv("PUBLISH_ENABLED"); v != "" {
		publishEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:          sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:    shutdownTimeout,
		CORSAllowedOrigins: splitList(sharedcfg.EnvOrDefault("CORS_ALLOWED_ORIGINS", "*")),
		MaxUploadBytes:     int64(maxUpload),

		PredictAPIURL:     strings.TrimRight(sharedcfg.EnvOrDefault("PREDICT_API_URL", "http://localhost:8000"), "/"),
		PredictAPITimeout: apiTimeout,
		ModelCacheSize:    modelCacheSize,
		SessionCacheSize:  sessionCacheSize,

		SitesFile: os.Getenv("SITES_FILE"),

		KafkaBrokers:      brokers,
		KafkaResultsTopic: sharedcfg.EnvOrDefault("KAFKA_RESULTS_TOPIC", "aq-forecast-results"),
		PublishEnabled:    publishEnabled,

		LiveRefreshSchedule: os.Getenv("LIVE_REFRESH_SCHEDULE"),
	}

	if u, err := url.Parse(cfg.PredictAPIURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid PREDICT_API_URL %q", cfg.PredictAPIURL)
	}
	if cfg.PublishEnabled && len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("PUBLISH_ENABLED is true but KAFKA_BROKERS is not set")
	}
	if cfg.PublishEnabled && cfg.KafkaResultsTopic == "" {
		return nil, errors.New("KAFKA_RESULTS_TOPIC is required")
	}
	if cfg.LiveRefreshSchedule != "" {
		if _, err := cron.ParseStandard(cfg.LiveRefreshSchedule); err != nil {
			return nil, fmt.Errorf("invalid LIVE_REFRESH_SCHEDULE: %w", err)
		}
	}

	cfg.Sites = domain.DefaultSites()
	if cfg.SitesFile != "" {
		sites, err := LoadSites(cfg.SitesFile)
		if err != nil {
			return nil, err
		}
		cfg.Sites = sites
	}

	return cfg, nil
}

func parsePositiveInt(key string, fallback int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive integer", key, s)
	}
	return n, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
