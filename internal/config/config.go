package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// AppConfig captures all tunable parameters for the booking app process.
// Values are primarily loaded from environment variables with sane defaults
// so the binary can run locally without excessive setup.
type AppConfig struct {
	HTTPAddr        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	GeoapifyBaseURL string
	GeoapifyAPIKey  string

	RideServiceURL string

	StripeAPIKey string
	Currency     string

	PollInterval      time.Duration
	DiscoveryInterval time.Duration
	AdvanceDriver     bool

	RedisAddr     string
	RedisPassword string
	RouteCacheTTL time.Duration

	KafkaBrokers []string
	KafkaTopic   string

	LogLevel string
}

func defaultAppConfig() AppConfig {
	return AppConfig{
		HTTPAddr:          ":8080",
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
		ShutdownTimeout:   15 * time.Second,
		GeoapifyBaseURL:   "https://api.geoapify.com/v1",
		RideServiceURL:    "http://localhost:4000",
		Currency:          "inr",
		PollInterval:      time.Second,
		DiscoveryInterval: 5 * time.Second,
		AdvanceDriver:     true,
		RouteCacheTTL:     5 * time.Minute,
		KafkaTopic:        "ride-lifecycle",
		LogLevel:          "info",
	}
}

func LoadAppConfig() (AppConfig, error) {
	cfg := defaultAppConfig()
	var errs []error

	setStringFromEnv(&cfg.HTTPAddr, "HTTP_ADDR")
	setDurationFromEnv(&cfg.ReadTimeout, "HTTP_READ_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.WriteTimeout, "HTTP_WRITE_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.IdleTimeout, "HTTP_IDLE_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.ShutdownTimeout, "HTTP_SHUTDOWN_TIMEOUT", &errs)

	setStringFromEnv(&cfg.GeoapifyBaseURL, "GEOAPIFY_BASE_URL")
	cfg.GeoapifyAPIKey = strings.TrimSpace(os.Getenv("GEOAPIFY_API_KEY"))

	setStringFromEnv(&cfg.RideServiceURL, "RIDE_SERVICE_URL")

	cfg.StripeAPIKey = strings.TrimSpace(os.Getenv("STRIPE_API_KEY"))
	setStringFromEnv(&cfg.Currency, "PAYMENT_CURRENCY")

	setDurationFromEnv(&cfg.PollInterval, "TRIP_POLL_INTERVAL", &errs)
	setDurationFromEnv(&cfg.DiscoveryInterval, "TRIP_DISCOVERY_INTERVAL", &errs)
	setBoolFromEnv(&cfg.AdvanceDriver, "TRIP_ADVANCE_DRIVER")

	cfg.RedisAddr = strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	setDurationFromEnv(&cfg.RouteCacheTTL, "ROUTE_CACHE_TTL", &errs)

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = splitAndTrim(brokers)
	}
	setStringFromEnv(&cfg.KafkaTopic, "KAFKA_TOPIC")

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}

	if cfg.PollInterval <= 0 {
		errs = append(errs, fmt.Errorf("TRIP_POLL_INTERVAL must be > 0"))
	}
	if cfg.DiscoveryInterval <= 0 {
		errs = append(errs, fmt.Errorf("TRIP_DISCOVERY_INTERVAL must be > 0"))
	}

	return cfg, errors.Join(errs...)
}

// SimConfig captures the parameters of the development ride-state service.
type SimConfig struct {
	HTTPAddr        string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration

	PGDSN         string
	RunMigrations bool

	DriverStepKm float64

	LogLevel string
}

func defaultSimConfig() SimConfig {
	return SimConfig{
		HTTPAddr:        ":4000",
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    10 * time.Second,
		ShutdownTimeout: 15 * time.Second,
		DriverStepKm:    0.8,
		LogLevel:        "info",
	}
}

func LoadSimConfig() (SimConfig, error) {
	cfg := defaultSimConfig()
	var errs []error

	setStringFromEnv(&cfg.HTTPAddr, "SIM_HTTP_ADDR")
	setDurationFromEnv(&cfg.ReadTimeout, "SIM_READ_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.WriteTimeout, "SIM_WRITE_TIMEOUT", &errs)
	setDurationFromEnv(&cfg.ShutdownTimeout, "SIM_SHUTDOWN_TIMEOUT", &errs)

	cfg.PGDSN = os.Getenv("PG_DSN")
	cfg.RunMigrations = strings.EqualFold(os.Getenv("MIGRATE"), "true")

	setFloatFromEnv(&cfg.DriverStepKm, "SIM_DRIVER_STEP_KM", &errs)

	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = strings.ToLower(v)
	}

	if cfg.DriverStepKm <= 0 {
		errs = append(errs, fmt.Errorf("SIM_DRIVER_STEP_KM must be > 0"))
	}

	return cfg, errors.Join(errs...)
}

func setDurationFromEnv(target *time.Duration, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = d
	}
}

func setFloatFromEnv(target *float64, key string, errs *[]error) {
	if v := os.Getenv(key); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			*errs = append(*errs, fmt.Errorf("invalid %s: %w", key, err))
			return
		}
		*target = f
	}
}

func setBoolFromEnv(target *bool, key string) {
	if v := os.Getenv(key); v != "" {
		*target = strings.EqualFold(v, "true")
	}
}

func setStringFromEnv(target *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*target = v
	}
}

func splitAndTrim(v string) []string {
	raw := strings.Split(v, ",")
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		r = strings.TrimSpace(r)
		if r == "" {
			continue
		}
		out = append(out, r)
	}
	return out
}
