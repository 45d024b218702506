package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"

	"github.com/orsreshef/travel-route-planner/internal/services"
)

type Config struct {
	Port     string
	Env      string
	LogLevel string

	ORSAPIKey        string
	ORSBaseURL       string
	CountriesBaseURL string

	// DatabaseURL selects Postgres; otherwise the SQLite file at DBPath is used.
	DatabaseURL string
	DBPath      string

	// RedisURL enables the shared rate limiter; empty keeps it process-local.
	RedisURL             string
	ORSRequestsPerMinute int

	RequestTimeout time.Duration
	Planner        services.PlannerConfig
}

// Get returns the environment value for key, or fallback when unset.
func Get(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

// LoadDotEnv reads .env when present. A missing file is not an error.
func LoadDotEnv() bool {
	return godotenv.Load() == nil
}

// Load builds the configuration from the environment and the optional
// SEARCH_POLICY_FILE.
func Load() (Config, error) {
	cfg := Config{
		Port:             Get("PORT", "8080"),
		Env:              Get("APP_ENV", "production"),
		LogLevel:         Get("LOG_LEVEL", "info"),
		ORSAPIKey:        Get("ORS_API_KEY", ""),
		ORSBaseURL:       Get("ORS_BASE_URL", "https://api.openrouteservice.org"),
		CountriesBaseURL: Get("COUNTRIES_BASE_URL", "https://restcountries.com/v3.1"),
		DatabaseURL:      Get("DATABASE_URL", ""),
		DBPath:           Get("DB_PATH", "data/app.db"),
		RedisURL:         Get("REDIS_URL", ""),
		Planner:          services.DefaultPlannerConfig(),
	}

	if cfg.ORSAPIKey == "" {
		return Config{}, errors.New("config: ORS_API_KEY is required")
	}

	rpm, err := strconv.Atoi(Get("ORS_REQUESTS_PER_MINUTE", "40"))
	if err != nil {
		return Config{}, fmt.Errorf("config: ORS_REQUESTS_PER_MINUTE: %w", err)
	}
	cfg.ORSRequestsPerMinute = rpm

	cfg.RequestTimeout, err = time.ParseDuration(Get("REQUEST_TIMEOUT", "90s"))
	if err != nil {
		return Config{}, fmt.Errorf("config: REQUEST_TIMEOUT: %w", err)
	}

	if path := Get("SEARCH_POLICY_FILE", ""); path != "" {
		cfg.Planner, err = LoadPolicyFile(path, cfg.Planner)
		if err != nil {
			return Config{}, err
		}
	}

	return cfg, nil
}

// LoadPolicyFile overlays the YAML file at path onto base. Keys missing from
// the file keep their base values.
func LoadPolicyFile(path string, base services.PlannerConfig) (services.PlannerConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return services.PlannerConfig{}, fmt.Errorf("config: read policy file %q: %w", path, err)
	}
	return ParsePolicy(b, base)
}

func ParsePolicy(b []byte, base services.PlannerConfig) (services.PlannerConfig, error) {
	out := base
	if err := yaml.Unmarshal(b, &out); err != nil {
		return services.PlannerConfig{}, fmt.Errorf("config: parse policy: %w", err)
	}
	if err := validatePolicy(out); err != nil {
		return services.PlannerConfig{}, err
	}
	return out, nil
}

func validatePolicy(p services.PlannerConfig) error {
	switch {
	case p.MaxAttempts < 1:
		return fmt.Errorf("config: max_attempts must be at least 1, got %d", p.MaxAttempts)
	case p.CyclingDays < 2:
		return fmt.Errorf("config: cycling_days must be at least 2, got %d", p.CyclingDays)
	case p.Walking.SettleAfter < 0 || p.Cycling.SettleAfter < 0:
		return errors.New("config: settle_after must not be negative")
	case p.Walking.TransientRetries < 0 || p.Cycling.TransientRetries < 0:
		return errors.New("config: transient_retries must not be negative")
	case p.Tuning.RadialMinKm <= 0 || p.Tuning.RadialMinKm > p.Tuning.RadialMaxKm:
		return fmt.Errorf("config: radial range %.1f-%.1f km is malformed", p.Tuning.RadialMinKm, p.Tuning.RadialMaxKm)
	case p.Tuning.RadialReferenceKm < 0:
		return fmt.Errorf("config: radial_reference_km must not be negative, got %.1f", p.Tuning.RadialReferenceKm)
	case p.Tuning.MinRingPoints < 3 || p.Tuning.MinRingPoints > p.Tuning.MaxRingPoints:
		return fmt.Errorf("config: ring points %d-%d are malformed", p.Tuning.MinRingPoints, p.Tuning.MaxRingPoints)
	}
	return nil
}
