package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	defaultAppEnv         = "development"
	defaultPort           = "8080"
	defaultStorageBackend = StorageSupabase
	defaultBucket         = "generated-images"
	defaultLocalDir       = "./uploads"
	defaultRetention      = "48h"
	defaultPlan           = "free"
	defaultBatchSize      = 100
	defaultTimeout        = "55s"
	defaultLogLevel       = "info"
	defaultLogFormat      = "text"

	maxBatchSize = 1000
)

// Storage backends accepted by STORAGE_BACKEND.
const (
	StorageSupabase = "supabase"
	StorageLocal    = "local"
)

type RuntimeConfig struct {
	AppEnv string
	Port   string

	DatabaseURL string

	StorageBackend         string
	SupabaseURL            string
	SupabaseServiceRoleKey string
	StorageBucket          string
	StorageURLMarker       string
	LocalStorageDir        string

	CronSecret string

	CleanupRetention time.Duration
	CleanupPlan      string
	CleanupBatchSize int
	CleanupTimeout   time.Duration
	CleanupSchedule  string

	LogLevel  string
	LogFormat string

	// Warnings collects non-fatal findings made while loading; callers log them
	// once a logger exists.
	Warnings []string
}

func LoadRuntimeConfig() (*RuntimeConfig, error) {
	cfg := &RuntimeConfig{}
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = strings.TrimSpace(os.Getenv("ENV"))
	}
	if appEnv == "" {
		appEnv = defaultAppEnv
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.Port = strings.TrimSpace(getEnv("PORT", defaultPort))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))

	cfg.StorageBackend = strings.ToLower(strings.TrimSpace(getEnv("STORAGE_BACKEND", defaultStorageBackend)))
	cfg.SupabaseURL = strings.TrimRight(strings.TrimSpace(os.Getenv("SUPABASE_URL")), "/")
	cfg.SupabaseServiceRoleKey = strings.TrimSpace(os.Getenv("SUPABASE_SERVICE_ROLE_KEY"))
	cfg.StorageBucket = strings.TrimSpace(getEnv("STORAGE_BUCKET", defaultBucket))
	cfg.StorageURLMarker = strings.TrimSpace(os.Getenv("STORAGE_URL_MARKER"))
	if cfg.StorageURLMarker == "" {
		cfg.StorageURLMarker = DefaultURLMarker(cfg.StorageBucket)
	}
	cfg.LocalStorageDir = strings.TrimSpace(getEnv("LOCAL_STORAGE_DIR", defaultLocalDir))

	cfg.CronSecret = strings.TrimSpace(os.Getenv("CRON_SECRET"))

	var err error
	cfg.CleanupRetention, err = parseDurationEnv("CLEANUP_RETENTION", defaultRetention)
	if err != nil {
		return nil, err
	}
	cfg.CleanupTimeout, err = parseDurationEnv("CLEANUP_TIMEOUT", defaultTimeout)
	if err != nil {
		return nil, err
	}
	cfg.CleanupBatchSize, err = parseIntEnv("CLEANUP_BATCH_SIZE", defaultBatchSize)
	if err != nil {
		return nil, err
	}
	cfg.CleanupPlan = strings.ToLower(strings.TrimSpace(getEnv("CLEANUP_PLAN", defaultPlan)))
	cfg.CleanupSchedule = strings.TrimSpace(os.Getenv("CLEANUP_SCHEDULE"))

	cfg.LogLevel = strings.ToLower(strings.TrimSpace(getEnv("LOG_LEVEL", defaultLogLevel)))
	cfg.LogFormat = strings.ToLower(strings.TrimSpace(getEnv("LOG_FORMAT", defaultLogFormat)))

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	if cfg.StorageBackend == StorageSupabase {
		if role, err := serviceKeyRole(cfg.SupabaseServiceRoleKey); err != nil {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("SUPABASE_SERVICE_ROLE_KEY is not a readable JWT: %v", err))
		} else if role != "service_role" {
			cfg.Warnings = append(cfg.Warnings, fmt.Sprintf("SUPABASE_SERVICE_ROLE_KEY has role %q, storage deletes may be rejected", role))
		}
	}

	return cfg, nil
}

// IsDevelopment reports whether the cron endpoint may be called without a bearer secret.
func (c *RuntimeConfig) IsDevelopment() bool {
	return isDevelopment(c.AppEnv)
}

// DefaultURLMarker is the path segment that precedes the object key in a public
// Supabase Storage URL for bucket.
func DefaultURLMarker(bucket string) string {
	return "/storage/v1/object/public/" + bucket + "/"
}

func validateConfig(cfg *RuntimeConfig) error {
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	switch cfg.StorageBackend {
	case StorageSupabase:
		if cfg.SupabaseURL == "" {
			return fmt.Errorf("SUPABASE_URL is required when STORAGE_BACKEND=supabase")
		}
		if cfg.SupabaseServiceRoleKey == "" {
			return fmt.Errorf("SUPABASE_SERVICE_ROLE_KEY is required when STORAGE_BACKEND=supabase")
		}
	case StorageLocal:
		if cfg.LocalStorageDir == "" {
			return fmt.Errorf("LOCAL_STORAGE_DIR must not be empty when STORAGE_BACKEND=local")
		}
	default:
		return fmt.Errorf("STORAGE_BACKEND must be one of: supabase, local")
	}
	if cfg.StorageBucket == "" {
		return fmt.Errorf("STORAGE_BUCKET must not be empty")
	}
	if cfg.CleanupRetention <= 0 {
		return fmt.Errorf("CLEANUP_RETENTION must be > 0")
	}
	if cfg.CleanupTimeout <= 0 {
		return fmt.Errorf("CLEANUP_TIMEOUT must be > 0")
	}
	if cfg.CleanupBatchSize <= 0 || cfg.CleanupBatchSize > maxBatchSize {
		return fmt.Errorf("CLEANUP_BATCH_SIZE must be between 1 and %d", maxBatchSize)
	}
	if cfg.CleanupPlan == "" {
		return fmt.Errorf("CLEANUP_PLAN must not be empty")
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return fmt.Errorf("LOG_FORMAT must be one of: text, json")
	}

	return nil
}

// ValidateHTTP checks the settings only the API server needs.
func (c *RuntimeConfig) ValidateHTTP() error {
	if !c.IsDevelopment() && c.CronSecret == "" {
		return fmt.Errorf("outside development CRON_SECRET must be set")
	}
	return nil
}

// serviceKeyRole reads the role claim of a Supabase API key without verifying
// its signature; the key is only forwarded to Supabase, never trusted locally.
func serviceKeyRole(key string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(key, claims); err != nil {
		return "", err
	}
	role, _ := claims["role"].(string)
	return role, nil
}

func isDevelopment(env string) bool {
	env = strings.ToLower(strings.TrimSpace(env))
	return env == "dev" || env == "development" || env == "local"
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func parseIntEnv(name string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(name))
	if value == "" {
		return fallback, nil
	}
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
