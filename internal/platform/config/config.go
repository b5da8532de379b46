package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds runtime configuration loaded from environment variables.
type Config struct {
	Port                  string
	GinMode               string
	LogMode               string
	FirebaseProjectID     string
	FirebaseCredsBase64   string
	FirebaseCredsFile     string
	FirestoreEmulatorHost string
	AllowedOrigins        string
	JWTSecretKey          string
	RedisAddr             string
	RedisPassword         string
	CatalogCacheTTL       time.Duration
	IngestWorkers         int
	IngestQueueSize       int
	SeedEndpointEnabled   bool
}

// Load reads environment variables into a Config with sensible defaults.
func Load() (Config, error) {
	cfg := Config{
		Port:                  getEnv("PORT", "8080"),
		GinMode:               getEnv("GIN_MODE", "release"),
		LogMode:               getEnv("LOG_MODE", "production"),
		FirebaseProjectID:     strings.TrimSpace(os.Getenv("FIREBASE_PROJECT_ID")),
		FirebaseCredsBase64:   strings.TrimSpace(os.Getenv("FIREBASE_CREDS_BASE64")),
		FirebaseCredsFile:     strings.TrimSpace(os.Getenv("FIREBASE_CREDS_FILE")),
		FirestoreEmulatorHost: strings.TrimSpace(os.Getenv("FIRESTORE_EMULATOR_HOST")),
		AllowedOrigins:        strings.TrimSpace(os.Getenv("ALLOWED_ORIGINS")),
		JWTSecretKey:          strings.TrimSpace(os.Getenv("JWT_SECRET_KEY")),
		RedisAddr:             strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
	}

	var err error
	if cfg.CatalogCacheTTL, err = parseDurationEnv("CATALOG_CACHE_TTL", 10*time.Minute); err != nil {
		return Config{}, fmt.Errorf("parse CATALOG_CACHE_TTL: %w", err)
	}
	if cfg.IngestWorkers, err = parseIntEnv("INGEST_WORKERS", 2); err != nil {
		return Config{}, fmt.Errorf("parse INGEST_WORKERS: %w", err)
	}
	if cfg.IngestQueueSize, err = parseIntEnv("INGEST_QUEUE_SIZE", 64); err != nil {
		return Config{}, fmt.Errorf("parse INGEST_QUEUE_SIZE: %w", err)
	}
	if cfg.SeedEndpointEnabled, err = parseBoolEnv("SEED_ENDPOINT_ENABLED", false); err != nil {
		return Config{}, fmt.Errorf("parse SEED_ENDPOINT_ENABLED: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate ensures required fields are present.
func (c Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.FirebaseProjectID == "" {
		return errors.New("FIREBASE_PROJECT_ID is required")
	}
	if c.FirestoreEmulatorHost == "" && c.FirebaseCredsBase64 == "" && c.FirebaseCredsFile == "" {
		return errors.New("provide FIREBASE_CREDS_BASE64 or FIREBASE_CREDS_FILE for Firestore auth (or FIRESTORE_EMULATOR_HOST)")
	}
	if c.JWTSecretKey == "" {
		return errors.New("JWT_SECRET_KEY is required")
	}
	if c.IngestWorkers <= 0 {
		return errors.New("INGEST_WORKERS must be positive")
	}
	if c.IngestQueueSize <= 0 {
		return errors.New("INGEST_QUEUE_SIZE must be positive")
	}
	return nil
}

// UsesEmulator reports whether the Firestore emulator should be used instead of real credentials.
func (c Config) UsesEmulator() bool {
	return c.FirestoreEmulatorHost != ""
}

// FirebaseCredentialsJSON returns the service account JSON bytes and the source used.
func (c Config) FirebaseCredentialsJSON() ([]byte, string, error) {
	if c.FirebaseCredsBase64 != "" {
		decoded, err := base64.StdEncoding.DecodeString(c.FirebaseCredsBase64)
		if err != nil {
			return nil, "base64", fmt.Errorf("decode FIREBASE_CREDS_BASE64: %w", err)
		}
		return decoded, "base64", nil
	}
	if c.FirebaseCredsFile != "" {
		data, err := os.ReadFile(c.FirebaseCredsFile)
		if err != nil {
			return nil, "file", fmt.Errorf("read FIREBASE_CREDS_FILE: %w", err)
		}
		return data, "file", nil
	}
	return nil, "", errors.New("no firebase credentials found")
}

func getEnv(key, defaultVal string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return defaultVal
}

func parseBoolEnv(key string, defaultVal bool) (bool, error) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return defaultVal, nil
	}
	return strconv.ParseBool(val)
}

func parseIntEnv(key string, defaultVal int) (int, error) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return defaultVal, nil
	}
	return strconv.Atoi(val)
}

func parseDurationEnv(key string, defaultVal time.Duration) (time.Duration, error) {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return defaultVal, nil
	}
	return time.ParseDuration(val)
}
