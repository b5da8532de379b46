package config

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setBaseEnv(t *testing.T) {
	t.Setenv("FIREBASE_PROJECT_ID", "friends-feed-test")
	t.Setenv("FIREBASE_CREDS_BASE64", base64.StdEncoding.EncodeToString([]byte(`{"type":"service_account"}`)))
	t.Setenv("JWT_SECRET_KEY", "secret")
}

func TestLoadDefaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "release", cfg.GinMode)
	assert.Equal(t, 10*time.Minute, cfg.CatalogCacheTTL)
	assert.Equal(t, 2, cfg.IngestWorkers)
	assert.Equal(t, 64, cfg.IngestQueueSize)
	assert.False(t, cfg.SeedEndpointEnabled)

	creds, source, err := cfg.FirebaseCredentialsJSON()
	require.NoError(t, err)
	assert.Equal(t, "base64", source)
	assert.JSONEq(t, `{"type":"service_account"}`, string(creds))
}

func TestLoadOverrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("INGEST_WORKERS", "4")
	t.Setenv("CATALOG_CACHE_TTL", "30s")
	t.Setenv("SEED_ENDPOINT_ENABLED", "true")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.IngestWorkers)
	assert.Equal(t, 30*time.Second, cfg.CatalogCacheTTL)
	assert.True(t, cfg.SeedEndpointEnabled)
}

func TestLoadEmulatorNeedsNoCreds(t *testing.T) {
	t.Setenv("FIREBASE_PROJECT_ID", "friends-feed-test")
	t.Setenv("FIREBASE_CREDS_BASE64", "")
	t.Setenv("FIREBASE_CREDS_FILE", "")
	t.Setenv("FIRESTORE_EMULATOR_HOST", "localhost:8081")
	t.Setenv("JWT_SECRET_KEY", "secret")

	cfg, err := Load()
	require.NoError(t, err)
	assert.True(t, cfg.UsesEmulator())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"missing project", func(c *Config) { c.FirebaseProjectID = "" }, "FIREBASE_PROJECT_ID"},
		{"missing creds", func(c *Config) { c.FirebaseCredsBase64 = "" }, "FIREBASE_CREDS_BASE64"},
		{"missing jwt secret", func(c *Config) { c.JWTSecretKey = "" }, "JWT_SECRET_KEY"},
		{"zero workers", func(c *Config) { c.IngestWorkers = 0 }, "INGEST_WORKERS"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Config{
				Port:                "8080",
				FirebaseProjectID:   "p",
				FirebaseCredsBase64: "e30=",
				JWTSecretKey:        "s",
				IngestWorkers:       1,
				IngestQueueSize:     1,
			}
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadRejectsBadInt(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("INGEST_WORKERS", "many")
	_, err := Load()
	assert.ErrorContains(t, err, "INGEST_WORKERS")
}
