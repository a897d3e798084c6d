package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	t.Setenv("ACCESS_TOKEN_TTL", "15m")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, StorageDriverMemory, cfg.StorageDriver)
	assert.Equal(t, 15*time.Minute, cfg.AccessTokenTTL)
	assert.NotEmpty(t, cfg.JWTSecret)
	assert.NotEmpty(t, cfg.PaymentWebhookSecret)
	assert.Len(t, cfg.AllowedOrigins, 2)
}

func TestFromEnv_DatabaseURLFromParts(t *testing.T) {
	t.Setenv("APP_ENV", "development")
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("POSTGRESQL_HOST", "db")
	t.Setenv("POSTGRESQL_USER", "app")
	t.Setenv("POSTGRESQL_PASSWORD", "p@ss")
	t.Setenv("POSTGRESQL_DBNAME", "projects")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, "postgres://app:p%40ss@db:5432/projects?sslmode=disable", cfg.DatabaseURL)
}

func TestFromEnv_ProductionRequiresSecrets(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SECRET", "short")

	_, err := FromEnv()
	assert.Error(t, err)

	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("PAYMENT_WEBHOOK_SECRET", "whsec")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("STORAGE_DRIVER", "postgres")

	cfg, err := FromEnv()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.True(t, cfg.IsProduction())
}

func TestFromEnv_InvalidValues(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "mongo")
	_, err := FromEnv()
	assert.Error(t, err)

	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("RATE_LIMIT_PERIOD", "минута")
	_, err = FromEnv()
	assert.Error(t, err)
}
