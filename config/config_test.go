package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("ENV", "test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, DriverMemory, cfg.DBDriver)
	assert.Equal(t, 5*time.Second, cfg.NotifyTimeout)
	assert.Equal(t, "120", cfg.DefaultPrice().String())
	assert.Len(t, cfg.SessionSecret, 64)
	assert.False(t, cfg.AdminConfigured())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/ceramics")
	t.Setenv("ADMIN_USERNAME", "admin")
	t.Setenv("ADMIN_PASSWORD", "hunter22")
	t.Setenv("SESSION_SECRET", "0123456789abcdef0123")
	t.Setenv("DEFAULT_PRICE_PER_PERSON", "95.50")
	t.Setenv("NOTIFY_TIMEOUT", "2s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres://localhost:5432/ceramics", cfg.DatabaseURL)
	assert.True(t, cfg.AdminConfigured())
	assert.Equal(t, "95.5", cfg.DefaultPrice().String())
	assert.Equal(t, 2*time.Second, cfg.NotifyTimeout)
}

func TestLoadRequiresDatabaseURLForPostgres(t *testing.T) {
	t.Setenv("DB_DRIVER", "postgres")
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsUnknownDriver(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", "file.db")

	_, err := Load()
	assert.Error(t, err)
}

func TestProductionRequiresSessionSecret(t *testing.T) {
	t.Setenv("ENV", "production")
	t.Setenv("DB_DRIVER", "memory")
	t.Setenv("SESSION_SECRET", "")

	_, err := Load()
	assert.Error(t, err)
}
