package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"equipment-booking-backend/internal/store"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  port: 9090\n"))
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 10.0, cfg.Server.RateLimitPerSec)
	assert.Equal(t, 20, cfg.Server.RateLimitBurst)
	assert.Equal(t, store.DriverMemory, cfg.Storage.Driver)
	assert.Equal(t, "promote", cfg.Inventory.OrphanPolicy)
	assert.Equal(t, 32, cfg.Inventory.MaxDepth)
	assert.False(t, cfg.Inventory.AllowDoubleBooking)
	assert.Equal(t, 64, cfg.Persistence.QueueSize)
	assert.Equal(t, "console", cfg.Log.Encoding)
}

func TestLoad_SampleFile(t *testing.T) {
	cfg, err := Load("config.yaml")
	require.NoError(t, err)
	assert.Equal(t, store.DriverSQLite, cfg.Storage.Driver)
	assert.Equal(t, "gearbook.db", cfg.Database.DSN)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown driver", "storage:\n  driver: mongo\n"},
		{"postgres without dsn", "storage:\n  driver: postgres\n"},
		{"s3 without bucket", "storage:\n  driver: s3\n"},
		{"unknown orphan policy", "inventory:\n  orphan_policy: adopt\n"},
		{"unknown encoding", "log:\n  encoding: xml\n"},
		{"bad yaml", "server: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("STORAGE_DRIVER", "postgres")
	t.Setenv("DATABASE_DSN", "host=db user=gear dbname=gear")

	cfg, err := Load(writeConfig(t, "storage:\n  driver: memory\n"))
	require.NoError(t, err)
	assert.Equal(t, store.DriverPostgres, cfg.Storage.Driver)
	assert.Equal(t, "host=db user=gear dbname=gear", cfg.Database.DSN)
}
