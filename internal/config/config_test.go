package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDatabaseConfigDSN(t *testing.T) {
	d := DatabaseConfig{
		Host: "127.0.0.1", Port: 5432, User: "u", Password: "p", DBName: "db", SSLMode: "disable",
	}
	assert.Equal(t, "postgres://u:p@127.0.0.1:5432/db?sslmode=disable", d.DSN())

	d.MaxConns = 10
	d.MaxConnLifetime = "1h"
	assert.Equal(t,
		"postgres://u:p@127.0.0.1:5432/db?sslmode=disable&pool_max_conns=10&pool_max_conn_lifetime=1h",
		d.DSN(),
	)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultChannelServer(), cfg)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "channel.yaml")
	const body = `
bind_address: "10.0.0.1"
tick_rate_hz: 30
database:
  host: "db.internal"
  dbname: "shard1"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", cfg.BindAddress)
	assert.Equal(t, 30, cfg.TickRateHz)
	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, "shard1", cfg.Database.DBName)
	// Unset fields keep their defaults.
	assert.Equal(t, DefaultChannelServer().LogLevel, cfg.LogLevel)
}
