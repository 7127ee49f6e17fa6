package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("STUDENTMS_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, "school.db", cfg.Database.Path)
	assert.Equal(t, 5*time.Second, cfg.Database.QueryTimeout)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, InconsistencyResync, cfg.Mirror.OnInconsistency)
	assert.Equal(t, "info", cfg.Observability.LogLevel)
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "studentms.yaml")
	yml := `
database:
  driver: sqlite
  path: /tmp/from-file.db
  query_timeout: 2s
redis:
  enabled: true
  port: 6380
observability:
  log_level: debug
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o600))

	t.Setenv("STUDENTMS_CONFIG", path)
	t.Setenv("DB_PATH", "/tmp/from-env.db")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/from-env.db", cfg.Database.Path, "env wins over file")
	assert.Equal(t, 2*time.Second, cfg.Database.QueryTimeout)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, 6380, cfg.Redis.Port)
	assert.Equal(t, "debug", cfg.Observability.LogLevel)
}

func TestLoad_BadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "studentms.yaml")
	require.NoError(t, os.WriteFile(path, []byte("database: [oops"), 0o600))
	t.Setenv("STUDENTMS_CONFIG", path)

	_, err := Load()
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults are valid",
			mutate: func(*Config) {},
		},
		{
			name:    "postgres needs url",
			mutate:  func(c *Config) { c.Database.Driver = DriverPostgres },
			wantErr: "DATABASE_URL",
		},
		{
			name:    "unknown driver",
			mutate:  func(c *Config) { c.Database.Driver = "mysql" },
			wantErr: "DB_DRIVER",
		},
		{
			name:   "memory needs nothing",
			mutate: func(c *Config) { c.Database.Driver = DriverMemory; c.Database.Path = "" },
		},
		{
			name:    "unknown inconsistency policy",
			mutate:  func(c *Config) { c.Mirror.OnInconsistency = "ignore" },
			wantErr: "MIRROR_INCONSISTENCY",
		},
		{
			name:    "zero attempts",
			mutate:  func(c *Config) { c.Database.ConnectAttempts = 0 },
			wantErr: "DB_CONNECT_ATTEMPTS",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
