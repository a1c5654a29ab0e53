package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPaths(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	assert.Equal(t, filepath.Join(home, ".pensieve"), DataDir())
	assert.Equal(t, filepath.Join(home, ".pensieve", "learnings.db"), DBPath())
	assert.Equal(t, filepath.Join(home, ".pensieve", "settings.json"), SettingsPath())

	cfg := Default()
	assert.Equal(t, DBPath(), cfg.DBPath)
	assert.Equal(t, DefaultMaxConns, cfg.MaxConns)
	assert.Equal(t, DefaultBusyTimeoutMS, cfg.BusyTimeoutMS)
	assert.Equal(t, DefaultQueryLimit, cfg.QueryLimit)
}

func TestEnsureAll(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	require.NoError(t, EnsureAll())

	info, err := os.Stat(DataDir())
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	data, err := os.ReadFile(SettingsPath())
	require.NoError(t, err)
	assert.Contains(t, string(data), "PENSIEVE_MAX_CONNS")

	// A second call must not rewrite an existing settings file.
	require.NoError(t, os.WriteFile(SettingsPath(), []byte(`{"PENSIEVE_MAX_CONNS": 9}`), 0o600))
	require.NoError(t, EnsureAll())
	data, err = os.ReadFile(SettingsPath())
	require.NoError(t, err)
	assert.Contains(t, string(data), `"PENSIEVE_MAX_CONNS": 9`)
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name     string
		settings string // empty means no settings file
		env      map[string]string
		check    func(t *testing.T, cfg *Config)
	}{
		{
			name: "no settings file yields defaults",
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, DefaultMaxConns, cfg.MaxConns)
				assert.Equal(t, DefaultBusyTimeoutMS, cfg.BusyTimeoutMS)
			},
		},
		{
			name:     "malformed settings file yields defaults",
			settings: "{not json",
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, DefaultMaxConns, cfg.MaxConns)
				assert.Equal(t, DBPath(), cfg.DBPath)
			},
		},
		{
			name:     "settings file overrides defaults",
			settings: `{"PENSIEVE_DB_PATH": "/tmp/other.db", "PENSIEVE_MAX_CONNS": 8, "PENSIEVE_QUERY_LIMIT": 50}`,
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "/tmp/other.db", cfg.DBPath)
				assert.Equal(t, 8, cfg.MaxConns)
				assert.Equal(t, 50, cfg.QueryLimit)
				assert.Equal(t, DefaultBusyTimeoutMS, cfg.BusyTimeoutMS)
			},
		},
		{
			name:     "environment overrides settings file",
			settings: `{"PENSIEVE_DB_PATH": "/tmp/from-file.db"}`,
			env: map[string]string{
				"PENSIEVE_DB_PATH":         "/tmp/from-env.db",
				"PENSIEVE_BUSY_TIMEOUT_MS": "250",
			},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, "/tmp/from-env.db", cfg.DBPath)
				assert.Equal(t, 250, cfg.BusyTimeoutMS)
			},
		},
		{
			name: "non-numeric environment timeout is ignored",
			env:  map[string]string{"PENSIEVE_BUSY_TIMEOUT_MS": "soon"},
			check: func(t *testing.T, cfg *Config) {
				assert.Equal(t, DefaultBusyTimeoutMS, cfg.BusyTimeoutMS)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			home := t.TempDir()
			t.Setenv("HOME", home)
			t.Setenv("PENSIEVE_DB_PATH", "")
			t.Setenv("PENSIEVE_BUSY_TIMEOUT_MS", "")

			if tt.settings != "" {
				require.NoError(t, EnsureDataDir())
				require.NoError(t, os.WriteFile(SettingsPath(), []byte(tt.settings), 0o600))
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}
