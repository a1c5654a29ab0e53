// Package config provides configuration management for pensieve.
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"sync"

	json "github.com/goccy/go-json"
)

const (
	dataDirName      = ".pensieve"
	dbFileName       = "learnings.db"
	settingsFileName = "settings.json"

	// DefaultMaxConns is the connection pool size for a store handle.
	DefaultMaxConns = 4
	// DefaultBusyTimeoutMS bounds how long a writer waits for the store lock
	// before the call fails with a busy condition.
	DefaultBusyTimeoutMS = 5000
	// DefaultQueryLimit caps result sets when the caller gives no limit.
	DefaultQueryLimit = 20
)

// Config holds runtime configuration for pensieve binaries.
type Config struct {
	DBPath        string
	MaxConns      int
	BusyTimeoutMS int
	QueryLimit    int
}

// settings is the on-disk shape of settings.json. Keys are flat and
// SCREAMING_SNAKE so the installer can merge them into host config files.
type settings struct {
	DBPath        string `json:"PENSIEVE_DB_PATH"`
	MaxConns      int    `json:"PENSIEVE_MAX_CONNS"`
	BusyTimeoutMS int    `json:"PENSIEVE_BUSY_TIMEOUT_MS"`
	QueryLimit    int    `json:"PENSIEVE_QUERY_LIMIT"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		DBPath:        DBPath(),
		MaxConns:      DefaultMaxConns,
		BusyTimeoutMS: DefaultBusyTimeoutMS,
		QueryLimit:    DefaultQueryLimit,
	}
}

// DataDir returns the per-user pensieve data directory.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, dataDirName)
}

// DBPath returns the default ledger database path.
func DBPath() string {
	return filepath.Join(DataDir(), dbFileName)
}

// SettingsPath returns the settings file path.
func SettingsPath() string {
	return filepath.Join(DataDir(), settingsFileName)
}

// EnsureDataDir creates the data directory if it does not exist.
func EnsureDataDir() error {
	return os.MkdirAll(DataDir(), 0o750)
}

// EnsureSettings writes a default settings file if none exists.
func EnsureSettings() error {
	path := SettingsPath()
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	data, err := json.MarshalIndent(settings{
		MaxConns:      DefaultMaxConns,
		BusyTimeoutMS: DefaultBusyTimeoutMS,
		QueryLimit:    DefaultQueryLimit,
	}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// EnsureAll creates the data directory and default settings file.
func EnsureAll() error {
	if err := EnsureDataDir(); err != nil {
		return err
	}
	return EnsureSettings()
}

// Load reads settings.json and applies environment overrides on top of the
// defaults. A missing or malformed settings file is not an error: pensieve
// must keep working with defaults when the user has no configuration.
func Load() (*Config, error) {
	cfg := Default()

	if data, err := os.ReadFile(SettingsPath()); err == nil {
		var s settings
		if err := json.Unmarshal(data, &s); err == nil {
			if s.DBPath != "" {
				cfg.DBPath = s.DBPath
			}
			if s.MaxConns > 0 {
				cfg.MaxConns = s.MaxConns
			}
			if s.BusyTimeoutMS > 0 {
				cfg.BusyTimeoutMS = s.BusyTimeoutMS
			}
			if s.QueryLimit > 0 {
				cfg.QueryLimit = s.QueryLimit
			}
		}
	}

	if v := os.Getenv("PENSIEVE_DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("PENSIEVE_BUSY_TIMEOUT_MS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.BusyTimeoutMS = n
		}
	}

	return cfg, nil
}

var (
	globalOnce sync.Once
	globalCfg  *Config
)

// Get returns the process-wide configuration, loading it once. Only the cmd
// boundary should call this; library code takes explicit parameters.
func Get() *Config {
	globalOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			cfg = Default()
		}
		globalCfg = cfg
	})
	return globalCfg
}
