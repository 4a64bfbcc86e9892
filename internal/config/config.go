// Package config loads and stores CLI configuration in the XDG config dir.
// Only non-secret connection defaults are kept here; passwords are resolved
// through the environment, the pgpass file, or an interactive prompt.
package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"

	"datashelf/cli/internal/xdg"

	"github.com/joho/godotenv"
)

// Defaults for the hosted research catalog. Overridable via config file,
// .env, or PG* environment variables.
const (
	DefaultHost     = "pgdata.datashelf.io"
	DefaultPort     = 9737
	DefaultDatabase = "shelf"
	DefaultSSLMode  = "require"
)

// Config holds non-sensitive connection defaults.
type Config struct {
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Database string `json:"database"`
	SSLMode  string `json:"sslmode"`
	LogLevel string `json:"log_level"`
}

// path returns the path to the config file.
func path() (string, error) {
	dir, err := xdg.ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads configuration; a missing file returns defaults.
// A .env file in the working directory is folded into the process
// environment first so PG* variables set there are visible to the
// credential resolver.
func Load() (Config, error) {
	// Missing .env is fine; only the current process env is touched.
	_ = godotenv.Load()

	c := Config{
		Host:     DefaultHost,
		Port:     DefaultPort,
		Database: DefaultDatabase,
		SSLMode:  DefaultSSLMode,
		LogLevel: "info",
	}
	p, err := path()
	if err != nil {
		return c, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return c, nil
		}
		return c, err
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return c, err
	}
	if c.Host == "" {
		c.Host = DefaultHost
	}
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.Database == "" {
		c.Database = DefaultDatabase
	}
	if c.SSLMode == "" {
		c.SSLMode = DefaultSSLMode
	}
	return c, nil
}

// Save writes configuration with 0600 permissions.
func Save(c Config) error {
	p, err := path()
	if err != nil {
		return err
	}
	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(p, b, 0o600)
}
