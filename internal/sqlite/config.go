// File path: internal/sqlite/config.go
package sqlite

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config controls the SQLite connection pool backing the catalog.
type Config struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	BusyTimeout     time.Duration
}

// Merge overlays non-zero fields from other onto a copy of c.
func (c Config) Merge(other Config) Config {
	merged := c
	if other.Path != "" {
		merged.Path = other.Path
	}
	if other.MaxOpenConns > 0 {
		merged.MaxOpenConns = other.MaxOpenConns
	}
	if other.MaxIdleConns > 0 {
		merged.MaxIdleConns = other.MaxIdleConns
	}
	if other.ConnMaxLifetime > 0 {
		merged.ConnMaxLifetime = other.ConnMaxLifetime
	}
	if other.ConnMaxIdleTime > 0 {
		merged.ConnMaxIdleTime = other.ConnMaxIdleTime
	}
	if other.BusyTimeout > 0 {
		merged.BusyTimeout = other.BusyTimeout
	}
	return merged
}

// LoadConfig builds the pool configuration from CAUSEWAY_SQLITE_* environment
// variables, falling back to defaults for anything unset.
func LoadConfig() (Config, error) {
	cfg, err := loadConfigEnv()
	if err != nil {
		return Config{}, err
	}
	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.MaxOpenConns <= 0 {
		c.MaxOpenConns = 8
	}
	if c.MaxIdleConns <= 0 {
		c.MaxIdleConns = 4
	}
	if c.MaxIdleConns > c.MaxOpenConns {
		c.MaxIdleConns = c.MaxOpenConns
	}
	if c.ConnMaxLifetime <= 0 {
		c.ConnMaxLifetime = 15 * time.Minute
	}
	if c.ConnMaxIdleTime <= 0 {
		c.ConnMaxIdleTime = 5 * time.Minute
	}
	if c.BusyTimeout <= 0 {
		c.BusyTimeout = 5 * time.Second
	}
}

func loadConfigEnv() (Config, error) {
	var cfg Config
	if v := os.Getenv("CAUSEWAY_SQLITE_PATH"); v != "" {
		cfg.Path = v
	}
	if v := os.Getenv("CAUSEWAY_SQLITE_MAX_OPEN_CONNS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse CAUSEWAY_SQLITE_MAX_OPEN_CONNS: %w", err)
		}
		cfg.MaxOpenConns = n
	}
	if v := os.Getenv("CAUSEWAY_SQLITE_MAX_IDLE_CONNS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse CAUSEWAY_SQLITE_MAX_IDLE_CONNS: %w", err)
		}
		cfg.MaxIdleConns = n
	}
	if v := os.Getenv("CAUSEWAY_SQLITE_CONN_MAX_LIFETIME"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse CAUSEWAY_SQLITE_CONN_MAX_LIFETIME: %w", err)
		}
		cfg.ConnMaxLifetime = d
	}
	if v := os.Getenv("CAUSEWAY_SQLITE_CONN_MAX_IDLE_TIME"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse CAUSEWAY_SQLITE_CONN_MAX_IDLE_TIME: %w", err)
		}
		cfg.ConnMaxIdleTime = d
	}
	if v := os.Getenv("CAUSEWAY_SQLITE_BUSY_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("parse CAUSEWAY_SQLITE_BUSY_TIMEOUT: %w", err)
		}
		cfg.BusyTimeout = d
	}
	return cfg, nil
}
