// File path: internal/data/orchestrator/config.go
package orchestrator

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config controls the construction of the orchestrator: where the stores
// live, how long generation may run, and whether an empty catalog seeds
// itself at startup.
type Config struct {
	ArchivePath       string
	SQLitePath        string
	SnapshotPath      string
	GenerationTimeout time.Duration
	IndexWorkers      int
	SeedOnEmpty       bool
}

// DefaultConfig returns the baseline configuration used when no overrides
// are supplied.
func DefaultConfig() Config {
	return Config{
		ArchivePath:       filepath.Join("data", "organizations.jsonl"),
		SQLitePath:        filepath.Join("data", "catalog.db"),
		SnapshotPath:      filepath.Join("data", "index.db"),
		GenerationTimeout: 35 * time.Second,
	}
}

// LoadConfig builds a Config from defaults and environment variables.
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	if value := strings.TrimSpace(os.Getenv("CAUSEWAY_ARCHIVE_PATH")); value != "" {
		cfg.ArchivePath = value
	}
	if value := strings.TrimSpace(os.Getenv("CAUSEWAY_CATALOG_PATH")); value != "" {
		cfg.SQLitePath = value
	}
	if value := strings.TrimSpace(os.Getenv("CAUSEWAY_SNAPSHOT_PATH")); value != "" {
		cfg.SnapshotPath = value
	}
	if value := strings.TrimSpace(os.Getenv("CAUSEWAY_GENERATION_TIMEOUT")); value != "" {
		dur, err := time.ParseDuration(value)
		if err != nil {
			return Config{}, fmt.Errorf("parse CAUSEWAY_GENERATION_TIMEOUT: %w", err)
		}
		cfg.GenerationTimeout = dur
	}
	if value := strings.TrimSpace(os.Getenv("CAUSEWAY_INDEX_WORKERS")); value != "" {
		workers, err := strconv.Atoi(value)
		if err != nil {
			return Config{}, fmt.Errorf("parse CAUSEWAY_INDEX_WORKERS: %w", err)
		}
		if workers < 0 {
			workers = 0
		}
		cfg.IndexWorkers = workers
	}
	if value := strings.TrimSpace(os.Getenv("CAUSEWAY_SEED_ON_EMPTY")); value != "" {
		seed, err := strconv.ParseBool(value)
		if err != nil {
			return Config{}, fmt.Errorf("parse CAUSEWAY_SEED_ON_EMPTY: %w", err)
		}
		cfg.SeedOnEmpty = seed
	}
	return applyDefaults(cfg), nil
}

func applyDefaults(cfg Config) Config {
	defaults := DefaultConfig()
	if strings.TrimSpace(cfg.ArchivePath) == "" {
		cfg.ArchivePath = defaults.ArchivePath
	}
	if strings.TrimSpace(cfg.SQLitePath) == "" {
		cfg.SQLitePath = defaults.SQLitePath
	}
	if strings.TrimSpace(cfg.SnapshotPath) == "" {
		cfg.SnapshotPath = defaults.SnapshotPath
	}
	if cfg.GenerationTimeout <= 0 {
		cfg.GenerationTimeout = defaults.GenerationTimeout
	}
	if cfg.IndexWorkers < 0 {
		cfg.IndexWorkers = 0
	}
	return cfg
}

func (c Config) validate() error {
	if strings.TrimSpace(c.ArchivePath) == "" {
		return fmt.Errorf("archive path required")
	}
	if strings.TrimSpace(c.SQLitePath) == "" {
		return fmt.Errorf("sqlite path required")
	}
	if strings.TrimSpace(c.SnapshotPath) == "" {
		return fmt.Errorf("snapshot path required")
	}
	if c.GenerationTimeout <= 0 {
		return fmt.Errorf("generation timeout must be positive")
	}
	return nil
}
