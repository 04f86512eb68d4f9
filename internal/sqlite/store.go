// File path: internal/sqlite/store.go
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/causewaylabs/causeway/internal/catalog"
)

// Store wraps a pooled sqlx.DB connection to the SQLite catalog.
type Store struct {
	db *sqlx.DB
}

var _ catalog.Store = (*Store)(nil)

// Open constructs a Store backed by the SQLite database at the provided path.
// The database schema is automatically migrated and seeded on first use.
func Open(path string) (*Store, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	if trimmed := strings.TrimSpace(path); trimmed != "" {
		cfg.Path = trimmed
	}
	return OpenWithConfig(cfg)
}

// OpenWithConfig constructs a Store using the provided configuration.
func OpenWithConfig(cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.Path) == "" {
		return nil, errors.New("sqlite path required")
	}
	abs, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("resolve sqlite path: %w", err)
	}
	busy := int(cfg.BusyTimeout / time.Millisecond)
	if busy <= 0 {
		busy = 5000
	}
	// journal_mode cannot change inside a transaction, so the pragmas ride the
	// DSN and apply as each pooled connection opens.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(%d)&_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", abs, busy)
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	pingTimeout := cfg.BusyTimeout
	if pingTimeout <= 0 {
		pingTimeout = 5 * time.Second
	}
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// Close releases the underlying database resources.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB exposes the underlying sqlx.DB for advanced callers.
func (s *Store) DB() *sqlx.DB {
	if s == nil {
		return nil
	}
	return s.db
}

func (s *Store) migrate(ctx context.Context) error {
	if s == nil || s.db == nil {
		return errors.New("sqlite store not initialised")
	}
	tx, err := s.db.BeginTxx(ctx, &sql.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin migration: %w", err)
	}
	for i, stmt := range schemaStatements {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			tx.Rollback()
			return fmt.Errorf("execute schema statement %d: %w", i+1, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit migration: %w", err)
	}
	return nil
}

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS organizations (
                ein TEXT PRIMARY KEY,
                name TEXT NOT NULL,
                ntee_code TEXT,
                ntee_description TEXT,
                mission TEXT,
                programs TEXT,
                activities TEXT,
                city TEXT,
                state TEXT,
                revenue REAL,
                expenses REAL,
                net_assets REAL,
                website TEXT,
                created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
                updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
	`CREATE TABLE IF NOT EXISTS document_chunks (
                id INTEGER PRIMARY KEY AUTOINCREMENT,
                ein TEXT NOT NULL,
                chunk_type TEXT NOT NULL,
                content TEXT NOT NULL,
                content_hash TEXT NOT NULL,
                created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
                FOREIGN KEY(ein) REFERENCES organizations(ein) ON DELETE CASCADE,
                UNIQUE(ein, chunk_type, content_hash)
        );`,
	`CREATE TABLE IF NOT EXISTS ingest_audit (
                id INTEGER PRIMARY KEY AUTOINCREMENT,
                batch_id TEXT NOT NULL,
                source TEXT NOT NULL,
                created INTEGER NOT NULL DEFAULT 0,
                updated INTEGER NOT NULL DEFAULT 0,
                skipped INTEGER NOT NULL DEFAULT 0,
                failed INTEGER NOT NULL DEFAULT 0,
                detail TEXT,
                created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
        );`,
	`CREATE INDEX IF NOT EXISTS idx_organizations_ntee ON organizations(ntee_code);`,
	`CREATE INDEX IF NOT EXISTS idx_organizations_state ON organizations(state);`,
	`CREATE INDEX IF NOT EXISTS idx_organizations_revenue ON organizations(revenue);`,
	`CREATE INDEX IF NOT EXISTS idx_chunks_ein ON document_chunks(ein);`,
	`CREATE INDEX IF NOT EXISTS idx_chunks_hash ON document_chunks(content_hash);`,
	`CREATE INDEX IF NOT EXISTS idx_ingest_audit_created ON ingest_audit(created_at);`,
	`CREATE VIEW IF NOT EXISTS category_counts_view AS
                SELECT
                        ntee_code,
                        MAX(ntee_description) AS ntee_description,
                        COUNT(*) AS org_count
                FROM organizations
                WHERE ntee_code IS NOT NULL AND ntee_code != ''
                GROUP BY ntee_code;`,
	`CREATE VIEW IF NOT EXISTS financial_rollup_view AS
                SELECT
                        COUNT(*) AS org_count,
                        COALESCE(SUM(revenue), 0) AS total_revenue,
                        COALESCE(SUM(expenses), 0) AS total_expenses,
                        COALESCE(AVG(revenue), 0) AS average_revenue,
                        COALESCE(SUM(CASE WHEN net_assets > 0 THEN 1 ELSE 0 END), 0) AS solvent_count,
                        COALESCE(SUM(CASE WHEN net_assets IS NOT NULL THEN 1 ELSE 0 END), 0) AS reporting_count
                FROM organizations;`,
	`INSERT INTO ingest_audit(batch_id, source, detail)
        SELECT 'bootstrap', 'schema_created', 'initial schema loaded'
        WHERE NOT EXISTS (SELECT 1 FROM ingest_audit WHERE source = 'schema_created');`,
}
