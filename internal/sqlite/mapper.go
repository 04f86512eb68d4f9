// File path: internal/sqlite/mapper.go
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/causewaylabs/causeway/internal/catalog"
	"github.com/causewaylabs/causeway/internal/corpus"
)

// UpsertOrganization inserts or updates a single record keyed by EIN and
// reports whether a new row was created.
func (s *Store) UpsertOrganization(ctx context.Context, org corpus.Organization) (bool, error) {
	if s == nil || s.db == nil {
		return false, errors.New("sqlite store not initialised")
	}
	if err := org.Validate(); err != nil {
		return false, err
	}
	var created bool
	err := withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		existing, err := existingEINs(ctx, tx, []string{org.EIN})
		if err != nil {
			return err
		}
		if err := execUpsert(ctx, tx, org); err != nil {
			return err
		}
		_, present := existing[org.EIN]
		created = !present
		return nil
	})
	return created, err
}

// BatchUpsert applies a whole batch in a single transaction and reports how
// many rows were created versus updated.
func (s *Store) BatchUpsert(ctx context.Context, orgs []corpus.Organization) (int, int, error) {
	if s == nil || s.db == nil {
		return 0, 0, errors.New("sqlite store not initialised")
	}
	if len(orgs) == 0 {
		return 0, 0, nil
	}
	eins := make([]string, 0, len(orgs))
	for _, org := range orgs {
		if err := org.Validate(); err != nil {
			return 0, 0, fmt.Errorf("organization %q: %w", org.EIN, err)
		}
		eins = append(eins, org.EIN)
	}

	var created, updated int
	err := withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		existing, err := existingEINs(ctx, tx, eins)
		if err != nil {
			return err
		}
		for _, org := range orgs {
			if err := execUpsert(ctx, tx, org); err != nil {
				return err
			}
			if _, present := existing[org.EIN]; present {
				updated++
			} else {
				created++
				// A repeated EIN later in the batch is an update.
				existing[org.EIN] = struct{}{}
			}
		}
		return nil
	})
	if err != nil {
		return 0, 0, err
	}
	return created, updated, nil
}

// InsertChunks stores content-addressed chunks, skipping rows whose
// (ein, type, hash) key is already present. Returns the number inserted.
func (s *Store) InsertChunks(ctx context.Context, chunks []corpus.DocumentChunk) (int, error) {
	if s == nil || s.db == nil {
		return 0, errors.New("sqlite store not initialised")
	}
	if len(chunks) == 0 {
		return 0, nil
	}
	var inserted int
	err := withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		for _, chunk := range chunks {
			if !chunk.Type.Valid() {
				return fmt.Errorf("chunk type %q not recognised", chunk.Type)
			}
			res, err := tx.ExecContext(ctx, `INSERT INTO document_chunks(ein, chunk_type, content, content_hash)
                                VALUES(?, ?, ?, ?)
                                ON CONFLICT(ein, chunk_type, content_hash) DO NOTHING`,
				chunk.EIN, string(chunk.Type), chunk.Content, chunk.ContentHash)
			if err != nil {
				return fmt.Errorf("insert chunk: %w", err)
			}
			n, err := res.RowsAffected()
			if err != nil {
				return fmt.Errorf("chunk rows affected: %w", err)
			}
			inserted += int(n)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// RecordIngest appends one audit row for a finished ingest batch.
func (s *Store) RecordIngest(ctx context.Context, audit catalog.IngestAudit) error {
	if s == nil || s.db == nil {
		return errors.New("sqlite store not initialised")
	}
	return withTx(ctx, s.db, func(tx *sqlx.Tx) error {
		return recordIngest(ctx, tx, audit)
	})
}

func recordIngest(ctx context.Context, tx *sqlx.Tx, audit catalog.IngestAudit) error {
	if _, err := tx.ExecContext(ctx, `INSERT INTO ingest_audit(batch_id, source, created, updated, skipped, failed, detail)
                VALUES(?, ?, ?, ?, ?, ?, ?)`,
		audit.BatchID, audit.Source, audit.Created, audit.Updated, audit.Skipped, audit.Failed, nullIfEmpty(audit.Detail)); err != nil {
		return fmt.Errorf("insert ingest audit: %w", err)
	}
	return nil
}

func execUpsert(ctx context.Context, tx *sqlx.Tx, org corpus.Organization) error {
	query := `INSERT INTO organizations(ein, name, ntee_code, ntee_description, mission, programs,
                        activities, city, state, revenue, expenses, net_assets, website)
                VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
                ON CONFLICT(ein) DO UPDATE SET
                        name = excluded.name,
                        ntee_code = COALESCE(excluded.ntee_code, organizations.ntee_code),
                        ntee_description = COALESCE(excluded.ntee_description, organizations.ntee_description),
                        mission = COALESCE(excluded.mission, organizations.mission),
                        programs = COALESCE(excluded.programs, organizations.programs),
                        activities = COALESCE(excluded.activities, organizations.activities),
                        city = COALESCE(excluded.city, organizations.city),
                        state = COALESCE(excluded.state, organizations.state),
                        revenue = COALESCE(excluded.revenue, organizations.revenue),
                        expenses = COALESCE(excluded.expenses, organizations.expenses),
                        net_assets = COALESCE(excluded.net_assets, organizations.net_assets),
                        website = COALESCE(excluded.website, organizations.website),
                        updated_at = CURRENT_TIMESTAMP`
	if _, err := tx.ExecContext(ctx, query,
		org.EIN, org.Name,
		nullIfEmpty(org.NTEECode), nullIfEmpty(org.NTEEDescription),
		nullIfEmpty(org.Mission), nullIfEmpty(org.Programs), nullIfEmpty(org.Activities),
		nullIfEmpty(org.City), nullIfEmpty(org.State),
		nullFloat(org.Revenue), nullFloat(org.Expenses), nullFloat(org.NetAssets),
		nullIfEmpty(org.Website)); err != nil {
		return fmt.Errorf("upsert organization %s: %w", org.EIN, err)
	}
	return nil
}

// existingEINs reports which of the given EINs already have rows. The IN
// clause is chunked to stay under the SQLite bound-variable cap.
func existingEINs(ctx context.Context, tx *sqlx.Tx, eins []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{}, len(eins))
	const chunkSize = 500
	for start := 0; start < len(eins); start += chunkSize {
		end := start + chunkSize
		if end > len(eins) {
			end = len(eins)
		}
		query, args, err := sqlx.In(`SELECT ein FROM organizations WHERE ein IN (?)`, eins[start:end])
		if err != nil {
			return nil, fmt.Errorf("build ein query: %w", err)
		}
		query = tx.Rebind(query)
		found := []string{}
		if err := tx.SelectContext(ctx, &found, query, args...); err != nil {
			return nil, fmt.Errorf("select existing eins: %w", err)
		}
		for _, ein := range found {
			existing[ein] = struct{}{}
		}
	}
	return existing, nil
}

func withTx(ctx context.Context, db *sqlx.DB, fn func(*sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	return tx.Commit()
}

func nullIfEmpty(value string) interface{} {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func nullFloat(value *float64) interface{} {
	if value == nil {
		return nil
	}
	return *value
}
