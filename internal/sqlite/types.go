// File path: internal/sqlite/types.go
package sqlite

import (
	"database/sql"
	"time"

	"github.com/causewaylabs/causeway/internal/corpus"
)

// orgRow mirrors one organizations row. Narrative and financial columns are
// nullable because filings frequently omit them.
type orgRow struct {
	EIN             string          `db:"ein"`
	Name            string          `db:"name"`
	NTEECode        sql.NullString  `db:"ntee_code"`
	NTEEDescription sql.NullString  `db:"ntee_description"`
	Mission         sql.NullString  `db:"mission"`
	Programs        sql.NullString  `db:"programs"`
	Activities      sql.NullString  `db:"activities"`
	City            sql.NullString  `db:"city"`
	State           sql.NullString  `db:"state"`
	Revenue         sql.NullFloat64 `db:"revenue"`
	Expenses        sql.NullFloat64 `db:"expenses"`
	NetAssets       sql.NullFloat64 `db:"net_assets"`
	Website         sql.NullString  `db:"website"`
}

const orgColumns = `ein, name, ntee_code, ntee_description, mission, programs,
                activities, city, state, revenue, expenses, net_assets, website`

func (r orgRow) toDomain() corpus.Organization {
	return corpus.Organization{
		EIN:             r.EIN,
		Name:            r.Name,
		NTEECode:        stringValue(r.NTEECode),
		NTEEDescription: stringValue(r.NTEEDescription),
		Mission:         stringValue(r.Mission),
		Programs:        stringValue(r.Programs),
		Activities:      stringValue(r.Activities),
		City:            stringValue(r.City),
		State:           stringValue(r.State),
		Revenue:         floatValue(r.Revenue),
		Expenses:        floatValue(r.Expenses),
		NetAssets:       floatValue(r.NetAssets),
		Website:         stringValue(r.Website),
	}
}

// chunkRow mirrors one document_chunks row.
type chunkRow struct {
	ID          int64     `db:"id"`
	EIN         string    `db:"ein"`
	ChunkType   string    `db:"chunk_type"`
	Content     string    `db:"content"`
	ContentHash string    `db:"content_hash"`
	CreatedAt   time.Time `db:"created_at"`
}

func (r chunkRow) toDomain() corpus.DocumentChunk {
	return corpus.DocumentChunk{
		ID:          r.ID,
		EIN:         r.EIN,
		Type:        corpus.ChunkType(r.ChunkType),
		Content:     r.Content,
		ContentHash: r.ContentHash,
		CreatedAt:   r.CreatedAt,
	}
}

// auditRow mirrors one ingest_audit row.
type auditRow struct {
	ID        int64          `db:"id"`
	BatchID   string         `db:"batch_id"`
	Source    string         `db:"source"`
	Created   int            `db:"created"`
	Updated   int            `db:"updated"`
	Skipped   int            `db:"skipped"`
	Failed    int            `db:"failed"`
	Detail    sql.NullString `db:"detail"`
	CreatedAt time.Time      `db:"created_at"`
}

func stringValue(v sql.NullString) string {
	if !v.Valid {
		return ""
	}
	return v.String
}

func floatValue(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
