// File path: internal/ingest/ingest.go
package ingest

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/causewaylabs/causeway/internal/catalog"
	"github.com/causewaylabs/causeway/internal/common/telemetry"
	"github.com/causewaylabs/causeway/internal/corpus"
)

func (m *Manager) run(ctx context.Context, jobID string, req Request) {
	step := 0
	var records []corpus.Organization

	switch req.Kind {
	case KindSample:
		m.startStep(jobID, step)
		records = SampleOrganizations()
		m.finishStep(jobID, step, StepCompleted, fmt.Sprintf("%d records", len(records)))
	case KindFile:
		m.startStep(jobID, step)
		loaded, err := loadArchiveFile(req.Path)
		if err != nil {
			m.failJob(jobID, step, err)
			return
		}
		records = loaded
		m.finishStep(jobID, step, StepCompleted, fmt.Sprintf("%d records", len(records)))
	case Kind990:
		m.startStep(jobID, step)
		listing, err := m.fetcher.Index(ctx, req.Year)
		if err != nil {
			m.failJob(jobID, step, err)
			return
		}
		matched := FilterFilings(listing, req.Keywords)
		if len(matched) > req.Limit {
			matched = matched[:req.Limit]
		}
		m.finishStep(jobID, step, StepCompleted, fmt.Sprintf("%d of %d filings matched", len(matched), len(listing)))
		step++

		m.startStep(jobID, step)
		fetched, err := m.fetcher.Filings(ctx, req.Year, matched, m.AppendLog)
		if err != nil {
			m.failJob(jobID, step, err)
			return
		}
		records = fetched
		m.finishStep(jobID, step, StepCompleted, fmt.Sprintf("%d filings parsed", len(records)))
	}
	step++

	m.startStep(jobID, step)
	outcome, valid, changed, err := m.storeRecords(ctx, records)
	if err != nil {
		m.failJob(jobID, step, err)
		return
	}
	m.finishStep(jobID, step, StepCompleted,
		fmt.Sprintf("%d created, %d updated, %d skipped", outcome.Created, outcome.Updated, outcome.Skipped))
	m.mirrorArchive(ctx, req.Kind, valid)
	step++

	m.startStep(jobID, step)
	chunks, err := m.storeChunks(ctx, changed)
	if err != nil {
		m.failJob(jobID, step, err)
		return
	}
	outcome.Chunks = chunks
	m.finishStep(jobID, step, StepCompleted, fmt.Sprintf("%d chunks stored", chunks))
	m.setOutcome(jobID, outcome)
	m.recordAudit(ctx, jobID, req, outcome)
	step++

	m.startStep(jobID, step)
	rebuilt, err := m.index.Ensure(ctx, false)
	if err != nil {
		m.failJob(jobID, step, err)
		return
	}
	outcome.Rebuilt = rebuilt
	if rebuilt {
		m.finishStep(jobID, step, StepCompleted, "index rebuilt")
	} else {
		m.finishStep(jobID, step, StepSkipped, "rebuild not needed")
	}

	m.completeJob(jobID, outcome)
}

// storeRecords validates and upserts records in batches. It returns the
// records that passed validation and, within those, the ones whose content
// actually changed; unchanged records are skipped by fingerprint so a reseed
// is cheap.
func (m *Manager) storeRecords(ctx context.Context, records []corpus.Organization) (Outcome, []corpus.Organization, []corpus.Organization, error) {
	outcome := Outcome{Records: len(records)}
	valid := make([]corpus.Organization, 0, len(records))
	for _, org := range records {
		org = normalizeRecord(org)
		if err := org.Validate(); err != nil {
			outcome.Failed++
			m.AppendLog("warn", "Skipping invalid record: %v", err)
			continue
		}
		valid = append(valid, org)
	}

	existing, err := m.catalog.All(ctx)
	if err != nil {
		return outcome, nil, nil, fmt.Errorf("load existing records: %w", err)
	}
	known := make(map[string]string, len(existing))
	for _, org := range existing {
		known[org.EIN] = corpus.Fingerprint(org)
	}
	changed := make([]corpus.Organization, 0, len(valid))
	for _, org := range valid {
		if fp, ok := known[org.EIN]; ok && fp == corpus.Fingerprint(org) {
			outcome.Skipped++
			continue
		}
		changed = append(changed, org)
	}
	if outcome.Skipped > 0 {
		m.AppendLog("info", "Skipped %d unchanged records", outcome.Skipped)
	}

	for start := 0; start < len(changed); start += m.batchSize {
		end := start + m.batchSize
		if end > len(changed) {
			end = len(changed)
		}
		created, updated, err := m.catalog.BatchUpsert(ctx, changed[start:end])
		if err != nil {
			return outcome, valid, changed, fmt.Errorf("store records: %w", err)
		}
		outcome.Created += created
		outcome.Updated += updated
		telemetry.RecordIngestBatch(end - start)
	}
	return outcome, valid, changed, nil
}

// normalizeRecord trims identity fields and fills in the state for records
// from regional feeds that omit it.
func normalizeRecord(org corpus.Organization) corpus.Organization {
	org.EIN = strings.TrimSpace(org.EIN)
	org.Name = strings.TrimSpace(org.Name)
	if strings.TrimSpace(org.State) == "" {
		org.State = "TX"
	}
	return org
}

func (m *Manager) storeChunks(ctx context.Context, orgs []corpus.Organization) (int, error) {
	total := 0
	batch := make([]corpus.DocumentChunk, 0, m.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		inserted, err := m.catalog.InsertChunks(ctx, batch)
		if err != nil {
			return fmt.Errorf("store chunks: %w", err)
		}
		total += inserted
		batch = batch[:0]
		return nil
	}
	for _, org := range orgs {
		batch = append(batch, corpus.BuildChunks(org)...)
		if len(batch) >= m.batchSize {
			if err := flush(); err != nil {
				return total, err
			}
		}
	}
	if err := flush(); err != nil {
		return total, err
	}
	return total, nil
}

// mirrorArchive keeps the JSONL archive in step with what a job brought in.
// Sample seeds rewrite it wholesale; IRS fetches append to the raw feed log;
// file imports came from disk already. Archive trouble never fails a job.
func (m *Manager) mirrorArchive(ctx context.Context, kind Kind, orgs []corpus.Organization) {
	if m.archive == nil || len(orgs) == 0 {
		return
	}
	var err error
	switch kind {
	case KindSample:
		err = m.archive.Replace(ctx, orgs)
	case Kind990:
		err = m.archive.Append(ctx, orgs)
	default:
		return
	}
	if err != nil {
		m.AppendLog("warn", "Archive mirror failed: %v", err)
	}
}

func (m *Manager) recordAudit(ctx context.Context, jobID string, req Request, outcome Outcome) {
	audit := catalog.IngestAudit{
		BatchID: jobID,
		Source:  string(req.Kind),
		Created: outcome.Created,
		Updated: outcome.Updated,
		Skipped: outcome.Skipped,
		Failed:  outcome.Failed,
		Detail:  fmt.Sprintf("%d records, %d chunks", outcome.Records, outcome.Chunks),
	}
	if err := m.catalog.RecordIngest(ctx, audit); err != nil {
		m.AppendLog("warn", "Audit write failed: %v", err)
	}
}

// loadArchiveFile reads records from either a JSON array or a JSONL file.
func loadArchiveFile(path string) ([]corpus.Organization, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var orgs []corpus.Organization
		if err := json.Unmarshal(trimmed, &orgs); err != nil {
			return nil, fmt.Errorf("decode records: %w", err)
		}
		return orgs, nil
	}
	var orgs []corpus.Organization
	scanner := bufio.NewScanner(bytes.NewReader(trimmed))
	scanner.Buffer(make([]byte, 64<<10), 8<<20)
	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		var org corpus.Organization
		if err := json.Unmarshal(line, &org); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		orgs = append(orgs, org)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan records: %w", err)
	}
	return orgs, nil
}
