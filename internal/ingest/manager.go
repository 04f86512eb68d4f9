// File path: internal/ingest/manager.go
package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/causewaylabs/causeway/internal/archive"
	"github.com/causewaylabs/causeway/internal/catalog"
	"github.com/causewaylabs/causeway/internal/common"
	"github.com/causewaylabs/causeway/internal/index"
)

const maxLogEntries = 500

var (
	ErrJobRunning    = errors.New("ingest job already running")
	ErrJobNotFound   = errors.New("ingest job not found")
	ErrJobNotRunning = errors.New("ingest job not running")
)

// Kind selects the record source for a job.
type Kind string

const (
	// KindSample loads the built-in demonstration dataset.
	KindSample Kind = "sample"
	// KindFile imports records from a JSON or JSONL file on disk.
	KindFile Kind = "file"
	// Kind990 downloads and parses public IRS Form 990 filings.
	Kind990 Kind = "irs-990"
)

type StepStatus string

const (
	StepPending   StepStatus = "pending"
	StepRunning   StepStatus = "running"
	StepCompleted StepStatus = "completed"
	StepSkipped   StepStatus = "skipped"
	StepError     StepStatus = "error"
)

type LogEntry struct {
	Time    time.Time `json:"time"`
	Level   string    `json:"level"`
	Message string    `json:"message"`
}

type Step struct {
	Name        string     `json:"name"`
	Status      StepStatus `json:"status"`
	Message     string     `json:"message,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Request describes one ingest job. Path applies to file jobs; Year,
// Keywords, and Limit apply to IRS jobs.
type Request struct {
	Kind     Kind     `json:"kind"`
	Path     string   `json:"path,omitempty"`
	Year     int      `json:"year,omitempty"`
	Keywords []string `json:"keywords,omitempty"`
	Limit    int      `json:"limit,omitempty"`
}

// Outcome is the count summary of a finished (or failed-partway) job.
type Outcome struct {
	Records int  `json:"records"`
	Created int  `json:"created"`
	Updated int  `json:"updated"`
	Skipped int  `json:"skipped"`
	Failed  int  `json:"failed"`
	Chunks  int  `json:"chunks"`
	Rebuilt bool `json:"rebuilt"`
}

// State is a point-in-time snapshot of a job.
type State struct {
	JobID       string     `json:"job_id"`
	Kind        Kind       `json:"kind"`
	Status      string     `json:"status"`
	Running     bool       `json:"running"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Steps       []Step     `json:"steps"`
	Error       string     `json:"error,omitempty"`
	Outcome     *Outcome   `json:"outcome,omitempty"`
	Request     Request    `json:"request"`
}

type session struct {
	state  State
	cancel context.CancelFunc
}

// Manager runs ingest jobs one at a time. Each job loads records from its
// source, upserts them into the catalog, derives document chunks, writes an
// audit row, and refreshes the search index.
type Manager struct {
	catalog catalog.Store
	archive *archive.Store
	index   *index.Manager
	fetcher *Fetcher990

	batchSize int

	logMu sync.Mutex
	logs  []LogEntry

	jobMu sync.Mutex
	jobs  map[string]*session
}

func NewManager(cat catalog.Store, arc *archive.Store, idx *index.Manager) *Manager {
	return &Manager{
		catalog:   cat,
		archive:   arc,
		index:     idx,
		fetcher:   NewFetcher990(nil, ""),
		batchSize: loadBatchSize(),
		logs:      make([]LogEntry, 0, 32),
		jobs:      make(map[string]*session),
	}
}

func loadBatchSize() int {
	value := strings.TrimSpace(os.Getenv("CAUSEWAY_INGEST_BATCH_SIZE"))
	if value == "" {
		return 200
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		common.Logger().Warn("ingest: invalid batch size", "value", value, "error", err)
		return 200
	}
	if parsed <= 0 {
		return 200
	}
	return parsed
}

func (m *Manager) AppendLog(level, format string, args ...interface{}) {
	text := fmt.Sprintf(format, args...)
	entry := LogEntry{Time: time.Now().UTC(), Level: level, Message: text}
	m.logMu.Lock()
	m.logs = append(m.logs, entry)
	if len(m.logs) > maxLogEntries {
		m.logs = m.logs[len(m.logs)-maxLogEntries:]
	}
	m.logMu.Unlock()
	logger := common.Logger()
	switch level {
	case "error":
		logger.Error(text)
	case "warn":
		logger.Warn(text)
	case "debug":
		logger.Debug(text)
	default:
		logger.Info(text)
	}
}

func (m *Manager) Logs() []LogEntry {
	m.logMu.Lock()
	defer m.logMu.Unlock()
	entries := make([]LogEntry, len(m.logs))
	copy(entries, m.logs)
	return entries
}

// Start validates the request and launches the job in the background. Only
// one job may run at a time; catalog writes and index rebuilds do not
// interleave well with a second writer.
func (m *Manager) Start(req Request) (State, error) {
	normalized, steps, err := normalizeRequest(req)
	if err != nil {
		return State{}, err
	}
	now := time.Now().UTC()
	jobID := uuid.NewString()
	state := State{
		JobID:     jobID,
		Kind:      normalized.Kind,
		Status:    "running",
		Running:   true,
		StartedAt: &now,
		Steps:     steps,
		Request:   normalized,
	}
	ctx, cancel := context.WithCancel(context.Background())
	m.jobMu.Lock()
	for _, sess := range m.jobs {
		if sess.state.Running {
			m.jobMu.Unlock()
			cancel()
			return State{}, ErrJobRunning
		}
	}
	m.jobs[jobID] = &session{state: state, cancel: cancel}
	m.jobMu.Unlock()
	go m.run(ctx, jobID, normalized)
	m.AppendLog("info", "Ingest job %s started (%s)", jobID, normalized.Kind)
	return cloneState(state), nil
}

func (m *Manager) Stop(jobID string) error {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return fmt.Errorf("job id required")
	}
	m.jobMu.Lock()
	sess, ok := m.jobs[jobID]
	if !ok {
		m.jobMu.Unlock()
		return ErrJobNotFound
	}
	if !sess.state.Running || sess.cancel == nil {
		m.jobMu.Unlock()
		return ErrJobNotRunning
	}
	if sess.state.Status != "canceling" {
		sess.state.Status = "canceling"
	}
	cancel := sess.cancel
	m.jobMu.Unlock()
	cancel()
	m.AppendLog("info", "Cancellation requested for job %s", jobID)
	return nil
}

func (m *Manager) Status(jobID string) (State, error) {
	jobID = strings.TrimSpace(jobID)
	if jobID == "" {
		return State{}, ErrJobNotFound
	}
	m.jobMu.Lock()
	defer m.jobMu.Unlock()
	sess, ok := m.jobs[jobID]
	if !ok {
		return State{}, ErrJobNotFound
	}
	return cloneState(sess.state), nil
}

// Jobs lists every known job, newest first.
func (m *Manager) Jobs() []State {
	m.jobMu.Lock()
	states := make([]State, 0, len(m.jobs))
	for _, sess := range m.jobs {
		states = append(states, cloneState(sess.state))
	}
	m.jobMu.Unlock()
	sort.Slice(states, func(i, j int) bool {
		var a, b time.Time
		if states[i].StartedAt != nil {
			a = *states[i].StartedAt
		}
		if states[j].StartedAt != nil {
			b = *states[j].StartedAt
		}
		if a.Equal(b) {
			return states[i].JobID < states[j].JobID
		}
		return a.After(b)
	})
	return states
}

func normalizeRequest(req Request) (Request, []Step, error) {
	if req.Kind == "" {
		req.Kind = KindSample
	}
	var names []string
	switch req.Kind {
	case KindSample:
		names = []string{"load sample dataset", "store records", "chunk documents", "refresh search index"}
	case KindFile:
		req.Path = strings.TrimSpace(req.Path)
		if req.Path == "" {
			return Request{}, nil, fmt.Errorf("file path required")
		}
		if _, err := os.Stat(req.Path); err != nil {
			return Request{}, nil, err
		}
		names = []string{"read archive file", "store records", "chunk documents", "refresh search index"}
	case Kind990:
		if req.Year == 0 {
			req.Year = time.Now().UTC().Year() - 1
		}
		if req.Year < 2015 || req.Year > time.Now().UTC().Year() {
			return Request{}, nil, fmt.Errorf("year %d out of range", req.Year)
		}
		if req.Limit <= 0 {
			req.Limit = 100
		}
		if req.Limit > 500 {
			req.Limit = 500
		}
		keywords := make([]string, 0, len(req.Keywords))
		for _, kw := range req.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" {
				keywords = append(keywords, kw)
			}
		}
		if len(keywords) == 0 {
			keywords = append(keywords, houstonKeywords...)
		}
		req.Keywords = keywords
		names = []string{"download filing index", "fetch filings", "store records", "chunk documents", "refresh search index"}
	default:
		return Request{}, nil, fmt.Errorf("unknown ingest kind %q", req.Kind)
	}
	steps := make([]Step, 0, len(names))
	for _, name := range names {
		steps = append(steps, Step{Name: name, Status: StepPending})
	}
	return req, steps, nil
}

func cloneState(src State) State {
	clone := src
	if len(src.Steps) > 0 {
		clone.Steps = append([]Step(nil), src.Steps...)
	}
	if src.Outcome != nil {
		outcome := *src.Outcome
		clone.Outcome = &outcome
	}
	clone.Request.Keywords = append([]string(nil), src.Request.Keywords...)
	return clone
}

func (m *Manager) updateState(jobID string, fn func(*State)) {
	m.jobMu.Lock()
	defer m.jobMu.Unlock()
	if sess, ok := m.jobs[jobID]; ok {
		fn(&sess.state)
	}
}

func (m *Manager) startStep(jobID string, idx int) {
	now := time.Now().UTC()
	m.updateState(jobID, func(state *State) {
		if idx >= 0 && idx < len(state.Steps) {
			state.Steps[idx].Status = StepRunning
			state.Steps[idx].StartedAt = &now
		}
	})
}

func (m *Manager) finishStep(jobID string, idx int, status StepStatus, msg string) {
	now := time.Now().UTC()
	m.updateState(jobID, func(state *State) {
		if idx >= 0 && idx < len(state.Steps) {
			state.Steps[idx].Status = status
			state.Steps[idx].Message = msg
			state.Steps[idx].CompletedAt = &now
		}
	})
}

func (m *Manager) setOutcome(jobID string, outcome Outcome) {
	m.updateState(jobID, func(state *State) {
		snapshot := outcome
		state.Outcome = &snapshot
	})
}

func (m *Manager) failJob(jobID string, idx int, err error) {
	m.finishStep(jobID, idx, StepError, err.Error())
	now := time.Now().UTC()
	status := "failed"
	if errors.Is(err, context.Canceled) {
		status = "canceled"
	}
	m.updateState(jobID, func(state *State) {
		state.Status = status
		state.Running = false
		state.CompletedAt = &now
		state.Error = err.Error()
	})
	m.AppendLog("error", "Ingest job %s %s: %v", jobID, status, err)
}

func (m *Manager) completeJob(jobID string, outcome Outcome) {
	now := time.Now().UTC()
	m.updateState(jobID, func(state *State) {
		snapshot := outcome
		state.Status = "completed"
		state.Running = false
		state.CompletedAt = &now
		state.Outcome = &snapshot
	})
	m.AppendLog("info", "Ingest job %s completed: %d created, %d updated, %d skipped, %d chunks",
		jobID, outcome.Created, outcome.Updated, outcome.Skipped, outcome.Chunks)
}
