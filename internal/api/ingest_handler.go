// File path: internal/api/ingest_handler.go
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	chi "github.com/go-chi/chi/v5"

	"github.com/causewaylabs/causeway/internal/common"
	"github.com/causewaylabs/causeway/internal/corpus"
	"github.com/causewaylabs/causeway/internal/ingest"
)

const maxIngestBody = 64 << 20 // 64 MiB of raw records

// handleIngestStart accepts either a bare JSON array of records, which is
// spooled to the upload root and imported as a file job, or a job request
// object selecting the sample, file, or IRS source.
func (s *Server) handleIngestStart(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	body, err := io.ReadAll(io.LimitReader(r.Body, maxIngestBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("read request body: %w", err))
		return
	}
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("request body required"))
		return
	}

	var req ingest.Request
	if trimmed[0] == '[' {
		var records []corpus.Organization
		if err := json.Unmarshal(trimmed, &records); err != nil {
			logger.Warn("api: ingest records decode failed", "error", err)
			writeError(w, http.StatusBadRequest, fmt.Errorf("decode records: %w", err))
			return
		}
		if len(records) == 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("no records provided"))
			return
		}
		path, err := s.spoolRecords(trimmed)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		req = ingest.Request{Kind: ingest.KindFile, Path: path}
		logger.Info("api: ingest records spooled", "records", len(records), "path", path)
	} else {
		if err := json.Unmarshal(trimmed, &req); err != nil {
			logger.Warn("api: ingest decode failed", "error", err)
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	state, err := s.ingest.Start(req)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, ingest.ErrJobRunning) {
			status = http.StatusConflict
		}
		writeError(w, status, err)
		return
	}
	logger.Info("api: ingest job accepted", "job", state.JobID, "kind", state.Kind)
	writeJSON(w, http.StatusAccepted, state)
}

// spoolRecords writes an uploaded record array to the upload root so the
// asynchronous job can read it after this request returns.
func (s *Server) spoolRecords(payload []byte) (string, error) {
	file, err := os.CreateTemp(s.uploadRoot, "records-*.json")
	if err != nil {
		return "", fmt.Errorf("create upload file: %w", err)
	}
	if _, err := file.Write(payload); err != nil {
		file.Close()
		os.Remove(file.Name())
		return "", fmt.Errorf("write upload file: %w", err)
	}
	if err := file.Close(); err != nil {
		os.Remove(file.Name())
		return "", fmt.Errorf("close upload file: %w", err)
	}
	return file.Name(), nil
}

func (s *Server) handleIngestJobs(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"jobs": s.ingest.Jobs()})
}

func (s *Server) handleIngestStatus(w http.ResponseWriter, r *http.Request) {
	jobID := strings.TrimSpace(chi.URLParam(r, "jobID"))
	if jobID == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("job id required"))
		return
	}
	state, err := s.ingest.Status(jobID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, ingest.ErrJobNotFound) {
			status = http.StatusNotFound
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

func (s *Server) handleIngestStop(w http.ResponseWriter, r *http.Request) {
	jobID := strings.TrimSpace(chi.URLParam(r, "jobID"))
	if jobID == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("job id required"))
		return
	}
	if err := s.ingest.Stop(jobID); err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, ingest.ErrJobNotFound):
			status = http.StatusNotFound
		case errors.Is(err, ingest.ErrJobNotRunning):
			status = http.StatusConflict
		}
		writeError(w, status, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "canceling"})
}
