// File path: internal/api/system_handler.go
package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/causewaylabs/causeway/internal/common"
	"github.com/causewaylabs/causeway/internal/common/telemetry"
	"github.com/causewaylabs/causeway/internal/index"
)

type rebuildRequest struct {
	Force bool `json:"force"`
}

func (s *Server) handleIndexRebuild(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	var req rebuildRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	rebuilt, err := s.index.Ensure(r.Context(), req.Force)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, index.ErrBuildFailure) {
			status = http.StatusConflict
		}
		writeError(w, status, err)
		return
	}
	st := s.index.Status()
	logger.Info("api: index rebuild requested", "force", req.Force, "rebuilt", rebuilt, "documents", st.Documents)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rebuilt":   rebuilt,
		"documents": st.Documents,
	})
}

func (s *Server) handleIndexStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.index.Status())
}

func (s *Server) handleSystemStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	organizations, err := s.catalog.Count(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	chunks, err := s.catalog.ChunkCount(ctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"engine":    s.engine.Stats(),
		"telemetry": telemetry.Summary(),
		"catalog": map[string]int{
			"organizations": organizations,
			"chunks":        chunks,
		},
	})
}

// handleSystemHealth reports per-component checks. A failing generation
// probe degrades the overall status but never turns it into an error; the
// retrieval side keeps serving.
func (s *Server) handleSystemHealth(w http.ResponseWriter, r *http.Request) {
	components := map[string]string{
		"catalog":    "ok",
		"index":      "ok",
		"generation": "ok",
	}
	if _, err := s.catalog.Count(r.Context()); err != nil {
		components["catalog"] = "error"
	}
	if !s.index.Ready() {
		components["index"] = "empty"
	}
	if !s.engine.Health(r.Context()) {
		components["generation"] = "degraded"
	}
	status := "ok"
	for _, state := range components {
		if state != "ok" {
			status = "degraded"
			break
		}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":     status,
		"components": components,
	})
}

func (s *Server) handleSystemLogs(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	combined := append([]common.LogEntry(nil), common.LogEntries(0)...)
	existing := make(map[string]struct{}, len(combined))
	for _, entry := range combined {
		existing[logEntryKey(entry.Time, entry.Level, entry.Message, entry.Component)] = struct{}{}
	}
	for _, entry := range s.ingest.Logs() {
		converted := common.LogEntry{
			Time:      entry.Time,
			Level:     strings.ToLower(entry.Level),
			Message:   entry.Message,
			Component: "ingest",
		}
		key := logEntryKey(converted.Time, converted.Level, converted.Message, converted.Component)
		if _, ok := existing[key]; ok {
			continue
		}
		combined = append(combined, converted)
		existing[key] = struct{}{}
	}

	sort.SliceStable(combined, func(i, j int) bool {
		if combined[i].Time.Equal(combined[j].Time) {
			if combined[i].Component == combined[j].Component {
				if combined[i].Level == combined[j].Level {
					return combined[i].Message < combined[j].Message
				}
				return combined[i].Level < combined[j].Level
			}
			return combined[i].Component < combined[j].Component
		}
		return combined[i].Time.Before(combined[j].Time)
	})
	if limit > 0 && len(combined) > limit {
		combined = combined[len(combined)-limit:]
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": combined})
}

func logEntryKey(ts time.Time, level, message, component string) string {
	stamp := ts.UTC().Format(time.RFC3339Nano)
	return strings.Join([]string{stamp, strings.ToLower(strings.TrimSpace(level)), strings.TrimSpace(component), message}, "|")
}
