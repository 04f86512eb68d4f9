// File path: internal/api/search_handler.go
package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/causewaylabs/causeway/internal/common"
)

type searchResult struct {
	Name     string  `json:"name"`
	EIN      string  `json:"ein"`
	Score    float64 `json:"score"`
	Category string  `json:"category"`
	City     string  `json:"city"`
	State    string  `json:"state"`
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	query := r.URL.Query().Get("q")
	if query == "" {
		logger.Warn("api: search missing query parameter")
		writeError(w, http.StatusBadRequest, fmt.Errorf("missing q parameter"))
		return
	}
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	logger.Info("api: search request", "query", query, "limit", limit)
	results := s.engine.Search(query, limit)
	out := make([]searchResult, 0, len(results))
	for _, res := range results {
		org := res.Record
		out = append(out, searchResult{
			Name:     org.Name,
			EIN:      org.EIN,
			Score:    res.Score,
			Category: org.NTEEDescription,
			City:     org.City,
			State:    org.State,
		})
	}
	logger.Debug("api: search served", "results", len(out))
	writeJSON(w, http.StatusOK, map[string]interface{}{"results": out})
}
