// File path: internal/api/stats_handler.go
package api

import (
	"net/http"

	"github.com/causewaylabs/causeway/internal/common"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	if cached, ok := s.statsCache.get("dashboard"); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}
	stats, err := s.catalog.Dashboard(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.statsCache.set("dashboard", stats)
	common.Logger().Debug("api: dashboard computed", "organizations", stats.Organizations)
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleFinancialInsights(w http.ResponseWriter, r *http.Request) {
	if cached, ok := s.statsCache.get("insights"); ok {
		writeJSON(w, http.StatusOK, cached)
		return
	}
	insights, err := s.catalog.FinancialInsights(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.statsCache.set("insights", insights)
	common.Logger().Debug("api: financial insights computed", "largest", len(insights.Largest))
	writeJSON(w, http.StatusOK, insights)
}
