// File path: internal/api/organizations_handler.go
package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	chi "github.com/go-chi/chi/v5"

	"github.com/causewaylabs/causeway/internal/catalog"
	"github.com/causewaylabs/causeway/internal/common"
	"github.com/causewaylabs/causeway/internal/corpus"
)

func (s *Server) handleOrganizationList(w http.ResponseWriter, r *http.Request) {
	opts := catalog.ListOptions{
		NTEEPrefix: strings.TrimSpace(r.URL.Query().Get("ntee")),
		Search:     strings.TrimSpace(r.URL.Query().Get("q")),
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			opts.Limit = parsed
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			opts.Offset = parsed
		}
	}
	page, err := s.catalog.List(r.Context(), opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleOrganizationDetail(w http.ResponseWriter, r *http.Request) {
	ein := strings.TrimSpace(chi.URLParam(r, "ein"))
	if ein == "" {
		writeError(w, http.StatusBadRequest, fmt.Errorf("ein required"))
		return
	}
	org, found, err := s.catalog.Organization(r.Context(), ein)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, fmt.Errorf("organization not found"))
		return
	}
	chunks, err := s.catalog.ChunksFor(r.Context(), ein)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if chunks == nil {
		chunks = []corpus.DocumentChunk{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"organization": org,
		"chunks":       chunks,
	})
}

func (s *Server) handleOrganizationUpsert(w http.ResponseWriter, r *http.Request) {
	logger := common.Logger()
	var org corpus.Organization
	if err := json.NewDecoder(r.Body).Decode(&org); err != nil {
		logger.Warn("api: organization decode failed", "error", err)
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err := org.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	created, err := s.catalog.UpsertOrganization(r.Context(), org)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	if _, err := s.catalog.InsertChunks(r.Context(), corpus.BuildChunks(org)); err != nil {
		logger.Warn("api: chunk refresh failed", "ein", org.EIN, "error", err)
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	logger.Info("api: organization upserted", "ein", org.EIN, "created", created)
	writeJSON(w, status, map[string]interface{}{
		"organization": org,
		"created":      created,
	})
}
