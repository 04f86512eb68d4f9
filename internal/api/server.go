// File path: internal/api/server.go
package api

import (
	"context"
	"encoding/json"
	"expvar"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	chi "github.com/go-chi/chi/v5"

	"github.com/causewaylabs/causeway/internal/catalog"
	"github.com/causewaylabs/causeway/internal/common"
	"github.com/causewaylabs/causeway/internal/data/orchestrator"
	"github.com/causewaylabs/causeway/internal/engine"
	"github.com/causewaylabs/causeway/internal/index"
	"github.com/causewaylabs/causeway/internal/ingest"
)

type Server struct {
	router     chi.Router
	engine     *engine.Engine
	catalog    catalog.Store
	ingest     *ingest.Manager
	index      *index.Manager
	uiOrigin   string
	uploadRoot string
	statsCache *ttlCache

	orchestrator *orchestrator.Orchestrator
}

// Config controls the API server's cross-cutting behavior: the allowed dev
// UI origin, where uploaded record files land, and how long aggregate stats
// are served from cache.
type Config struct {
	UIOrigin      string
	UploadRoot    string
	StatsCacheTTL time.Duration
}

// DefaultConfig returns the standard configuration used when no overrides are
// provided. The UI origin honors CAUSEWAY_UI_ORIGIN.
func DefaultConfig() Config {
	origin := strings.TrimSpace(os.Getenv("CAUSEWAY_UI_ORIGIN"))
	if origin == "" {
		origin = "http://localhost:3000"
	}
	return Config{
		UIOrigin:      origin,
		UploadRoot:    filepath.Join(os.TempDir(), "causeway_uploads"),
		StatsCacheTTL: 30 * time.Second,
	}
}

// Merge overlays non-empty configuration values from the override onto the
// base configuration.
func (c Config) Merge(override Config) Config {
	result := c
	if strings.TrimSpace(override.UIOrigin) != "" {
		result.UIOrigin = strings.TrimSpace(override.UIOrigin)
	}
	if strings.TrimSpace(override.UploadRoot) != "" {
		result.UploadRoot = strings.TrimSpace(override.UploadRoot)
	}
	if override.StatsCacheTTL > 0 {
		result.StatsCacheTTL = override.StatsCacheTTL
	}
	return result
}

func NewServer(ctx context.Context, orch *orchestrator.Orchestrator, cfg *Config) (*Server, error) {
	logger := common.Logger()
	if orch == nil {
		return nil, fmt.Errorf("orchestrator required")
	}
	eng := orch.Engine()
	if eng == nil {
		return nil, fmt.Errorf("engine unavailable")
	}
	cat := orch.Catalog()
	if cat == nil {
		return nil, fmt.Errorf("catalog store unavailable")
	}
	jobs := orch.Ingest()
	if jobs == nil {
		return nil, fmt.Errorf("ingest manager unavailable")
	}
	idx := orch.Index()
	if idx == nil {
		return nil, fmt.Errorf("index manager unavailable")
	}
	count, err := cat.Count(ctx)
	if err != nil {
		logger.Error("api: failed to count catalog records", "error", err)
		return nil, err
	}
	configuration := DefaultConfig()
	if cfg != nil {
		configuration = configuration.Merge(*cfg)
	}
	if err := os.MkdirAll(configuration.UploadRoot, 0o755); err != nil {
		return nil, fmt.Errorf("create upload root: %w", err)
	}
	providerName := "unknown"
	if provider := orch.Provider(); provider != nil {
		providerName = provider.Name()
	}
	logger.Info(
		"api: building server",
		"organizations", count,
		"provider", providerName,
		"index_ready", idx.Ready(),
		"ui_origin", configuration.UIOrigin,
	)
	srv := &Server{
		router:       chi.NewRouter(),
		engine:       eng,
		catalog:      cat,
		ingest:       jobs,
		index:        idx,
		uiOrigin:     configuration.UIOrigin,
		uploadRoot:   configuration.UploadRoot,
		statsCache:   newTTLCache(configuration.StatsCacheTTL),
		orchestrator: orch,
	}
	srv.routes()
	logger.Info("api: server ready", "routes", true)
	return srv, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Catalog returns the backing catalog interface.
func (s *Server) Catalog() catalog.Store {
	if s == nil {
		return nil
	}
	return s.catalog
}

func (s *Server) routes() {
	logger := common.Logger()
	logger.Info("api: configuring routes")
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Debug("request", "method", r.Method, "path", r.URL.Path, "dur", time.Since(start), "remote", r.RemoteAddr)
		})
	})
	s.router.Use(s.corsMiddleware)

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	s.router.Post("/v1/chat", s.handleChat)
	s.router.Get("/v1/chat/suggestions", s.handleChatSuggestions)
	s.router.Get("/v1/search", s.handleSearch)
	s.router.Get("/v1/organizations", s.handleOrganizationList)
	s.router.Post("/v1/organizations", s.handleOrganizationUpsert)
	s.router.Get("/v1/organizations/{ein}", s.handleOrganizationDetail)
	s.router.Get("/v1/stats/dashboard", s.handleDashboard)
	s.router.Get("/v1/insights/financial", s.handleFinancialInsights)
	s.router.Post("/v1/ingest", s.handleIngestStart)
	s.router.Get("/v1/ingest", s.handleIngestJobs)
	s.router.Get("/v1/ingest/{jobID}", s.handleIngestStatus)
	s.router.Post("/v1/ingest/{jobID}/stop", s.handleIngestStop)
	s.router.Post("/v1/index/rebuild", s.handleIndexRebuild)
	s.router.Get("/v1/index/status", s.handleIndexStatus)
	s.router.Get("/v1/system/stats", s.handleSystemStats)
	s.router.Get("/v1/system/health", s.handleSystemHealth)
	s.router.Get("/v1/system/logs", s.handleSystemLogs)

	s.router.Method(http.MethodGet, "/debug/vars", expvar.Handler())
}

// corsMiddleware allows the dev UI origin and short-circuits preflight
// requests before routing.
func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.uiOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, err error) {
	logger := common.Logger()
	if status >= http.StatusInternalServerError {
		logger.Error("request failed", "status", status, "error", err)
	} else {
		logger.Warn("request failed", "status", status, "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
