// File path: cmd/causeway/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/causewaylabs/causeway/internal/api"
	"github.com/causewaylabs/causeway/internal/common"
	"github.com/causewaylabs/causeway/internal/data/orchestrator"
)

func main() {
	logger := common.Logger()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := godotenv.Load(); err != nil {
		logger.Warn("causeway: .env file not loaded", "error", err)
	} else {
		logger.Info("causeway: environment loaded from .env")
	}

	addr := flag.String("addr", ":8080", "listen address")
	archivePath := flag.String("archive", "", "path to the JSONL organization archive")
	catalogPath := flag.String("catalog", "", "path to the SQLite catalog database")
	snapshotPath := flag.String("snapshot", "", "path to the index snapshot file")
	generationTimeout := flag.String("generation-timeout", "", "bound on a single generation call (e.g. 35s)")
	indexWorkers := flag.Int("index-workers", -1, "worker count for index builds (-1 uses defaults)")
	seedOnEmpty := flag.Bool("seed-on-empty", false, "seed an empty catalog with the bundled sample corpus")
	uiOrigin := flag.String("ui-origin", "", "allowed dev UI origin for CORS")
	flag.Parse()

	logger.Info("causeway: startup initiated", "addr", *addr)

	orchCfg, err := orchestrator.LoadConfig()
	if err != nil {
		logger.Error("causeway: config load failed", "error", err)
		fmt.Println("config error:", err)
		os.Exit(1)
	}
	if trimmed := strings.TrimSpace(*archivePath); trimmed != "" {
		orchCfg.ArchivePath = trimmed
	}
	if trimmed := strings.TrimSpace(*catalogPath); trimmed != "" {
		orchCfg.SQLitePath = trimmed
	}
	if trimmed := strings.TrimSpace(*snapshotPath); trimmed != "" {
		orchCfg.SnapshotPath = trimmed
	}
	if trimmed := strings.TrimSpace(*generationTimeout); trimmed != "" {
		dur, err := time.ParseDuration(trimmed)
		if err != nil {
			logger.Error("causeway: invalid generation timeout", "value", trimmed, "error", err)
			fmt.Println("generation timeout error:", err)
			os.Exit(1)
		}
		orchCfg.GenerationTimeout = dur
	}
	if *indexWorkers >= 0 {
		orchCfg.IndexWorkers = *indexWorkers
	}
	if *seedOnEmpty {
		orchCfg.SeedOnEmpty = true
	}

	orch, err := orchestrator.New(ctx, orchCfg)
	if err != nil {
		logger.Error("causeway: orchestrator initialization failed", "error", err)
		fmt.Println("orchestrator error:", err)
		os.Exit(1)
	}
	defer orch.Close()

	if err := orch.Bootstrap(ctx); err != nil {
		logger.Error("causeway: bootstrap failed", "error", err)
		fmt.Println("bootstrap error:", err)
		os.Exit(1)
	}
	status := orch.Index().Status()
	logger.Info("causeway: corpus ready",
		"documents", status.Documents,
		"vocabulary", status.VocabularySize,
		"index_ready", status.Ready,
		"provider", orch.Provider().Name())

	cfg := api.DefaultConfig()
	if trimmed := strings.TrimSpace(*uiOrigin); trimmed != "" {
		cfg.UIOrigin = trimmed
	}

	server, err := api.NewServer(ctx, orch, &cfg)
	if err != nil {
		logger.Error("causeway: server construction failed", "error", err)
		fmt.Println("server error:", err)
		os.Exit(1)
	}

	logger.Info("causeway: server listening", "addr", *addr, "health", "/healthz")
	fmt.Printf("Serving on %s\n", *addr)
	reachable := *addr
	if strings.HasPrefix(reachable, ":") {
		reachable = "localhost" + reachable
	}
	logger.Info("causeway: verify reachability", "suggestion", fmt.Sprintf("curl http://%s/healthz", reachable))
	if err := http.ListenAndServe(*addr, server); err != nil {
		logger.Error("causeway: server stopped", "error", err)
		fmt.Println("server stopped:", err)
	}
}
