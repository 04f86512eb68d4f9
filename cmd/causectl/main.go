// File path: cmd/causectl/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/causewaylabs/causeway/internal/archive"
	"github.com/causewaylabs/causeway/internal/common"
	"github.com/causewaylabs/causeway/internal/data/orchestrator"
	"github.com/causewaylabs/causeway/internal/ingest"
)

func main() {
	app := &cli.App{
		Name:  "causectl",
		Usage: "Operations companion for the causeway server",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:  "archive",
				Usage: "Path to the JSONL organization archive",
			},
			&cli.StringFlag{
				Name:  "catalog",
				Usage: "Path to the SQLite catalog database",
			},
			&cli.StringFlag{
				Name:  "snapshot",
				Usage: "Path to the index snapshot file",
			},
		},
		Before: setupEnvironment,
		Commands: []*cli.Command{
			{
				Name:   "seed",
				Usage:  "Load the bundled sample corpus and rebuild the search index",
				Action: seedCommand,
			},
			{
				Name:      "ingest",
				Usage:     "Import organization records from a JSON or JSONL file",
				ArgsUsage: "<file>",
				Action:    ingestCommand,
			},
			{
				Name:   "fetch-990",
				Usage:  "Download public IRS Form 990 filings into the catalog",
				Action: fetch990Command,
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:  "year",
						Usage: "Filing index year (defaults to the previous year)",
					},
					&cli.StringFlag{
						Name:  "city",
						Usage: "City matched against filer names",
					},
					&cli.StringFlag{
						Name:  "state",
						Usage: "State or region matched against filer names",
					},
					&cli.StringSliceFlag{
						Name:  "keywords",
						Usage: "Additional filer name keywords",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum filings to fetch (capped at 500)",
						Value: 100,
					},
				},
			},
			{
				Name:   "rebuild",
				Usage:  "Rebuild the search index from the catalog",
				Action: rebuildCommand,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Rebuild even when the stored index matches the catalog",
					},
				},
			},
			{
				Name:   "stats",
				Usage:  "Print catalog, index, and ingest statistics",
				Action: statsCommand,
			},
			{
				Name:   "export",
				Usage:  "Write every catalog organization to a JSONL file",
				Action: exportCommand,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "out",
						Usage:    "Destination JSONL path",
						Required: true,
					},
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func seedCommand(c *cli.Context) error {
	orch, err := openOrchestrator(c)
	if err != nil {
		return err
	}
	defer orch.Close()
	return runJob(c.Context, orch, ingest.Request{Kind: ingest.KindSample})
}

func ingestCommand(c *cli.Context) error {
	path := strings.TrimSpace(c.Args().First())
	if path == "" {
		return fmt.Errorf("file path required")
	}
	orch, err := openOrchestrator(c)
	if err != nil {
		return err
	}
	defer orch.Close()
	return runJob(c.Context, orch, ingest.Request{Kind: ingest.KindFile, Path: path})
}

func fetch990Command(c *cli.Context) error {
	keywords := append([]string(nil), c.StringSlice("keywords")...)
	if city := strings.TrimSpace(c.String("city")); city != "" {
		keywords = append(keywords, city)
	}
	if state := strings.TrimSpace(c.String("state")); state != "" {
		keywords = append(keywords, state)
	}
	orch, err := openOrchestrator(c)
	if err != nil {
		return err
	}
	defer orch.Close()
	return runJob(c.Context, orch, ingest.Request{
		Kind:     ingest.Kind990,
		Year:     c.Int("year"),
		Keywords: keywords,
		Limit:    c.Int("limit"),
	})
}

func rebuildCommand(c *cli.Context) error {
	orch, err := openOrchestrator(c)
	if err != nil {
		return err
	}
	defer orch.Close()

	ctx := c.Context
	orch.Index().Restore(ctx)
	rebuilt, err := orch.Index().Ensure(ctx, c.Bool("force"))
	if err != nil {
		return fmt.Errorf("rebuild index: %w", err)
	}
	status := orch.Index().Status()
	if rebuilt {
		fmt.Printf("Index rebuilt: %d documents, %d terms\n", status.Documents, status.VocabularySize)
	} else {
		fmt.Printf("Index already current: %d documents, %d terms\n", status.Documents, status.VocabularySize)
	}
	return nil
}

func statsCommand(c *cli.Context) error {
	orch, err := openOrchestrator(c)
	if err != nil {
		return err
	}
	defer orch.Close()

	ctx := c.Context
	count, err := orch.Catalog().Count(ctx)
	if err != nil {
		return fmt.Errorf("count organizations: %w", err)
	}
	chunks, err := orch.Catalog().ChunkCount(ctx)
	if err != nil {
		return fmt.Errorf("count chunks: %w", err)
	}
	orch.Index().Restore(ctx)
	status := orch.Index().Status()

	fmt.Printf("Organizations: %d\n", count)
	fmt.Printf("Chunks:        %d\n", chunks)
	fmt.Printf("Index ready:   %v (%d documents, %d terms)\n", status.Ready, status.Documents, status.VocabularySize)
	fmt.Printf("Provider:      %s\n", orch.Provider().Name())

	audits, err := orch.Catalog().RecentIngests(ctx, 5)
	if err != nil {
		return fmt.Errorf("list recent ingests: %w", err)
	}
	if len(audits) > 0 {
		fmt.Println("Recent ingests:")
		for _, audit := range audits {
			fmt.Printf("  %s  %-8s  created %d, updated %d, skipped %d, failed %d\n",
				audit.CreatedAt.UTC().Format(time.RFC3339), audit.Source,
				audit.Created, audit.Updated, audit.Skipped, audit.Failed)
		}
	}
	return nil
}

func exportCommand(c *cli.Context) error {
	out := strings.TrimSpace(c.String("out"))
	orch, err := openOrchestrator(c)
	if err != nil {
		return err
	}
	defer orch.Close()

	ctx := c.Context
	orgs, err := orch.Catalog().All(ctx)
	if err != nil {
		return fmt.Errorf("load organizations: %w", err)
	}
	dest, err := archive.NewStore(out)
	if err != nil {
		return fmt.Errorf("open export target: %w", err)
	}
	if err := dest.Replace(ctx, orgs); err != nil {
		return fmt.Errorf("write export: %w", err)
	}
	fmt.Printf("Exported %d organizations to %s\n", len(orgs), out)
	return nil
}

// runJob starts one ingest job and blocks until it finishes, echoing job log
// lines as they arrive. Interrupting the context cancels the job.
func runJob(ctx context.Context, orch *orchestrator.Orchestrator, req ingest.Request) error {
	mgr := orch.Ingest()
	state, err := mgr.Start(req)
	if err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Job %s started (%s)\n", state.JobID, state.Kind)

	seen := 0
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			if err := mgr.Stop(state.JobID); err != nil && !errors.Is(err, ingest.ErrJobNotRunning) {
				common.Logger().Warn("causectl: cancel job failed", "job_id", state.JobID, "error", err)
			}
			return ctx.Err()
		case <-ticker.C:
		}
		logs := mgr.Logs()
		for ; seen < len(logs); seen++ {
			fmt.Fprintf(os.Stderr, "[%s] %s\n", logs[seen].Level, logs[seen].Message)
		}
		current, err := mgr.Status(state.JobID)
		if err != nil {
			return err
		}
		if current.Running {
			continue
		}
		if current.Status != "completed" {
			return fmt.Errorf("job %s %s: %s", current.JobID, current.Status, current.Error)
		}
		if outcome := current.Outcome; outcome != nil {
			fmt.Fprintf(os.Stderr, "Records %d: created %d, updated %d, skipped %d, failed %d, chunks %d\n",
				outcome.Records, outcome.Created, outcome.Updated, outcome.Skipped, outcome.Failed, outcome.Chunks)
			if outcome.Rebuilt {
				fmt.Fprintln(os.Stderr, "Search index rebuilt")
			}
		}
		return nil
	}
}

// openOrchestrator wires the full component stack with any path overrides
// from the global flags applied on top of the environment config.
func openOrchestrator(c *cli.Context) (*orchestrator.Orchestrator, error) {
	cfg, err := orchestrator.LoadConfig()
	if err != nil {
		return nil, err
	}
	if trimmed := strings.TrimSpace(c.String("archive")); trimmed != "" {
		cfg.ArchivePath = trimmed
	}
	if trimmed := strings.TrimSpace(c.String("catalog")); trimmed != "" {
		cfg.SQLitePath = trimmed
	}
	if trimmed := strings.TrimSpace(c.String("snapshot")); trimmed != "" {
		cfg.SnapshotPath = trimmed
	}
	return orchestrator.New(c.Context, cfg)
}

func setupEnvironment(c *cli.Context) error {
	level := strings.ToLower(strings.TrimSpace(c.String("log-level")))
	switch level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", level)
	}

	envErr := godotenv.Load()
	os.Setenv("LOG_LEVEL", level)
	logger := common.Logger()
	if envErr != nil {
		logger.Debug("causectl: .env file not loaded", "error", envErr)
	} else {
		logger.Info("causectl: environment loaded from .env")
	}
	return nil
}
