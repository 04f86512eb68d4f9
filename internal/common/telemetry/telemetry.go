// File path: internal/common/telemetry/telemetry.go
package telemetry

import (
	"context"
	"expvar"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/causewaylabs/causeway/internal/common"
)

type spanKey struct{}

type span struct {
	name  string
	start time.Time
}

// MemoryLimitError reports a component refused because the process is over
// its configured soft memory budget.
type MemoryLimitError struct {
	Component string
	Usage     uint64
	Limit     uint64
}

func (e MemoryLimitError) Error() string {
	return fmt.Sprintf("memory limit exceeded for %s: %d > %d", e.Component, e.Usage, e.Limit)
}

var (
	initOnce sync.Once

	queryTotal   *expvar.Int
	routeTotal   *expvar.Map
	searchTotal  *expvar.Int
	indexBuilds  *expvar.Int
	indexBuildMS *expvar.Int
	indexDocs    *expvar.Int

	generationTotal    *expvar.Int
	generationFailures *expvar.Int
	generationMS       *expvar.Int

	ingestBatchTotal   *expvar.Int
	ingestRecordsTotal *expvar.Int
	snapshotFailures   *expvar.Int

	memoryLimitBytes uint64
	memoryLimitVar   *expvar.Int
	memoryUsageVar   *expvar.Int
)

func ensureInit() {
	initOnce.Do(func() {
		queryTotal = expvar.NewInt("causeway_queries_total")
		routeTotal = expvar.NewMap("causeway_routes_total")
		searchTotal = expvar.NewInt("causeway_searches_total")
		indexBuilds = expvar.NewInt("causeway_index_builds_total")
		indexBuildMS = expvar.NewInt("causeway_index_build_ms")
		indexDocs = expvar.NewInt("causeway_index_documents")

		generationTotal = expvar.NewInt("causeway_generation_total")
		generationFailures = expvar.NewInt("causeway_generation_failures_total")
		generationMS = expvar.NewInt("causeway_generation_ms")

		ingestBatchTotal = expvar.NewInt("causeway_ingest_batches_total")
		ingestRecordsTotal = expvar.NewInt("causeway_ingest_records_total")
		snapshotFailures = expvar.NewInt("causeway_snapshot_failures_total")

		memoryLimitVar = expvar.NewInt("causeway_memory_limit_bytes")
		memoryUsageVar = expvar.NewInt("causeway_memory_usage_bytes")

		memoryLimitBytes = loadMemoryLimit()
		memoryLimitVar.Set(int64(memoryLimitBytes))
	})
}

func loadMemoryLimit() uint64 {
	limit := strings.TrimSpace(os.Getenv("CAUSEWAY_MEMORY_LIMIT_BYTES"))
	if limit != "" {
		if value, err := strconv.ParseUint(limit, 10, 64); err == nil {
			return value
		}
	}
	if limitMB := strings.TrimSpace(os.Getenv("CAUSEWAY_MEMORY_LIMIT_MB")); limitMB != "" {
		if value, err := strconv.ParseUint(limitMB, 10, 64); err == nil {
			return value * 1024 * 1024
		}
	}
	return 0
}

// StartSpan marks a traced region; the returned func logs the duration plus
// any closing attributes at debug level.
func StartSpan(ctx context.Context, name string) (context.Context, func(attrs ...interface{})) {
	ensureInit()
	sp := &span{name: name, start: time.Now()}
	ctx = context.WithValue(ctx, spanKey{}, sp)
	logger := common.Logger()
	logger.Debug("trace: start", "span", name)
	return ctx, func(attrs ...interface{}) {
		if sp == nil {
			return
		}
		duration := time.Since(sp.start)
		logger.Debug("trace: end", append([]interface{}{"span", name, "dur", duration}, attrs...)...)
	}
}

// RecordQuery counts one orchestrated query and its routing decision.
func RecordQuery(route string) {
	ensureInit()
	queryTotal.Add(1)
	key := strings.TrimSpace(strings.ToLower(route))
	if key == "" {
		key = "unknown"
	}
	routeTotal.Add(key, 1)
}

// RecordSearch counts one raw similarity search.
func RecordSearch() {
	ensureInit()
	searchTotal.Add(1)
}

// RecordIndexBuild counts a completed rebuild and its cost.
func RecordIndexBuild(docs int, duration time.Duration) {
	ensureInit()
	indexBuilds.Add(1)
	indexDocs.Set(int64(docs))
	if duration > 0 {
		indexBuildMS.Add(duration.Milliseconds())
	}
}

// RecordGeneration counts one gateway call; failed marks the degraded path.
func RecordGeneration(failed bool, duration time.Duration) {
	ensureInit()
	generationTotal.Add(1)
	if failed {
		generationFailures.Add(1)
	}
	if duration > 0 {
		generationMS.Add(duration.Milliseconds())
	}
}

// RecordIngestBatch counts one ingest batch and the records it carried.
func RecordIngestBatch(records int) {
	ensureInit()
	ingestBatchTotal.Add(1)
	if records > 0 {
		ingestRecordsTotal.Add(int64(records))
	}
}

// RecordSnapshotFailure counts a failed snapshot save.
func RecordSnapshotFailure() {
	ensureInit()
	snapshotFailures.Add(1)
}

// CheckMemoryBudget refuses heavy work when usage exceeds the configured
// soft limit. With no limit configured it only refreshes the usage gauge.
func CheckMemoryBudget(component string) error {
	ensureInit()
	if memoryLimitBytes == 0 {
		updateMemoryUsage()
		return nil
	}
	usage := updateMemoryUsage()
	if usage > memoryLimitBytes {
		err := MemoryLimitError{Component: component, Usage: usage, Limit: memoryLimitBytes}
		common.Logger().Warn("telemetry: memory guard tripped", "component", component, "usage", usage, "limit", memoryLimitBytes)
		return err
	}
	return nil
}

func updateMemoryUsage() uint64 {
	var stats runtime.MemStats
	runtime.ReadMemStats(&stats)
	usage := stats.Alloc
	memoryUsageVar.Set(int64(usage))
	return usage
}

// SpanDuration reports elapsed time for the span carried by ctx, if any.
func SpanDuration(ctx context.Context) time.Duration {
	sp, _ := ctx.Value(spanKey{}).(*span)
	if sp == nil {
		return 0
	}
	return time.Since(sp.start)
}

// Summary gathers the causeway_* counters into a plain map for the system
// stats endpoint.
func Summary() map[string]interface{} {
	ensureInit()
	updateMemoryUsage()
	out := make(map[string]interface{})
	expvar.Do(func(kv expvar.KeyValue) {
		if !strings.HasPrefix(kv.Key, "causeway_") {
			return
		}
		switch v := kv.Value.(type) {
		case *expvar.Int:
			out[kv.Key] = v.Value()
		case *expvar.Map:
			inner := make(map[string]int64)
			v.Do(func(entry expvar.KeyValue) {
				if iv, ok := entry.Value.(*expvar.Int); ok {
					inner[entry.Key] = iv.Value()
				}
			})
			out[kv.Key] = inner
		}
	})
	return out
}
