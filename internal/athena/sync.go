package athena

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/mlighty/bi-agent-dashboard/internal/cache"
	"github.com/mlighty/bi-agent-dashboard/internal/log"
	"github.com/mlighty/bi-agent-dashboard/internal/telemetry"
)

// Syncer executes a batch of named queries and loads each result CSV into
// its own cache table.
type Syncer struct {
	runner    *Runner
	loader    *cache.Loader
	dataDir   string
	telemetry telemetry.Client
}

// NewSyncer wires a syncer from its collaborators. dataDir receives the
// downloaded result CSVs.
func NewSyncer(runner *Runner, loader *cache.Loader, dataDir string, tc telemetry.Client) *Syncer {
	return &Syncer{runner: runner, loader: loader, dataDir: dataDir, telemetry: tc}
}

// RunAll executes every query, isolating per-query failures: a query that
// errors or reaches FAILED/CANCELLED is logged and skipped, and the batch
// continues with the remaining queries. Returns how many queries loaded
// successfully.
func (s *Syncer) RunAll(ctx context.Context, queries []Query) (int, error) {
	loaded := 0
	failed := 0

	for _, query := range queries {
		log.Printf("\nExecuting query: %s\n", query.Name)
		start := time.Now()

		destPath := filepath.Join(s.dataDir, query.Name+".csv")
		result, err := s.runner.Run(ctx, query.SQL, destPath)
		if err != nil {
			// Machinery failure (submit, poll or download). Isolated per
			// query so one failure does not abort its siblings.
			failed++
			log.Errorf("query %s: %v", query.Name, err)
			s.telemetry.TrackQueryExecuted(query.Name, "ERROR", time.Since(start).Milliseconds())
			continue
		}

		log.Printf("  Execution ID: %s\n", result.ExecutionID)
		s.telemetry.TrackQueryExecuted(query.Name, string(result.State), time.Since(start).Milliseconds())

		if !result.Succeeded() {
			failed++
			log.Printf("  Query failed: %s\n", failureReason(result))
			continue
		}

		log.Printf("  Downloaded to %s\n", result.LocalPath)
		if _, err := s.loader.LoadCSV(ctx, query.Name, result.LocalPath); err != nil {
			failed++
			log.Errorf("load %s: %v", query.Name, err)
			continue
		}
		loaded++
	}

	if loaded == 0 && failed > 0 {
		return 0, fmt.Errorf("all %d queries failed", failed)
	}
	return loaded, nil
}

func failureReason(result Result) string {
	if result.FailureReason != "" {
		return result.FailureReason
	}
	return "Unknown error"
}
