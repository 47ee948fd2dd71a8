package posthog

import (
	"context"
	"fmt"
	"time"

	"github.com/mlighty/bi-agent-dashboard/internal/cache"
	"github.com/mlighty/bi-agent-dashboard/internal/config"
	"github.com/mlighty/bi-agent-dashboard/internal/flatten"
	"github.com/mlighty/bi-agent-dashboard/internal/log"
	"github.com/mlighty/bi-agent-dashboard/internal/telemetry"
)

// Datasets controls which PostHog tables a sync run refreshes.
type Datasets struct {
	Events   bool
	Persons  bool
	Insights bool
}

// All reports whether no dataset was singled out, meaning sync everything.
func (d Datasets) All() bool {
	return !d.Events && !d.Persons && !d.Insights
}

// Syncer refreshes the posthog_* cache tables.
type Syncer struct {
	client    *Client
	loader    *cache.Loader
	cfg       config.PostHogConfig
	telemetry telemetry.Client
}

// NewSyncer wires a syncer from its collaborators.
func NewSyncer(client *Client, loader *cache.Loader, cfg config.PostHogConfig, tc telemetry.Client) *Syncer {
	return &Syncer{client: client, loader: loader, cfg: cfg, telemetry: tc}
}

// SyncAll refreshes the selected datasets. Unlike the CRM sync, one
// dataset's failure does not abort the others; the run errors only when
// every selected dataset failed.
func (s *Syncer) SyncAll(ctx context.Context, datasets Datasets) error {
	if datasets.All() {
		datasets = Datasets{Events: true, Persons: true, Insights: true}
	}

	type step struct {
		name     string
		selected bool
		run      func(context.Context) (int64, error)
	}
	steps := []step{
		{"events", datasets.Events, s.syncEvents},
		{"persons", datasets.Persons, s.syncPersons},
		{"insights", datasets.Insights, s.syncInsights},
	}

	total, failed := 0, 0
	var firstErr error
	for _, st := range steps {
		if !st.selected {
			continue
		}
		total++
		start := time.Now()
		count, err := st.run(ctx)
		if err != nil {
			failed++
			if firstErr == nil {
				firstErr = err
			}
			log.Errorf("Error syncing %s: %v\n", st.name, err)
			continue
		}
		s.telemetry.TrackDatasetSynced("posthog", st.name, count, time.Since(start).Milliseconds())
	}

	s.telemetry.TrackSyncCompleted("posthog", total, failed)
	if failed == total && firstErr != nil {
		return fmt.Errorf("posthog sync: %w", firstErr)
	}
	return nil
}

func (s *Syncer) syncEvents(ctx context.Context) (int64, error) {
	log.Printf("\nFetching events (last %d days)...\n", s.cfg.DaysBack)
	events, err := s.client.FetchEvents(ctx, s.cfg.DaysBack, nil)
	if err != nil {
		return 0, err
	}
	return s.loader.Load(ctx, "posthog_events", toRows(events))
}

func (s *Syncer) syncPersons(ctx context.Context) (int64, error) {
	log.Printf("\nFetching persons...\n")
	persons, err := s.client.FetchPersons(ctx, s.cfg.PersonsCap)
	if err != nil {
		return 0, err
	}
	return s.loader.Load(ctx, "posthog_persons", toRows(persons))
}

func (s *Syncer) syncInsights(ctx context.Context) (int64, error) {
	log.Printf("\nFetching insights...\n")
	insights, err := s.client.FetchInsights(ctx)
	if err != nil {
		return 0, err
	}
	return s.loader.Load(ctx, "posthog_insights", toRows(insights))
}

func toRows(records []map[string]interface{}) []flatten.Row {
	rows := make([]flatten.Row, 0, len(records))
	for _, record := range records {
		rows = append(rows, flatten.Row(record))
	}
	return rows
}
