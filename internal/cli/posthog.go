package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mlighty/bi-agent-dashboard/internal/cache"
	"github.com/mlighty/bi-agent-dashboard/internal/config"
	"github.com/mlighty/bi-agent-dashboard/internal/posthog"
)

var posthogCmd = &cobra.Command{
	Use:   "posthog",
	Short: "Sync product analytics data from PostHog",
}

var posthogDatasets posthog.Datasets

var posthogSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync events, persons, and insights into the local cache",
	Long: `Sync analytics datasets from PostHog into the local cache.

With no flags every dataset is refreshed. Passing any dataset flag
restricts the run to the named datasets.

Examples:
  # Sync everything
  bidash posthog sync

  # Only recent events
  bidash posthog sync --events`,
	Args: cobra.NoArgs,
	RunE: runPostHogSync,
}

func init() {
	posthogSyncCmd.Flags().BoolVar(&posthogDatasets.Events, "events", false, "sync recent events")
	posthogSyncCmd.Flags().BoolVar(&posthogDatasets.Persons, "persons", false, "sync persons")
	posthogSyncCmd.Flags().BoolVar(&posthogDatasets.Insights, "insights", false, "sync saved insights")
	posthogCmd.AddCommand(posthogSyncCmd)
}

func runPostHogSync(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return trackCLIError("sync", fmt.Errorf("load config: %w", err))
	}
	if err := cfg.ValidatePostHog(); err != nil {
		return trackCLIError("sync", err)
	}

	printHeader("PostHog sync")

	paths := config.GetPaths(cfg)
	client := posthog.NewClient(cfg.PostHog)
	loader := cache.NewLoader(paths.PostHogCache, paths.DataDir)
	syncer := posthog.NewSyncer(client, loader, cfg.PostHog, telemetryClient)

	if err := syncer.SyncAll(cmd.Context(), posthogDatasets); err != nil {
		return trackCLIError("sync", err)
	}

	fmt.Println("✓ PostHog sync complete")
	return nil
}
