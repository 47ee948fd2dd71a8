package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mlighty/bi-agent-dashboard/internal/audit"
	"github.com/mlighty/bi-agent-dashboard/internal/cache"
	"github.com/mlighty/bi-agent-dashboard/internal/config"
	"github.com/mlighty/bi-agent-dashboard/internal/hubspot"
)

var hubspotCmd = &cobra.Command{
	Use:   "hubspot",
	Short: "Sync and automate HubSpot CRM data",
}

var hubspotObjects []string

var hubspotSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Sync CRM datasets into the local cache",
	Long: `Sync CRM datasets into the local cache.

Fetches contacts, companies, deals, pipelines, and owners from the
HubSpot API and replaces the matching tables in the HubSpot cache.

Examples:
  # Sync everything
  bidash hubspot sync

  # Sync a subset
  bidash hubspot sync --objects contacts,deals`,
	Args: cobra.NoArgs,
	RunE: runHubSpotSync,
}

var actionDays int

var hubspotActionCmd = &cobra.Command{
	Use:   "action <name>",
	Short: "Run a CRM automation action (stale_deals, lifecycle_update, deal_velocity)",
	Args:  cobra.ExactArgs(1),
	RunE:  runHubSpotAction,
}

var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Run the daily routine: full HubSpot sync plus every action",
	Args:  cobra.NoArgs,
	RunE:  runDaily,
}

func init() {
	hubspotSyncCmd.Flags().StringSliceVar(&hubspotObjects, "objects", nil,
		"comma-separated datasets to sync (default: all)")
	hubspotActionCmd.Flags().IntVar(&actionDays, "days", hubspot.DefaultStaleDays,
		"staleness threshold in days for stale_deals")
	hubspotCmd.AddCommand(hubspotSyncCmd)
	hubspotCmd.AddCommand(hubspotActionCmd)
}

// newHubSpotStack validates config and wires the client, syncer, and
// action runner. The caller must Close the returned audit store.
func newHubSpotStack(cfg *config.Config) (*hubspot.Actions, *audit.Store, error) {
	if err := cfg.ValidateHubSpot(); err != nil {
		return nil, nil, err
	}

	paths := config.GetPaths(cfg)
	store, err := audit.New(audit.DefaultConfig(paths.AuditDB))
	if err != nil {
		return nil, nil, fmt.Errorf("open audit store: %w", err)
	}

	client := hubspot.NewClient(cfg.HubSpot)
	loader := cache.NewLoader(paths.HubSpotCache, paths.DataDir)
	syncer := hubspot.NewSyncer(client, loader, telemetryClient)
	return hubspot.NewActions(client, syncer, store, telemetryClient), store, nil
}

func runHubSpotSync(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return trackCLIError("sync", fmt.Errorf("load config: %w", err))
	}
	if err := cfg.ValidateHubSpot(); err != nil {
		return trackCLIError("sync", err)
	}

	printHeader("HubSpot sync")

	paths := config.GetPaths(cfg)
	client := hubspot.NewClient(cfg.HubSpot)
	loader := cache.NewLoader(paths.HubSpotCache, paths.DataDir)
	syncer := hubspot.NewSyncer(client, loader, telemetryClient)

	if err := syncer.SyncAll(cmd.Context(), hubspotObjects); err != nil {
		return trackCLIError("sync", err)
	}

	fmt.Println("✓ HubSpot sync complete")
	return nil
}

func runHubSpotAction(cmd *cobra.Command, args []string) error {
	name := strings.ToLower(args[0])

	cfg, err := config.Load()
	if err != nil {
		return trackCLIError("action", fmt.Errorf("load config: %w", err))
	}

	actions, store, err := newHubSpotStack(cfg)
	if err != nil {
		return trackCLIError("action", err)
	}
	defer func() { _ = store.Close() }()

	printHeader("HubSpot action: " + name)

	ctx := cmd.Context()
	var affected int
	switch name {
	case "stale_deals":
		affected, err = actions.StaleDealsReminder(ctx, actionDays)
	case "lifecycle_update":
		affected, err = actions.LifecycleStageUpdate(ctx)
	case "deal_velocity":
		affected, err = actions.DealStageVelocity(ctx)
	default:
		return trackCLIError("action",
			fmt.Errorf("unknown action %q (valid: stale_deals, lifecycle_update, deal_velocity)", name))
	}
	if err != nil {
		return trackCLIError("action", err)
	}

	fmt.Printf("✓ %s complete (%d affected)\n", name, affected)
	return nil
}

func runDaily(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return trackCLIError("daily", fmt.Errorf("load config: %w", err))
	}

	actions, store, err := newHubSpotStack(cfg)
	if err != nil {
		return trackCLIError("daily", err)
	}
	defer func() { _ = store.Close() }()

	printHeader("Daily automation")

	if err := actions.RunDaily(cmd.Context()); err != nil {
		return trackCLIError("daily", err)
	}

	fmt.Println("✓ Daily automation complete")
	return nil
}
