package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mlighty/bi-agent-dashboard/internal/athena"
	"github.com/mlighty/bi-agent-dashboard/internal/cache"
	"github.com/mlighty/bi-agent-dashboard/internal/config"
)

var athenaCmd = &cobra.Command{
	Use:   "athena",
	Short: "Run warehouse queries and cache their results",
}

var athenaQueryFilter string

var athenaSyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Execute every *.sql query and load the results",
	Long: `Execute every *.sql query from the sources directory against AWS
Athena and load each result CSV into the Athena cache, one table per
query file.

Examples:
  # Run everything under ~/.bidash/sources/aws_athena
  bidash athena sync

  # Run a single query by name
  bidash athena sync --query monthly_revenue`,
	Args: cobra.NoArgs,
	RunE: runAthenaSync,
}

func init() {
	athenaSyncCmd.Flags().StringVar(&athenaQueryFilter, "query", "",
		"run only the query with this name")
	athenaCmd.AddCommand(athenaSyncCmd)
}

func runAthenaSync(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return trackCLIError("sync", fmt.Errorf("load config: %w", err))
	}
	if err := cfg.ValidateAthena(); err != nil {
		return trackCLIError("sync", err)
	}

	paths := config.GetPaths(cfg)
	queries, err := athena.LoadQueries(paths.SourcesDir)
	if err != nil {
		return trackCLIError("sync", err)
	}
	if athenaQueryFilter != "" {
		queries = filterQueries(queries, athenaQueryFilter)
		if len(queries) == 0 {
			return trackCLIError("sync", fmt.Errorf("query %q not found in %s", athenaQueryFilter, paths.SourcesDir))
		}
	}
	if len(queries) == 0 {
		fmt.Printf("No .sql files found in %s\n", paths.SourcesDir)
		return nil
	}

	printHeader("Athena sync")

	athenaClient, s3Client, err := athena.NewClients(ctx, cfg.Athena)
	if err != nil {
		return trackCLIError("sync", err)
	}

	runner := athena.NewRunner(athenaClient, s3Client, cfg.Athena)
	loader := cache.NewLoader(paths.AthenaCache, paths.DataDir)
	syncer := athena.NewSyncer(runner, loader, paths.DataDir, telemetryClient)

	loaded, err := syncer.RunAll(ctx, queries)
	if err != nil {
		return trackCLIError("sync", err)
	}

	fmt.Printf("✓ Athena sync complete (%d/%d queries loaded)\n", loaded, len(queries))
	return nil
}

func filterQueries(queries []athena.Query, name string) []athena.Query {
	var out []athena.Query
	for _, q := range queries {
		if q.Name == name {
			out = append(out, q)
		}
	}
	return out
}
