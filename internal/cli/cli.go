// Package cli provides the command-line interface for bidash.
package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/mlighty/bi-agent-dashboard/internal/telemetry"
	"github.com/mlighty/bi-agent-dashboard/pkg/version"
)

var telemetryClient telemetry.Client

var commandStartTime time.Time

var headerStyle = lipgloss.NewStyle().
	Foreground(lipgloss.Color("#10B981")).
	Bold(true)

var rootCmd = &cobra.Command{
	Use:   "bidash",
	Short: "Sync CRM, warehouse, and analytics data into a local cache",
	Long: `Sync CRM, warehouse, and analytics data into a local cache

Pulls datasets from HubSpot, AWS Athena, and PostHog, flattens them,
and loads them into per-integration DuckDB caches under ~/.bidash/data
for local dashboards to query.

Telemetry:
  Telemetry is enabled by default, always anonymous, and will never track
  personal information, custom/local data, or IP addresses.

  Opt-out with:
  	BIDASH_TELEMETRY_ENABLED=false`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		commandStartTime = time.Now()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if cmd.Name() != "bidash" {
			durationMs := time.Since(commandStartTime).Milliseconds()
			hasFlags := cmd.Flags().NFlag() > 0
			telemetryClient.TrackCLICommandExecuted(cmd.Name(), hasFlags, durationMs)
		}
	},
}

func init() {
	rootCmd.AddCommand(hubspotCmd)
	rootCmd.AddCommand(athenaCmd)
	rootCmd.AddCommand(posthogCmd)
	rootCmd.AddCommand(dailyCmd)
}

// Execute runs the CLI with fang enhancements.
func Execute(ctx context.Context, tc telemetry.Client) error {
	if tc == nil {
		tc = telemetry.New(nil)
	}
	telemetryClient = tc

	return fang.Execute(
		ctx,
		rootCmd,
		fang.WithVersion(version.Short()),
		fang.WithCommit(version.Commit),
	)
}

func printHeader(text string) {
	fmt.Println(headerStyle.Render(text))
}

// trackCLIError wraps an error with telemetry tracking.
// Call this before returning errors from CLI commands.
func trackCLIError(cmdName string, err error) error {
	if err == nil {
		return nil
	}
	errorType := classifyError(err)
	telemetryClient.TrackCLIError(cmdName, errorType)
	return err
}

// classifyError determines the error type for telemetry.
func classifyError(err error) string {
	errStr := err.Error()
	switch {
	case containsAny(errStr, "missing required environment", "config", "configuration"):
		return "config_error"
	case containsAny(errStr, "rate limit"):
		return "rate_limit_error"
	case containsAny(errStr, "database", "duckdb", "sqlite"):
		return "database_error"
	case containsAny(errStr, "network", "timeout", "connection"):
		return "network_error"
	case containsAny(errStr, "not found", "does not exist"):
		return "not_found_error"
	case containsAny(errStr, "invalid", "parse", "format"):
		return "validation_error"
	default:
		return "unknown_error"
	}
}

// containsAny checks if s contains any of the substrings (case-insensitive).
func containsAny(s string, substrs ...string) bool {
	lower := strings.ToLower(s)
	for _, sub := range substrs {
		if strings.Contains(lower, sub) {
			return true
		}
	}
	return false
}
