package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mlighty/bi-agent-dashboard/pkg/version"
)

var versionFull bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Args:  cobra.NoArgs,
	RunE:  runVersion,
}

func init() {
	versionCmd.Flags().BoolVar(&versionFull, "full", false, "include commit, build date, and platform details")
	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, args []string) error {
	if versionFull {
		fmt.Fprintln(cmd.OutOrStdout(), version.Full())
		return nil
	}
	fmt.Fprintln(cmd.OutOrStdout(), version.Info())
	return nil
}
