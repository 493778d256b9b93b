// Package cli wires the coltools commands together.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/coral-mesh/coltools/internal/cli/buildlogs"
	"github.com/coral-mesh/coltools/internal/cli/column"
	"github.com/coral-mesh/coltools/pkg/version"
)

// NewRootCmd creates the coltools root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "coltools",
		Short: "Column queries on DuckDB and Travis CI log downloads",
		Long: `coltools bundles two small utilities:

- column: read one column of a DuckDB table, or aggregate it with any SQL
  function (min, max, sum, count, ...), optionally per group.
- build-logs: download every job log of a Travis CI build as gzip files.`,
		Version:       version.String(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(column.NewColumnCmd())
	rootCmd.AddCommand(buildlogs.NewBuildLogsCmd("build-logs"))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// NewBuildLogsRootCmd creates the root command of the standalone
// travis-build-logs binary.
func NewBuildLogsRootCmd() *cobra.Command {
	cmd := buildlogs.NewBuildLogsCmd("travis-build-logs")
	cmd.Version = version.String()
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Printf("coltools version %s\n", version.Version)
			cmd.Printf("Git commit: %s\n", version.GitCommit)
			cmd.Printf("Build date: %s\n", version.BuildDate)
			cmd.Printf("Go version: %s\n", version.GoVersion)
		},
	}
}
