// Package commands implements the lulcflow CLI commands.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/lulcflow/pkg/version"
)

// ExitError carries a process exit code other than 1.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }

func (e *ExitError) Unwrap() error { return e.Err }

// GlobalOptions are the persistent flags shared by all commands.
type GlobalOptions struct {
	ConfigPath string
	Verbose    bool
	Quiet      bool
	NoColor    bool
}

// NewRootCommand builds the lulcflow command tree.
func NewRootCommand() *cobra.Command {
	global := &GlobalOptions{}

	rootCmd := &cobra.Command{
		Use:   "lulcflow",
		Short: "Land-use/land-cover change analysis",
		Long: `lulcflow turns land-use/land-cover GeoJSON into class-area change tables
and acyclic class-transition flow graphs.

Commands:
  delta     Per-class area change between two years
  flow      Class-to-class transition flow graph (Sankey)
  years     Total classified area per year
  validate  Check a GeoJSON document against the FeatureCollection schema
  mcp       Serve the analyses as MCP tools on stdio`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&global.ConfigPath, "config", "c", "", "config file (default: ./lulcflow.yaml, ./config, /etc/lulcflow)")
	flags.BoolVarP(&global.Verbose, "verbose", "v", false, "verbose output")
	flags.BoolVarP(&global.Quiet, "quiet", "q", false, "suppress output")
	flags.BoolVar(&global.NoColor, "no-color", false, "disable colored output")

	rootCmd.AddCommand(
		NewDeltaCommand(global),
		NewFlowCommand(global),
		NewYearsCommand(global),
		NewValidateCommand(global),
		NewMCPCommand(global),
		versionCmd(),
	)

	return rootCmd
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "lulcflow %s (commit: %s, built: %s)\n", version.Version, version.Commit, version.Date)
		},
	}
}
