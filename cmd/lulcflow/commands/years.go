package commands

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/lulcflow/pkg/analysis"
	"github.com/Sumatoshi-tech/lulcflow/pkg/observability"
)

// NewYearsCommand creates the per-year totals command.
func NewYearsCommand(global *GlobalOptions) *cobra.Command {
	var (
		sf            sourceFlags
		rf            reportFlags
		snapshotsOnly bool
	)

	cmd := &cobra.Command{
		Use:   "years",
		Short: "List the years present with their total area",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := rf.validate()
			if err != nil {
				return err
			}

			e, err := startup(cmd, global, &sf, observability.DefaultConfig())
			if err != nil {
				return err
			}
			defer e.close()

			svc, err := e.service()
			if err != nil {
				return err
			}

			src, err := e.openSource()
			if err != nil {
				return err
			}

			totals, err := svc.Years(cmd.Context(), src, analysis.YearsRequest{
				Years:         e.cfg.Source.Years,
				SnapshotsOnly: snapshotsOnly,
			})
			if err != nil {
				return err
			}

			renderer := rf.renderer(global, e.cfg)

			return rf.write(cmd, func(w io.Writer) error {
				return renderer.Years(w, format, totals)
			})
		},
	}

	sf.bind(cmd)
	rf.bind(cmd)
	cmd.Flags().BoolVar(&snapshotsOnly, "snapshots-only", false, "aggregate the snapshots and ignore the transition collection")

	return cmd
}
