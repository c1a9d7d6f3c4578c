package commands

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/lulcflow/pkg/analysis"
	"github.com/Sumatoshi-tech/lulcflow/pkg/observability"
)

// NewDeltaCommand creates the class delta command.
func NewDeltaCommand(global *GlobalOptions) *cobra.Command {
	var (
		sf       sourceFlags
		rf       reportFlags
		from, to int
	)

	cmd := &cobra.Command{
		Use:   "delta",
		Short: "Compare class areas between two years",
		Long: `Aggregate land-cover area per class and year and compare two years.

Areas come from the transition collection, keyed by destination year. When
it carries no years the per-year snapshots are used instead. The comparison
defaults to the earliest and latest year present.`,
		Example: `  lulcflow delta --dir ./data
  lulcflow delta --url http://127.0.0.1:8000 --from 2017 --to 2023 -f table
  lulcflow delta --dir ./data -f plot -o delta.html`,
		Args: cobra.NoArgs,
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

			summary, err := svc.Delta(cmd.Context(), src, analysis.DeltaRequest{
				Years:    e.cfg.Source.Years,
				FromYear: from,
				ToYear:   to,
			})
			if err != nil {
				return err
			}

			renderer := rf.renderer(global, e.cfg)

			return rf.write(cmd, func(w io.Writer) error {
				return renderer.Delta(w, format, summary)
			})
		},
	}

	sf.bind(cmd)
	rf.bind(cmd)
	cmd.Flags().IntVar(&from, "from", 0, "baseline year (default: earliest year present)")
	cmd.Flags().IntVar(&to, "to", 0, "comparison year (default: latest year present)")

	return cmd
}
