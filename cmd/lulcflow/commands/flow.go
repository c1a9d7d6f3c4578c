package commands

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/lulcflow/pkg/observability"
)

// NewFlowCommand creates the transition flow command.
func NewFlowCommand(global *GlobalOptions) *cobra.Command {
	var (
		sf sourceFlags
		rf reportFlags
	)

	cmd := &cobra.Command{
		Use:   "flow",
		Short: "Build the class transition flow diagram",
		Long: `Count class-to-class transitions and reduce them to an acyclic flow graph.

Edges are added heaviest first; an edge that would close a cycle is dropped
and reported separately. Use -f plot for an interactive Sankey diagram.`,
		Example: `  lulcflow flow --dir ./data
  lulcflow flow --url http://127.0.0.1:8000 -f plot -o flow.html --theme dark`,
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

			graph, err := svc.Flow(cmd.Context(), src)
			if err != nil {
				return err
			}

			renderer := rf.renderer(global, e.cfg)

			return rf.write(cmd, func(w io.Writer) error {
				return renderer.Flow(w, format, graph)
			})
		},
	}

	sf.bind(cmd)
	rf.bind(cmd)

	return cmd
}
