package main

import (
	"errors"
	"fmt"

	"github.com/aretw0/kiln/internal/presentation/graph"
	"github.com/spf13/cobra"
)

func newGraphCmd(s streams, opts *globalOptions) *cobra.Command {
	var runID string

	cmd := &cobra.Command{
		Use:   "graph",
		Short: "Export the task graph as a Mermaid diagram",
		Long: `Outputs a Mermaid flowchart (graph TD) with an edge from every prerequisite
to the task that needs it. With --run, the outcome of a journaled run is
overlaid on the graph.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := opts.build(s)
			if err != nil {
				return err
			}

			var overlay *graph.Overlay
			if runID != "" {
				store := b.Store()
				if store == nil {
					return errors.New("--run needs a journal (see --journal)")
				}
				rec, err := store.Load(cmd.Context(), runID)
				if err != nil {
					return fmt.Errorf("run %s: %w", runID, err)
				}
				overlay = graph.OverlayFromReport(&rec.RunReport)
			}

			fmt.Fprint(s.out, graph.GenerateMermaid(b.Tasks(), overlay))
			return nil
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "Overlay the outcome of this run ID")
	return cmd
}
