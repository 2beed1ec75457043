package main

import (
	"fmt"

	"github.com/aretw0/kiln/internal/presentation/tui"
	"github.com/spf13/cobra"
)

func newTasksCmd(s streams, opts *globalOptions) *cobra.Command {
	var (
		all      bool
		markdown bool
	)

	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"list"},
		Short:   "List the tasks of the project",
		Long: `Lists documented tasks with their descriptions. On a terminal the list is
rendered as a styled table that includes every task.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := opts.build(s)
			if err != nil {
				return err
			}

			tasks := b.Tasks()
			if markdown || isTerminal(s.out) {
				md := tui.TaskListMarkdown(tasks, b.Defaults())
				if markdown {
					fmt.Fprint(s.out, md)
					return nil
				}
				rendered, err := tui.NewRenderer()(md)
				if err != nil {
					return err
				}
				fmt.Fprint(s.out, rendered)
				return nil
			}

			fmt.Fprint(s.out, tui.TaskListPlain(tasks, all))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "A", false, "Include tasks without a description")
	cmd.Flags().BoolVar(&markdown, "markdown", false, "Print the raw markdown table")
	return cmd
}
