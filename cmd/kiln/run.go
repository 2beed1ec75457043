package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/kiln"
	"github.com/aretw0/kiln/internal/metrics"
	"github.com/aretw0/kiln/internal/presentation/tui"
	"github.com/aretw0/kiln/pkg/domain"
	"github.com/spf13/cobra"
)

func newRunCmd(s streams, opts *globalOptions) *cobra.Command {
	var (
		dryRun      bool
		metricsFile string
		quiet       bool
	)

	cmd := &cobra.Command{
		Use:   "run [task...]",
		Short: "Run tasks and their prerequisites (default command)",
		Long: `Runs the named tasks, or the default aggregate when none is named. Every
prerequisite runs exactly once, before the tasks that need it. The first
failing task stops the build and kiln exits with status 1.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			status := tui.NewStatus(s.out, isTerminal(s.out))
			hooks := []domain.LifecycleHooks{}
			if !quiet {
				hooks = append(hooks, status.Hooks())
			}

			var collector *metrics.Collector
			if metricsFile != "" {
				collector = metrics.NewCollector()
				hooks = append(hooks, collector.Hooks())
			}

			b, err := opts.build(s, kiln.WithLifecycleHooks(domain.ChainHooks(hooks...)))
			if err != nil {
				return err
			}

			if dryRun {
				plan, err := b.Plan(args...)
				if err != nil {
					return err
				}
				fmt.Fprintln(s.out, strings.Join(plan, "\n"))
				return nil
			}

			_, runErr := b.Run(cmd.Context(), args...)
			if collector != nil {
				if err := collector.WriteTextfile(metricsFile); err != nil {
					fmt.Fprintf(s.err, "kiln: %v\n", err)
				}
			}
			return runErr
		},
	}

	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Print the execution order without running anything")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics to this textfile after the run")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not print task progress")
	return cmd
}
