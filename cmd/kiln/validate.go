package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newValidateCmd(s streams, opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the project for unknown dependencies and cycles",
		Long: `Loads the project and resolves every task and the default aggregate without
running anything. Every problem found is reported.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := opts.build(s)
			if err != nil {
				return err
			}

			var errs []error
			for _, t := range b.Tasks() {
				if _, err := b.Plan(t.Name); err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", t.Name, err))
				}
			}
			if defaults := b.Defaults(); len(defaults) > 0 {
				if _, err := b.Plan(defaults...); err != nil {
					errs = append(errs, fmt.Errorf("default: %w", err))
				}
			}
			if err := errors.Join(errs...); err != nil {
				return err
			}

			fmt.Fprintf(s.out, "ok: %d tasks\n", len(b.Tasks()))
			return nil
		},
	}
}
