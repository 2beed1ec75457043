package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newHistoryCmd(s streams, opts *globalOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show journaled runs",
		Long: `Lists journaled runs, newest first. With a run ID, prints that run's record
as JSON. Needs --journal file, redis or memory.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := opts.build(s)
			if err != nil {
				return err
			}
			store := b.Store()
			if store == nil {
				return errors.New("no journal configured (see --journal)")
			}
			ctx := cmd.Context()

			if len(args) == 1 {
				rec, err := store.Load(ctx, args[0])
				if err != nil {
					return fmt.Errorf("run %s: %w", args[0], err)
				}
				enc := json.NewEncoder(s.out)
				enc.SetIndent("", "  ")
				return enc.Encode(rec)
			}

			ids, err := store.List(ctx)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "RUN\tSTATUS\tSTARTED\tDURATION\tREQUESTED\tFAILED")
			shown := 0
			for i := len(ids) - 1; i >= 0; i-- {
				if limit > 0 && shown == limit {
					break
				}
				rec, err := store.Load(ctx, ids[i])
				if err != nil {
					continue
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%v\t%s\n",
					rec.ID,
					rec.Status,
					rec.Started.Local().Format(time.DateTime),
					rec.Finished.Sub(rec.Started).Round(time.Millisecond),
					rec.Requested,
					rec.FailedTask,
				)
				shown++
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "l", 20, "Show at most this many runs (0 for all)")
	return cmd
}
