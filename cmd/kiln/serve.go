package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aretw0/kiln"
	httpAdapter "github.com/aretw0/kiln/internal/adapters/http"
	"github.com/aretw0/kiln/internal/metrics"
	"github.com/aretw0/kiln/internal/presentation/tui"
	"github.com/aretw0/kiln/pkg/adapters/memory"
	"github.com/spf13/cobra"
)

func newServeCmd(s streams, opts *globalOptions) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the status server",
		Long: `Serves the task list, execution plans, the Mermaid graph, the run journal and
Prometheus metrics over HTTP. POST /runs?task=NAME runs tasks one at a time;
those runs feed the journal and the metrics. Without --journal an in-memory
journal is used.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, handler, err := serveHandler(s, opts)
			if err != nil {
				return err
			}

			srv := &http.Server{
				Addr:              ":" + port,
				Handler:           handler,
				ReadHeaderTimeout: 10 * time.Second,
			}

			serverErrors := make(chan error, 1)
			go func() {
				if isTerminal(s.out) {
					tui.PrintBanner(s.out, kiln.Version)
				}
				fmt.Fprintf(s.out, "Serving %d tasks on %s\n", len(b.Tasks()), srv.Addr)
				serverErrors <- srv.ListenAndServe()
			}()

			shutdown := make(chan os.Signal, 1)
			signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)
			defer signal.Stop(shutdown)

			select {
			case err := <-serverErrors:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return fmt.Errorf("server error: %w", err)

			case sig := <-shutdown:
				fmt.Fprintf(s.out, "\nShutting down (%v)\n", sig)
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := srv.Shutdown(ctx); err != nil {
					_ = srv.Close()
					return fmt.Errorf("graceful shutdown did not complete: %w", err)
				}
				return nil
			}
		},
	}

	cmd.Flags().StringVarP(&port, "port", "p", "8080", "Port to listen on")
	return cmd
}

// serveHandler builds the status handler. Triggered runs go through the
// build, so the collector and the journal observe every one of them.
func serveHandler(s streams, opts *globalOptions) (*kiln.Build, http.Handler, error) {
	collector := metrics.NewCollector()
	extra := []kiln.Option{kiln.WithLifecycleHooks(collector.Hooks())}
	if opts.journal == "" || opts.journal == "none" {
		extra = append(extra, kiln.WithRunStore(memory.NewStore()))
	}
	b, err := opts.build(s, extra...)
	if err != nil {
		return nil, nil, err
	}

	handler := httpAdapter.NewHandler(b,
		httpAdapter.WithTrigger(b),
		httpAdapter.WithStore(b.Store()),
		httpAdapter.WithMetrics(collector.Handler()),
	)
	return b, handler, nil
}
