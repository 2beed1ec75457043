package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/kiln"
	"github.com/aretw0/kiln/internal/adapters/file"
	"github.com/aretw0/kiln/internal/config"
	"github.com/aretw0/kiln/internal/logging"
	"github.com/aretw0/kiln/internal/presentation/tui"
	"github.com/aretw0/kiln/pkg/adapters/memory"
	"github.com/aretw0/kiln/pkg/adapters/redis"
	"github.com/aretw0/kiln/pkg/ports"
	"github.com/spf13/cobra"
)

// streams are the process boundaries a command may touch.
type streams struct {
	out     io.Writer
	err     io.Writer
	environ []string
}

// globalOptions are the persistent flags shared by every command.
type globalOptions struct {
	dir         string
	file        string
	logLevel    string
	journal     string
	journalDir  string
	redisAddr   string
	redisPrefix string

	// closers release journal connections once the command returns.
	closers []io.Closer
}

// Execute runs the CLI and returns the process exit code.
func Execute(args []string, s streams) int {
	root, opts := newRootCmd(s)
	defer opts.close(s)
	root.SetArgs(args)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(s.err, "kiln: %v\n", err)
		return 1
	}
	return 0
}

func newRootCmd(s streams) (*cobra.Command, *globalOptions) {
	opts := &globalOptions{}
	run := newRunCmd(s, opts)

	root := &cobra.Command{
		Use:   "kiln [task...]",
		Short: "kiln runs declarative build tasks in dependency order",
		Long: `kiln reads build tasks from kiln.yaml (or its built-in project), runs every
prerequisite of the requested tasks exactly once, in order, and stops at the
first failure. With no task it runs the project's default aggregate.`,
		Version:       kiln.Version,
		Args:          run.Args,
		RunE:          run.RunE,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(s.out)
	root.SetErr(s.err)
	root.Flags().AddFlagSet(run.Flags())

	pf := root.PersistentFlags()
	pf.StringVar(&opts.dir, "dir", "", "Build directory (default $KILN_DIR or .)")
	pf.StringVarP(&opts.file, "file", "f", "", "Project file (default $KILN_FILE or <dir>/kiln.yaml)")
	pf.StringVar(&opts.logLevel, "log-level", "", "Log level: debug, info, warn, error (default $KILN_LOG_LEVEL or warn)")
	pf.StringVar(&opts.journal, "journal", "none", "Run journal: none, memory, file, redis")
	pf.StringVar(&opts.journalDir, "journal-dir", "", "Directory of the file journal (default <dir>/.kiln/runs)")
	pf.StringVar(&opts.redisAddr, "redis-addr", "localhost:6379", "Redis address for the redis journal")
	pf.StringVar(&opts.redisPrefix, "redis-prefix", redis.DefaultPrefix, "Key prefix for the redis journal")

	root.AddCommand(
		run,
		newTasksCmd(s, opts),
		newGraphCmd(s, opts),
		newValidateCmd(s, opts),
		newHistoryCmd(s, opts),
		newServeCmd(s, opts),
		newVersionCmd(s),
	)
	return root, opts
}

// config decodes the environment and applies flag overrides.
func (o *globalOptions) config(s streams) (config.Config, error) {
	cfg, err := config.FromEnviron(s.environ)
	if err != nil {
		return config.Config{}, err
	}
	if o.dir != "" {
		cfg.Dir = o.dir
	}
	if o.file != "" {
		cfg.ProjectFile = o.file
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	return cfg, nil
}

func (o *globalOptions) logger(s streams, cfg config.Config) (*slog.Logger, error) {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	return logging.NewWriter(s.err, level), nil
}

// store opens the configured journal; nil means no journal.
func (o *globalOptions) store(cfg config.Config) (ports.RunStore, error) {
	switch o.journal {
	case "", "none":
		return nil, nil
	case "memory":
		return memory.NewStore(), nil
	case "file":
		dir := o.journalDir
		if dir == "" {
			dir = filepath.Join(cfg.Dir, file.DefaultDir)
		}
		return file.New(dir), nil
	case "redis":
		store := redis.New(o.redisAddr, "", 0, redis.WithPrefix(o.redisPrefix))
		o.closers = append(o.closers, store)
		return store, nil
	}
	return nil, fmt.Errorf("unknown journal %q (want none, memory, file or redis)", o.journal)
}

// close releases every journal opened by store. Failures are reported but
// never change the exit code.
func (o *globalOptions) close(s streams) {
	for _, c := range o.closers {
		if err := c.Close(); err != nil {
			fmt.Fprintf(s.err, "kiln: closing journal: %v\n", err)
		}
	}
	o.closers = nil
}

// build wires a kiln.Build from flags and environment.
func (o *globalOptions) build(s streams, extra ...kiln.Option) (*kiln.Build, error) {
	cfg, err := o.config(s)
	if err != nil {
		return nil, err
	}
	logger, err := o.logger(s, cfg)
	if err != nil {
		return nil, err
	}
	store, err := o.store(cfg)
	if err != nil {
		return nil, err
	}

	opts := []kiln.Option{
		kiln.WithLogger(logger),
		kiln.WithOutput(s.out, s.err),
	}
	if store != nil {
		opts = append(opts, kiln.WithRunStore(store))
	}
	return kiln.New(cfg, append(opts, extra...)...)
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && tui.IsTerminal(f)
}
