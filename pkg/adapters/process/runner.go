package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strings"

	"github.com/aretw0/kiln/pkg/domain"
)

// Runner executes external commands on behalf of build tasks.
// Output is streamed to the configured writers as it is produced; the runner
// never retries.
type Runner struct {
	baseDir string
	env     []string
	stdout  io.Writer
	stderr  io.Writer
	echo    bool
	logger  *slog.Logger
}

// RunnerOption configures the runner.
type RunnerOption func(*Runner)

// WithBaseDir sets the working directory for executed processes.
func WithBaseDir(dir string) RunnerOption {
	return func(r *Runner) {
		r.baseDir = dir
	}
}

// WithEnv appends KEY=VALUE pairs to the inherited environment.
func WithEnv(env ...string) RunnerOption {
	return func(r *Runner) {
		r.env = append(r.env, env...)
	}
}

// WithOutput redirects the child's stdout and stderr (default: os.Stdout, os.Stderr).
func WithOutput(stdout, stderr io.Writer) RunnerOption {
	return func(r *Runner) {
		r.stdout = stdout
		r.stderr = stderr
	}
}

// WithEcho prints each command line to stderr before it runs (default true).
func WithEcho(echo bool) RunnerOption {
	return func(r *Runner) {
		r.echo = echo
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// NewRunner creates a new Process Runner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		stdout: os.Stdout,
		stderr: os.Stderr,
		echo:   true,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes a command line with the runner's stdout and stderr attached.
// The line is split on whitespace; no shell is involved.
// Failure to start or a non-zero exit returns a *domain.ProcessError.
func (r *Runner) Run(ctx context.Context, commandLine string) error {
	fields := strings.Fields(commandLine)
	if len(fields) == 0 {
		return &domain.ProcessError{Command: commandLine, ExitCode: -1, Err: errors.New("empty command line")}
	}

	if r.echo {
		fmt.Fprintln(r.stderr, strings.Join(fields, " "))
	}

	cmd := r.command(ctx, fields[0], fields[1:]...)
	cmd.Stdout = r.stdout
	cmd.Stderr = r.stderr

	r.logger.Debug("process_start", "command", commandLine, "dir", r.baseDir)
	if err := cmd.Run(); err != nil {
		perr := processError(commandLine, err)
		r.logger.Debug("process_exit", "command", commandLine, "exit_code", perr.ExitCode)
		return perr
	}
	r.logger.Debug("process_exit", "command", commandLine, "exit_code", 0)
	return nil
}

// Output executes a command and returns its trimmed stdout.
// It is used by capability adapters (source control, package caches) that
// need the text rather than a pass/fail result. Stderr is included in the
// returned error when the command fails.
func (r *Runner) Output(ctx context.Context, name string, args ...string) (string, error) {
	cmd := r.command(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	commandLine := strings.TrimSpace(name + " " + strings.Join(args, " "))
	if err := cmd.Run(); err != nil {
		perr := processError(commandLine, err)
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			perr.Err = fmt.Errorf("%w: %s", perr.Err, msg)
		}
		return "", perr
	}

	return strings.TrimSpace(stdout.String()), nil
}

func (r *Runner) command(ctx context.Context, name string, args ...string) *exec.Cmd {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = r.baseDir
	if len(r.env) > 0 {
		cmd.Env = append(cmd.Environ(), r.env...)
	}
	return cmd
}

func processError(commandLine string, err error) *domain.ProcessError {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &domain.ProcessError{Command: commandLine, ExitCode: exitErr.ExitCode(), Err: err}
	}
	return &domain.ProcessError{Command: commandLine, ExitCode: -1, Err: err}
}
