package runtime

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/aretw0/kiln/pkg/domain"
	"github.com/aretw0/kiln/pkg/registry"
)

// ErrNothingRequested is returned when Run is called without task names and
// no default aggregate is configured.
var ErrNothingRequested = errors.New("no task requested and no default configured")

// Executor runs tasks from a registry in dependency order, one at a time.
type Executor struct {
	registry *registry.Registry
	defaults []string
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	now      func() time.Time
	newRunID func() string
}

// Option configures the Executor.
type Option func(*Executor)

// WithDefaultTasks sets the aggregate run when no task name is requested.
func WithDefaultTasks(names ...string) Option {
	return func(e *Executor) {
		e.defaults = append([]string(nil), names...)
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Executor) {
		e.hooks = hooks
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock overrides the time source used for events and reports.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) {
		e.now = now
	}
}

// WithRunID overrides run identifier generation.
func WithRunID(fn func() string) Option {
	return func(e *Executor) {
		e.newRunID = fn
	}
}

// NewExecutor creates an executor over reg.
func NewExecutor(reg *registry.Registry, opts ...Option) *Executor {
	e := &Executor{
		registry: reg,
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		now:      time.Now,
	}
	e.newRunID = e.defaultRunID
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Defaults returns the configured default aggregate.
func (e *Executor) Defaults() []string {
	return append([]string(nil), e.defaults...)
}

// Plan returns the order Run would execute, without running anything.
func (e *Executor) Plan(names ...string) ([]string, error) {
	roots, err := e.roots(names)
	if err != nil {
		return nil, err
	}
	return e.registry.ResolveOrder(roots...)
}

// Run resolves the requested tasks (or the default aggregate) and runs every
// task of the resulting order exactly once.
//
// Resolution errors are returned before any action runs, with a nil report.
// The first failing action halts the run: remaining tasks are reported as
// skipped and the returned error is a *domain.TaskFailedError naming the
// task. Side effects of completed tasks are left in place.
func (e *Executor) Run(ctx context.Context, names ...string) (*domain.RunReport, error) {
	roots, err := e.roots(names)
	if err != nil {
		return nil, err
	}
	plan, err := e.registry.ResolveOrder(roots...)
	if err != nil {
		e.logger.Error("plan_failed", "requested", roots, "error", err)
		return nil, err
	}

	report := &domain.RunReport{
		ID:        e.newRunID(),
		Requested: roots,
		Plan:      plan,
		Tasks:     make([]domain.TaskOutcome, 0, len(plan)),
		Started:   e.now(),
	}
	logger := e.logger.With("run_id", report.ID)
	logger.Info("run_start", "requested", roots, "plan", plan)

	if e.hooks.OnRunStart != nil {
		e.hooks.OnRunStart(ctx, &domain.RunEvent{
			EventBase: domain.EventBase{Timestamp: report.Started, Type: domain.EventRunStart, RunID: report.ID},
			Requested: roots,
			Plan:      plan,
		})
	}

	var runErr error
	for i, name := range plan {
		if runErr != nil {
			report.Tasks = append(report.Tasks, domain.TaskOutcome{Name: name, Status: domain.TaskSkipped})
			continue
		}

		outcome, err := e.runTask(ctx, logger, report.ID, name, i, len(plan))
		report.Tasks = append(report.Tasks, outcome)
		if err != nil {
			report.FailedTask = name
			runErr = &domain.TaskFailedError{Task: name, Err: err}
		}
	}

	report.Finished = e.now()
	report.Status = domain.RunSucceeded
	if runErr != nil {
		report.Status = domain.RunFailed
		logger.Error("run_failed", "task", report.FailedTask, "error", runErr)
	} else {
		logger.Info("run_finish", "tasks", len(plan), "duration", report.Finished.Sub(report.Started))
	}

	if e.hooks.OnRunFinish != nil {
		e.hooks.OnRunFinish(ctx, &domain.RunEvent{
			EventBase: domain.EventBase{Timestamp: report.Finished, Type: domain.EventRunFinish, RunID: report.ID},
			Requested: roots,
			Plan:      plan,
			Duration:  report.Finished.Sub(report.Started),
			Err:       runErr,
		})
	}

	return report, runErr
}

func (e *Executor) runTask(ctx context.Context, logger *slog.Logger, runID, name string, index, total int) (domain.TaskOutcome, error) {
	// Resolution succeeded, so the task is registered.
	task, _ := e.registry.Get(name)

	started := e.now()
	if e.hooks.OnTaskStart != nil {
		e.hooks.OnTaskStart(ctx, &domain.TaskEvent{
			EventBase: domain.EventBase{Timestamp: started, Type: domain.EventTaskStart, RunID: runID},
			Task:      name,
			Index:     index,
			Total:     total,
		})
	}
	logger.Debug("task_start", "task", name, "index", index+1, "total", total)

	var err error
	if !task.IsAggregate() {
		err = task.Action(ctx)
	}

	finished := e.now()
	outcome := domain.TaskOutcome{
		Name:     name,
		Status:   domain.TaskSucceeded,
		Started:  started,
		Duration: finished.Sub(started),
	}
	if err != nil {
		outcome.Status = domain.TaskFailed
		outcome.Error = err.Error()
		logger.Error("task_failed", "task", name, "duration", outcome.Duration, "error", err)
	} else {
		logger.Info("task_finish", "task", name, "duration", outcome.Duration)
	}

	if e.hooks.OnTaskFinish != nil {
		e.hooks.OnTaskFinish(ctx, &domain.TaskEvent{
			EventBase: domain.EventBase{Timestamp: finished, Type: domain.EventTaskFinish, RunID: runID},
			Task:      name,
			Index:     index,
			Total:     total,
			Duration:  outcome.Duration,
			Err:       err,
		})
	}
	return outcome, err
}

func (e *Executor) roots(names []string) ([]string, error) {
	if len(names) > 0 {
		return append([]string(nil), names...), nil
	}
	if len(e.defaults) == 0 {
		return nil, ErrNothingRequested
	}
	return e.Defaults(), nil
}

func (e *Executor) defaultRunID() string {
	var b [4]byte
	_, _ = rand.Read(b[:])
	return e.now().UTC().Format("20060102T150405Z") + "-" + hex.EncodeToString(b[:])
}
