package runtime_test

import (
	"context"
	"errors"
	"testing"

	"github.com/aretw0/kiln/internal/runtime"
	"github.com/aretw0/kiln/pkg/domain"
	"github.com/aretw0/kiln/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recorder collects the order in which actions ran.
type recorder struct {
	ran []string
}

func (r *recorder) action(name string) domain.Action {
	return func(context.Context) error {
		r.ran = append(r.ran, name)
		return nil
	}
}

func (r *recorder) failing(name string, err error) domain.Action {
	return func(context.Context) error {
		r.ran = append(r.ran, name)
		return err
	}
}

func setup(t *testing.T, tasks ...domain.Task) *registry.Registry {
	t.Helper()
	reg := registry.NewRegistry()
	for _, tk := range tasks {
		require.NoError(t, reg.Register(tk))
	}
	return reg
}

func TestExecutor_Run(t *testing.T) {
	t.Run("Runs Plan In Order Once", func(t *testing.T) {
		rec := &recorder{}
		reg := setup(t,
			domain.Task{Name: "clean", Action: rec.action("clean")},
			domain.Task{Name: "restore", Action: rec.action("restore")},
			domain.Task{Name: "compile", Deps: []string{"clean", "restore"}, Action: rec.action("compile")},
			domain.Task{Name: "test", Deps: []string{"compile"}, Action: rec.action("test")},
			domain.Task{Name: "pack", Deps: []string{"compile"}, Action: rec.action("pack")},
		)

		report, err := runtime.NewExecutor(reg).Run(context.Background(), "test", "pack")
		require.NoError(t, err)
		assert.Equal(t, []string{"clean", "restore", "compile", "test", "pack"}, rec.ran)
		assert.Equal(t, domain.RunSucceeded, report.Status)
		assert.Empty(t, report.FailedTask)
		assert.Len(t, report.Tasks, 5)
		for _, o := range report.Tasks {
			assert.Equal(t, domain.TaskSucceeded, o.Status)
		}
	})

	t.Run("Aggregate Task Runs Only Dependencies", func(t *testing.T) {
		rec := &recorder{}
		reg := setup(t,
			domain.Task{Name: "default", Deps: []string{"mocha", "test"}},
			domain.Task{Name: "mocha", Action: rec.action("mocha")},
			domain.Task{Name: "test", Action: rec.action("test")},
		)

		report, err := runtime.NewExecutor(reg).Run(context.Background(), "default")
		require.NoError(t, err)
		assert.Equal(t, []string{"mocha", "test"}, rec.ran)
		assert.Equal(t, []string{"mocha", "test", "default"}, report.Plan)
	})

	t.Run("Uses Default Aggregate", func(t *testing.T) {
		rec := &recorder{}
		reg := setup(t,
			domain.Task{Name: "mocha", Action: rec.action("mocha")},
			domain.Task{Name: "test", Action: rec.action("test")},
		)

		exec := runtime.NewExecutor(reg, runtime.WithDefaultTasks("mocha", "test"))
		report, err := exec.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []string{"mocha", "test"}, rec.ran)
		assert.Equal(t, []string{"mocha", "test"}, report.Requested)
	})

	t.Run("Nothing Requested", func(t *testing.T) {
		_, err := runtime.NewExecutor(registry.NewRegistry()).Run(context.Background())
		assert.ErrorIs(t, err, runtime.ErrNothingRequested)
	})
}

func TestExecutor_FailureHaltsRun(t *testing.T) {
	rec := &recorder{}
	cause := errors.New("compiler exploded")
	reg := setup(t,
		domain.Task{Name: "first", Action: rec.action("first")},
		domain.Task{Name: "middle", Deps: []string{"first"}, Action: rec.failing("middle", cause)},
		domain.Task{Name: "last", Deps: []string{"middle"}, Action: rec.action("last")},
	)

	report, err := runtime.NewExecutor(reg).Run(context.Background(), "last")

	require.Error(t, err)
	assert.Equal(t, []string{"first", "middle"}, rec.ran, "last must never run")

	var failed *domain.TaskFailedError
	require.ErrorAs(t, err, &failed)
	assert.Equal(t, "middle", failed.Task)
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, domain.ErrTaskFailed)

	require.NotNil(t, report)
	assert.Equal(t, domain.RunFailed, report.Status)
	assert.Equal(t, "middle", report.FailedTask)
	assert.Equal(t, []domain.TaskStatus{domain.TaskSucceeded, domain.TaskFailed, domain.TaskSkipped},
		[]domain.TaskStatus{report.Tasks[0].Status, report.Tasks[1].Status, report.Tasks[2].Status})
	assert.Equal(t, "compiler exploded", report.Tasks[1].Error)
}

func TestExecutor_ResolutionErrorsRunNothing(t *testing.T) {
	t.Run("Cycle", func(t *testing.T) {
		rec := &recorder{}
		reg := setup(t,
			domain.Task{Name: "a", Deps: []string{"b"}, Action: rec.action("a")},
			domain.Task{Name: "b", Deps: []string{"a"}, Action: rec.action("b")},
		)

		report, err := runtime.NewExecutor(reg).Run(context.Background(), "a")
		assert.ErrorIs(t, err, domain.ErrCycle)
		assert.Nil(t, report)
		assert.Empty(t, rec.ran)
	})

	t.Run("Unknown Task", func(t *testing.T) {
		rec := &recorder{}
		reg := setup(t, domain.Task{Name: "a", Action: rec.action("a")})

		report, err := runtime.NewExecutor(reg).Run(context.Background(), "a", "nope")
		var unknown *domain.UnknownTaskError
		require.ErrorAs(t, err, &unknown)
		assert.Equal(t, "nope", unknown.Name)
		assert.Nil(t, report)
		assert.Empty(t, rec.ran, "a precedes the unknown root but must not run")
	})
}

func TestExecutor_Hooks(t *testing.T) {
	rec := &recorder{}
	reg := setup(t,
		domain.Task{Name: "a", Action: rec.action("a")},
		domain.Task{Name: "b", Deps: []string{"a"}, Action: rec.failing("b", errors.New("nope"))},
	)

	var events []string
	hooks := domain.LifecycleHooks{
		OnRunStart: func(_ context.Context, e *domain.RunEvent) {
			events = append(events, "run_start:"+e.RunID)
		},
		OnTaskStart: func(_ context.Context, e *domain.TaskEvent) {
			events = append(events, "start:"+e.Task)
		},
		OnTaskFinish: func(_ context.Context, e *domain.TaskEvent) {
			status := "ok"
			if e.Err != nil {
				status = "err"
			}
			events = append(events, "finish:"+e.Task+":"+status)
		},
		OnRunFinish: func(_ context.Context, e *domain.RunEvent) {
			assert.Error(t, e.Err)
			events = append(events, "run_finish")
		},
	}

	exec := runtime.NewExecutor(reg,
		runtime.WithLifecycleHooks(hooks),
		runtime.WithRunID(func() string { return "r1" }),
	)
	report, err := exec.Run(context.Background(), "b")
	require.Error(t, err)
	assert.Equal(t, "r1", report.ID)
	assert.Equal(t, []string{
		"run_start:r1",
		"start:a", "finish:a:ok",
		"start:b", "finish:b:err",
		"run_finish",
	}, events)
}

func TestExecutor_Plan(t *testing.T) {
	rec := &recorder{}
	reg := setup(t,
		domain.Task{Name: "a", Action: rec.action("a")},
		domain.Task{Name: "b", Deps: []string{"a"}, Action: rec.action("b")},
	)

	exec := runtime.NewExecutor(reg, runtime.WithDefaultTasks("b"))
	plan, err := exec.Plan()
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, plan)
	assert.Empty(t, rec.ran)
	assert.Equal(t, []string{"b"}, exec.Defaults())
}
