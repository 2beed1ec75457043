package kiln

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/kiln/internal/buildtasks"
	"github.com/aretw0/kiln/internal/config"
	"github.com/aretw0/kiln/internal/logging"
	"github.com/aretw0/kiln/internal/project"
	"github.com/aretw0/kiln/internal/runtime"
	"github.com/aretw0/kiln/pkg/adapters/git"
	"github.com/aretw0/kiln/pkg/adapters/process"
	"github.com/aretw0/kiln/pkg/adapters/toolpath"
	"github.com/aretw0/kiln/pkg/domain"
	"github.com/aretw0/kiln/pkg/ports"
	"github.com/aretw0/kiln/pkg/registry"
	"github.com/aretw0/kiln/pkg/version"
)

// Version is the kiln release.
const Version = "v0.1.0"

// ProjectFileName is looked up in the build directory when no file is configured.
const ProjectFileName = "kiln.yaml"

// Build is the high-level entry point: a project wired to its actions,
// ready to plan and run.
type Build struct {
	cfg      config.Config
	project  *project.Project
	registry *registry.Registry
	catalog  *buildtasks.Catalog
	executor *runtime.Executor

	runner   buildtasks.CommandRunner
	locator  toolpath.Locator
	resolver buildtasks.IdentityResolver
	store    ports.RunStore
	hooks    domain.LifecycleHooks
	logger   *slog.Logger
	stdout   io.Writer
	stderr   io.Writer
}

// Option defines a functional option for configuring the Build.
type Option func(*Build)

// WithProject uses p instead of loading a project file.
func WithProject(p *project.Project) Option {
	return func(b *Build) {
		b.project = p
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(b *Build) {
		b.hooks = hooks
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Build) {
		b.logger = logger
	}
}

// WithRunStore records every run in store.
func WithRunStore(store ports.RunStore) Option {
	return func(b *Build) {
		b.store = store
	}
}

// WithCommandRunner replaces the process runner used by command tasks.
func WithCommandRunner(r buildtasks.CommandRunner) Option {
	return func(b *Build) {
		b.runner = r
	}
}

// WithLocator replaces the tool locator.
func WithLocator(l toolpath.Locator) Option {
	return func(b *Build) {
		b.locator = l
	}
}

// WithIdentityResolver replaces the version resolver.
func WithIdentityResolver(r buildtasks.IdentityResolver) Option {
	return func(b *Build) {
		b.resolver = r
	}
}

// WithOutput redirects task and process output. Defaults to os.Stdout and os.Stderr.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(b *Build) {
		b.stdout = stdout
		b.stderr = stderr
	}
}

// New loads the project for cfg and registers its tasks.
//
// The project comes from WithProject, else cfg.ProjectFile, else kiln.yaml
// in cfg.Dir, else the built-in default. Resolution problems in the task
// graph surface from Plan and Run, not from New.
func New(cfg config.Config, opts ...Option) (*Build, error) {
	b := &Build{cfg: cfg}
	for _, opt := range opts {
		opt(b)
	}
	if b.cfg.Dir == "" {
		b.cfg.Dir = "."
	}
	if b.logger == nil {
		b.logger = logging.NewNop()
	}
	if b.stdout == nil {
		b.stdout = os.Stdout
	}
	if b.stderr == nil {
		b.stderr = os.Stderr
	}

	if b.project == nil {
		p, err := loadProject(b.cfg)
		if err != nil {
			return nil, err
		}
		b.project = p
	}

	procs := process.NewRunner(
		process.WithBaseDir(b.cfg.Dir),
		process.WithOutput(b.stdout, b.stderr),
		process.WithLogger(b.logger),
	)
	if b.runner == nil {
		b.runner = procs
	}
	if b.locator == nil {
		b.locator = b.defaultLocator(procs)
	}
	if b.resolver == nil {
		b.resolver = version.NewResolver(b.project.Version,
			version.WithCIBuildNumber(b.cfg.BuildNumber),
			version.WithCommitProvider(git.NewProvider(procs)),
			version.WithOutput(b.stdout),
			version.WithLogger(b.logger),
		)
	}

	b.catalog = buildtasks.NewCatalog(buildtasks.Env{
		Config:   b.cfg,
		Project:  b.project,
		Runner:   b.runner,
		Locator:  b.locator,
		Resolver: b.resolver,
		Stdout:   b.stdout,
		Logger:   b.logger,
	})
	b.registry = registry.NewRegistry()
	if err := b.catalog.Register(b.registry); err != nil {
		return nil, fmt.Errorf("failed to register tasks: %w", err)
	}

	b.executor = runtime.NewExecutor(b.registry,
		runtime.WithDefaultTasks(b.project.Default...),
		runtime.WithLifecycleHooks(b.hooks),
		runtime.WithLogger(b.logger),
	)
	return b, nil
}

func loadProject(cfg config.Config) (*project.Project, error) {
	if cfg.ProjectFile != "" {
		path := cfg.ProjectFile
		if !filepath.IsAbs(path) {
			path = filepath.Join(cfg.Dir, path)
		}
		return project.Load(path)
	}

	path := filepath.Join(cfg.Dir, ProjectFileName)
	if _, err := os.Stat(path); err == nil {
		return project.Load(path)
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	return project.Default(), nil
}

// defaultLocator checks pinned tool paths, then the NuGet package cache.
func (b *Build) defaultLocator(procs *process.Runner) toolpath.Locator {
	tools := b.project.Tools
	pinned := toolpath.Static{}
	for name, p := range tools.Paths {
		if !filepath.IsAbs(p) {
			p = filepath.Join(b.cfg.Dir, p)
		}
		pinned[name] = p
	}

	packages := make(map[string]toolpath.Package, len(tools.Packages))
	for name, pkg := range tools.Packages {
		if pkg.Manifest != "" && !filepath.IsAbs(pkg.Manifest) {
			pkg.Manifest = filepath.Join(b.cfg.Dir, pkg.Manifest)
		}
		packages[name] = pkg
	}
	return toolpath.Chain{pinned, toolpath.NewNuGet(procs, tools.NuGet, packages)}
}

// Run executes the named tasks, or the default aggregate when none are named,
// and records the run when a journal is configured.
//
// A journal failure is logged and never changes the run's outcome.
func (b *Build) Run(ctx context.Context, names ...string) (*domain.RunReport, error) {
	report, err := b.executor.Run(ctx, names...)
	if report == nil || b.store == nil {
		return report, err
	}

	var identity *domain.BuildIdentity
	if id, ok := b.catalog.ResolvedIdentity(); ok {
		identity = &id
	}
	if serr := b.store.Save(ctx, domain.NewRunRecord(report, identity, err)); serr != nil {
		b.logger.Warn("journal_save_failed", "run_id", report.ID, "error", serr)
	}
	return report, err
}

// Plan returns the order Run would execute without running anything.
func (b *Build) Plan(names ...string) ([]string, error) {
	return b.executor.Plan(names...)
}

// Tasks returns the registered tasks in declaration order.
func (b *Build) Tasks() []domain.Task {
	return b.registry.Tasks()
}

// Defaults returns the default aggregate.
func (b *Build) Defaults() []string {
	return b.executor.Defaults()
}

// Project returns the loaded project description.
func (b *Build) Project() *project.Project {
	return b.project
}

// Identity returns the build identity if a task has resolved it.
func (b *Build) Identity() (domain.BuildIdentity, bool) {
	return b.catalog.ResolvedIdentity()
}

// Store returns the configured run journal, or nil.
func (b *Build) Store() ports.RunStore {
	return b.store
}
