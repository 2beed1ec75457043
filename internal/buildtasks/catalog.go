package buildtasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"path/filepath"
	"slices"
	"sync"

	"github.com/aretw0/kiln/internal/config"
	"github.com/aretw0/kiln/internal/project"
	"github.com/aretw0/kiln/pkg/adapters/toolpath"
	"github.com/aretw0/kiln/pkg/domain"
	"github.com/aretw0/kiln/pkg/registry"
)

// ErrUnknownAction is returned when a task names an action handle that does not exist.
var ErrUnknownAction = errors.New("unknown action")

// CommandRunner runs an external command line with inherited output.
type CommandRunner interface {
	Run(ctx context.Context, commandLine string) error
}

// IdentityResolver computes the build identity.
type IdentityResolver interface {
	Resolve(ctx context.Context) domain.BuildIdentity
}

// Env is the explicit input of every built-in action.
type Env struct {
	Config   config.Config
	Project  *project.Project
	Runner   CommandRunner
	Locator  toolpath.Locator
	Resolver IdentityResolver
	Stdout   io.Writer
	Logger   *slog.Logger
}

// Catalog binds action handles to an Env.
// The build identity is resolved at most once, by the first action needing it.
type Catalog struct {
	env Env

	once     sync.Once
	identity domain.BuildIdentity
	resolved bool
}

type handle func(c *Catalog, spec project.TaskSpec) domain.Action

var handles = map[string]handle{
	"clean":      func(c *Catalog, _ project.TaskSpec) domain.Action { return c.Clean },
	"version":    func(c *Catalog, _ project.TaskSpec) domain.Action { return c.Version },
	"connection": func(c *Catalog, _ project.TaskSpec) domain.Action { return c.Connection },
	"exec":       func(c *Catalog, spec project.TaskSpec) domain.Action { return c.Exec(spec.Run) },
}

// Handles returns the names of the built-in actions.
func Handles() []string {
	return slices.Sorted(maps.Keys(handles))
}

// NewCatalog creates a catalog. Nil writers and loggers are replaced with discards.
func NewCatalog(env Env) *Catalog {
	if env.Stdout == nil {
		env.Stdout = io.Discard
	}
	if env.Logger == nil {
		env.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if env.Locator == nil {
		env.Locator = toolpath.Static{}
	}
	return &Catalog{env: env}
}

// Register adds every task of the project to reg.
func (c *Catalog) Register(reg *registry.Registry) error {
	for _, spec := range c.env.Project.Tasks {
		task := domain.Task{
			Name:        spec.Name,
			Deps:        spec.Deps,
			Description: spec.Description,
		}

		if name := spec.Handle(); name != "" {
			h, ok := handles[name]
			if !ok {
				return fmt.Errorf("task %q: %w %q", spec.Name, ErrUnknownAction, name)
			}
			task.Action = h(c, spec)
		}

		if err := reg.Register(task); err != nil {
			return err
		}
	}
	return nil
}

// Identity resolves the build identity on first use and returns it afterwards.
func (c *Catalog) Identity(ctx context.Context) domain.BuildIdentity {
	c.once.Do(func() {
		if c.env.Resolver != nil {
			c.identity = c.env.Resolver.Resolve(ctx)
			c.resolved = true
		}
	})
	return c.identity
}

// ResolvedIdentity returns the identity if an action has resolved it.
func (c *Catalog) ResolvedIdentity() (domain.BuildIdentity, bool) {
	return c.identity, c.resolved
}

func (c *Catalog) path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.env.Config.Dir, p)
}

func (c *Catalog) printf(format string, args ...any) {
	fmt.Fprintf(c.env.Stdout, format, args...)
}
