package registry

import (
	"fmt"
	"sync"

	"github.com/aretw0/kiln/pkg/domain"
)

// Registry manages the declared tasks of a build.
// It is populated once at start-up; lookups are safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	tasks map[string]domain.Task
	order []string // registration order, for listing
}

// NewRegistry creates a new empty registry.
func NewRegistry() *Registry {
	return &Registry{
		tasks: make(map[string]domain.Task),
	}
}

// Register adds a task to the registry.
// Registering a name twice returns a *domain.DuplicateTaskError.
// Dependencies are not checked here; they are resolved by name in ResolveOrder.
func (r *Registry) Register(task domain.Task) error {
	if task.Name == "" {
		return fmt.Errorf("task name is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.tasks[task.Name]; exists {
		return &domain.DuplicateTaskError{Name: task.Name}
	}

	deps := make([]string, len(task.Deps))
	copy(deps, task.Deps)
	task.Deps = deps

	r.tasks[task.Name] = task
	r.order = append(r.order, task.Name)
	return nil
}

// MustRegister is like Register but panics on error.
// It is meant for static task tables built in code.
func (r *Registry) MustRegister(task domain.Task) {
	if err := r.Register(task); err != nil {
		panic(err)
	}
}

// Get looks up a task by name.
func (r *Registry) Get(name string) (domain.Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tasks[name]
	return t, ok
}

// Tasks returns all tasks in registration order.
func (r *Registry) Tasks() []domain.Task {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]domain.Task, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tasks[name])
	}
	return out
}

// Len returns the number of registered tasks.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tasks)
}
