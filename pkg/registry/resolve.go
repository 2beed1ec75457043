package registry

import (
	"github.com/aretw0/kiln/pkg/domain"
)

type mark int

const (
	unvisited mark = iota
	visiting       // on the current DFS stack
	done           // appended to the order
)

// ResolveOrder returns the execution order for the transitive dependency
// closure of the given root tasks.
//
// Roots are traversed depth-first in the order given and share one set of
// completed tasks, so a task reachable from several roots (or through a
// diamond) appears once, at the position of its first completion. Every
// dependency precedes the tasks that depend on it.
//
// It fails with *domain.UnknownTaskError when a root or any referenced
// dependency is missing, and with *domain.CycleError when a dependency chain
// leads back to a task still being resolved.
func (r *Registry) ResolveOrder(roots ...string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	marks := make(map[string]mark, len(r.tasks))
	order := make([]string, 0, len(r.tasks))
	var stack []string

	var visit func(name, requiredBy string) error
	visit = func(name, requiredBy string) error {
		switch marks[name] {
		case done:
			return nil
		case visiting:
			return &domain.CycleError{Path: cyclePath(stack, name)}
		}

		task, ok := r.tasks[name]
		if !ok {
			return &domain.UnknownTaskError{Name: name, RequiredBy: requiredBy}
		}

		marks[name] = visiting
		stack = append(stack, name)

		for _, dep := range task.Deps {
			if err := visit(dep, name); err != nil {
				return err
			}
		}

		stack = stack[:len(stack)-1]
		marks[name] = done
		order = append(order, name)
		return nil
	}

	for _, root := range roots {
		if err := visit(root, ""); err != nil {
			return nil, err
		}
	}

	return order, nil
}

// cyclePath trims the DFS stack to the loop closed by name.
func cyclePath(stack []string, name string) []string {
	start := 0
	for i, n := range stack {
		if n == name {
			start = i
			break
		}
	}
	path := make([]string, 0, len(stack)-start+1)
	path = append(path, stack[start:]...)
	return append(path, name)
}
