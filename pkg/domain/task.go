package domain

import "context"

// Action is the deferred work carried by a Task.
// A nil error means success; anything else halts the run.
type Action func(ctx context.Context) error

// Task is a named unit of work.
//
// Deps lists the names of tasks that must complete before this one runs.
// Names are resolved when an order is requested, so a task may reference
// another that is registered later. A Task with a nil Action is an aggregate:
// running it only runs its dependencies.
type Task struct {
	Name        string   `json:"name" yaml:"name"`
	Deps        []string `json:"deps,omitempty" yaml:"deps,omitempty"`
	Description string   `json:"description,omitempty" yaml:"desc,omitempty"`
	Action      Action   `json:"-" yaml:"-"`
}

// IsAggregate reports whether the task has no action of its own.
func (t Task) IsAggregate() bool {
	return t.Action == nil
}
