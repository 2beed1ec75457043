package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrDuplicateTask is the sentinel matched by DuplicateTaskError.
	ErrDuplicateTask = errors.New("duplicate task")

	// ErrUnknownTask is the sentinel matched by UnknownTaskError.
	ErrUnknownTask = errors.New("unknown task")

	// ErrCycle is the sentinel matched by CycleError.
	ErrCycle = errors.New("dependency cycle")

	// ErrManifestRead is the sentinel matched by ManifestReadError.
	ErrManifestRead = errors.New("manifest read failed")

	// ErrManifestWrite is the sentinel matched by ManifestWriteError.
	ErrManifestWrite = errors.New("manifest write failed")

	// ErrProcessFailed is the sentinel matched by ProcessError.
	ErrProcessFailed = errors.New("external process failed")

	// ErrTaskFailed is the sentinel matched by TaskFailedError.
	ErrTaskFailed = errors.New("task failed")

	// ErrRunNotFound is returned when a run record cannot be found in a journal.
	ErrRunNotFound = errors.New("run not found")
)

// DuplicateTaskError is returned when a task name is registered twice.
type DuplicateTaskError struct {
	Name string
}

func (e *DuplicateTaskError) Error() string {
	return fmt.Sprintf("%s: %q is already registered", ErrDuplicateTask, e.Name)
}

func (e *DuplicateTaskError) Unwrap() error { return ErrDuplicateTask }

// UnknownTaskError is returned when a requested task, or a dependency of one,
// is not registered. RequiredBy is empty for a requested root.
type UnknownTaskError struct {
	Name       string
	RequiredBy string
}

func (e *UnknownTaskError) Error() string {
	if e.RequiredBy == "" {
		return fmt.Sprintf("%s: %q", ErrUnknownTask, e.Name)
	}
	return fmt.Sprintf("%s: %q (required by %q)", ErrUnknownTask, e.Name, e.RequiredBy)
}

func (e *UnknownTaskError) Unwrap() error { return ErrUnknownTask }

// CycleError is returned when following dependency edges revisits a task that
// is still being resolved. Path starts and ends with the same task.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	if len(e.Path) == 0 {
		return ErrCycle.Error()
	}
	return fmt.Sprintf("%s: %s", ErrCycle, strings.Join(e.Path, " -> "))
}

func (e *CycleError) Unwrap() error { return ErrCycle }

// ManifestReadError is returned when a manifest is missing or not a JSON object.
type ManifestReadError struct {
	Path string
	Err  error
}

func (e *ManifestReadError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrManifestRead, e.Path, e.Err)
}

func (e *ManifestReadError) Unwrap() []error { return []error{ErrManifestRead, e.Err} }

// ManifestWriteError is returned when a patched manifest cannot be written back.
type ManifestWriteError struct {
	Path string
	Err  error
}

func (e *ManifestWriteError) Error() string {
	return fmt.Sprintf("%s: %s: %v", ErrManifestWrite, e.Path, e.Err)
}

func (e *ManifestWriteError) Unwrap() []error { return []error{ErrManifestWrite, e.Err} }

// ProcessError reports an external command that could not start or exited
// with a non-zero status. ExitCode is -1 when the process never ran.
type ProcessError struct {
	Command  string
	ExitCode int
	Err      error
}

func (e *ProcessError) Error() string {
	if e.ExitCode < 0 {
		return fmt.Sprintf("%s: %s: %v", ErrProcessFailed, e.Command, e.Err)
	}
	return fmt.Sprintf("%s: %s: exit status %d", ErrProcessFailed, e.Command, e.ExitCode)
}

func (e *ProcessError) Unwrap() []error { return []error{ErrProcessFailed, e.Err} }

// TaskFailedError attributes a failure to the task whose action returned it.
type TaskFailedError struct {
	Task string
	Err  error
}

func (e *TaskFailedError) Error() string {
	return fmt.Sprintf("task %q failed: %v", e.Task, e.Err)
}

func (e *TaskFailedError) Unwrap() []error { return []error{ErrTaskFailed, e.Err} }
