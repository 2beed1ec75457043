package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventRunStart   EventType = "run_start"
	EventRunFinish  EventType = "run_finish"
	EventTaskStart  EventType = "task_start"
	EventTaskFinish EventType = "task_finish"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id"`
}

// RunEvent marks the beginning or end of an executor run.
type RunEvent struct {
	EventBase
	Requested []string      `json:"requested"`
	Plan      []string      `json:"plan,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
	Err       error         `json:"-"`
}

// TaskEvent represents entry into or exit from a single task action.
type TaskEvent struct {
	EventBase
	Task     string        `json:"task"`
	Index    int           `json:"index"`
	Total    int           `json:"total"`
	Duration time.Duration `json:"duration,omitempty"`
	Err      error         `json:"-"`
}

// LifecycleHooks defines callbacks for executor observability.
// Hooks run synchronously on the executor's goroutine; nil hooks are skipped.
type LifecycleHooks struct {
	OnRunStart   func(context.Context, *RunEvent)
	OnRunFinish  func(context.Context, *RunEvent)
	OnTaskStart  func(context.Context, *TaskEvent)
	OnTaskFinish func(context.Context, *TaskEvent)
}

// ChainHooks combines several hook sets into one, calling them in order.
func ChainHooks(sets ...LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnRunStart: func(ctx context.Context, e *RunEvent) {
			for _, s := range sets {
				if s.OnRunStart != nil {
					s.OnRunStart(ctx, e)
				}
			}
		},
		OnRunFinish: func(ctx context.Context, e *RunEvent) {
			for _, s := range sets {
				if s.OnRunFinish != nil {
					s.OnRunFinish(ctx, e)
				}
			}
		},
		OnTaskStart: func(ctx context.Context, e *TaskEvent) {
			for _, s := range sets {
				if s.OnTaskStart != nil {
					s.OnTaskStart(ctx, e)
				}
			}
		},
		OnTaskFinish: func(ctx context.Context, e *TaskEvent) {
			for _, s := range sets {
				if s.OnTaskFinish != nil {
					s.OnTaskFinish(ctx, e)
				}
			}
		},
	}
}
