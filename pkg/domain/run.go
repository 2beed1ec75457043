package domain

import "time"

// TaskStatus is the outcome of a single task within a run.
type TaskStatus string

const (
	TaskSucceeded TaskStatus = "succeeded"
	TaskFailed    TaskStatus = "failed"
	TaskSkipped   TaskStatus = "skipped" // never started because an earlier task failed
)

// RunStatus is the binary outcome of a whole run.
type RunStatus string

const (
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// TaskOutcome records what happened to one task of the plan.
type TaskOutcome struct {
	Name     string        `json:"name"`
	Status   TaskStatus    `json:"status"`
	Started  time.Time     `json:"started,omitempty"`
	Duration time.Duration `json:"duration,omitempty"`
	Error    string        `json:"error,omitempty"`
}

// RunReport is returned by the executor for every run that got past planning.
type RunReport struct {
	ID        string        `json:"id"`
	Requested []string      `json:"requested"`
	Plan      []string      `json:"plan"`
	Tasks     []TaskOutcome `json:"tasks"`
	Status    RunStatus     `json:"status"`
	Started   time.Time     `json:"started"`
	Finished  time.Time     `json:"finished"`
	// FailedTask is empty when Status is RunSucceeded.
	FailedTask string `json:"failed_task,omitempty"`
}

// RunRecord is the journal entry persisted after a run.
type RunRecord struct {
	RunReport
	Identity *BuildIdentity `json:"identity,omitempty"`
	Error    string         `json:"error,omitempty"`
}

// NewRunRecord builds the journal entry for a finished run.
// identity may be nil when no task resolved it.
func NewRunRecord(report *RunReport, identity *BuildIdentity, err error) *RunRecord {
	rec := &RunRecord{RunReport: *report, Identity: identity}
	if err != nil {
		rec.Error = err.Error()
	}
	return rec
}
