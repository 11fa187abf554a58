package task

import (
	"context"
	"errors"
	"time"

	"github.com/spigell/resume-tailor/internal/profile"
)

// Status is the lifecycle state of a task within one invocation.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusFellBack  Status = "fell_back"
	StatusTimedOut  Status = "timed_out"
)

// Mode records which implementation produced a task's output.
type Mode string

const (
	ModeBackend  Mode = "backend"
	ModeFallback Mode = "fallback"
)

// Error taxonomy. The backend errors are recovered locally by the scheduler
// via the fallback path; the remaining two are fatal to the invocation.
var (
	ErrBackendTimeout       = errors.New("backend call exceeded its deadline")
	ErrBackendInvalidOutput = errors.New("backend output failed schema validation")
	ErrBackendUnavailable   = errors.New("backend unavailable")
	ErrFallbackDefect       = errors.New("fallback produced an invalid result")
	ErrGraphConfiguration   = errors.New("invalid task graph configuration")
)

// Input is the read-only bundle a task implementation receives. Deps holds
// the finalized results of the task's declared dependencies, keyed by name.
type Input struct {
	Profile *profile.Snapshot
	Role    *profile.RoleContext
	Deps    map[string]*Result
}

// Dep returns the typed output of a finalized dependency, or nil when the
// dependency is unknown. Dependents are indifferent to whether the backend
// or the fallback produced it.
func (in Input) Dep(name string) any {
	r, ok := in.Deps[name]
	if !ok || r == nil {
		return nil
	}
	return r.Output
}

// Fallback is the mandatory deterministic implementation of a task. It must
// be side-effect-free and return a schema-conforming output for any input.
type Fallback func(in Input) (any, error)

// BackendFunc delegates a task to an external generative backend. It returns
// the raw structured payload, which is schema-validated by the scheduler
// before being decoded and accepted.
type BackendFunc func(ctx context.Context, in Input) (map[string]any, error)

// Spec is the static definition of one task.
type Spec struct {
	Name      string
	DependsOn []string
	Schema    Schema
	// Decode converts a schema-valid raw payload into the task's typed output.
	Decode func(raw map[string]any) (any, error)
	// Fallback is mandatory.
	Fallback Fallback
	// Backend is optional; nil means the task always runs its fallback.
	Backend BackendFunc
	// Timeout overrides the scheduler's uniform per-task ceiling when > 0.
	Timeout time.Duration
}

// Result is the run-time record of one task. It is created when the task
// starts and finalized exactly once; the scheduler never publishes it to
// dependents before finalization.
type Result struct {
	Name    string        `json:"name"`
	Status  Status        `json:"status"`
	Output  any           `json:"output"`
	Mode    Mode          `json:"mode"`
	Err     string        `json:"error,omitempty"`
	Elapsed time.Duration `json:"elapsed"`
}

// Final reports whether the result reached a terminal status.
func (r *Result) Final() bool {
	switch r.Status {
	case StatusSucceeded, StatusFailed, StatusFellBack, StatusTimedOut:
		return true
	}
	return false
}
