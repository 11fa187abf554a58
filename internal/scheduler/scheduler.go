package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spigell/resume-tailor/internal/profile"
	"github.com/spigell/resume-tailor/internal/task"

	"go.uber.org/zap"
)

const (
	// DefaultWorkers bounds concurrent backend calls.
	DefaultWorkers = 4
	// DefaultTaskTimeout is the uniform per-task backend ceiling.
	DefaultTaskTimeout = 30 * time.Second
)

// Config tunes the scheduler. Zero values fall back to the defaults above.
type Config struct {
	Workers     int           `mapstructure:"workers"`
	TaskTimeout time.Duration `mapstructure:"task-timeout"`
}

// Scheduler executes a validated task graph to completion. Every task ends
// with a finalized result: backend success, backend failure recovered via
// fallback, or fallback directly when no backend is configured. Only a
// defective fallback or graph aborts a run.
type Scheduler struct {
	graph  *Graph
	cfg    Config
	logger *zap.Logger
}

// New builds a scheduler over the given specs. Graph validation happens
// here, at startup, never during a run.
func New(specs []task.Spec, cfg Config, logger *zap.Logger) (*Scheduler, error) {
	graph, err := NewGraph(specs)
	if err != nil {
		return nil, err
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultWorkers
	}
	if cfg.TaskTimeout <= 0 {
		cfg.TaskTimeout = DefaultTaskTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scheduler{graph: graph, cfg: cfg, logger: logger}, nil
}

// Graph exposes the validated graph for diagnostics.
func (s *Scheduler) Graph() *Graph { return s.graph }

// Run drives the DAG with a bounded worker pool. Ready tasks (all declared
// dependencies finalized) are dispatched concurrently; a task observes only
// finalized dependency results, published by the coordinator after the
// producing worker returns. Run blocks until every task is finalized and
// never leaves a task unresolved: when ctx expires, in-flight backend calls
// are cancelled and their tasks finalize through the fallback path.
func (s *Scheduler) Run(ctx context.Context, snap *profile.Snapshot, role *profile.RoleContext) (map[string]*task.Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	total := len(s.graph.names)
	results := make(map[string]*task.Result, total)
	dispatched := make(map[string]bool, total)

	workCh := make(chan workItem, total)
	doneCh := make(chan execOutcome, total)
	defer close(workCh)

	for i := 0; i < s.cfg.Workers; i++ {
		go func() {
			for item := range workCh {
				doneCh <- s.execute(ctx, item.spec, item.input)
			}
		}()
	}

	// The coordinator is the only goroutine touching the results map. Each
	// task's input carries a copy of its finalized dependency results, taken
	// before dispatch, so workers never read shared state.
	dispatchReady := func() {
		for _, name := range s.graph.TopologicalOrder() {
			if dispatched[name] || !s.ready(name, results) {
				continue
			}
			dispatched[name] = true
			spec, _ := s.graph.Spec(name)
			workCh <- workItem{
				spec:  spec,
				input: task.Input{Profile: snap, Role: role, Deps: s.depsFor(spec, results)},
			}
		}
	}

	dispatchReady()

	finalized := 0
	for finalized < total {
		out := <-doneCh
		if out.fatal != nil {
			return nil, out.fatal
		}

		// Publish barrier: the result map is written by the coordinator
		// only, once per key, before any dependent is dispatched.
		results[out.result.Name] = out.result
		finalized++

		s.logger.Info("task finalized",
			zap.String("task", out.result.Name),
			zap.String("status", string(out.result.Status)),
			zap.String("mode", string(out.result.Mode)),
			zap.Duration("elapsed", out.result.Elapsed),
		)

		dispatchReady()
	}

	return results, nil
}

type workItem struct {
	spec  task.Spec
	input task.Input
}

type execOutcome struct {
	result *task.Result
	fatal  error
}

func (s *Scheduler) ready(name string, results map[string]*task.Result) bool {
	spec, _ := s.graph.Spec(name)
	for _, dep := range spec.DependsOn {
		r, ok := results[dep]
		if !ok || !r.Final() {
			return false
		}
	}
	return true
}

// depsFor copies the finalized dependency results a task is entitled to see.
func (s *Scheduler) depsFor(spec task.Spec, results map[string]*task.Result) map[string]*task.Result {
	deps := make(map[string]*task.Result, len(spec.DependsOn))
	for _, dep := range spec.DependsOn {
		deps[dep] = results[dep]
	}
	return deps
}

// execute resolves one task: backend under a per-task timeout when
// configured, otherwise (or on any backend failure) the synchronous
// fallback. A failing fallback is a defect and aborts the invocation.
func (s *Scheduler) execute(ctx context.Context, spec task.Spec, in task.Input) execOutcome {
	started := time.Now()

	res := &task.Result{Name: spec.Name, Status: task.StatusRunning}

	if spec.Backend != nil {
		timeout := s.cfg.TaskTimeout
		if spec.Timeout > 0 {
			timeout = spec.Timeout
		}
		tctx, cancel := context.WithTimeout(ctx, timeout)
		output, err := s.invokeBackend(tctx, spec, in)
		cancel()

		if err == nil {
			res.Status = task.StatusSucceeded
			res.Mode = task.ModeBackend
			res.Output = output
			res.Elapsed = time.Since(started)
			return execOutcome{result: res}
		}

		if errors.Is(err, context.DeadlineExceeded) {
			res.Status = task.StatusTimedOut
			err = fmt.Errorf("%w: %v", task.ErrBackendTimeout, err)
		} else {
			res.Status = task.StatusFellBack
		}
		res.Err = err.Error()

		s.logger.Warn("backend failed, using fallback",
			zap.String("task", spec.Name),
			zap.Error(err),
		)
	}

	output, err := spec.Fallback(in)
	if err != nil {
		res.Status = task.StatusFailed
		res.Elapsed = time.Since(started)
		return execOutcome{
			result: res,
			fatal:  fmt.Errorf("%w: task %q: %v", task.ErrFallbackDefect, spec.Name, err),
		}
	}
	if err := conforms(spec.Schema, output); err != nil {
		res.Status = task.StatusFailed
		res.Elapsed = time.Since(started)
		return execOutcome{
			result: res,
			fatal:  fmt.Errorf("%w: task %q: %v", task.ErrFallbackDefect, spec.Name, err),
		}
	}

	if res.Status == task.StatusRunning {
		// No backend was configured; the fallback is the primary path.
		res.Status = task.StatusSucceeded
	}
	res.Mode = task.ModeFallback
	res.Output = output
	res.Elapsed = time.Since(started)
	return execOutcome{result: res}
}

// invokeBackend runs the delegated call and enforces the response contract:
// transport failure, schema violation and decode failure are all equivalent
// backend failures.
func (s *Scheduler) invokeBackend(ctx context.Context, spec task.Spec, in task.Input) (any, error) {
	raw, err := spec.Backend(ctx, in)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, context.DeadlineExceeded
		}
		return nil, fmt.Errorf("%w: %v", task.ErrBackendUnavailable, err)
	}
	if err := spec.Schema.Validate(raw); err != nil {
		return nil, err
	}
	output, err := spec.Decode(raw)
	if err != nil {
		return nil, err
	}
	return output, nil
}

// conforms round-trips a typed output through JSON and validates it against
// the task schema. Fallbacks must hold the same contract as backends.
func conforms(schema task.Schema, output any) error {
	data, err := json.Marshal(output)
	if err != nil {
		return err
	}
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	return schema.Validate(raw)
}
