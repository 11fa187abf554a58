package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/spigell/resume-tailor/internal/profile"
	"github.com/spigell/resume-tailor/internal/task"
)

var valueSchema = task.Schema{Fields: []task.Field{
	{Name: "value", Kind: task.KindString, Required: true},
}}

func passthroughDecode(raw map[string]any) (any, error) {
	return raw, nil
}

func stringFallback(value string) task.Fallback {
	return func(task.Input) (any, error) {
		return map[string]any{"value": value}, nil
	}
}

func valueSpec(name string, deps ...string) task.Spec {
	return task.Spec{
		Name:      name,
		DependsOn: deps,
		Schema:    valueSchema,
		Decode:    passthroughDecode,
		Fallback:  stringFallback(name + "-fallback"),
	}
}

func schedSnapshot() *profile.Snapshot {
	return &profile.Snapshot{
		Name:    "Jane Roe",
		Summary: "Backend engineer.",
		Skills:  []string{"Python"},
		Experience: []profile.Experience{
			{Title: "Engineer", Company: "Acme", Bullets: []string{"Built the billing pipeline"}},
		},
	}
}

func schedRole() *profile.RoleContext {
	return &profile.RoleContext{
		Company:     "Initech",
		Title:       "Senior Engineer",
		Description: "Senior Python developer. You will design services with Python and AWS.",
	}
}

func runScheduler(t *testing.T, specs []task.Spec, cfg Config) map[string]*task.Result {
	t.Helper()

	s, err := New(specs, cfg, nil)
	if err != nil {
		t.Fatalf("building scheduler: %v", err)
	}

	results, err := s.Run(context.Background(), schedSnapshot(), schedRole())
	if err != nil {
		t.Fatalf("running scheduler: %v", err)
	}
	return results
}

func TestRunAllFallbacksDeterministic(t *testing.T) {
	t.Parallel()

	run := func() []byte {
		results := runScheduler(t, task.DefaultSpecs(nil), Config{})
		if len(results) != 4 {
			t.Fatalf("expected 4 finalized tasks, got %d", len(results))
		}
		for name, res := range results {
			if res.Status != task.StatusSucceeded {
				t.Fatalf("task %q: expected succeeded, got %q", name, res.Status)
			}
			if res.Mode != task.ModeFallback {
				t.Fatalf("task %q: expected fallback mode, got %q", name, res.Mode)
			}
		}
		outputs := map[string]any{}
		for name, res := range results {
			outputs[name] = res.Output
		}
		data, err := json.Marshal(outputs)
		if err != nil {
			t.Fatalf("marshaling outputs: %v", err)
		}
		return data
	}

	if a, b := run(), run(); string(a) != string(b) {
		t.Fatalf("fallback-only runs differ:\n%s\n%s", a, b)
	}
}

func TestRunBackendSuccess(t *testing.T) {
	t.Parallel()

	specA := valueSpec("a")
	specA.Backend = func(context.Context, task.Input) (map[string]any, error) {
		return map[string]any{"value": "from-backend"}, nil
	}

	results := runScheduler(t, []task.Spec{specA}, Config{})

	res := results["a"]
	if res.Status != task.StatusSucceeded || res.Mode != task.ModeBackend {
		t.Fatalf("expected succeeded/backend, got %q/%q", res.Status, res.Mode)
	}
	out := res.Output.(map[string]any)
	if out["value"] != "from-backend" {
		t.Fatalf("unexpected output: %v", out)
	}
}

func TestRunBackendErrorFallsBack(t *testing.T) {
	t.Parallel()

	specA := valueSpec("a")
	specA.Backend = func(context.Context, task.Input) (map[string]any, error) {
		return nil, errors.New("boom")
	}

	results := runScheduler(t, []task.Spec{specA}, Config{})

	res := results["a"]
	if res.Status != task.StatusFellBack || res.Mode != task.ModeFallback {
		t.Fatalf("expected fell_back/fallback, got %q/%q", res.Status, res.Mode)
	}
	if res.Err == "" {
		t.Fatal("expected the backend error to be recorded")
	}
	out := res.Output.(map[string]any)
	if out["value"] != "a-fallback" {
		t.Fatalf("unexpected output: %v", out)
	}
}

func TestRunBackendInvalidOutputFallsBack(t *testing.T) {
	t.Parallel()

	specA := valueSpec("a")
	specA.Backend = func(context.Context, task.Input) (map[string]any, error) {
		return map[string]any{"value": 42}, nil
	}
	specB := valueSpec("b", "a")

	results := runScheduler(t, []task.Spec{specA, specB}, Config{})

	if res := results["a"]; res.Status != task.StatusFellBack {
		t.Fatalf("expected fell_back on schema violation, got %q", res.Status)
	}
	// The dependent still finalizes, indifferent to the dependency's mode.
	if res := results["b"]; res.Status != task.StatusSucceeded || res.Mode != task.ModeFallback {
		t.Fatalf("expected dependent to finalize, got %q/%q", res.Status, res.Mode)
	}
}

func TestRunBackendTimeout(t *testing.T) {
	t.Parallel()

	specA := valueSpec("a")
	specA.Timeout = 20 * time.Millisecond
	specA.Backend = func(ctx context.Context, _ task.Input) (map[string]any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	started := time.Now()
	results := runScheduler(t, []task.Spec{specA}, Config{})
	elapsed := time.Since(started)

	res := results["a"]
	if res.Status != task.StatusTimedOut || res.Mode != task.ModeFallback {
		t.Fatalf("expected timed_out/fallback, got %q/%q", res.Status, res.Mode)
	}
	if elapsed > 2*time.Second {
		t.Fatalf("timeout was not enforced, run took %s", elapsed)
	}
}

func TestRunInvocationDeadlineForcesFallback(t *testing.T) {
	t.Parallel()

	specA := valueSpec("a")
	specA.Backend = func(ctx context.Context, _ task.Input) (map[string]any, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	specB := valueSpec("b", "a")

	s, err := New([]task.Spec{specA, specB}, Config{}, nil)
	if err != nil {
		t.Fatalf("building scheduler: %v", err)
	}

	// The invocation context expires long before the per-task ceiling.
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	started := time.Now()
	results, err := s.Run(ctx, schedSnapshot(), schedRole())
	elapsed := time.Since(started)

	if err != nil {
		t.Fatalf("running scheduler: %v", err)
	}
	if elapsed > 2*time.Second {
		t.Fatalf("run did not terminate near the deadline, took %s", elapsed)
	}

	if len(results) != 2 {
		t.Fatalf("expected every task finalized, got %d results", len(results))
	}
	for name, res := range results {
		if !res.Final() {
			t.Fatalf("task %q not finalized: %q", name, res.Status)
		}
	}

	if res := results["a"]; res.Status != task.StatusTimedOut || res.Mode != task.ModeFallback {
		t.Fatalf("expected timed_out/fallback for the blocked task, got %q/%q", res.Status, res.Mode)
	}
	// The dependent has no backend: it finalizes through its primary fallback
	// even though the invocation context is already expired.
	if res := results["b"]; res.Status != task.StatusSucceeded || res.Mode != task.ModeFallback {
		t.Fatalf("expected succeeded/fallback for the dependent, got %q/%q", res.Status, res.Mode)
	}
}

func TestRunFallbackDefectIsFatal(t *testing.T) {
	t.Parallel()

	specA := valueSpec("a")
	specA.Fallback = func(task.Input) (any, error) {
		return nil, errors.New("defective")
	}

	s, err := New([]task.Spec{specA}, Config{}, nil)
	if err != nil {
		t.Fatalf("building scheduler: %v", err)
	}

	_, err = s.Run(context.Background(), schedSnapshot(), schedRole())
	if !errors.Is(err, task.ErrFallbackDefect) {
		t.Fatalf("expected ErrFallbackDefect, got %v", err)
	}
}

func TestRunFallbackSchemaViolationIsFatal(t *testing.T) {
	t.Parallel()

	specA := valueSpec("a")
	specA.Fallback = func(task.Input) (any, error) {
		return map[string]any{"wrong": true}, nil
	}

	s, err := New([]task.Spec{specA}, Config{}, nil)
	if err != nil {
		t.Fatalf("building scheduler: %v", err)
	}

	_, err = s.Run(context.Background(), schedSnapshot(), schedRole())
	if !errors.Is(err, task.ErrFallbackDefect) {
		t.Fatalf("expected ErrFallbackDefect, got %v", err)
	}
}

func TestRunDependentSeesFinalizedDependency(t *testing.T) {
	t.Parallel()

	specA := valueSpec("a")
	specA.Backend = func(ctx context.Context, _ task.Input) (map[string]any, error) {
		time.Sleep(50 * time.Millisecond)
		return map[string]any{"value": "slow-but-done"}, nil
	}

	specB := valueSpec("b", "a")
	specB.Backend = func(_ context.Context, in task.Input) (map[string]any, error) {
		dep, ok := in.Deps["a"]
		if !ok || dep == nil || !dep.Final() {
			return nil, fmt.Errorf("dependency not finalized: %+v", dep)
		}
		out := dep.Output.(map[string]any)
		return map[string]any{"value": "saw " + out["value"].(string)}, nil
	}

	results := runScheduler(t, []task.Spec{specA, specB}, Config{Workers: 4})

	res := results["b"]
	if res.Status != task.StatusSucceeded || res.Mode != task.ModeBackend {
		t.Fatalf("expected succeeded/backend, got %q/%q (%s)", res.Status, res.Mode, res.Err)
	}
	out := res.Output.(map[string]any)
	if out["value"] != "saw slow-but-done" {
		t.Fatalf("dependent observed wrong dependency output: %v", out)
	}
}

func TestRunSingleWorkerCompletes(t *testing.T) {
	t.Parallel()

	specs := []task.Spec{
		valueSpec("a"),
		valueSpec("b", "a"),
		valueSpec("c", "a"),
		valueSpec("d", "b", "c"),
	}

	results := runScheduler(t, specs, Config{Workers: 1})
	if len(results) != 4 {
		t.Fatalf("expected 4 finalized tasks, got %d", len(results))
	}
	for name, res := range results {
		if !res.Final() {
			t.Fatalf("task %q not finalized: %q", name, res.Status)
		}
	}
}
