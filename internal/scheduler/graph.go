package scheduler

import (
	"fmt"
	"sort"

	"github.com/spigell/resume-tailor/internal/task"
)

// Graph is an immutable, validated task DAG. It is built once at startup;
// a cyclic or dangling dependency declaration is a configuration error, not
// a runtime condition.
type Graph struct {
	specs      map[string]task.Spec
	names      []string // sorted
	dependents map[string][]string
	depth      map[string]int
}

// NewGraph validates the specs and builds the dependency graph. It rejects
// empty or duplicate task names, unknown dependencies, self-loops and any
// cycle, wrapping every violation in task.ErrGraphConfiguration.
func NewGraph(specs []task.Spec) (*Graph, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("%w: no tasks", task.ErrGraphConfiguration)
	}

	byName := make(map[string]task.Spec, len(specs))
	names := make([]string, 0, len(specs))
	for _, spec := range specs {
		if spec.Name == "" {
			return nil, fmt.Errorf("%w: task name is required", task.ErrGraphConfiguration)
		}
		if spec.Fallback == nil {
			return nil, fmt.Errorf("%w: task %q has no fallback", task.ErrGraphConfiguration, spec.Name)
		}
		if _, dup := byName[spec.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate task name %q", task.ErrGraphConfiguration, spec.Name)
		}
		byName[spec.Name] = spec
		names = append(names, spec.Name)
	}
	sort.Strings(names)

	dependents := make(map[string][]string, len(specs))
	indegree := make(map[string]int, len(specs))
	for _, name := range names {
		spec := byName[name]
		for _, dep := range spec.DependsOn {
			if dep == spec.Name {
				return nil, fmt.Errorf("%w: task %q depends on itself", task.ErrGraphConfiguration, spec.Name)
			}
			if _, ok := byName[dep]; !ok {
				return nil, fmt.Errorf("%w: task %q depends on unknown task %q", task.ErrGraphConfiguration, spec.Name, dep)
			}
			dependents[dep] = append(dependents[dep], spec.Name)
			indegree[spec.Name]++
		}
	}
	for dep := range dependents {
		sort.Strings(dependents[dep])
	}

	// Kahn's algorithm: anything left unordered sits on a cycle.
	depth := make(map[string]int, len(specs))
	queue := make([]string, 0, len(specs))
	remaining := make(map[string]int, len(specs))
	for _, name := range names {
		remaining[name] = indegree[name]
		if indegree[name] == 0 {
			queue = append(queue, name)
		}
	}
	ordered := 0
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		ordered++
		for _, dependent := range dependents[name] {
			if d := depth[name] + 1; d > depth[dependent] {
				depth[dependent] = d
			}
			remaining[dependent]--
			if remaining[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}
	if ordered != len(names) {
		return nil, fmt.Errorf("%w: dependency cycle detected", task.ErrGraphConfiguration)
	}

	return &Graph{
		specs:      byName,
		names:      names,
		dependents: dependents,
		depth:      depth,
	}, nil
}

// Names returns the task names in lexical order.
func (g *Graph) Names() []string {
	out := make([]string, len(g.names))
	copy(out, g.names)
	return out
}

// Spec returns the spec of a known task.
func (g *Graph) Spec(name string) (task.Spec, bool) {
	s, ok := g.specs[name]
	return s, ok
}

// Dependents returns the tasks that declare name as a dependency.
func (g *Graph) Dependents(name string) []string {
	return g.dependents[name]
}

// Depth returns the topological depth of a task: 0 for roots, otherwise one
// past the deepest dependency. The worst-case run time of an invocation is
// bounded by (max depth + 1) x the per-task timeout.
func (g *Graph) Depth(name string) int {
	return g.depth[name]
}

// TopologicalOrder returns a deterministic dependency-respecting ordering:
// depth ascending, name ascending within a depth.
func (g *Graph) TopologicalOrder() []string {
	out := g.Names()
	sort.SliceStable(out, func(i, j int) bool {
		di, dj := g.depth[out[i]], g.depth[out[j]]
		if di != dj {
			return di < dj
		}
		return out[i] < out[j]
	})
	return out
}
