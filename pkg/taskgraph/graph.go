// Package taskgraph runs a declarative DAG of named actions.
package taskgraph

import (
	"slices"
	"strings"

	"github.com/m-mizutani/githook/pkg/domain/model"
	"github.com/m-mizutani/goerr/v2"
)

// Graph is a set of actions with dependency edges. A graph is built for one
// pipeline run and must not be shared between runs.
type Graph struct {
	actions    map[string]*model.ActionSpec
	insertion  []string
	dependents map[string][]string
	order      []string
	rank       map[string]int
}

// NewGraph creates an empty Graph
func NewGraph() *Graph {
	return &Graph{
		actions:    make(map[string]*model.ActionSpec),
		dependents: make(map[string][]string),
	}
}

// Add adds an action to the graph. Dependencies may refer to actions that
// are added later; they are checked by Validate.
func (g *Graph) Add(spec *model.ActionSpec) error {
	if spec == nil || spec.Name == "" {
		return goerr.Wrap(ErrInvalidAction, "action name is required")
	}
	if spec.Run == nil {
		return goerr.Wrap(ErrInvalidAction, "action has no unit of work", goerr.V("action", spec.Name))
	}
	if _, exists := g.actions[spec.Name]; exists {
		return goerr.Wrap(ErrActionAlreadyExists, "failed to add action", goerr.V("action", spec.Name))
	}

	g.actions[spec.Name] = spec
	g.insertion = append(g.insertion, spec.Name)
	g.order = nil
	return nil
}

// MustAdd adds actions and panics on error. Intended for graphs assembled
// from fixed code paths.
func (g *Graph) MustAdd(specs ...*model.ActionSpec) *Graph {
	for _, spec := range specs {
		if err := g.Add(spec); err != nil {
			panic(err)
		}
	}
	return g
}

// Len returns the number of actions
func (g *Graph) Len() int {
	return len(g.actions)
}

// Action returns the action with the given name, or nil
func (g *Graph) Action(name string) *model.ActionSpec {
	return g.actions[name]
}

// Names returns action names in insertion order
func (g *Graph) Names() []string {
	return slices.Clone(g.insertion)
}

// Validate checks that every dependency exists and that the graph is
// acyclic, then computes the scheduling order: a topological order where
// ties are broken by insertion order.
func (g *Graph) Validate() error {
	dependents := make(map[string][]string, len(g.actions))
	for _, name := range g.insertion {
		for _, dep := range g.actions[name].Dependencies {
			if _, ok := g.actions[dep]; !ok {
				return goerr.Wrap(ErrMissingDependency, "failed to validate graph",
					goerr.V("action", name),
					goerr.V("dependency", dep),
				)
			}
			dependents[dep] = append(dependents[dep], name)
		}
	}

	if err := g.detectCycle(); err != nil {
		return err
	}

	index := make(map[string]int, len(g.insertion))
	inDegree := make(map[string]int, len(g.insertion))
	var ready []string
	for i, name := range g.insertion {
		index[name] = i
		inDegree[name] = len(g.actions[name].Dependencies)
		if inDegree[name] == 0 {
			ready = append(ready, name)
		}
	}

	order := make([]string, 0, len(g.insertion))
	for len(ready) > 0 {
		name := ready[0]
		ready = ready[1:]
		order = append(order, name)

		for _, next := range dependents[name] {
			inDegree[next]--
			if inDegree[next] == 0 {
				ready = insertByRank(ready, next, index)
			}
		}
	}

	g.dependents = dependents
	g.order = order
	g.rank = make(map[string]int, len(order))
	for i, name := range order {
		g.rank[name] = i
	}
	return nil
}

// detectCycle walks the graph depth-first and reports the first cycle found
// as "a -> b -> a".
func (g *Graph) detectCycle() error {
	const (
		unvisited = iota
		visiting
		visited
	)
	state := make(map[string]int, len(g.actions))
	var path []string

	var visit func(name string) error
	visit = func(name string) error {
		state[name] = visiting
		path = append(path, name)

		for _, dep := range g.actions[name].Dependencies {
			switch state[dep] {
			case visiting:
				start := slices.Index(path, dep)
				cycle := append(slices.Clone(path[start:]), dep)
				return goerr.Wrap(ErrCycleDetected, "failed to validate graph",
					goerr.V("cycle", strings.Join(cycle, " -> ")))
			case unvisited:
				if err := visit(dep); err != nil {
					return err
				}
			}
		}

		state[name] = visited
		path = path[:len(path)-1]
		return nil
	}

	for _, name := range g.insertion {
		if state[name] == unvisited {
			if err := visit(name); err != nil {
				return err
			}
		}
	}
	return nil
}

// Order returns the scheduling order computed by Validate
func (g *Graph) Order() []string {
	return slices.Clone(g.order)
}

// Dependents returns the actions that directly depend on name
func (g *Graph) Dependents(name string) []string {
	return g.dependents[name]
}

// insertByRank inserts name into queue keeping it sorted by rank
func insertByRank(queue []string, name string, rank map[string]int) []string {
	pos, _ := slices.BinarySearchFunc(queue, name, func(a, b string) int {
		return rank[a] - rank[b]
	})
	return slices.Insert(queue, pos, name)
}
