// Package dag orders tables by their foreign key dependencies.
package dag

import (
	"fmt"
	"slices"
	"strings"
)

// CycleError reports tables whose references form a cycle.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return "reference cycle detected: " + strings.Join(e.Path, " -> ")
}

// Graph is a directed graph of table names. An edge runs from a referenced
// table to the table that references it. Nodes keep their insertion order,
// which breaks ties in TopologicalSort.
type Graph struct {
	order   []string
	edges   map[string][]string // referenced -> referencing
	parents map[string][]string // referencing -> referenced
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		edges:   make(map[string][]string),
		parents: make(map[string][]string),
	}
}

// AddNode adds a table. Adding an existing table is a no-op.
func (g *Graph) AddNode(id string) {
	if _, ok := g.edges[id]; ok {
		return
	}
	g.order = append(g.order, id)
	g.edges[id] = nil
	g.parents[id] = nil
}

// AddEdge records that child references parent.
func (g *Graph) AddEdge(parent, child string) error {
	if _, ok := g.edges[parent]; !ok {
		return fmt.Errorf("referenced table %q does not exist", parent)
	}
	if _, ok := g.edges[child]; !ok {
		return fmt.Errorf("table %q does not exist", child)
	}
	if parent == child {
		// A self reference never constrains load order.
		return nil
	}
	if !slices.Contains(g.edges[parent], child) {
		g.edges[parent] = append(g.edges[parent], child)
		g.parents[child] = append(g.parents[child], parent)
	}
	return nil
}

// FindCycle returns one reference cycle, or nil if the graph is acyclic.
func (g *Graph) FindCycle() []string {
	const (
		unvisited = iota
		visiting
		done
	)
	state := make(map[string]int, len(g.order))
	var stack []string

	var visit func(id string) []string
	visit = func(id string) []string {
		state[id] = visiting
		stack = append(stack, id)
		for _, child := range g.edges[id] {
			switch state[child] {
			case visiting:
				start := slices.Index(stack, child)
				return append(slices.Clone(stack[start:]), child)
			case unvisited:
				if cycle := visit(child); cycle != nil {
					return cycle
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[id] = done
		return nil
	}

	for _, id := range g.order {
		if state[id] == unvisited {
			if cycle := visit(id); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

// TopologicalSort returns every table after the tables it references.
// Among tables whose references are satisfied, insertion order wins.
func (g *Graph) TopologicalSort() ([]string, error) {
	if cycle := g.FindCycle(); cycle != nil {
		return nil, &CycleError{Path: cycle}
	}

	pending := make(map[string]int, len(g.order))
	for _, id := range g.order {
		pending[id] = len(g.parents[id])
	}

	sorted := make([]string, 0, len(g.order))
	placed := make(map[string]bool, len(g.order))
	for len(sorted) < len(g.order) {
		for _, id := range g.order {
			if placed[id] || pending[id] > 0 {
				continue
			}
			placed[id] = true
			sorted = append(sorted, id)
			for _, child := range g.edges[id] {
				pending[child]--
			}
			// Restart so an earlier table freed by id goes next.
			break
		}
	}
	return sorted, nil
}
