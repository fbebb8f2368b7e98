// SPDX-License-Identifier: MPL-2.0

// Package dag provides a small directed graph with deterministic topological
// ordering and cycle reporting. The layout renderer uses it to name the roles
// that take part in a reference cycle.
package dag

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// ErrCycle is the sentinel error wrapped by CycleError.
var ErrCycle = errors.New("graph contains a cycle")

type (
	// CycleError indicates that the graph contains a cycle.
	CycleError struct {
		// Cycle lists the members of one cycle in edge order. The edge from
		// the last member back to the first closes the loop.
		Cycle []string
		// Blocked lists every node that could not be ordered, in insertion
		// order. It is a superset of Cycle.
		Blocked []string
	}

	// Graph is a directed graph keyed by string. An edge from A to B means A
	// must be settled before B.
	Graph struct {
		successors   map[string][]string
		predecessors map[string][]string
		nodes        []string
		nodeSet      map[string]bool
	}
)

func (e *CycleError) Error() string {
	if len(e.Cycle) == 0 {
		return ErrCycle.Error()
	}
	loop := append(slices.Clone(e.Cycle), e.Cycle[0])
	return fmt.Sprintf("cycle detected: %s", strings.Join(loop, " -> "))
}

// Unwrap returns ErrCycle for errors.Is() compatibility.
func (e *CycleError) Unwrap() error { return ErrCycle }

// New creates an empty Graph.
func New() *Graph {
	return &Graph{
		successors:   make(map[string][]string),
		predecessors: make(map[string][]string),
		nodeSet:      make(map[string]bool),
	}
}

// AddNode adds a node. Adding an existing node is a no-op.
func (g *Graph) AddNode(name string) {
	if g.nodeSet[name] {
		return
	}
	g.nodeSet[name] = true
	g.nodes = append(g.nodes, name)
}

// AddEdge adds a directed edge from -> to, implicitly adding both nodes.
// Duplicate edges are ignored.
func (g *Graph) AddEdge(from, to string) {
	g.AddNode(from)
	g.AddNode(to)
	if slices.Contains(g.successors[from], to) {
		return
	}
	g.successors[from] = append(g.successors[from], to)
	g.predecessors[to] = append(g.predecessors[to], from)
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.nodes) }

// TopologicalSort returns an order in which every node follows all of its
// predecessors, using Kahn's algorithm. Nodes at the same level keep their
// insertion order. A *CycleError is returned when no such order exists.
func (g *Graph) TopologicalSort() ([]string, error) {
	if len(g.nodes) == 0 {
		return nil, nil
	}

	inDegree := make(map[string]int, len(g.nodes))
	for _, node := range g.nodes {
		inDegree[node] = len(g.predecessors[node])
	}

	queue := make([]string, 0, len(g.nodes))
	for _, node := range g.nodes {
		if inDegree[node] == 0 {
			queue = append(queue, node)
		}
	}

	result := make([]string, 0, len(g.nodes))
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		result = append(result, node)

		for _, next := range g.successors[node] {
			inDegree[next]--
			if inDegree[next] == 0 {
				queue = append(queue, next)
			}
		}
	}

	if len(result) == len(g.nodes) {
		return result, nil
	}

	var blocked []string
	for _, node := range g.nodes {
		if inDegree[node] > 0 {
			blocked = append(blocked, node)
		}
	}
	return nil, &CycleError{Cycle: g.extractCycle(blocked, inDegree), Blocked: blocked}
}

// extractCycle walks predecessors inside the blocked set until a node
// repeats. Every blocked node has at least one blocked predecessor, so the
// walk always closes.
func (g *Graph) extractCycle(blocked []string, inDegree map[string]int) []string {
	if len(blocked) == 0 {
		return nil
	}

	position := make(map[string]int)
	var path []string
	node := blocked[0]
	for {
		if at, seen := position[node]; seen {
			cycle := path[at:]
			slices.Reverse(cycle)
			return cycle
		}
		position[node] = len(path)
		path = append(path, node)

		next := ""
		for _, pred := range g.predecessors[node] {
			if inDegree[pred] > 0 {
				next = pred
				break
			}
		}
		if next == "" {
			return blocked
		}
		node = next
	}
}
