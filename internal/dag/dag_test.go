// SPDX-License-Identifier: MPL-2.0

package dag

import (
	"errors"
	"slices"
	"testing"
)

func TestTopologicalSort_EmptyGraph(t *testing.T) {
	t.Parallel()
	order, err := New().TopologicalSort()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if order != nil {
		t.Errorf("expected nil, got %v", order)
	}
}

func TestTopologicalSort_LayoutChain(t *testing.T) {
	t.Parallel()
	g := New()
	g.AddEdge("prefix", "exec_prefix")
	g.AddEdge("exec_prefix", "bindir")
	g.AddEdge("exec_prefix", "libdir")
	g.AddNode("mandir")

	order, err := g.TopologicalSort()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"prefix", "mandir", "exec_prefix", "bindir", "libdir"}
	if !slices.Equal(order, want) {
		t.Errorf("TopologicalSort() = %v, want %v", order, want)
	}
}

func TestTopologicalSort_Diamond(t *testing.T) {
	t.Parallel()
	g := New()
	g.AddEdge("A", "B")
	g.AddEdge("A", "C")
	g.AddEdge("B", "D")
	g.AddEdge("C", "D")

	order, err := g.TopologicalSort()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(order) != 4 || order[0] != "A" || order[3] != "D" {
		t.Errorf("TopologicalSort() = %v, want A first and D last", order)
	}
}

func TestTopologicalSort_DuplicateEdges(t *testing.T) {
	t.Parallel()
	g := New()
	g.AddEdge("A", "B")
	g.AddEdge("A", "B")

	order, err := g.TopologicalSort()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(order, []string{"A", "B"}) {
		t.Errorf("expected [A B], got %v", order)
	}
}

func TestTopologicalSort_Cycles(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		edges       [][2]string
		wantCycle   []string
		wantBlocked []string
	}{
		{
			name:        "self loop",
			edges:       [][2]string{{"A", "A"}},
			wantCycle:   []string{"A"},
			wantBlocked: []string{"A"},
		},
		{
			name:        "two nodes",
			edges:       [][2]string{{"datadir", "htdocsdir"}, {"htdocsdir", "datadir"}},
			wantCycle:   []string{"datadir", "htdocsdir"},
			wantBlocked: []string{"datadir", "htdocsdir"},
		},
		{
			name:        "downstream node is blocked but not in the cycle",
			edges:       [][2]string{{"A", "B"}, {"B", "C"}, {"C", "A"}, {"C", "D"}},
			wantCycle:   []string{"A", "B", "C"},
			wantBlocked: []string{"A", "B", "C", "D"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			g := New()
			for _, e := range tt.edges {
				g.AddEdge(e[0], e[1])
			}

			_, err := g.TopologicalSort()
			if !errors.Is(err, ErrCycle) {
				t.Fatalf("TopologicalSort() error = %v, want ErrCycle", err)
			}
			var cycleErr *CycleError
			if !errors.As(err, &cycleErr) {
				t.Fatalf("expected *CycleError, got %T", err)
			}

			got := slices.Clone(cycleErr.Cycle)
			slices.Sort(got)
			if !slices.Equal(got, tt.wantCycle) {
				t.Errorf("Cycle = %v, want members %v", cycleErr.Cycle, tt.wantCycle)
			}
			if !slices.Equal(cycleErr.Blocked, tt.wantBlocked) {
				t.Errorf("Blocked = %v, want %v", cycleErr.Blocked, tt.wantBlocked)
			}
		})
	}
}

func TestCycleError_Message(t *testing.T) {
	t.Parallel()
	err := &CycleError{Cycle: []string{"A", "B", "C"}}
	want := "cycle detected: A -> B -> C -> A"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
