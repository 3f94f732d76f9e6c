package tests

import (
	"context"
	"testing"

	"github.com/aretw0/plangraph/pkg/domain"
	"github.com/aretw0/plangraph/pkg/ports"
)

// GraphShape is what a loader is expected to produce for its fixture.
type GraphShape struct {
	Nodes int
	Edges int
	// Root is the kind expected at the designated root.
	Root domain.Kind
}

// GraphLoaderContractTest is a reusable test suite that verifies if an adapter complies with ports.GraphLoader.
func GraphLoaderContractTest(t *testing.T, loader ports.GraphLoader, want GraphShape) {
	t.Helper()
	ctx := context.Background()

	// 1. Test LoadGraph (Success)
	t.Run("LoadGraph_Success", func(t *testing.T) {
		g, err := loader.LoadGraph(ctx)
		if err != nil {
			t.Fatalf("unexpected error loading graph: %v", err)
		}
		if g.NodeCount() != want.Nodes {
			t.Errorf("expected %d nodes, got %d", want.Nodes, g.NodeCount())
		}
		if g.EdgeCount() != want.Edges {
			t.Errorf("expected %d edges, got %d", want.Edges, g.EdgeCount())
		}

		root, ok := g.Root()
		if !ok {
			t.Fatal("expected a designated root")
		}
		c, err := g.Node(root)
		if err != nil {
			t.Fatalf("root handle not in graph: %v", err)
		}
		if c.Kind() != want.Root {
			t.Errorf("expected root of kind %s, got %s", want.Root, c.Kind())
		}
	})

	// 2. Test freshness: every call yields an unvisited, unleased graph.
	t.Run("LoadGraph_Fresh", func(t *testing.T) {
		first, err := loader.LoadGraph(ctx)
		if err != nil {
			t.Fatalf("unexpected error loading graph: %v", err)
		}
		lease, err := first.Acquire()
		if err != nil {
			t.Fatalf("fresh graph should not be leased: %v", err)
		}
		for _, n := range first.Nodes() {
			if err := lease.MarkVisited(n.Handle); err != nil {
				t.Fatalf("mark visited: %v", err)
			}
		}
		// Lease deliberately kept: the next graph must be independent.

		second, err := loader.LoadGraph(ctx)
		if err != nil {
			t.Fatalf("unexpected error loading graph: %v", err)
		}
		for _, n := range second.Nodes() {
			if n.Component.Visited() {
				t.Errorf("node %d already visited in a fresh graph", n.Handle)
			}
		}
		l2, err := second.Acquire()
		if err != nil {
			t.Errorf("second graph should not be leased: %v", err)
		} else {
			l2.Release()
		}
		lease.Release()
	})
}
