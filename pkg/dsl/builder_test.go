package dsl

import (
	"context"
	"testing"

	"github.com/aretw0/plangraph/pkg/domain"
)

func TestBuilder_ReferencePlan(t *testing.T) {
	// 1. Build the graph using DSL
	b := New("reference")

	b.Add("root").Root().
		Transition("Root to A1", "a1").
		Transition("Root to B1", "b1")
	b.Add("a1").A(1, domain.State1, 1).Named("A1").Go("a2")
	b.Add("a2").A(2, domain.State2, 2).Go("c1").Go("a3")
	b.Add("a3").A(3, domain.State3, 3)
	b.Add("b1").B(1, domain.State1, "first").Go("b2")
	b.Add("b2").B(2, domain.State2, "second")
	b.Add("c1").C(1, domain.State1, 1)

	// 2. Compile to Loader
	loader, err := b.Build()
	if err != nil {
		t.Fatalf("Build() failed: %v", err)
	}

	g, err := loader.LoadGraph(context.Background())
	if err != nil {
		t.Fatalf("LoadGraph failed: %v", err)
	}

	// 3. Verify shape
	if g.NodeCount() != 7 || g.EdgeCount() != 6 {
		t.Fatalf("expected 7 nodes / 6 edges, got %d / %d", g.NodeCount(), g.EdgeCount())
	}
	root, ok := g.Root()
	if !ok || root != 0 {
		t.Fatalf("expected root at handle 0, got %d (%v)", root, ok)
	}

	next, _ := g.Neighbors(0)
	if len(next) != 2 || next[0] != 1 || next[1] != 4 {
		t.Errorf("root neighbors should be a1, b1 in declaration order, got %v", next)
	}

	edges, _ := g.OutEdges(0)
	if edges[0].Transition.Name != "Root to A1" {
		t.Errorf("unexpected transition label %q", edges[0].Transition.Name)
	}

	a1, _ := g.Node(1)
	if a1.Name() != "A1" || a1.State() != domain.State1 {
		t.Errorf("unexpected a1: %s", domain.Describe(a1))
	}
}

func TestBuilder_AddIsIdempotent(t *testing.T) {
	b := New("dup")
	first := b.Add("x").Root()
	second := b.Add("x")

	if first != second {
		t.Error("Add should return the existing builder")
	}
	if got := len(b.Definition().Nodes); got != 1 {
		t.Errorf("expected 1 node, got %d", got)
	}
}

func TestBuilder_StartHere(t *testing.T) {
	b := New("explicit")
	b.Add("entry").C(1, domain.State1, 0).StartHere().Go("next")
	b.Add("next").A(1, domain.State2, 0)

	plan, err := b.Plan()
	if err != nil {
		t.Fatalf("Plan() failed: %v", err)
	}
	root, _ := plan.Graph.Root()
	if root != plan.Keys["entry"] {
		t.Errorf("expected entry as root, got %d", root)
	}
}

func TestBuilder_Errors(t *testing.T) {
	t.Run("missing kind", func(t *testing.T) {
		b := New("bad")
		b.Add("nothing")
		if _, err := b.Build(); err == nil {
			t.Error("expected validation error for a node without kind")
		}
	})

	t.Run("dangling edge", func(t *testing.T) {
		b := New("bad")
		b.Add("root").Root().Go("ghost")
		_, err := b.Build()
		if err == nil {
			t.Fatal("expected unknown node error")
		}
	})

	t.Run("invalid state", func(t *testing.T) {
		b := New("bad")
		b.Add("root").Root().Go("c")
		b.Add("c").C(1, domain.State("state_7"), 0)
		if _, err := b.Build(); err == nil {
			t.Error("expected invalid state error")
		}
	})
}
