package validator

import (
	"strings"
	"testing"

	"github.com/aretw0/plangraph/pkg/domain"
)

func node(t *testing.T, id int) domain.Component {
	t.Helper()
	c, err := domain.NewComponentA(id, "", domain.State1, id)
	if err != nil {
		t.Fatalf("NewComponentA: %v", err)
	}
	return c
}

func TestValidateGraph(t *testing.T) {
	// 1. Scenario A: Valid Graph
	// root -> a -> b
	g := domain.NewGraph()
	root := g.AddNode(domain.Root{})
	a := g.AddNode(node(t, 1))
	b := g.AddNode(node(t, 2))
	_ = g.AddEdge(root, a, domain.Transition{})
	_ = g.AddEdge(a, b, domain.Transition{})

	report := Inspect(g)
	if err := report.Err(); err != nil {
		t.Errorf("Scenario A (Valid) failed: %v", err)
	}
	if len(report.Warnings) != 0 {
		t.Errorf("Scenario A: unexpected warnings %v", report.Warnings)
	}
	if len(report.Reachable) != 3 || report.Cyclic {
		t.Errorf("Scenario A: got reachable=%v cyclic=%v", report.Reachable, report.Cyclic)
	}

	// 2. Scenario B: No Root
	noRoot := domain.NewGraph()
	noRoot.AddNode(node(t, 1))
	err := ValidateGraph(noRoot)
	if err == nil {
		t.Fatal("Scenario B (No Root) should have failed")
	}
	if !strings.Contains(err.Error(), "missing root") {
		t.Errorf("Scenario B: unexpected error %v", err)
	}
}

func TestInspect_Warnings(t *testing.T) {
	// root -> a -> b -> a, plus an orphan
	g := domain.NewGraph()
	root := g.AddNode(domain.Root{})
	a := g.AddNode(node(t, 1))
	b := g.AddNode(node(t, 2))
	orphan := g.AddNode(node(t, 3))
	_ = g.AddEdge(root, a, domain.Transition{})
	_ = g.AddEdge(a, b, domain.Transition{})
	_ = g.AddEdge(b, a, domain.Transition{Name: "loop"})

	report := Inspect(g)
	if err := report.Err(); err != nil {
		t.Fatalf("cycles and orphans are not errors: %v", err)
	}
	if !report.Cyclic {
		t.Error("expected cycle to be detected")
	}
	if len(report.Warnings) != 2 {
		t.Fatalf("expected 2 warnings, got %v", report.Warnings)
	}
	if !strings.Contains(report.Warnings[0], "unreachable") {
		t.Errorf("first warning should be about node %d, got %q", orphan, report.Warnings[0])
	}
}

func TestInspect_DiamondIsNotACycle(t *testing.T) {
	g := domain.NewGraph()
	root := g.AddNode(domain.Root{})
	a := g.AddNode(node(t, 1))
	b := g.AddNode(node(t, 2))
	c := g.AddNode(node(t, 3))
	_ = g.AddEdge(root, a, domain.Transition{})
	_ = g.AddEdge(root, b, domain.Transition{})
	_ = g.AddEdge(a, c, domain.Transition{})
	_ = g.AddEdge(b, c, domain.Transition{})

	if Inspect(g).Cyclic {
		t.Error("diamond reported as cycle")
	}
}
