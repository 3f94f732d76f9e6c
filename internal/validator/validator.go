package validator

import (
	"fmt"
	"strings"

	"github.com/aretw0/plangraph/pkg/domain"
)

// Report collects the findings of a static graph check.
// Errors make a walk impossible; warnings describe legal but suspicious shapes.
type Report struct {
	Errors   []string
	Warnings []string

	// Reachable lists nodes a walk could dequeue, in BFS order.
	Reachable []domain.NodeHandle
	// Cyclic is true when some reachable node can reach itself.
	Cyclic bool
}

// Err folds the report's errors into a single error, or nil.
func (r *Report) Err() error {
	if len(r.Errors) == 0 {
		return nil
	}
	return fmt.Errorf("found %d errors:\n- %s", len(r.Errors), strings.Join(r.Errors, "\n- "))
}

// Inspect checks a graph for a missing root, nodes unreachable from the root,
// and cycles. It never mutates the graph.
func Inspect(g *domain.Graph) *Report {
	report := &Report{}

	root, ok := g.Root()
	if !ok {
		report.Errors = append(report.Errors, domain.ErrMissingRoot.Error())
		return report
	}

	// 1. Crawler
	seen := make([]bool, g.NodeCount())
	seen[root] = true
	queue := []domain.NodeHandle{root}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		report.Reachable = append(report.Reachable, current)

		next, err := g.Neighbors(current)
		if err != nil {
			report.Errors = append(report.Errors, err.Error())
			continue
		}
		for _, n := range next {
			if !seen[n] {
				seen[n] = true
				queue = append(queue, n)
			}
		}
	}

	for _, n := range g.Nodes() {
		if !seen[n.Handle] {
			report.Warnings = append(report.Warnings,
				fmt.Sprintf("node %d (%s) is unreachable from root", n.Handle, domain.Describe(n.Component)))
		}
	}

	// 2. Cycles among reachable nodes
	if h, found := findCycle(g, root); found {
		report.Cyclic = true
		c, _ := g.Node(h)
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("cycle through node %d (%s); each node is still visited at most once", h, domain.Describe(c)))
	}

	return report
}

// ValidateGraph returns an error when the graph cannot be walked.
func ValidateGraph(g *domain.Graph) error {
	return Inspect(g).Err()
}

const (
	white = iota
	grey
	black
)

// findCycle runs an iterative DFS from start and returns a node on a back edge.
func findCycle(g *domain.Graph, start domain.NodeHandle) (domain.NodeHandle, bool) {
	color := make([]int, g.NodeCount())

	type frame struct {
		node domain.NodeHandle
		next []domain.NodeHandle
	}
	neighbors := func(h domain.NodeHandle) []domain.NodeHandle {
		n, _ := g.Neighbors(h)
		return n
	}

	stack := []frame{{node: start, next: neighbors(start)}}
	color[start] = grey

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if len(top.next) == 0 {
			color[top.node] = black
			stack = stack[:len(stack)-1]
			continue
		}

		n := top.next[0]
		top.next = top.next[1:]
		switch color[n] {
		case grey:
			return n, true
		case white:
			color[n] = grey
			stack = append(stack, frame{node: n, next: neighbors(n)})
		}
	}
	return 0, false
}
