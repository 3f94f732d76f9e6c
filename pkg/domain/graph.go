package domain

import (
	"fmt"
	"sync/atomic"
)

// NodeHandle is a stable index into a graph's node arena.
// Handles are only meaningful for the graph that issued them.
type NodeHandle int

// PlanNode pairs a handle with the component stored at it.
type PlanNode struct {
	Handle    NodeHandle
	Component Component
}

// Edge is a directed, labeled connection between two nodes.
type Edge struct {
	From       NodeHandle
	To         NodeHandle
	Transition Transition
}

// Graph is a directed plan graph: an arena of components plus a labeled edge list.
// Cycles and parallel edges are allowed. Structure is write-once; the only
// in-place mutation is the visited flag, reachable through a Lease.
type Graph struct {
	nodes   []Component
	edges   []Edge
	out     [][]int // per node, indexes into edges in insertion order
	root    NodeHandle
	hasRoot bool

	leased atomic.Bool
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{}
}

// AddNode inserts a component and returns its handle. The first Root variant
// added becomes the graph's root unless one was already designated.
// A walk holding the lease fails with ErrGraphModified when nodes appear under it.
func (g *Graph) AddNode(c Component) NodeHandle {
	h := NodeHandle(len(g.nodes))
	g.nodes = append(g.nodes, c)
	g.out = append(g.out, nil)

	if c.Kind() == KindRoot && !g.hasRoot {
		g.root = h
		g.hasRoot = true
	}
	return h
}

// AddEdge inserts a directed edge. The graph is left unchanged when either
// handle is unknown or the graph is leased.
func (g *Graph) AddEdge(from, to NodeHandle, t Transition) error {
	if g.leased.Load() {
		return fmt.Errorf("cannot add edge: %w", ErrGraphBusy)
	}
	if !g.contains(from) {
		return &NodeError{Handle: from, Err: ErrUnknownNode}
	}
	if !g.contains(to) {
		return &NodeError{Handle: to, Err: ErrUnknownNode}
	}

	g.edges = append(g.edges, Edge{From: from, To: to, Transition: t})
	g.out[from] = append(g.out[from], len(g.edges)-1)
	return nil
}

// SetRoot designates the traversal start. It fails while the graph is leased.
func (g *Graph) SetRoot(h NodeHandle) error {
	if g.leased.Load() {
		return fmt.Errorf("cannot set root: %w", ErrGraphBusy)
	}
	if !g.contains(h) {
		return &NodeError{Handle: h, Err: ErrUnknownNode}
	}
	g.root = h
	g.hasRoot = true
	return nil
}

// Root returns the designated start node, if any.
func (g *Graph) Root() (NodeHandle, bool) {
	return g.root, g.hasRoot
}

// Node returns the component stored at h.
func (g *Graph) Node(h NodeHandle) (Component, error) {
	if !g.contains(h) {
		return nil, &NodeError{Handle: h, Err: ErrUnknownNode}
	}
	return g.nodes[h], nil
}

// Neighbors returns the targets of h's outgoing edges in edge-insertion order.
// A target appears once per edge, so parallel edges repeat it.
func (g *Graph) Neighbors(h NodeHandle) ([]NodeHandle, error) {
	if !g.contains(h) {
		return nil, &NodeError{Handle: h, Err: ErrUnknownNode}
	}
	targets := make([]NodeHandle, 0, len(g.out[h]))
	for _, idx := range g.out[h] {
		targets = append(targets, g.edges[idx].To)
	}
	return targets, nil
}

// OutEdges returns h's outgoing edges in insertion order.
func (g *Graph) OutEdges(h NodeHandle) ([]Edge, error) {
	if !g.contains(h) {
		return nil, &NodeError{Handle: h, Err: ErrUnknownNode}
	}
	edges := make([]Edge, 0, len(g.out[h]))
	for _, idx := range g.out[h] {
		edges = append(edges, g.edges[idx])
	}
	return edges, nil
}

func (g *Graph) NodeCount() int { return len(g.nodes) }

func (g *Graph) EdgeCount() int { return len(g.edges) }

// Nodes returns every node in handle order.
func (g *Graph) Nodes() []PlanNode {
	nodes := make([]PlanNode, len(g.nodes))
	for i, c := range g.nodes {
		nodes[i] = PlanNode{Handle: NodeHandle(i), Component: c}
	}
	return nodes
}

// Edges returns every edge in insertion order.
func (g *Graph) Edges() []Edge {
	edges := make([]Edge, len(g.edges))
	copy(edges, g.edges)
	return edges
}

// Clone returns a deep copy of the graph. The copy is not leased.
func (g *Graph) Clone() *Graph {
	c := &Graph{
		nodes:   make([]Component, len(g.nodes)),
		edges:   make([]Edge, len(g.edges)),
		out:     make([][]int, len(g.out)),
		root:    g.root,
		hasRoot: g.hasRoot,
	}
	copy(c.nodes, g.nodes)
	copy(c.edges, g.edges)
	for i, idx := range g.out {
		c.out[i] = append([]int(nil), idx...)
	}
	return c
}

func (g *Graph) contains(h NodeHandle) bool {
	return h >= 0 && int(h) < len(g.nodes)
}

// Acquire grants exclusive traversal ownership of the graph.
// It fails with ErrGraphBusy while another lease is held.
func (g *Graph) Acquire() (*Lease, error) {
	if !g.leased.CompareAndSwap(false, true) {
		return nil, ErrGraphBusy
	}
	return &Lease{graph: g}, nil
}

// Lease is the exclusive right to mutate visited flags of a graph.
type Lease struct {
	graph    *Graph
	released atomic.Bool
}

// MarkVisited flips the visited flag of the node at h. Root is left untouched.
func (l *Lease) MarkVisited(h NodeHandle) error {
	if l.released.Load() {
		return ErrLeaseReleased
	}
	c, err := l.graph.Node(h)
	if err != nil {
		return fmt.Errorf("failed to mark visited: %w", err)
	}
	l.graph.nodes[h] = c.markVisited()
	return nil
}

// Release returns ownership. Calling it more than once is a no-op.
func (l *Lease) Release() {
	if l.released.CompareAndSwap(false, true) {
		l.graph.leased.Store(false)
	}
}
