package dsl

import (
	"fmt"

	"github.com/aretw0/plangraph/internal/compiler"
	"github.com/aretw0/plangraph/pkg/adapters/memory"
)

// Builder manages the graph construction.
type Builder struct {
	name  string
	root  string
	order []string
	nodes map[string]*NodeBuilder
}

// New creates a new graph builder for a plan called name.
func New(name string) *Builder {
	return &Builder{
		name:  name,
		nodes: make(map[string]*NodeBuilder),
	}
}

// Add creates a new node in the graph.
// If the node already exists, it returns the existing builder.
func (b *Builder) Add(key string) *NodeBuilder {
	if nb, ok := b.nodes[key]; ok {
		return nb
	}
	nb := &NodeBuilder{
		def:     compiler.NodeDefinition{Key: key},
		builder: b,
	}
	b.nodes[key] = nb
	b.order = append(b.order, key)
	return nb
}

// Definition returns the declarative form of what has been built so far.
func (b *Builder) Definition() *compiler.PlanDefinition {
	def := &compiler.PlanDefinition{Name: b.name, Root: b.root}
	for _, key := range b.order {
		nb := b.nodes[key]
		def.Nodes = append(def.Nodes, nb.def)
		def.Edges = append(def.Edges, nb.edges...)
	}
	return def
}

// Plan validates and compiles the graph.
func (b *Builder) Plan() (*compiler.Plan, error) {
	def := b.Definition()
	if err := compiler.NewParser().Validate(def); err != nil {
		return nil, err
	}
	return compiler.Compile(def)
}

// Build compiles the graph into a memory loader.
func (b *Builder) Build() (*memory.Loader, error) {
	plan, err := b.Plan()
	if err != nil {
		return nil, fmt.Errorf("failed to build plan %q: %w", b.name, err)
	}
	return memory.NewLoader(plan.Graph), nil
}
