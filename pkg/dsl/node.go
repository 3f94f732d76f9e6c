package dsl

import (
	"github.com/aretw0/plangraph/internal/compiler"
	"github.com/aretw0/plangraph/pkg/domain"
)

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	def     compiler.NodeDefinition
	edges   []compiler.EdgeDefinition
	builder *Builder
}

// Root makes the node the root variant. The first root added becomes the
// walk's starting point unless StartHere is used elsewhere.
func (n *NodeBuilder) Root() *NodeBuilder {
	n.def.Kind = string(domain.KindRoot)
	return n
}

// A makes the node a component_a with an integer value.
func (n *NodeBuilder) A(id int, state domain.State, value int) *NodeBuilder {
	return n.component(domain.KindA, id, state, value)
}

// B makes the node a component_b with a text value.
func (n *NodeBuilder) B(id int, state domain.State, value string) *NodeBuilder {
	return n.component(domain.KindB, id, state, value)
}

// C makes the node a component_c with an integer value.
func (n *NodeBuilder) C(id int, state domain.State, value int) *NodeBuilder {
	return n.component(domain.KindC, id, state, value)
}

func (n *NodeBuilder) component(kind domain.Kind, id int, state domain.State, value any) *NodeBuilder {
	n.def.Kind = string(kind)
	n.def.ID = &id
	n.def.State = string(state)
	n.def.Value = value
	return n
}

// Named sets the component's display name.
func (n *NodeBuilder) Named(name string) *NodeBuilder {
	n.def.Name = name
	return n
}

// StartHere designates this node as the root handle regardless of its kind.
func (n *NodeBuilder) StartHere() *NodeBuilder {
	n.builder.root = n.def.Key
	return n
}

// Go adds an unlabeled transition to the target node.
func (n *NodeBuilder) Go(target string) *NodeBuilder {
	return n.Transition("", target)
}

// Transition adds a labeled transition to the target node.
func (n *NodeBuilder) Transition(name, target string) *NodeBuilder {
	n.edges = append(n.edges, compiler.EdgeDefinition{
		From: n.def.Key,
		To:   target,
		Name: name,
	})
	return n
}

// Build returns the node's definition.
// This is primarily used by the Builder, but exposed for advanced usage.
func (n *NodeBuilder) Build() compiler.NodeDefinition {
	return n.def
}
