package compiler

import (
	"fmt"

	"github.com/aretw0/plangraph/pkg/domain"
)

// Plan is a compiled definition: the graph plus the key of every node.
type Plan struct {
	Name  string
	Graph *domain.Graph
	Keys  map[string]domain.NodeHandle
}

// KeyOf returns the definition key of a handle.
func (p *Plan) KeyOf(h domain.NodeHandle) (string, bool) {
	for k, v := range p.Keys {
		if v == h {
			return k, true
		}
	}
	return "", false
}

// Compile builds a graph from a validated definition. Nodes are added in
// declaration order and edges in declaration order, which fixes the walk order.
func Compile(def *PlanDefinition) (*Plan, error) {
	plan := &Plan{
		Name:  def.Name,
		Graph: domain.NewGraph(),
		Keys:  make(map[string]domain.NodeHandle, len(def.Nodes)),
	}

	for _, n := range def.Nodes {
		if _, dup := plan.Keys[n.Key]; dup {
			return nil, fmt.Errorf("node %q: duplicate key", n.Key)
		}
		c, err := domain.NewComponent(domain.Kind(n.Kind), n.fields())
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", n.Key, err)
		}
		plan.Keys[n.Key] = plan.Graph.AddNode(c)
	}

	for i, e := range def.Edges {
		from, ok := plan.Keys[e.From]
		if !ok {
			return nil, fmt.Errorf("edge %d: from %q: %w", i, e.From, domain.ErrUnknownNode)
		}
		to, ok := plan.Keys[e.To]
		if !ok {
			return nil, fmt.Errorf("edge %d: to %q: %w", i, e.To, domain.ErrUnknownNode)
		}
		if err := plan.Graph.AddEdge(from, to, domain.Transition{Name: e.Name}); err != nil {
			return nil, fmt.Errorf("edge %d: %w", i, err)
		}
	}

	if def.Root != "" {
		h, ok := plan.Keys[def.Root]
		if !ok {
			return nil, fmt.Errorf("root %q: %w", def.Root, domain.ErrUnknownNode)
		}
		if err := plan.Graph.SetRoot(h); err != nil {
			return nil, err
		}
	}

	return plan, nil
}

// fields maps the declared attributes to the raw form NewComponent expects.
// Only attributes that were actually declared are passed on.
func (n NodeDefinition) fields() map[string]any {
	fields := map[string]any{}
	if n.ID != nil {
		fields["id"] = *n.ID
	}
	if n.Name != "" {
		fields["name"] = n.Name
	}
	if n.State != "" {
		fields["state"] = n.State
	}
	if n.Value != nil {
		fields["value"] = n.Value
	}
	return fields
}
