package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// nodeRecord is the wire shape of one node. Root records carry only handle and kind.
type nodeRecord struct {
	Handle  NodeHandle `json:"handle"`
	Kind    Kind       `json:"kind"`
	ID      *int       `json:"id,omitempty"`
	Name    *string    `json:"name,omitempty"`
	State   *State     `json:"state,omitempty"`
	Value   any        `json:"value,omitempty"`
	Visited *bool      `json:"visited,omitempty"`
}

type edgeRecord struct {
	From NodeHandle `json:"from"`
	To   NodeHandle `json:"to"`
	Name string     `json:"name"`
}

type graphRecord struct {
	Root  *NodeHandle  `json:"root"`
	Nodes []nodeRecord `json:"nodes"`
	Edges []edgeRecord `json:"edges"`
}

// EncodeGraph serializes the whole graph. Output is deterministic for a given graph.
func EncodeGraph(g *Graph) ([]byte, error) {
	rec := graphRecord{
		Nodes: make([]nodeRecord, 0, g.NodeCount()),
		Edges: make([]edgeRecord, 0, g.EdgeCount()),
	}
	if h, ok := g.Root(); ok {
		rec.Root = &h
	}

	for _, n := range g.Nodes() {
		nr := nodeRecord{Handle: n.Handle, Kind: n.Component.Kind()}
		if n.Component.Kind() != KindRoot {
			id, name, state, visited := n.Component.ID(), n.Component.Name(), n.Component.State(), n.Component.Visited()
			nr.ID, nr.Name, nr.State, nr.Visited = &id, &name, &state, &visited
			nr.Value = n.Component.Value()
		}
		rec.Nodes = append(rec.Nodes, nr)
	}

	for _, e := range g.Edges() {
		rec.Edges = append(rec.Edges, edgeRecord{From: e.From, To: e.To, Name: e.Transition.Name})
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to encode graph: %w", err)
	}
	return data, nil
}

// DecodeGraph rebuilds a graph from EncodeGraph output. Handles are preserved.
func DecodeGraph(data []byte) (*Graph, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	dec.DisallowUnknownFields()

	var rec graphRecord
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("failed to decode graph: %w", err)
	}

	g := NewGraph()
	for i, nr := range rec.Nodes {
		if nr.Handle != NodeHandle(i) {
			return nil, fmt.Errorf("failed to decode graph: node %d stored at position %d", nr.Handle, i)
		}

		fields := map[string]any{}
		if nr.ID != nil {
			fields["id"] = *nr.ID
		}
		if nr.Name != nil {
			fields["name"] = *nr.Name
		}
		if nr.State != nil {
			fields["state"] = string(*nr.State)
		}
		if nr.Value != nil {
			fields["value"] = nr.Value
		}

		c, err := NewComponent(nr.Kind, fields)
		if err != nil {
			return nil, &NodeError{Handle: nr.Handle, Err: err}
		}
		if nr.Visited != nil && *nr.Visited {
			c = c.markVisited()
		}
		g.nodes = append(g.nodes, c)
		g.out = append(g.out, nil)
	}

	for _, er := range rec.Edges {
		if err := g.AddEdge(er.From, er.To, Transition{Name: er.Name}); err != nil {
			return nil, fmt.Errorf("failed to decode graph: %w", err)
		}
	}

	if rec.Root != nil {
		if err := g.SetRoot(*rec.Root); err != nil {
			return nil, fmt.Errorf("failed to decode graph: %w", err)
		}
	}
	return g, nil
}
