package memory

import (
	"context"
	"fmt"

	"github.com/aretw0/plangraph/pkg/domain"
)

// Loader implements ports.GraphLoader over a graph held in memory.
// Every LoadGraph call returns an independent clone.
type Loader struct {
	graph *domain.Graph
}

// NewLoader wraps a graph built programmatically (e.g. with pkg/dsl).
func NewLoader(g *domain.Graph) *Loader {
	return &Loader{graph: g.Clone()}
}

// LoadGraph returns a fresh copy of the template graph.
func (l *Loader) LoadGraph(ctx context.Context) (*domain.Graph, error) {
	if l.graph == nil {
		return nil, fmt.Errorf("memory loader has no graph")
	}
	return l.graph.Clone(), nil
}
