package ports

import (
	"context"

	"github.com/aretw0/plangraph/pkg/domain"
)

// GraphLoader defines how the engine obtains a plan graph.
// This allows the plan source (Loam, plan files, memory) to be decoupled.
type GraphLoader interface {
	// LoadGraph returns a fresh graph on every call: nothing is visited and no
	// lease is held, so each walk starts from a clean plan.
	LoadGraph(ctx context.Context) (*domain.Graph, error)
}

// Watchable defines an interface for loaders that can notify about backend changes.
// This is typically used for hot-reload or dev-mode functionality.
type Watchable interface {
	// Watch returns a channel that is signaled when the underlying plan changes.
	// It abstracts away the specific event details, signaling only that a reload is required.
	Watch(ctx context.Context) (<-chan struct{}, error)
}
