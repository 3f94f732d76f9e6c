package ports

import (
	"context"

	"github.com/aretw0/plangraph/pkg/domain"
)

// Walker runs a complete walk over a graph and returns its outcome.
// This is the primary interface used by driving adapters (HTTP, MCP).
type Walker interface {
	WalkGraph(ctx context.Context, g *domain.Graph) (*domain.Run, error)
}
