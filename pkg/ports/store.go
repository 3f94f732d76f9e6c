package ports

import (
	"context"

	"github.com/aretw0/plangraph/pkg/domain"
)

// SnapshotStore defines the interface for persisting finished runs and their snapshot logs.
type SnapshotStore interface {
	// Save persists the run under run.ID, replacing any previous value.
	Save(ctx context.Context, run *domain.Run) error

	// Load retrieves a run by ID.
	// Returns domain.ErrRunNotFound if the run does not exist.
	Load(ctx context.Context, id string) (*domain.Run, error)

	// Delete removes a run. Deleting an unknown ID is not an error.
	Delete(ctx context.Context, id string) error

	// List returns a summary of every stored run, oldest first.
	List(ctx context.Context) ([]domain.RunSummary, error)
}
