package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/plangraph/pkg/adapters/memory"
	"github.com/aretw0/plangraph/pkg/domain"
	"github.com/aretw0/plangraph/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunSnapshotStoreContract(t, store)
}

func TestMemoryStore_Isolation(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	g := domain.NewGraph()
	g.AddNode(domain.Root{})
	log := domain.NewLog()
	require.NoError(t, log.Record(g, 0))

	run := &domain.Run{ID: "iso", Status: domain.StatusExhausted, Log: log, StartedAt: time.Now()}
	require.NoError(t, store.Save(ctx, run))

	// Mutating the caller's log after saving must not leak into the store.
	require.NoError(t, log.Record(g, 0))
	run.Status = domain.StatusRunning

	loaded, err := store.Load(ctx, "iso")
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Log.Len())
	assert.Equal(t, domain.StatusExhausted, loaded.Status)
}
