package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/plangraph/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// contractRun builds a small halted run with two snapshots.
func contractRun(t *testing.T, id string, startedAt time.Time) *domain.Run {
	t.Helper()
	g := domain.NewGraph()
	root := g.AddNode(domain.Root{})
	a, err := domain.NewComponentA(1, "a1", domain.State2, 7)
	require.NoError(t, err)
	b, err := domain.NewComponentB(1, "b1", domain.State1, "text <with> \"quotes\"")
	require.NoError(t, err)
	ha := g.AddNode(a)
	hb := g.AddNode(b)
	require.NoError(t, g.AddEdge(root, ha, domain.Transition{Name: "root to a"}))
	require.NoError(t, g.AddEdge(root, hb, domain.Transition{Name: "root to b"}))

	log := domain.NewLog()
	require.NoError(t, log.Record(g, root))
	lease, err := g.Acquire()
	require.NoError(t, err)
	require.NoError(t, lease.MarkVisited(ha))
	lease.Release()
	require.NoError(t, log.Record(g, ha))

	return &domain.Run{
		ID:         id,
		Plan:       "contract",
		Status:     domain.StatusHalted,
		HaltedAt:   &ha,
		Log:        log,
		StartedAt:  startedAt,
		FinishedAt: startedAt.Add(time.Millisecond),
	}
}

// RunSnapshotStoreContract runs a suite of tests to verify that a SnapshotStore implementation
// adheres to the defined interface contract.
func RunSnapshotStoreContract(t *testing.T, store SnapshotStore) {
	ctx := context.Background()
	runID := "contract-test-run-" + time.Now().Format("20060102150405")
	startedAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	t.Run("Save and Load", func(t *testing.T) {
		run := contractRun(t, runID, startedAt)

		err := store.Save(ctx, run)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, runID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, run.ID, loaded.ID)
		assert.Equal(t, run.Plan, loaded.Plan)
		assert.Equal(t, run.Status, loaded.Status)
		require.NotNil(t, loaded.HaltedAt)
		assert.Equal(t, *run.HaltedAt, *loaded.HaltedAt)
		assert.True(t, run.StartedAt.Equal(loaded.StartedAt))
		assert.True(t, run.FinishedAt.Equal(loaded.FinishedAt))

		// Snapshot bytes must survive storage unchanged.
		require.Equal(t, run.Log.Len(), loaded.Log.Len())
		for i, want := range run.Log.Entries() {
			got, ok := loaded.Log.At(i)
			require.True(t, ok)
			assert.Equal(t, want.Node, got.Node)
			assert.Equal(t, string(want.Bytes()), string(got.Bytes()))
		}
	})

	t.Run("Save Overwrites", func(t *testing.T) {
		run := contractRun(t, runID, startedAt)
		run.Status = domain.StatusExhausted
		run.HaltedAt = nil
		require.NoError(t, store.Save(ctx, run))

		loaded, err := store.Load(ctx, runID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusExhausted, loaded.Status)
		assert.Nil(t, loaded.HaltedAt)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, contractRun(t, runID, startedAt)))

		err := store.Delete(ctx, runID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, runID)
		assert.ErrorIs(t, err, domain.ErrRunNotFound, "Load after Delete should return ErrRunNotFound")

		assert.NoError(t, store.Delete(ctx, runID), "Delete of a missing run is a no-op")
	})

	t.Run("List", func(t *testing.T) {
		id1 := runID + "-1"
		id2 := runID + "-2"
		require.NoError(t, store.Save(ctx, contractRun(t, id2, startedAt.Add(time.Hour))))
		require.NoError(t, store.Save(ctx, contractRun(t, id1, startedAt)))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		runs, err := store.List(ctx)
		require.NoError(t, err)

		pos := map[string]int{}
		for i, r := range runs {
			pos[r.ID] = i
			if r.ID == id1 {
				assert.Equal(t, 2, r.Snapshots)
				assert.Equal(t, domain.StatusHalted, r.Status)
			}
		}
		require.Contains(t, pos, id1)
		require.Contains(t, pos, id2)
		assert.Less(t, pos[id1], pos[id2], "runs are listed oldest first")
	})
}
