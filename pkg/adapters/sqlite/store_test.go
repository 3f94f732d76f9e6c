package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/plangraph/pkg/adapters/sqlite"
	"github.com/aretw0/plangraph/pkg/domain"
	"github.com/aretw0/plangraph/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T) (*sqlite.Store, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "runs.db")
	store, err := sqlite.New(sqlite.Options{Path: path})
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, path
}

func TestSqliteStore_Contract(t *testing.T) {
	store, _ := newStore(t)
	ports.RunSnapshotStoreContract(t, store)
}

func TestSqliteStore_ReopenKeepsRuns(t *testing.T) {
	ctx := context.Background()
	store, path := newStore(t)

	g := domain.NewGraph()
	g.AddNode(domain.Root{})
	log := domain.NewLog()
	require.NoError(t, log.Record(g, 0))
	started := time.Date(2026, 3, 1, 10, 0, 0, 123456789, time.UTC)
	require.NoError(t, store.Save(ctx, &domain.Run{
		ID: "kept", Status: domain.StatusExhausted, Log: log,
		StartedAt: started, FinishedAt: started.Add(time.Second),
	}))
	require.NoError(t, store.Close())

	reopened, err := sqlite.New(sqlite.Options{Path: path})
	require.NoError(t, err)
	defer reopened.Close()

	run, err := reopened.Load(ctx, "kept")
	require.NoError(t, err)
	assert.True(t, started.Equal(run.StartedAt), "nanoseconds survive")
	assert.Nil(t, run.HaltedAt)

	snap, ok := run.Log.At(0)
	require.True(t, ok)
	want, _ := log.At(0)
	assert.Equal(t, want.Bytes(), snap.Bytes())
}

func TestSqliteStore_CustomTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "custom.db")
	store, err := sqlite.New(sqlite.Options{Path: path, TableName: "walks"})
	require.NoError(t, err)
	defer store.Close()

	ports.RunSnapshotStoreContract(t, store)
}

func TestSqliteStore_RequiresPath(t *testing.T) {
	_, err := sqlite.New(sqlite.Options{})
	assert.Error(t, err)
}
