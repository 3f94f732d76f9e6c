package redis_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/plangraph/pkg/adapters/redis"
	"github.com/aretw0/plangraph/pkg/domain"
	"github.com/aretw0/plangraph/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := backend.NewClient(&backend.Options{
		Addr: mr.Addr(),
	})
	return mr, client
}

func sampleRun(id string) *domain.Run {
	g := domain.NewGraph()
	g.AddNode(domain.Root{})
	log := domain.NewLog()
	_ = log.Record(g, 0)
	return &domain.Run{ID: id, Status: domain.StatusExhausted, Log: log, StartedAt: time.Now().UTC()}
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newClient(t)

	store := redis.NewFromClient(client)
	ports.RunSnapshotStoreContract(t, store)
}

func TestRedisStore_TTL_Expiration(t *testing.T) {
	mr, client := newClient(t)

	// Create store with 1s TTL
	store := redis.NewFromClient(client, redis.WithTTL(1*time.Second))
	ctx := context.Background()

	// 1. Save
	require.NoError(t, store.Save(ctx, sampleRun("run-ttl")))

	// 2. Verify List (immediately)
	runs, err := store.List(ctx)
	assert.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "run-ttl", runs[0].ID)

	// 3. Fast Forward time in miniredis (for Key Expiration)
	mr.FastForward(2 * time.Second)

	// 4. Verify Load (should fail)
	_, err = store.Load(ctx, "run-ttl")
	assert.ErrorIs(t, err, domain.ErrRunNotFound)

	// 5. Expired values are skipped even before the index is pruned.
	runs, err = store.List(ctx)
	assert.NoError(t, err)
	assert.Empty(t, runs)

	// 6. Index pruning relies on wall-clock time.
	time.Sleep(1200 * time.Millisecond)
	_, err = store.List(ctx)
	assert.NoError(t, err)
	members, err := mr.ZMembers(redis.DefaultPrefix + "index")
	if err == nil {
		assert.Empty(t, members)
	}
}

func TestRedisStore_Prefix(t *testing.T) {
	mr, client := newClient(t)

	store := redis.NewFromClient(client, redis.WithPrefix("custom:app:"))
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleRun("my-run")))

	assert.True(t, mr.Exists("custom:app:my-run"), "Expected key with custom prefix to exist")
	assert.True(t, mr.Exists("custom:app:index"), "Expected index with custom prefix to exist")

	list, err := store.List(ctx)
	assert.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].Snapshots)
}
