package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aretw0/plangraph/internal/config"
	"github.com/aretw0/plangraph/pkg/adapters/badger"
	"github.com/aretw0/plangraph/pkg/adapters/file"
	"github.com/aretw0/plangraph/pkg/adapters/memory"
	"github.com/aretw0/plangraph/pkg/adapters/postgres"
	"github.com/aretw0/plangraph/pkg/adapters/redis"
	"github.com/aretw0/plangraph/pkg/adapters/sqlite"
	"github.com/aretw0/plangraph/pkg/ports"
	"github.com/aretw0/plangraph/pkg/runs"
)

// OpenStore builds the configured backend behind a run Manager.
// The returned close func releases the backend and is never nil.
func OpenStore(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (*runs.Manager, func() error, error) {
	var (
		store  ports.SnapshotStore
		closer = func() error { return nil }
		mopts  = []runs.Option{runs.WithLogger(logger)}
	)

	switch cfg.Backend {
	case "memory":
		store = memory.NewStore()

	case "", "file":
		dir := cfg.Dir
		if dir == "" {
			dir = config.Default().Store.Dir
		}
		store = file.NewStore(dir)

	case "redis":
		ttl, err := cfg.Redis.Expiry()
		if err != nil {
			return nil, nil, err
		}
		opts := []redis.Option{redis.WithTTL(ttl)}
		prefix := cfg.Redis.Prefix
		if prefix != "" {
			opts = append(opts, redis.WithPrefix(prefix))
		} else {
			prefix = redis.DefaultPrefix
		}
		rs := redis.New(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, opts...)
		store, closer = rs, rs.Close
		if cfg.Redis.Lock {
			mopts = append(mopts, runs.WithLocker(redis.NewLocker(rs.Client(), prefix+"lock:")))
		}

	case "badger":
		path := cfg.Badger.Path
		if path == "" && !cfg.Badger.InMemory {
			path = filepath.Join(".plangraph", "badger")
		}
		bs, err := badger.Open(badger.Config{Path: path, InMemory: cfg.Badger.InMemory, Logger: logger})
		if err != nil {
			return nil, nil, err
		}
		store, closer = bs, bs.Close

	case "sqlite":
		path := cfg.SQLite.Path
		if path == "" {
			path = filepath.Join(".plangraph", "runs.db")
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create sqlite directory: %w", err)
		}
		ss, err := sqlite.New(sqlite.Options{Path: path, TableName: cfg.SQLite.Table})
		if err != nil {
			return nil, nil, err
		}
		store, closer = ss, ss.Close

	case "postgres":
		ps, err := postgres.New(ctx, postgres.Options{ConnString: cfg.Postgres.DSN, TableName: cfg.Postgres.Table})
		if err != nil {
			return nil, nil, err
		}
		store = ps
		closer = func() error {
			ps.Close()
			return nil
		}

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}

	logger.Debug("Store opened", "backend", cfg.Backend)
	return runs.NewManager(store, mopts...), closer, nil
}
