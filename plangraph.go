package plangraph

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aretw0/plangraph/internal/logging"
	"github.com/aretw0/plangraph/internal/runtime"
	"github.com/aretw0/plangraph/internal/validator"
	fileAdapter "github.com/aretw0/plangraph/pkg/adapters/file"
	loamAdapter "github.com/aretw0/plangraph/pkg/adapters/loam"
	"github.com/aretw0/plangraph/pkg/domain"
	"github.com/aretw0/plangraph/pkg/ports"
	"github.com/google/uuid"
)

// Engine is the high-level entry point for the plangraph library.
// It loads a plan, walks it and optionally persists every run.
type Engine struct {
	loader ports.GraphLoader
	store  ports.SnapshotStore
	rules  domain.HaltRules
	hooks  domain.LifecycleHooks
	logger *slog.Logger
	newID  func() string
	Name   string
}

var _ ports.Walker = (*Engine)(nil)

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLoader injects a custom GraphLoader, bypassing path-based loading.
func WithLoader(l ports.GraphLoader) Option {
	return func(e *Engine) {
		e.loader = l
	}
}

// WithStore persists every finished run.
func WithStore(s ports.SnapshotStore) Option {
	return func(e *Engine) {
		e.store = s
	}
}

// WithHaltRules replaces the default halting rules.
func WithHaltRules(rules domain.HaltRules) Option {
	return func(e *Engine) {
		e.rules = rules
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithRunIDs overrides run ID generation (random UUIDs by default).
func WithRunIDs(next func() string) Option {
	return func(e *Engine) {
		e.newID = next
	}
}

// New initializes a new Engine for the plan at planPath.
// A directory is read as a Loam repository (one document per node); a file is
// read as a YAML or JSON plan definition. If WithLoader is provided, planPath
// may be empty and only labels the engine.
func New(planPath string, opts ...Option) (*Engine, error) {
	eng := &Engine{
		rules: domain.DefaultHaltRules(),
		newID: uuid.NewString,
	}

	for _, opt := range opts {
		opt(eng)
	}

	if eng.loader == nil {
		if planPath == "" {
			return nil, fmt.Errorf("planPath is required when no custom loader is provided")
		}

		info, err := os.Stat(planPath)
		if err != nil {
			return nil, fmt.Errorf("invalid plan path: %w", err)
		}

		if info.IsDir() {
			l, err := loamAdapter.Open(planPath)
			if err != nil {
				return nil, err
			}
			eng.loader = l
		} else {
			eng.loader = fileAdapter.NewLoader(planPath)
		}
	}

	if planPath != "" {
		abs, err := filepath.Abs(planPath)
		if err == nil {
			base := filepath.Base(abs)
			eng.Name = strings.TrimSuffix(base, filepath.Ext(base))
		}
	}

	// Ensure logger is initialized so the runtime never gets nil
	if eng.logger == nil {
		eng.logger = logging.NewNop()
	}
	if eng.Name != "" {
		eng.logger = eng.logger.With("plan", eng.Name)
	}

	return eng, nil
}

// Walk loads a fresh graph and walks it.
func (e *Engine) Walk(ctx context.Context) (*domain.Run, error) {
	g, err := e.loader.LoadGraph(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load plan: %w", err)
	}
	return e.WalkGraph(ctx, g)
}

// WalkGraph walks g to completion. The returned run carries the full snapshot
// log; it is saved when a store is configured. On error the partial run is
// still returned.
func (e *Engine) WalkGraph(ctx context.Context, g *domain.Graph) (*domain.Run, error) {
	run, v := e.prepare(g)
	_, err := v.Run(ctx)
	return run, e.complete(ctx, run, v, err)
}

// prepare opens a run record and the visitor that fills it.
func (e *Engine) prepare(g *domain.Graph) (*domain.Run, *runtime.Visitor) {
	run := &domain.Run{
		ID:        e.newID(),
		Plan:      e.Name,
		Status:    domain.StatusReady,
		StartedAt: time.Now().UTC(),
	}

	v := runtime.NewVisitor(g,
		runtime.WithHaltRules(e.rules),
		runtime.WithLifecycleHooks(e.hooks),
		runtime.WithLogger(e.logger),
		runtime.WithRunID(run.ID),
	)
	run.Log = v.Log()
	return run, v
}

// complete copies the visitor's outcome into run and persists terminal runs.
func (e *Engine) complete(ctx context.Context, run *domain.Run, v *runtime.Visitor, walkErr error) error {
	run.Log = v.Log()
	run.Status = v.Status()
	if h, ok := v.HaltedAt(); ok {
		run.HaltedAt = &h
	}
	run.FinishedAt = time.Now().UTC()
	if walkErr != nil {
		return walkErr
	}

	if e.store != nil && run.Status.Terminal() {
		if err := e.store.Save(ctx, run); err != nil {
			return fmt.Errorf("failed to save run %s: %w", run.ID, err)
		}
	}
	return nil
}

// Graph returns a fresh copy of the plan graph without walking it.
func (e *Engine) Graph(ctx context.Context) (*domain.Graph, error) {
	return e.loader.LoadGraph(ctx)
}

// Validate loads the plan and reports structural problems.
func (e *Engine) Validate(ctx context.Context) (*validator.Report, error) {
	g, err := e.loader.LoadGraph(ctx)
	if err != nil {
		return nil, err
	}
	return validator.Inspect(g), nil
}

// Watch returns a channel that signals when the underlying plan changes.
// Returns error if the loader does not support watching.
func (e *Engine) Watch(ctx context.Context) (<-chan struct{}, error) {
	if w, ok := e.loader.(ports.Watchable); ok {
		return w.Watch(ctx)
	}
	return nil, fmt.Errorf("current loader does not support watching")
}

// Loader returns the underlying GraphLoader used by the engine.
func (e *Engine) Loader() ports.GraphLoader {
	return e.loader
}

// Store returns the configured store, or nil.
func (e *Engine) Store() ports.SnapshotStore {
	return e.store
}

// HaltRules returns the rules walks are run with.
func (e *Engine) HaltRules() domain.HaltRules {
	return e.rules
}
