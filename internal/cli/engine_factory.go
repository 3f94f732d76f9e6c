package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/aretw0/plangraph"
	"github.com/aretw0/plangraph/pkg/domain"
	"github.com/aretw0/plangraph/pkg/ports"
)

// conventionalPlans are looked up, in order, when no plan path is given.
var conventionalPlans = []string{"plan.yaml", "plan.yml", "plan.json"}

// EngineOptions are the per-command additions to an engine.
type EngineOptions struct {
	// Store persists finished runs. Nil disables persistence.
	Store ports.SnapshotStore
	Hooks []domain.LifecycleHooks
}

// createEngine initializes a plangraph engine with standard CLI conventions.
// The debug visit trace is always attached; it is silent unless the logger
// is at debug level.
func createEngine(env *Env, planPath string, opts EngineOptions) (*plangraph.Engine, error) {
	hooks := append([]domain.LifecycleHooks{createDebugHooks(env.Logger)}, opts.Hooks...)

	engineOpts := []plangraph.Option{
		plangraph.WithLogger(env.Logger),
		plangraph.WithHaltRules(env.Rules),
		plangraph.WithLifecycleHooks(domain.ChainHooks(hooks...)),
	}
	if opts.Store != nil {
		engineOpts = append(engineOpts, plangraph.WithStore(opts.Store))
	}

	engine, err := plangraph.New(ResolvePlanPath(planPath), engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return engine, nil
}

// ResolvePlanPath picks the plan to load. An explicit path wins. Otherwise a
// conventional plan file in dir is used, and failing that dir itself is read
// as a Loam repository.
func ResolvePlanPath(path string) string {
	if path == "" {
		path = "."
	}
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return path
	}
	for _, name := range conventionalPlans {
		candidate := filepath.Join(path, name)
		if _, err := os.Stat(candidate); err == nil {
			return candidate
		}
	}
	return path
}
