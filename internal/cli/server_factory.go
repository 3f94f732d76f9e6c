package cli

import (
	"context"
	"net/http"

	"github.com/aretw0/plangraph"
	httpAdapter "github.com/aretw0/plangraph/pkg/adapters/http"
	mcpAdapter "github.com/aretw0/plangraph/pkg/adapters/mcp"
	"github.com/aretw0/plangraph/pkg/domain"
	"github.com/aretw0/plangraph/pkg/observability"
	"github.com/aretw0/plangraph/pkg/runs"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Services is everything a long-running server shares: one engine, one
// store and one metrics registry.
type Services struct {
	Engine   *plangraph.Engine
	Store    *runs.Manager
	Registry *prometheus.Registry
	close    func() error
}

// Close releases the store.
func (s *Services) Close() error {
	return s.close()
}

// NewServices opens the configured store and builds an instrumented engine.
// The engine itself does not persist; the adapters save the runs they create.
func NewServices(ctx context.Context, env *Env, planPath string) (*Services, error) {
	store, closeStore, err := OpenStore(ctx, env.Config.Store, env.Logger)
	if err != nil {
		return nil, err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := observability.NewMetrics(reg)
	if err != nil {
		closeStore()
		return nil, err
	}
	tracer := observability.NewTracer(nil)

	engine, err := createEngine(env, planPath, EngineOptions{
		Hooks: []domain.LifecycleHooks{metrics.Hooks(), tracer.Hooks()},
	})
	if err != nil {
		closeStore()
		return nil, err
	}

	return &Services{Engine: engine, Store: store, Registry: reg, close: closeStore}, nil
}

// HTTPHandler exposes the services over the REST API.
func (s *Services) HTTPHandler(env *Env) (http.Handler, error) {
	return httpAdapter.NewHandler(s.Engine, s.Store,
		httpAdapter.WithGatherer(s.Registry),
		httpAdapter.WithLogger(env.Logger),
	)
}

// MCPServer exposes the services as MCP tools.
func (s *Services) MCPServer() *mcpAdapter.Server {
	return mcpAdapter.NewServer(s.Engine, s.Store)
}
