package cli

import (
	"context"

	"github.com/aretw0/plangraph/internal/validator"
	"github.com/aretw0/plangraph/pkg/domain"
)

// LoadPlanGraph loads the plan without walking it.
func LoadPlanGraph(ctx context.Context, env *Env, planPath string) (*domain.Graph, error) {
	engine, err := createEngine(env, planPath, EngineOptions{})
	if err != nil {
		return nil, err
	}
	return engine.Graph(ctx)
}

// ValidatePlan loads the plan and inspects its structure.
func ValidatePlan(ctx context.Context, env *Env, planPath string) (*validator.Report, error) {
	engine, err := createEngine(env, planPath, EngineOptions{})
	if err != nil {
		return nil, err
	}
	return engine.Validate(ctx)
}
