package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/aretw0/plangraph"
	"github.com/aretw0/plangraph/internal/presentation/report"
	"github.com/aretw0/plangraph/internal/presentation/tui"
	"github.com/aretw0/plangraph/pkg/domain"
)

// WalkOptions configure a single walk from the command line.
type WalkOptions struct {
	PlanPath string
	Format   string
	// Step pauses after every visit and waits for Enter.
	Step bool
	// Persist saves the run to the configured store.
	Persist bool

	Input  io.Reader
	Output io.Writer
}

// RunWalk walks the plan once and writes the report.
func RunWalk(ctx context.Context, env *Env, opts WalkOptions) (*domain.Run, error) {
	format, err := report.ParseFormat(opts.Format)
	if err != nil {
		return nil, err
	}

	var engineOpts EngineOptions
	if opts.Persist {
		store, closeStore, err := OpenStore(ctx, env.Config.Store, env.Logger)
		if err != nil {
			return nil, err
		}
		defer closeStore()
		engineOpts.Store = store
	}

	engine, err := createEngine(env, opts.PlanPath, engineOpts)
	if err != nil {
		return nil, err
	}

	run, err := walkOnce(ctx, engine, opts)
	if err != nil {
		return run, err
	}
	env.Logger.Info("Walk finished", "run_id", run.ID, "status", run.Status, "snapshots", run.Log.Len())

	return run, writeReport(opts.Output, run, format)
}

func walkOnce(ctx context.Context, engine *plangraph.Engine, opts WalkOptions) (*domain.Run, error) {
	if opts.Step {
		r := plangraph.NewRunner()
		r.Input = opts.Input
		r.Output = opts.Output
		return r.Run(ctx, engine)
	}
	return engine.Walk(ctx)
}

// writeReport renders markdown through glamour when w is a terminal.
func writeReport(w io.Writer, run *domain.Run, format report.Format) error {
	if format != report.FormatMarkdown || !isTerminal(w) {
		return report.Write(w, run, format)
	}

	md, err := report.Markdown(run)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(w, tui.RenderMarkdown(md, terminalWidth(w)))
	return err
}
