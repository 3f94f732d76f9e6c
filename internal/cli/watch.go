package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/aretw0/plangraph"
	"github.com/aretw0/plangraph/internal/presentation/report"
	"github.com/aretw0/plangraph/internal/presentation/tui"
)

// reloadDelay lets editors finish writing before the plan is re-read.
const reloadDelay = 100 * time.Millisecond

// RunWatch walks the plan, then walks it again every time it changes,
// until ctx is cancelled.
func RunWatch(ctx context.Context, env *Env, opts WalkOptions) error {
	format, err := report.ParseFormat(opts.Format)
	if err != nil {
		return err
	}
	if isTerminal(opts.Output) {
		tui.PrintBanner(opts.Output, plangraph.Version)
	}

	var engineOpts EngineOptions
	if opts.Persist {
		store, closeStore, err := OpenStore(ctx, env.Config.Store, env.Logger)
		if err != nil {
			return err
		}
		defer closeStore()
		engineOpts.Store = store
	}

	engine, err := createEngine(env, opts.PlanPath, engineOpts)
	if err != nil {
		return err
	}

	watchCh, err := engine.Watch(ctx)
	if err != nil {
		return fmt.Errorf("cannot watch %s: %w", engine.Name, err)
	}
	env.Logger.Info("Starting Watcher", "plan", engine.Name)

	for {
		run, err := engine.Walk(ctx)
		if err != nil {
			// A broken plan is expected while editing; wait for the fix.
			env.Logger.Error("Walk failed", "err", err)
			printSystemMessage(opts.Output, "Walk failed: %v", err)
		} else if err := writeReport(opts.Output, run, format); err != nil {
			return err
		}
		printSystemMessage(opts.Output, "Watching '%s' for changes...", engine.Name)

		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-watchCh:
			if !ok {
				return nil
			}
			time.Sleep(reloadDelay)
			env.Logger.Info("Change detected, triggering reload")
			printSystemMessage(opts.Output, "Change detected, walking again.")
		}
	}
}
