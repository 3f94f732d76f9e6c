package plangraph

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/plangraph/pkg/domain"
)

// Runner walks a plan one visit at a time, printing each visit and waiting
// for the user between steps. This allows for easy testing and integration
// with different frontends (CLI, TUI, etc).
type Runner struct {
	Input    io.Reader
	Output   io.Writer
	Headless bool
	Renderer ContentRenderer
}

// ContentRenderer is a function that transforms the content before outputting it.
// This allows for TUI rendering (markdown to ANSI) without coupling the core package.
type ContentRenderer func(string) (string, error)

// NewRunner creates a new Runner. Input and Output must be set before Run.
func NewRunner() *Runner {
	return &Runner{}
}

// Run loads a fresh graph and steps through the walk.
// Typing "exit" or "quit" stops early; the partial run is returned unsaved
// with status running. EOF on input continues without pausing.
func (r *Runner) Run(ctx context.Context, engine *Engine) (*domain.Run, error) {
	if r.Output == nil {
		return nil, fmt.Errorf("output writer must be set (use os.Stdout)")
	}
	var lineReader *bufio.Reader
	if !r.Headless {
		if r.Input == nil {
			return nil, fmt.Errorf("input reader must be set (use os.Stdin)")
		}
		lineReader = bufio.NewReader(r.Input)
	}

	g, err := engine.Graph(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load plan: %w", err)
	}

	run, v := engine.prepare(g)
	if !r.Headless {
		fmt.Fprintf(r.Output, "--- plangraph step runner (%s) ---\n", run.ID)
	}

	for {
		more, err := v.Step(ctx)
		if err != nil {
			return run, engine.complete(ctx, run, v, err)
		}

		if snap, ok := v.Log().Last(); ok {
			r.print(describeVisit(g, snap))
		}
		if !more {
			break
		}

		if lineReader != nil {
			fmt.Fprint(r.Output, "> ")
			text, err := lineReader.ReadString('\n')
			if err != nil {
				if err != io.EOF {
					return run, fmt.Errorf("input error: %w", err)
				}
				// Graceful: keep walking without pauses
				lineReader = nil
			}
			input := strings.TrimSpace(text)
			if input == "exit" || input == "quit" {
				fmt.Fprintln(r.Output, "Bye!")
				run.Log = v.Log()
				run.Status = v.Status()
				return run, nil
			}
		}
	}

	if err := engine.complete(ctx, run, v, nil); err != nil {
		return run, err
	}
	r.print(fmt.Sprintf("walk %s after %d snapshots", run.Status, run.Log.Len()))
	return run, nil
}

func (r *Runner) print(msg string) {
	output := msg
	if r.Renderer != nil {
		if rendered, err := r.Renderer(msg); err == nil {
			output = rendered
		}
	}
	fmt.Fprintln(r.Output, strings.TrimSpace(output))
}

func describeVisit(g *domain.Graph, snap domain.Snapshot) string {
	c, err := g.Node(snap.Node)
	if err != nil {
		return fmt.Sprintf("#%d visiting unknown node %d", snap.Sequence, snap.Node)
	}
	if c.Kind() == domain.KindRoot {
		return fmt.Sprintf("#%d visiting root node", snap.Sequence)
	}
	return fmt.Sprintf("#%d visiting node %s with state %s", snap.Sequence, displayName(c), c.State())
}

func displayName(c domain.Component) string {
	if c.Name() != "" {
		return c.Name()
	}
	return domain.Describe(c)
}
