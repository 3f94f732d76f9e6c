package file

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/aretw0/plangraph/internal/compiler"
	"github.com/aretw0/plangraph/pkg/domain"
	"github.com/fsnotify/fsnotify"
)

// Loader implements ports.GraphLoader and ports.Watchable over a single plan
// file (YAML or JSON). The file is re-read on every LoadGraph call.
type Loader struct {
	Path     string
	Debounce time.Duration
}

// NewLoader creates a loader for the plan file at path.
func NewLoader(path string) *Loader {
	return &Loader{Path: path, Debounce: 100 * time.Millisecond}
}

// LoadGraph parses and compiles the plan file into a fresh graph.
func (l *Loader) LoadGraph(ctx context.Context) (*domain.Graph, error) {
	plan, err := l.LoadPlan()
	if err != nil {
		return nil, err
	}
	return plan.Graph, nil
}

// LoadPlan is LoadGraph keeping the node keys and plan name.
func (l *Loader) LoadPlan() (*compiler.Plan, error) {
	return compiler.LoadFile(l.Path)
}

// Watch implements ports.Watchable.
// It watches the parent directory so editors that replace the file on save
// (write to temp + rename) are still noticed. Bursts are coalesced.
func (l *Loader) Watch(ctx context.Context) (<-chan struct{}, error) {
	abs, err := filepath.Abs(l.Path)
	if err != nil {
		return nil, fmt.Errorf("invalid plan path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to start file watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		_ = watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	ch := make(chan struct{}, 1)

	go func() {
		defer close(ch)
		defer watcher.Close()

		var timer *time.Timer
		var fire <-chan time.Time

		for {
			select {
			case <-ctx.Done():
				if timer != nil {
					timer.Stop()
				}
				return
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(evt.Name) != abs {
					continue
				}
				if !evt.Has(fsnotify.Write) && !evt.Has(fsnotify.Create) && !evt.Has(fsnotify.Rename) {
					continue
				}
				if timer == nil {
					timer = time.NewTimer(l.Debounce)
				} else {
					timer.Reset(l.Debounce)
				}
				fire = timer.C
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			case <-fire:
				fire = nil
				// Non-blocking: a pending signal already means "reload".
				select {
				case ch <- struct{}{}:
				default:
				}
			}
		}
	}()

	return ch, nil
}
