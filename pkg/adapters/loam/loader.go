package loam

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/aretw0/loam"
	"github.com/aretw0/plangraph/internal/compiler"
	"github.com/aretw0/plangraph/pkg/domain"
)

// Loader adapts a Loam repository to ports.GraphLoader: every document is a
// node and its transitions are the node's outgoing edges.
type Loader struct {
	Repo *loam.TypedRepository[NodeMetadata]
	// Name labels the compiled plan.
	Name string
}

// New creates a new Loam adapter.
func New(repo *loam.TypedRepository[NodeMetadata]) *Loader {
	return &Loader{
		Repo: repo,
	}
}

// Open initializes a read-only, strict Loam repository at dir.
// Strict mode makes every adapter return json.Number for numbers, so integer
// fields are never silently widened to float64.
func Open(dir string) (*Loader, error) {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	repo, err := loam.Init(absPath,
		loam.WithStrict(true),
		loam.WithReadOnly(true),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize loam: %w", err)
	}

	l := New(loam.NewTypedRepository[NodeMetadata](repo))
	l.Name = filepath.Base(absPath)
	return l, nil
}

// LoadGraph compiles the repository into a fresh graph.
func (l *Loader) LoadGraph(ctx context.Context) (*domain.Graph, error) {
	plan, err := l.LoadPlan(ctx)
	if err != nil {
		return nil, err
	}
	return plan.Graph, nil
}

// LoadPlan is LoadGraph keeping the node keys and plan name.
func (l *Loader) LoadPlan(ctx context.Context) (*compiler.Plan, error) {
	def, err := l.Definition(ctx)
	if err != nil {
		return nil, err
	}
	if err := compiler.NewParser().Validate(def); err != nil {
		return nil, err
	}
	return compiler.Compile(def)
}

type keyedDoc struct {
	key  string
	path string
	meta NodeMetadata
}

// Definition reads every document and assembles a plan definition.
// Nodes are ordered by key so handles are stable across loads; edges keep the
// order they are declared in within each document. Without an explicit
// "root: true" the first root-kind document becomes the root.
func (l *Loader) Definition(ctx context.Context) (*compiler.PlanDefinition, error) {
	docs, err := l.documents(ctx)
	if err != nil {
		return nil, err
	}

	def := &compiler.PlanDefinition{Name: l.Name}
	for _, d := range docs {
		id, err := intID(d.meta.ID)
		if err != nil {
			return nil, fmt.Errorf("document %s: id: %w", d.path, err)
		}
		def.Nodes = append(def.Nodes, compiler.NodeDefinition{
			Key:   d.key,
			Kind:  d.meta.Kind,
			ID:    id,
			Name:  d.meta.Name,
			State: d.meta.State,
			Value: d.meta.Value,
		})

		if d.meta.Root {
			if def.Root != "" {
				return nil, fmt.Errorf("documents %s and %s both claim root", findDoc(docs, def.Root).path, d.path)
			}
			def.Root = d.key
		}

		for _, t := range d.meta.Transitions {
			def.Edges = append(def.Edges, compiler.EdgeDefinition{
				From: d.key,
				To:   trimExtension(t.To),
				Name: t.Name,
			})
		}
		if d.meta.To != "" {
			def.Edges = append(def.Edges, compiler.EdgeDefinition{From: d.key, To: trimExtension(d.meta.To)})
		}
	}
	return def, nil
}

func findDoc(docs []keyedDoc, key string) *keyedDoc {
	for i := range docs {
		if docs[i].key == key {
			return &docs[i]
		}
	}
	return nil
}

// ListNodes lists the node keys in the repository.
func (l *Loader) ListNodes(ctx context.Context) ([]string, error) {
	docs, err := l.documents(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]string, len(docs))
	for i, d := range docs {
		keys[i] = d.key
	}
	return keys, nil
}

func (l *Loader) documents(ctx context.Context) ([]keyedDoc, error) {
	docs, err := l.Repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string)
	out := make([]keyedDoc, 0, len(docs))

	for _, doc := range docs {
		// Use the key from metadata if available, otherwise filename
		rawKey := doc.Data.Key
		if rawKey == "" {
			rawKey = doc.ID
		}
		key := trimExtension(rawKey)

		// Collision Detection
		if existingPath, ok := seen[key]; ok {
			return nil, fmt.Errorf("collision detected: key '%s' is defined in both '%s' and '%s'", key, existingPath, doc.ID)
		}
		seen[key] = doc.ID
		out = append(out, keyedDoc{key: key, path: doc.ID, meta: doc.Data})
	}

	sort.Slice(out, func(i, j int) bool { return out[i].key < out[j].key })
	return out, nil
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}

// intID normalizes the numeric forms Loam adapters produce.
func intID(v any) (*int, error) {
	if v == nil {
		return nil, nil
	}
	n, err := domain.IntFrom(v)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// Watch implements ports.Watchable.
func (l *Loader) Watch(ctx context.Context) (<-chan struct{}, error) {
	// Watch for all relevant files (recursive) using a doublestar pattern.
	events, err := l.Repo.Watch(ctx, "**/*.{md,json,yaml,yml}")
	if err != nil {
		return nil, fmt.Errorf("failed to start loam watcher: %w", err)
	}

	ch := make(chan struct{}, 1)

	go func() {
		defer close(ch)
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-events:
				if !ok {
					return
				}
				// Loam debounces on its side; a pending signal already means "reload".
				select {
				case ch <- struct{}{}:
				default:
				}
			}
		}
	}()

	return ch, nil
}
