package runtime

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/plangraph/internal/logging"
	"github.com/aretw0/plangraph/pkg/domain"
)

// Visitor walks a plan graph breadth-first from its root, marking nodes visited
// and recording a full snapshot after every dequeue, until a halt rule matches
// or the frontier is exhausted.
type Visitor struct {
	graph  *domain.Graph
	rules  domain.HaltRules
	hooks  domain.LifecycleHooks
	logger *slog.Logger
	runID  string

	status   domain.Status
	lease    *domain.Lease
	frontier []domain.NodeHandle
	queued   []bool
	log      *domain.Log
	haltedAt *domain.NodeHandle
	err      error
}

// VisitorOption configures a Visitor.
type VisitorOption func(*Visitor)

// WithHaltRules replaces the default halting rules.
func WithHaltRules(rules domain.HaltRules) VisitorOption {
	return func(v *Visitor) {
		v.rules = rules
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) VisitorOption {
	return func(v *Visitor) {
		v.hooks = hooks
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) VisitorOption {
	return func(v *Visitor) {
		if logger != nil {
			v.logger = logger
		}
	}
}

// WithRunID tags events and log lines with a run identifier.
func WithRunID(id string) VisitorOption {
	return func(v *Visitor) {
		v.runID = id
	}
}

// NewVisitor prepares a walk over g. Nothing is touched until the first Step.
func NewVisitor(g *domain.Graph, opts ...VisitorOption) *Visitor {
	v := &Visitor{
		graph:  g,
		rules:  domain.DefaultHaltRules(),
		logger: logging.NewNop(),
		status: domain.StatusReady,
		log:    domain.NewLog(),
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.runID != "" {
		v.logger = v.logger.With("run_id", v.runID)
	}
	return v
}

// Status reports where the walk is in its lifecycle.
func (v *Visitor) Status() domain.Status { return v.status }

// Log returns the snapshots recorded so far.
func (v *Visitor) Log() *domain.Log { return v.log }

// HaltedAt returns the node whose visit matched a halt rule.
func (v *Visitor) HaltedAt() (domain.NodeHandle, bool) {
	if v.haltedAt == nil {
		return 0, false
	}
	return *v.haltedAt, true
}

// Step dequeues and visits exactly one node. It returns false once the walk
// has reached a terminal status. A graph without root fails with
// domain.ErrMissingRoot before anything is dequeued.
func (v *Visitor) Step(ctx context.Context) (bool, error) {
	if v.err != nil {
		return false, v.err
	}
	if v.status.Terminal() {
		return false, nil
	}
	if v.status == domain.StatusReady {
		if err := v.start(ctx); err != nil {
			return false, err
		}
	}

	if err := v.checkStructure(); err != nil {
		return false, v.fail(err)
	}

	h := v.frontier[0]
	v.frontier = v.frontier[1:]

	if err := v.lease.MarkVisited(h); err != nil {
		return false, v.fail(err)
	}
	c, err := v.graph.Node(h)
	if err != nil {
		return false, v.fail(err)
	}

	if c.Kind() == domain.KindRoot {
		v.logger.Debug("visiting root node", "handle", h)
	} else {
		v.logger.Debug(fmt.Sprintf("visiting node %s with state %s", c.Name(), c.State()),
			"handle", h, "kind", c.Kind(), "id", c.ID())
	}

	seq := v.log.Len()
	if err := v.log.Record(v.graph, h); err != nil {
		return false, v.fail(err)
	}
	snap, _ := v.log.Last()

	halt := v.rules.ShouldHalt(c)
	if v.hooks.OnVisit != nil {
		v.hooks.OnVisit(ctx, &domain.VisitEvent{
			EventBase:    v.event(domain.EventVisit),
			Handle:       h,
			Kind:         c.Kind(),
			ID:           c.ID(),
			Name:         c.Name(),
			State:        c.State(),
			Halt:         halt,
			Sequence:     seq,
			SnapshotSize: snap.Size(),
		})
	}

	if halt {
		v.haltedAt = &h
		v.finish(ctx, domain.StatusHalted)
		return false, nil
	}

	if err := v.checkStructure(); err != nil {
		return false, v.fail(err)
	}
	neighbors, err := v.graph.Neighbors(h)
	if err != nil {
		return false, v.fail(err)
	}
	for _, n := range neighbors {
		if !v.queued[n] {
			v.queued[n] = true
			v.frontier = append(v.frontier, n)
		}
	}

	if len(v.frontier) == 0 {
		v.finish(ctx, domain.StatusExhausted)
		return false, nil
	}
	return true, nil
}

// Run steps until the walk halts or is exhausted and returns the snapshot log.
func (v *Visitor) Run(ctx context.Context) (*domain.Log, error) {
	for {
		more, err := v.Step(ctx)
		if err != nil {
			return v.log, err
		}
		if !more {
			return v.log, nil
		}
	}
}

// checkStructure fails the walk if nodes were added after it started.
// Edges and root cannot change while the lease is held.
func (v *Visitor) checkStructure() error {
	if n := v.graph.NodeCount(); n != len(v.queued) {
		return fmt.Errorf("%w: %d nodes at start, %d now", domain.ErrGraphModified, len(v.queued), n)
	}
	return nil
}

func (v *Visitor) start(ctx context.Context) error {
	root, ok := v.graph.Root()
	if !ok {
		return domain.ErrMissingRoot
	}

	lease, err := v.graph.Acquire()
	if err != nil {
		return fmt.Errorf("failed to start walk: %w", err)
	}
	v.lease = lease

	v.queued = make([]bool, v.graph.NodeCount())
	v.queued[root] = true
	v.frontier = []domain.NodeHandle{root}
	v.status = domain.StatusRunning

	v.logger.Debug("walk started", "root", root, "nodes", v.graph.NodeCount(), "halt_rules", v.rules.Len())
	if v.hooks.OnWalkStart != nil {
		v.hooks.OnWalkStart(ctx, &domain.WalkEvent{
			EventBase: v.event(domain.EventWalkStart),
			Root:      root,
			Status:    v.status,
		})
	}
	return nil
}

func (v *Visitor) finish(ctx context.Context, status domain.Status) {
	v.status = status
	v.lease.Release()

	root, _ := v.graph.Root()
	v.logger.Debug("walk finished", "status", status, "snapshots", v.log.Len())
	if v.hooks.OnWalkEnd != nil {
		v.hooks.OnWalkEnd(ctx, &domain.WalkEvent{
			EventBase: v.event(domain.EventWalkEnd),
			Root:      root,
			Status:    status,
			Snapshots: v.log.Len(),
		})
	}
}

// fail releases the graph and pins err as the outcome of every later Step.
func (v *Visitor) fail(err error) error {
	v.err = fmt.Errorf("walk aborted: %w", err)
	if v.lease != nil {
		v.lease.Release()
	}
	v.logger.Error("walk aborted", "error", err)
	return v.err
}

func (v *Visitor) event(t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: time.Now(), Type: t, RunID: v.runID}
}
