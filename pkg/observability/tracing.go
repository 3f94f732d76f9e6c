package observability

import (
	"context"
	"sync"

	"github.com/aretw0/plangraph/pkg/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of walk spans.
const TracerName = "github.com/aretw0/plangraph"

// Tracer opens one span per walk and records each visit as a span event.
// Hooks cannot hand a context back to the walker, so open spans are tracked
// by run ID.
type Tracer struct {
	tracer trace.Tracer

	mu    sync.Mutex
	spans map[string]trace.Span
}

// NewTracer creates a Tracer. A nil provider uses the global one.
func NewTracer(tp trace.TracerProvider) *Tracer {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &Tracer{
		tracer: tp.Tracer(TracerName),
		spans:  make(map[string]trace.Span),
	}
}

// Hooks returns lifecycle hooks that drive the spans.
func (t *Tracer) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnWalkStart: func(ctx context.Context, e *domain.WalkEvent) {
			_, span := t.tracer.Start(ctx, "plangraph.walk",
				trace.WithTimestamp(e.Timestamp),
				trace.WithAttributes(
					attribute.String("plangraph.run_id", e.RunID),
					attribute.Int("plangraph.root", int(e.Root)),
				),
			)
			t.mu.Lock()
			t.spans[e.RunID] = span
			t.mu.Unlock()
		},
		OnVisit: func(_ context.Context, e *domain.VisitEvent) {
			span := t.span(e.RunID, false)
			if span == nil {
				return
			}
			span.AddEvent("visit",
				trace.WithTimestamp(e.Timestamp),
				trace.WithAttributes(
					attribute.Int("handle", int(e.Handle)),
					attribute.String("kind", string(e.Kind)),
					attribute.Int("id", e.ID),
					attribute.String("state", string(e.State)),
					attribute.Int("sequence", e.Sequence),
					attribute.Int("snapshot_size", e.SnapshotSize),
					attribute.Bool("halt", e.Halt),
				),
			)
		},
		OnWalkEnd: func(_ context.Context, e *domain.WalkEvent) {
			span := t.span(e.RunID, true)
			if span == nil {
				return
			}
			span.SetAttributes(
				attribute.String("plangraph.status", string(e.Status)),
				attribute.Int("plangraph.snapshots", e.Snapshots),
			)
			span.SetStatus(codes.Ok, "")
			span.End(trace.WithTimestamp(e.Timestamp))
		},
	}
}

func (t *Tracer) span(runID string, remove bool) trace.Span {
	t.mu.Lock()
	defer t.mu.Unlock()
	span := t.spans[runID]
	if remove {
		delete(t.spans, runID)
	}
	return span
}
