package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventWalkStart EventType = "walk_start"
	EventVisit     EventType = "visit"
	EventWalkEnd   EventType = "walk_end"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	RunID     string    `json:"run_id,omitempty"`
}

// WalkEvent marks the start or end of a walk.
type WalkEvent struct {
	EventBase
	Root      NodeHandle `json:"root"`
	Status    Status     `json:"status"`
	Snapshots int        `json:"snapshots"`
}

// VisitEvent is emitted once per dequeued node, after its snapshot is recorded.
type VisitEvent struct {
	EventBase
	Handle       NodeHandle `json:"handle"`
	Kind         Kind       `json:"kind"`
	ID           int        `json:"id"`
	Name         string     `json:"name"`
	State        State      `json:"state,omitempty"`
	Halt         bool       `json:"halt"`
	Sequence     int        `json:"sequence"`
	SnapshotSize int        `json:"snapshot_size"`
}

// LifecycleHooks defines callbacks for walk observability.
// Any field may be nil.
type LifecycleHooks struct {
	OnWalkStart func(context.Context, *WalkEvent)
	OnVisit     func(context.Context, *VisitEvent)
	OnWalkEnd   func(context.Context, *WalkEvent)
}

// ChainHooks fans every event out to each set of hooks in order.
func ChainHooks(hooks ...LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnWalkStart: func(ctx context.Context, e *WalkEvent) {
			for _, h := range hooks {
				if h.OnWalkStart != nil {
					h.OnWalkStart(ctx, e)
				}
			}
		},
		OnVisit: func(ctx context.Context, e *VisitEvent) {
			for _, h := range hooks {
				if h.OnVisit != nil {
					h.OnVisit(ctx, e)
				}
			}
		},
		OnWalkEnd: func(ctx context.Context, e *WalkEvent) {
			for _, h := range hooks {
				if h.OnWalkEnd != nil {
					h.OnWalkEnd(ctx, e)
				}
			}
		},
	}
}
