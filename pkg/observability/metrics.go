package observability

import (
	"context"
	"sync"

	"github.com/aretw0/plangraph/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics records walk activity as Prometheus collectors.
type Metrics struct {
	Walks         *prometheus.CounterVec
	Visits        *prometheus.CounterVec
	Halts         *prometheus.CounterVec
	SnapshotBytes prometheus.Histogram
	WalkDuration  prometheus.Histogram

	mu      sync.Mutex
	started map[string]domain.WalkEvent
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Walks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "plangraph_walks_total",
				Help: "Total number of finished walks by final status",
			},
			[]string{"status"},
		),
		Visits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "plangraph_node_visits_total",
				Help: "Total number of node visits",
			},
			[]string{"kind", "state"},
		),
		Halts: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "plangraph_halts_total",
				Help: "Total number of walks halted, by halting kind and state",
			},
			[]string{"kind", "state"},
		),
		SnapshotBytes: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "plangraph_snapshot_bytes",
				Help:    "Size of serialized graph snapshots",
				Buckets: prometheus.ExponentialBuckets(256, 4, 8),
			},
		),
		WalkDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name: "plangraph_walk_duration_seconds",
				Help: "Duration of walks from start to terminal status",
			},
		),
		started: make(map[string]domain.WalkEvent),
	}

	if reg != nil {
		for _, c := range []prometheus.Collector{m.Walks, m.Visits, m.Halts, m.SnapshotBytes, m.WalkDuration} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks feeding the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnWalkStart: func(_ context.Context, e *domain.WalkEvent) {
			m.mu.Lock()
			m.started[e.RunID] = *e
			m.mu.Unlock()
		},
		OnVisit: func(_ context.Context, e *domain.VisitEvent) {
			state := string(e.State)
			m.Visits.WithLabelValues(string(e.Kind), state).Inc()
			m.SnapshotBytes.Observe(float64(e.SnapshotSize))
			if e.Halt {
				m.Halts.WithLabelValues(string(e.Kind), state).Inc()
			}
		},
		OnWalkEnd: func(_ context.Context, e *domain.WalkEvent) {
			m.Walks.WithLabelValues(string(e.Status)).Inc()

			m.mu.Lock()
			start, ok := m.started[e.RunID]
			delete(m.started, e.RunID)
			m.mu.Unlock()
			if ok {
				m.WalkDuration.Observe(e.Timestamp.Sub(start.Timestamp).Seconds())
			}
		},
	}
}
