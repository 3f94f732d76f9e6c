package http

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/aretw0/plangraph"
	"github.com/aretw0/plangraph/internal/compiler"
	"github.com/aretw0/plangraph/internal/logging"
	"github.com/aretw0/plangraph/internal/presentation/graph"
	"github.com/aretw0/plangraph/pkg/domain"
	"github.com/aretw0/plangraph/pkg/ports"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers"
	"github.com/getkin/kin-openapi/routers/legacy"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed openapi.yaml
var rawSpec []byte

// maxPlanBytes bounds the body of POST /runs.
const maxPlanBytes = 1 << 20

// Server serves walks and stored runs over HTTP.
// Runs created through POST /runs are saved to Store by the server itself,
// so the Walker does not need its own store.
type Server struct {
	Walker  ports.Walker
	Store   ports.SnapshotStore
	Streams *StreamManager

	gatherer prometheus.Gatherer
	logger   *slog.Logger
	spec     *openapi3.T
	router   routers.Router
}

// Option configures the Server.
type Option func(*Server)

// WithGatherer sets the registry exposed on /metrics.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gatherer = g
	}
}

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// Spec parses and validates the embedded OpenAPI document.
func Spec() (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(rawSpec)
	if err != nil {
		return nil, fmt.Errorf("failed to load openapi spec: %w", err)
	}
	if err := doc.Validate(loader.Context); err != nil {
		return nil, fmt.Errorf("invalid openapi spec: %w", err)
	}
	return doc, nil
}

// NewHandler creates a new HTTP handler for the walker and store.
func NewHandler(walker ports.Walker, store ports.SnapshotStore, opts ...Option) (http.Handler, error) {
	doc, err := Spec()
	if err != nil {
		return nil, err
	}
	router, err := legacy.NewRouter(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to build openapi router: %w", err)
	}

	s := &Server{
		Walker:   walker,
		Store:    store,
		gatherer: prometheus.DefaultGatherer,
		logger:   slog.Default(),
		spec:     doc,
		router:   router,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.Streams = NewStreamManager(s.logger)

	r := chi.NewRouter()
	r.Use(s.validateRequest)

	r.Get("/openapi.yaml", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/yaml")
		w.Write(rawSpec)
	})
	r.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(swaggerHTML))
	})
	r.Get("/health", s.GetHealth)
	r.Get("/info", s.GetInfo)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	r.Get("/events", s.SubscribeEvents)

	r.Route("/runs", func(r chi.Router) {
		r.Get("/", s.ListRuns)
		r.Post("/", s.CreateRun)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.GetRun)
			r.Delete("/", s.DeleteRun)
			r.Get("/graph", s.GetRunGraph)
			r.Get("/snapshots/{seq}", s.GetSnapshot)
			r.Get("/snapshots/{seq}/diff", s.GetSnapshotDiff)
		})
	})

	return enableCORS(r), nil
}

// validateRequest checks requests for documented routes against the OpenAPI
// document. Undocumented routes pass through untouched.
func (s *Server) validateRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		route, params, err := s.router.FindRoute(r)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxPlanBytes)
		}

		input := &openapi3filter.RequestValidationInput{
			Request:    r,
			PathParams: params,
			Route:      route,
			Options:    &openapi3filter.Options{MultiError: false},
		}
		if err := openapi3filter.ValidateRequest(r.Context(), input); err != nil {
			s.logger.Warn("Request rejected by schema", "method", r.Method, "path", r.URL.Path, "err", err)
			http.Error(w, fmt.Sprintf("Invalid request: %v", err), http.StatusBadRequest)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

const swaggerHTML = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="utf-8" />
    <meta name="viewport" content="width=device-width, initial-scale=1" />
    <title>plangraph API Documentation</title>
    <link rel="stylesheet" href="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui.css" />
</head>
<body>
<div id="swagger-ui"></div>
<script src="https://unpkg.com/swagger-ui-dist@5.11.0/swagger-ui-bundle.js" crossorigin></script>
<script>
    window.onload = () => {
    window.ui = SwaggerUIBundle({
        url: '/openapi.yaml',
        dom_id: '#swagger-ui',
    });
    };
</script>
</body>
</html>
`

// CreateRun handles POST /runs: compile the posted definition and walk it.
func (s *Server) CreateRun(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("CreateRun: Invalid request body", "err", err)
		return
	}

	def, err := compiler.NewParser().Parse(body, compiler.FormatJSON)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	plan, err := compiler.Compile(def)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	run, err := s.Walker.WalkGraph(r.Context(), plan.Graph)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrMissingRoot) || errors.Is(err, domain.ErrUnknownNode) {
			status = http.StatusUnprocessableEntity
		}
		http.Error(w, fmt.Sprintf("Walk error: %v", err), status)
		s.logger.Error("Walk failed", "plan", def.Name, "err", err)
		return
	}
	if run.Plan == "" {
		run.Plan = def.Name
	}

	if err := s.Store.Save(r.Context(), run); err != nil {
		http.Error(w, fmt.Sprintf("Save error: %v", err), http.StatusInternalServerError)
		s.logger.Error("Save failed", "run_id", run.ID, "err", err)
		return
	}

	if bytes, err := json.Marshal(run.Summary()); err == nil {
		s.Streams.Broadcast(run.Plan, string(bytes))
	}

	writeJSON(w, http.StatusCreated, run, s.logger)
}

// ListRuns handles GET /runs.
func (s *Server) ListRuns(w http.ResponseWriter, r *http.Request) {
	runs, err := s.Store.List(r.Context())
	if err != nil {
		http.Error(w, fmt.Sprintf("List error: %v", err), http.StatusInternalServerError)
		s.logger.Error("List failed", "err", err)
		return
	}
	if runs == nil {
		runs = []domain.RunSummary{}
	}
	writeJSON(w, http.StatusOK, runs, s.logger)
}

// GetRun handles GET /runs/{id}.
func (s *Server) GetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, run, s.logger)
}

// DeleteRun handles DELETE /runs/{id}.
func (s *Server) DeleteRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.Store.Delete(r.Context(), id); err != nil {
		http.Error(w, fmt.Sprintf("Delete error: %v", err), http.StatusInternalServerError)
		s.logger.Error("Delete failed", "run_id", id, "err", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GetSnapshot handles GET /runs/{id}/snapshots/{seq}. The body is the stored
// snapshot verbatim.
func (s *Server) GetSnapshot(w http.ResponseWriter, r *http.Request) {
	seq, err := strconv.Atoi(chi.URLParam(r, "seq"))
	if err != nil {
		http.Error(w, "Invalid sequence", http.StatusBadRequest)
		return
	}
	run, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	snap, ok := run.Log.At(seq)
	if !ok {
		http.Error(w, fmt.Sprintf("Run %s has no snapshot %d", run.ID, seq), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(snap.Bytes())
}

// GetSnapshotDiff handles GET /runs/{id}/snapshots/{seq}/diff: what changed
// between snapshot seq-1 and seq. Snapshot 0 is diffed against nothing.
func (s *Server) GetSnapshotDiff(w http.ResponseWriter, r *http.Request) {
	seq, err := strconv.Atoi(chi.URLParam(r, "seq"))
	if err != nil {
		http.Error(w, "Invalid sequence", http.StatusBadRequest)
		return
	}
	run, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	snap, ok := run.Log.At(seq)
	if !ok {
		http.Error(w, fmt.Sprintf("Run %s has no snapshot %d", run.ID, seq), http.StatusNotFound)
		return
	}

	next, err := snap.Graph()
	if err != nil {
		http.Error(w, fmt.Sprintf("Decode error: %v", err), http.StatusInternalServerError)
		return
	}
	var prev *domain.Graph
	if before, ok := run.Log.At(seq - 1); ok {
		if prev, err = before.Graph(); err != nil {
			http.Error(w, fmt.Sprintf("Decode error: %v", err), http.StatusInternalServerError)
			return
		}
	}

	diff := domain.Diff(prev, next)
	if diff == nil {
		diff = &domain.GraphDiff{Visited: []domain.NodeHandle{}}
	}
	writeJSON(w, http.StatusOK, diff, s.logger)
}

// GetRunGraph handles GET /runs/{id}/graph.
func (s *Server) GetRunGraph(w http.ResponseWriter, r *http.Request) {
	run, ok := s.loadRun(w, r)
	if !ok {
		return
	}
	g, err := run.Final()
	if err != nil {
		http.Error(w, fmt.Sprintf("Decode error: %v", err), http.StatusInternalServerError)
		s.logger.Error("Final snapshot decode failed", "run_id", run.ID, "err", err)
		return
	}
	if g == nil {
		http.Error(w, fmt.Sprintf("Run %s has no snapshots", run.ID), http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	io.WriteString(w, graph.GenerateMermaid(g, graph.OverlayOf(g, run.HaltedAt)))
}

func (s *Server) loadRun(w http.ResponseWriter, r *http.Request) (*domain.Run, bool) {
	id := chi.URLParam(r, "id")
	run, err := s.Store.Load(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrRunNotFound) {
			http.Error(w, fmt.Sprintf("Run %s not found", id), http.StatusNotFound)
			return nil, false
		}
		http.Error(w, fmt.Sprintf("Load error: %v", err), http.StatusInternalServerError)
		s.logger.Error("Load failed", "run_id", id, "err", err)
		return nil, false
	}
	return run, true
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"}, s.logger)
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	apiVersion := "unknown"
	if s.spec.Info != nil {
		apiVersion = s.spec.Info.Version
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"app":         "plangraph-http",
		"version":     strings.TrimSpace(plangraph.Version),
		"api_version": apiVersion,
	}, s.logger)
}

func writeJSON(w http.ResponseWriter, status int, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Response encode failed", "err", err)
	}
}

// StreamManager fans finished-run summaries out to SSE subscribers.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // plan name ("" = all plans) -> channels
	logger      *slog.Logger
}

// NewStreamManager creates a StreamManager that reports dropped messages to logger.
// A nil logger discards them.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logger,
	}
}

// Subscribe registers a listener for runs of plan, or of every plan when plan is empty.
func (sm *StreamManager) Subscribe(plan string) (chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[plan]; !ok {
		sm.subscribers[plan] = make(map[chan<- string]struct{})
	}
	sm.subscribers[plan][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[plan]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, plan)
			}
		}
	}
}

func (sm *StreamManager) Broadcast(plan string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	targets := []string{""}
	if plan != "" {
		targets = append(targets, plan)
	}
	for _, key := range targets {
		for ch := range sm.subscribers[key] {
			select {
			case ch <- msg:
			default:
				// Drop message if channel is full (slow client)
				sm.logger.Warn("SSE: Client buffer full, dropping message", "plan", plan)
			}
		}
	}
}

// SubscribeEvents handles the GET /events request (SSE).
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	plan := r.URL.Query().Get("plan")
	s.logger.Info("SSE: Subscribing to run updates", "plan", plan)

	ch, cancel := s.Streams.Subscribe(plan)
	defer cancel()

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE Client Disconnected")
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: run\ndata: %s\n\n", msg)
			flusher.Flush()
		}
	}
}
