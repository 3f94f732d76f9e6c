package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/plangraph"
	"github.com/aretw0/plangraph/internal/compiler"
	"github.com/aretw0/plangraph/internal/presentation/report"
	"github.com/aretw0/plangraph/pkg/domain"
	"github.com/aretw0/plangraph/pkg/ports"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	runsURI  = "plangraph://runs"
	graphURI = "plangraph://graph"
)

// WalkResponse is the structured result of walk_plan.
type WalkResponse struct {
	Run      domain.RunSummary  `json:"run" jsonschema_description:"Summary of the finished walk"`
	HaltedAt *domain.NodeHandle `json:"halted_at,omitempty" jsonschema_description:"Handle of the node that stopped the walk, if a halt rule matched"`
	Report   string             `json:"report" jsonschema_description:"Markdown table with one row per snapshot"`
}

// WalkArgs are the arguments of walk_plan.
type WalkArgs struct {
	Plan string `json:"plan,omitempty"`
}

// Engine is what the MCP server needs from plangraph.Engine.
type Engine interface {
	ports.Walker
	Walk(ctx context.Context) (*domain.Run, error)
	Graph(ctx context.Context) (*domain.Graph, error)
}

// Server wraps a plangraph Engine and exposes it as an MCP Server.
// Runs produced by walk_plan are saved to the store by the server.
type Server struct {
	engine    Engine
	store     ports.SnapshotStore
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP Server instance.
func NewServer(engine Engine, store ports.SnapshotStore) *Server {
	s := &Server{
		engine:    engine,
		store:     store,
		mcpServer: server.NewMCPServer("plangraph-mcp", strings.TrimSpace(plangraph.Version)),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio starts the server on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// ServeSSE starts the server on the given port using SSE.
func (s *Server) ServeSSE(ctx context.Context, port int) error {
	addr := fmt.Sprintf(":%d", port)
	baseURL := fmt.Sprintf("http://localhost:%d", port)

	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	serverErrors := make(chan error, 1)
	go func() {
		slog.Info("MCP Server listening (SSE)", "address", addr)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		slog.Info("Shutdown signal received, shutting down MCP server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	// TOOL: walk_plan
	walkTool := mcp.NewTool("walk_plan",
		mcp.WithDescription("Walk a plan graph breadth-first from its root until a halt rule matches or every reachable node is visited. Walks the configured plan unless a definition is given."),
		mcp.WithString("plan", mcp.Description("JSON plan definition: {name, root, nodes[{key, kind, id, name, state, value}], edges[{from, to, name}]} (optional)")),
		mcp.WithOutputSchema[WalkResponse](),
	)
	s.mcpServer.AddTool(walkTool, mcp.NewStructuredToolHandler(s.handleWalkPlan))

	// TOOL: get_run
	s.mcpServer.AddTool(mcp.NewTool("get_run",
		mcp.WithDescription("Get a stored run with its snapshot log, or a single snapshot when sequence is given."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Run ID")),
		mcp.WithNumber("sequence", mcp.Description("Snapshot sequence number, starting at 0 (optional)")),
	), s.handleGetRun)

	// TOOL: list_runs
	s.mcpServer.AddTool(mcp.NewTool("list_runs",
		mcp.WithDescription("List stored runs, oldest first."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := s.runsJSON(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(text), nil
	})

	// TOOL: get_graph
	s.mcpServer.AddTool(mcp.NewTool("get_graph",
		mcp.WithDescription("Get the configured plan graph, unvisited, in snapshot format."),
	), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		text, err := s.graphJSON(ctx)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return mcp.NewToolResultText(text), nil
	})
}

func (s *Server) handleWalkPlan(ctx context.Context, request mcp.CallToolRequest, args WalkArgs) (WalkResponse, error) {
	var (
		run *domain.Run
		err error
	)
	if strings.TrimSpace(args.Plan) == "" {
		run, err = s.engine.Walk(ctx)
	} else {
		def, perr := compiler.NewParser().Parse([]byte(args.Plan), compiler.FormatJSON)
		if perr != nil {
			return WalkResponse{}, perr
		}
		plan, cerr := compiler.Compile(def)
		if cerr != nil {
			return WalkResponse{}, cerr
		}
		run, err = s.engine.WalkGraph(ctx, plan.Graph)
		if err == nil && run.Plan == "" {
			run.Plan = def.Name
		}
	}
	if err != nil {
		return WalkResponse{}, fmt.Errorf("walk failed: %w", err)
	}

	if err := s.store.Save(ctx, run); err != nil {
		return WalkResponse{}, fmt.Errorf("save failed: %w", err)
	}

	md, err := report.Markdown(run)
	if err != nil {
		slog.Error("MCP walk_plan: report failed", "run_id", run.ID, "err", err)
	}
	return WalkResponse{Run: run.Summary(), HaltedAt: run.HaltedAt, Report: md}, nil
}

func (s *Server) handleGetRun(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	run, err := s.store.Load(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrRunNotFound) {
			return mcp.NewToolResultError(fmt.Sprintf("run %s not found", id)), nil
		}
		return nil, fmt.Errorf("load failed: %w", err)
	}

	if seq := request.GetInt("sequence", -1); seq >= 0 {
		snap, ok := run.Log.At(seq)
		if !ok {
			return mcp.NewToolResultError(fmt.Sprintf("run %s has no snapshot %d", id, seq)), nil
		}
		return mcp.NewToolResultText(string(snap.Bytes())), nil
	}

	jsonBytes, err := json.Marshal(run)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) runsJSON(ctx context.Context) (string, error) {
	runs, err := s.store.List(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to list runs: %w", err)
	}
	if runs == nil {
		runs = []domain.RunSummary{}
	}
	jsonBytes, err := json.Marshal(runs)
	if err != nil {
		return "", err
	}
	return string(jsonBytes), nil
}

func (s *Server) graphJSON(ctx context.Context) (string, error) {
	g, err := s.engine.Graph(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load plan: %w", err)
	}
	jsonBytes, err := domain.EncodeGraph(g)
	if err != nil {
		return "", err
	}
	return string(jsonBytes), nil
}

func (s *Server) registerResources() {
	// EXPOSE: plangraph://runs
	s.mcpServer.AddResource(mcp.NewResource(runsURI, "Stored Runs",
		mcp.WithResourceDescription("Summaries of every stored walk, oldest first"),
		mcp.WithMIMEType("application/json"),
	), s.readRuns)

	// EXPOSE: plangraph://graph
	s.mcpServer.AddResource(mcp.NewResource(graphURI, "Current Plan Graph",
		mcp.WithMIMEType("application/json"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		text, err := s.graphJSON(ctx)
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{URI: graphURI, MIMEType: "application/json", Text: text},
		}, nil
	})
}

func (s *Server) readRuns(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	text, err := s.runsJSON(ctx)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{URI: runsURI, MIMEType: "application/json", Text: text},
	}, nil
}
