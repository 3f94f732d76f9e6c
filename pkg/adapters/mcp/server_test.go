package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/aretw0/plangraph"
	"github.com/aretw0/plangraph/pkg/adapters/memory"
	"github.com/aretw0/plangraph/pkg/domain"
	"github.com/aretw0/plangraph/pkg/dsl"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()
	b := dsl.New("chain")
	b.Add("root").Root().Go("a1")
	b.Add("a1").A(1, domain.State1, 10).Named("A1").Go("a2")
	b.Add("a2").A(2, domain.State2, 20).Named("A2")
	loader, err := b.Build()
	require.NoError(t, err)

	seq := 0
	engine, err := plangraph.New("chain",
		plangraph.WithLoader(loader),
		plangraph.WithRunIDs(func() string {
			seq++
			return fmt.Sprintf("run-%d", seq)
		}),
	)
	require.NoError(t, err)

	store := memory.NewStore()
	return NewServer(engine, store), store
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotNil(t, res)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return text.Text
}

func TestWalkPlan_ConfiguredPlan(t *testing.T) {
	s, store := newTestServer(t)
	ctx := context.Background()

	resp, err := s.handleWalkPlan(ctx, mcp.CallToolRequest{}, WalkArgs{})
	require.NoError(t, err)
	assert.Equal(t, "run-1", resp.Run.ID)
	assert.Equal(t, "chain", resp.Run.Plan)
	assert.Equal(t, domain.StatusHalted, resp.Run.Status)
	assert.Equal(t, 3, resp.Run.Snapshots)
	require.NotNil(t, resp.HaltedAt)
	assert.Contains(t, resp.Report, "| A2 |")

	_, err = store.Load(ctx, "run-1")
	assert.NoError(t, err, "walk_plan persists the run")
}

func TestWalkPlan_InlineDefinition(t *testing.T) {
	s, _ := newTestServer(t)
	plan := `{"name": "inline", "nodes": [
		{"key": "root", "kind": "root"},
		{"key": "c", "kind": "component_c", "id": 1, "state": "state_1", "value": 5}
	], "edges": [{"from": "root", "to": "c"}]}`

	resp, err := s.handleWalkPlan(context.Background(), mcp.CallToolRequest{}, WalkArgs{Plan: plan})
	require.NoError(t, err)
	assert.Equal(t, "inline", resp.Run.Plan)
	assert.Equal(t, domain.StatusExhausted, resp.Run.Status)
	assert.Nil(t, resp.HaltedAt)

	_, err = s.handleWalkPlan(context.Background(), mcp.CallToolRequest{}, WalkArgs{Plan: `{"nodes": []}`})
	assert.Error(t, err)
}

func TestGetRun(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()
	_, err := s.handleWalkPlan(ctx, mcp.CallToolRequest{}, WalkArgs{})
	require.NoError(t, err)

	// Whole run
	res, err := s.handleGetRun(ctx, callRequest(map[string]any{"id": "run-1"}))
	require.NoError(t, err)
	var run domain.Run
	require.NoError(t, json.Unmarshal([]byte(resultText(t, res)), &run))
	assert.Equal(t, 3, run.Log.Len())

	// One snapshot, verbatim
	res, err = s.handleGetRun(ctx, callRequest(map[string]any{"id": "run-1", "sequence": float64(1)}))
	require.NoError(t, err)
	snap, _ := run.Log.At(1)
	assert.Equal(t, string(snap.Bytes()), resultText(t, res))

	// Misses are tool errors, not protocol errors
	res, err = s.handleGetRun(ctx, callRequest(map[string]any{"id": "run-1", "sequence": float64(9)}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = s.handleGetRun(ctx, callRequest(map[string]any{"id": "ghost"}))
	require.NoError(t, err)
	assert.True(t, res.IsError)

	res, err = s.handleGetRun(ctx, callRequest(map[string]any{}))
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func TestRunsResource(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	contents, err := s.readRuns(ctx, mcp.ReadResourceRequest{})
	require.NoError(t, err)
	require.Len(t, contents, 1)
	assert.Equal(t, "[]", contents[0].(mcp.TextResourceContents).Text)

	_, err = s.handleWalkPlan(ctx, mcp.CallToolRequest{}, WalkArgs{})
	require.NoError(t, err)

	contents, err = s.readRuns(ctx, mcp.ReadResourceRequest{})
	require.NoError(t, err)
	var runs []domain.RunSummary
	require.NoError(t, json.Unmarshal([]byte(contents[0].(mcp.TextResourceContents).Text), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, "run-1", runs[0].ID)
}

func TestGraphJSON(t *testing.T) {
	s, _ := newTestServer(t)

	text, err := s.graphJSON(context.Background())
	require.NoError(t, err)

	g, err := domain.DecodeGraph([]byte(text))
	require.NoError(t, err)
	assert.Equal(t, 3, g.NodeCount())
	for _, n := range g.Nodes() {
		assert.False(t, n.Component.Visited())
	}
}
