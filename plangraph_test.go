package plangraph_test

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/plangraph"
	"github.com/aretw0/plangraph/internal/testutils"
	"github.com/aretw0/plangraph/pkg/adapters/memory"
	"github.com/aretw0/plangraph/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePlan(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	testutils.WriteFiles(t, dir, map[string]string{"plan.yaml": content})
	return filepath.Join(dir, "plan.yaml")
}

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("run-%d", n)
	}
}

func TestFacade_ReferencePlan(t *testing.T) {
	store := memory.NewStore()
	engine, err := plangraph.New(writePlan(t, testutils.ReferencePlanYAML),
		plangraph.WithStore(store),
		plangraph.WithRunIDs(sequentialIDs()),
	)
	require.NoError(t, err)
	assert.Equal(t, "plan", engine.Name)

	run, err := engine.Walk(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "run-1", run.ID)
	assert.Equal(t, domain.StatusHalted, run.Status)
	assert.Equal(t, 4, run.Log.Len())
	require.NotNil(t, run.HaltedAt)
	assert.False(t, run.FinishedAt.Before(run.StartedAt))

	final, err := run.Final()
	require.NoError(t, err)
	visited := map[string]bool{}
	for _, n := range final.Nodes() {
		visited[n.Component.Name()] = n.Component.Visited()
	}
	assert.True(t, visited["A1"])
	assert.True(t, visited["B1"])
	assert.True(t, visited["A2"])
	assert.False(t, visited["A3"])
	assert.False(t, visited["C1"])
	assert.False(t, visited["B2"])

	saved, err := store.Load(context.Background(), "run-1")
	require.NoError(t, err)
	assert.Equal(t, run.Log.Len(), saved.Log.Len())
}

func TestFacade_EachWalkIsFresh(t *testing.T) {
	engine, err := plangraph.New(writePlan(t, testutils.ReferencePlanYAML))
	require.NoError(t, err)

	first, err := engine.Walk(context.Background())
	require.NoError(t, err)
	second, err := engine.Walk(context.Background())
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	for i, snap := range first.Log.Entries() {
		other, ok := second.Log.At(i)
		require.True(t, ok)
		assert.Equal(t, snap.Bytes(), other.Bytes(), "snapshot %d differs between walks", i)
	}
}

func TestFacade_MissingRoot(t *testing.T) {
	g := domain.NewGraph()
	a, err := domain.NewComponentA(1, "", domain.State1, 0)
	require.NoError(t, err)
	g.AddNode(a)

	store := memory.NewStore()
	engine, err := plangraph.New("", plangraph.WithLoader(memory.NewLoader(g)), plangraph.WithStore(store))
	require.NoError(t, err)

	run, err := engine.Walk(context.Background())
	assert.ErrorIs(t, err, domain.ErrMissingRoot)
	require.NotNil(t, run)
	assert.Equal(t, 0, run.Log.Len())

	runs, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, runs, "failed walks are not persisted")
}

func TestFacade_LoamDirectory(t *testing.T) {
	dir := t.TempDir()
	testutils.WriteFiles(t, dir, map[string]string{
		"root.md": "---\nkind: root\nto: a\n---",
		"a.md":    "---\nkind: component_a\nid: 1\nstate: state_3\nvalue: 5\n---",
	})

	engine, err := plangraph.New(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Base(dir), engine.Name)

	run, err := engine.Walk(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.StatusExhausted, run.Status)
	assert.Equal(t, 2, run.Log.Len())
}

func TestFacade_Validate(t *testing.T) {
	plan := `nodes:
  - {key: root, kind: root}
  - {key: a, kind: component_a, id: 1, state: state_1, value: 1}
  - {key: orphan, kind: component_c, id: 1, state: state_1, value: 1}
edges:
  - {from: root, to: a}
  - {from: a, to: root}
`
	engine, err := plangraph.New(writePlan(t, plan))
	require.NoError(t, err)

	report, err := engine.Validate(context.Background())
	require.NoError(t, err)
	assert.NoError(t, report.Err())
	assert.True(t, report.Cyclic)
	assert.Len(t, report.Warnings, 2)
}

func TestFacade_NewErrors(t *testing.T) {
	_, err := plangraph.New("")
	assert.Error(t, err)

	_, err = plangraph.New(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestFacade_WatchUnsupported(t *testing.T) {
	engine, err := plangraph.New("", plangraph.WithLoader(memory.NewLoader(domain.NewGraph())))
	require.NoError(t, err)

	_, err = engine.Watch(context.Background())
	assert.Error(t, err)
}

func TestRunner_Headless(t *testing.T) {
	engine, err := plangraph.New(writePlan(t, testutils.ReferencePlanYAML), plangraph.WithRunIDs(sequentialIDs()))
	require.NoError(t, err)

	var out bytes.Buffer
	runner := plangraph.NewRunner()
	runner.Output = &out
	runner.Headless = true

	run, err := runner.Run(context.Background(), engine)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusHalted, run.Status)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Equal(t, []string{
		"#0 visiting root node",
		"#1 visiting node A1 with state state_1",
		"#2 visiting node B1 with state state_1",
		"#3 visiting node A2 with state state_2",
		"walk halted after 4 snapshots",
	}, lines)
}

func TestRunner_Quit(t *testing.T) {
	store := memory.NewStore()
	engine, err := plangraph.New(writePlan(t, testutils.ReferencePlanYAML), plangraph.WithStore(store))
	require.NoError(t, err)

	var out bytes.Buffer
	runner := &plangraph.Runner{
		Input:  strings.NewReader("\nquit\n"),
		Output: &out,
		Renderer: func(s string) (string, error) {
			return strings.ToUpper(s), nil
		},
	}

	run, err := runner.Run(context.Background(), engine)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRunning, run.Status)
	assert.Equal(t, 2, run.Log.Len())
	assert.Contains(t, out.String(), "#1 VISITING NODE A1 WITH STATE STATE_1")
	assert.Contains(t, out.String(), "Bye!")

	runs, err := store.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestRunner_RequiresIO(t *testing.T) {
	engine, err := plangraph.New(writePlan(t, testutils.ReferencePlanYAML))
	require.NoError(t, err)

	_, err = plangraph.NewRunner().Run(context.Background(), engine)
	assert.Error(t, err)

	_, err = (&plangraph.Runner{Output: os.Stdout}).Run(context.Background(), engine)
	assert.Error(t, err)
}
