package cli

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/plangraph/internal/config"
	"github.com/aretw0/plangraph/internal/logging"
	"github.com/aretw0/plangraph/internal/testutils"
	"github.com/aretw0/plangraph/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEnv(t *testing.T) *Env {
	t.Helper()
	cfg := config.Default()
	cfg.Store.Dir = filepath.Join(t.TempDir(), "runs")
	return &Env{Config: cfg, Logger: logging.NewNop(), Rules: domain.DefaultHaltRules()}
}

func writePlan(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	testutils.WriteFiles(t, dir, map[string]string{"plan.yaml": testutils.ReferencePlanYAML})
	return dir
}

func TestResolvePlanPath(t *testing.T) {
	createDir := func(t *testing.T, files []string) string {
		dir := t.TempDir()
		for _, f := range files {
			require.NoError(t, os.WriteFile(filepath.Join(dir, f), []byte("content"), 0644))
		}
		return dir
	}

	t.Run("Explicit file wins", func(t *testing.T) {
		dir := createDir(t, []string{"plan.yaml", "other.json"})
		path := filepath.Join(dir, "other.json")
		assert.Equal(t, path, ResolvePlanPath(path))
	})

	t.Run("Conventional plan.yaml", func(t *testing.T) {
		dir := createDir(t, []string{"plan.yaml", "plan.json"})
		assert.Equal(t, filepath.Join(dir, "plan.yaml"), ResolvePlanPath(dir))
	})

	t.Run("Fallback to plan.json", func(t *testing.T) {
		dir := createDir(t, []string{"plan.json"})
		assert.Equal(t, filepath.Join(dir, "plan.json"), ResolvePlanPath(dir))
	})

	t.Run("Directory without plan file is a Loam repo", func(t *testing.T) {
		dir := createDir(t, []string{"root.md"})
		assert.Equal(t, dir, ResolvePlanPath(dir))
	})

	t.Run("Missing path is passed through", func(t *testing.T) {
		assert.Equal(t, "nope.yaml", ResolvePlanPath("nope.yaml"))
	})
}

func TestLoadEnv_FlagsOverrideConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plangraph.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  backend: sqlite\nlog:\n  level: error\n"), 0644))

	env, err := LoadEnv(GlobalFlags{ConfigPath: path, LogLevel: "debug", Store: "memory"})
	require.NoError(t, err)
	assert.Equal(t, "memory", env.Config.Store.Backend)
	assert.Equal(t, "debug", env.Config.Log.Level)
	assert.Equal(t, 1, env.Rules.Len())

	_, err = LoadEnv(GlobalFlags{ConfigPath: path, Store: "etcd"})
	assert.Error(t, err)
}

func TestRunWalk_TextReport(t *testing.T) {
	env := testEnv(t)
	var out bytes.Buffer

	run, err := RunWalk(context.Background(), env, WalkOptions{PlanPath: writePlan(t), Output: &out})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusHalted, run.Status)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[3], "component_a#2 (state_2)")
	assert.Contains(t, lines[4], "halted after 4 snapshots")
}

func TestRunWalk_PersistAndManageRuns(t *testing.T) {
	env := testEnv(t)
	ctx := context.Background()

	run, err := RunWalk(ctx, env, WalkOptions{PlanPath: writePlan(t), Format: "json", Persist: true, Output: &bytes.Buffer{}})
	require.NoError(t, err)

	store, closeStore, err := OpenStore(ctx, env.Config.Store, env.Logger)
	require.NoError(t, err)
	defer closeStore()

	var out bytes.Buffer
	require.NoError(t, ListRuns(ctx, store, &out))
	assert.Contains(t, out.String(), run.ID)
	assert.Contains(t, out.String(), "plan", "runs are labeled with the plan file name")

	out.Reset()
	require.NoError(t, InspectRun(ctx, store, run.ID, "markdown", &out))
	assert.Contains(t, out.String(), "# plan")
	assert.Contains(t, out.String(), "**Halted at:**")

	out.Reset()
	require.NoError(t, RemoveRuns(ctx, store, []string{run.ID}, &out))
	assert.Contains(t, out.String(), "Removed run")

	out.Reset()
	require.NoError(t, ListRuns(ctx, store, &out))
	assert.Equal(t, "No runs found.\n", out.String())

	assert.ErrorIs(t, InspectRun(ctx, store, run.ID, "text", &out), domain.ErrRunNotFound)
}

func TestRunWalk_Step(t *testing.T) {
	env := testEnv(t)
	var out bytes.Buffer

	run, err := RunWalk(context.Background(), env, WalkOptions{
		PlanPath: writePlan(t),
		Step:     true,
		Input:    strings.NewReader("\nquit\n"),
		Output:   &out,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRunning, run.Status)
	assert.Equal(t, 2, run.Log.Len())
	assert.Contains(t, out.String(), "Bye!")
}

func TestRunWalk_BadFormat(t *testing.T) {
	_, err := RunWalk(context.Background(), testEnv(t), WalkOptions{PlanPath: writePlan(t), Format: "xml", Output: &bytes.Buffer{}})
	assert.Error(t, err)
}

func TestOpenStore_Backends(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	tmp := t.TempDir()

	cases := map[string]config.StoreConfig{
		"memory": {Backend: "memory"},
		"file":   {Backend: "file", Dir: filepath.Join(tmp, "file")},
		"sqlite": {Backend: "sqlite", SQLite: config.SQLConfig{Path: filepath.Join(tmp, "db", "runs.db")}},
		"badger": {Backend: "badger", Badger: config.BadgerConfig{InMemory: true}},
		"redis":  {Backend: "redis", Redis: config.RedisConfig{Addr: mr.Addr(), TTL: "1h", Lock: true}},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			store, closeStore, err := OpenStore(ctx, cfg, logging.NewNop())
			require.NoError(t, err)
			defer closeStore()

			runs, err := store.List(ctx)
			require.NoError(t, err)
			assert.Empty(t, runs)
		})
	}

	_, _, err := OpenStore(ctx, config.StoreConfig{Backend: "etcd"}, logging.NewNop())
	assert.Error(t, err)
}

func TestDebugHooks_TraceVisits(t *testing.T) {
	var buf bytes.Buffer
	env := testEnv(t)
	env.Logger = logging.NewJSON(&buf, slog.LevelDebug)

	_, err := RunWalk(context.Background(), env, WalkOptions{PlanPath: writePlan(t), Output: &bytes.Buffer{}})
	require.NoError(t, err)

	logs := buf.String()
	assert.Contains(t, logs, "visiting root node")
	assert.Contains(t, logs, "visiting node A1 with state state_1")
	assert.Contains(t, logs, "visiting node A2 with state state_2")
	assert.NotContains(t, logs, "visiting node A3")
}
