package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	"github.com/stretchr/testify/require"
)

// SetupTestRepo creates a temporary directory and initializes a Loam repository in it.
// It returns the absolute path to the temp dir and the initialized repository.
// It fails the test immediately on error.
func SetupTestRepo(t *testing.T, opts ...loam.Option) (string, core.Repository) {
	t.Helper()

	tmpDir := t.TempDir()

	absPath, err := filepath.Abs(tmpDir)
	require.NoError(t, err, "Failed to get absolute path for temp dir")

	repo, err := loam.Init(absPath, opts...)
	require.NoError(t, err, "Failed to init loam repo")

	return absPath, repo
}

// WriteFiles seeds dir with name -> content pairs.
func WriteFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

// ReferencePlanYAML is the reference plan:
// root -> {a1, b1}; a1 -> a2; a2 -> {c1, a3}; b1 -> b2.
// a2 is in state_2, so the default rules halt the walk there.
const ReferencePlanYAML = `name: reference
nodes:
  - {key: root, kind: root}
  - {key: a1, kind: component_a, id: 1, name: A1, state: state_1, value: 1}
  - {key: a2, kind: component_a, id: 2, name: A2, state: state_2, value: 2}
  - {key: a3, kind: component_a, id: 3, name: A3, state: state_3, value: 3}
  - {key: b1, kind: component_b, id: 1, name: B1, state: state_1, value: first}
  - {key: b2, kind: component_b, id: 2, name: B2, state: state_2, value: second}
  - {key: c1, kind: component_c, id: 1, name: C1, state: state_1, value: 1}
edges:
  - {from: root, to: a1, name: Root to A1}
  - {from: root, to: b1, name: Root to B1}
  - {from: a1, to: a2, name: A1 to A2}
  - {from: a2, to: c1, name: A2 to C1}
  - {from: a2, to: a3, name: A2 to A3}
  - {from: b1, to: b2, name: B1 to B2}
`
