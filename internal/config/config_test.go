package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aretw0/plangraph/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_MissingDefaultFile(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, "plangraph.yaml", `
log:
  level: debug
  format: json
store:
  backend: redis
  redis:
    addr: localhost:6379
    prefix: "pg:"
    ttl: 24h
    lock: true
halt_rules:
  - kind: component_b
    state: state_2
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "redis", cfg.Store.Backend)
	assert.True(t, cfg.Store.Redis.Lock)
	assert.Equal(t, ":8080", cfg.Server.Addr, "unset keys keep defaults")

	ttl, err := cfg.Store.Redis.Expiry()
	require.NoError(t, err)
	assert.Equal(t, 24*time.Hour, ttl)

	rules, err := cfg.Rules()
	require.NoError(t, err)
	assert.Equal(t, 2, rules.Len())

	a2, _ := domain.NewComponentA(2, "", domain.State2, 0)
	b2, _ := domain.NewComponentB(2, "", domain.State2, "")
	assert.True(t, rules.ShouldHalt(a2))
	assert.True(t, rules.ShouldHalt(b2))
}

func TestLoad_JSONReplacesDefaults(t *testing.T) {
	path := writeConfig(t, "plangraph.json", `{
  "store": {"backend": "sqlite", "sqlite": {"path": "runs.db"}},
  "halt_rules": [{"kind": "component_c", "state": "state_1"}],
  "replace_default_rules": true
}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.Store.Backend)
	assert.Equal(t, "runs.db", cfg.Store.SQLite.Path)

	rules, err := cfg.Rules()
	require.NoError(t, err)
	assert.Equal(t, []domain.HaltRule{{Kind: domain.KindC, State: domain.State1}}, rules.Rules())
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"unknown backend": "store:\n  backend: etcd\n",
		"bad level":       "log:\n  level: loud\n",
		"bad rule state":  "halt_rules:\n  - kind: component_a\n    state: state_9\n",
		"bad rule kind":   "halt_rules:\n  - kind: component_z\n    state: state_1\n",
		"bad ttl":         "store:\n  redis:\n    ttl: soon\n",
		"broken yaml":     "log: [",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, "plangraph.yaml", content))
			assert.Error(t, err)
		})
	}
}
