package report_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/aretw0/plangraph/internal/presentation/report"
	"github.com/aretw0/plangraph/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoStepRun(t *testing.T) *domain.Run {
	t.Helper()
	g := domain.NewGraph()
	root := g.AddNode(domain.Root{})
	a, err := domain.NewComponentA(1, "A1", domain.State2, 1)
	require.NoError(t, err)
	ha := g.AddNode(a)
	require.NoError(t, g.AddEdge(root, ha, domain.Transition{}))

	log := domain.NewLog()
	require.NoError(t, log.Record(g, root))
	lease, err := g.Acquire()
	require.NoError(t, err)
	require.NoError(t, lease.MarkVisited(ha))
	lease.Release()
	require.NoError(t, log.Record(g, ha))

	return &domain.Run{ID: "r1", Plan: "demo", Status: domain.StatusHalted, HaltedAt: &ha, Log: log}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]report.Format{
		"": report.FormatText, "TEXT": report.FormatText, "json": report.FormatJSON, "md": report.FormatMarkdown,
	} {
		got, err := report.ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := report.ParseFormat("xml")
	assert.Error(t, err)
}

func TestText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.Write(&buf, twoStepRun(t), report.FormatText))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "#0  root")
	assert.Contains(t, lines[0], "visited=0")
	assert.Contains(t, lines[1], "component_a#1 (state_2)")
	assert.Contains(t, lines[1], "visited=1")
	assert.Equal(t, "run r1: halted after 2 snapshots", lines[2])
}

func TestMarkdown(t *testing.T) {
	md, err := report.Markdown(twoStepRun(t))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(md, "# demo\n"))
	assert.Contains(t, md, "- **Halted at:** node 1")
	assert.Contains(t, md, "| 1 | A1 | component_a | state_2 | 1 |")
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, report.Write(&buf, twoStepRun(t), report.FormatJSON))

	var decoded domain.Run
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "r1", decoded.ID)
	assert.Equal(t, 2, decoded.Log.Len())
}
