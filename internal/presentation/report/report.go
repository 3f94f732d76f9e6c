package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/plangraph/pkg/domain"
)

// Format names an output rendering of a run.
type Format string

const (
	FormatText     Format = "text"
	FormatJSON     Format = "json"
	FormatMarkdown Format = "markdown"
)

// ParseFormat accepts text, json, markdown (or md).
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "", "text":
		return FormatText, nil
	case "json":
		return FormatJSON, nil
	case "markdown", "md":
		return FormatMarkdown, nil
	}
	return "", fmt.Errorf("unknown format %q (want text, json or markdown)", s)
}

// Write renders run to w.
func Write(w io.Writer, run *domain.Run, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(run)
	case FormatMarkdown:
		md, err := Markdown(run)
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, md)
		return err
	default:
		return Text(w, run)
	}
}

// Text writes one line per snapshot followed by a summary.
func Text(w io.Writer, run *domain.Run) error {
	steps, err := visits(run)
	if err != nil {
		return err
	}
	for _, s := range steps {
		fmt.Fprintf(w, "#%d  %-28s visited=%d\n", s.seq, domain.Describe(s.node), s.visited)
	}
	fmt.Fprintf(w, "run %s: %s after %d snapshots\n", run.ID, run.Status, run.Log.Len())
	return nil
}

// Markdown renders the run as a markdown document, suitable for glamour.
func Markdown(run *domain.Run) (string, error) {
	steps, err := visits(run)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	title := run.Plan
	if title == "" {
		title = "walk"
	}
	fmt.Fprintf(&sb, "# %s\n\n", title)
	fmt.Fprintf(&sb, "- **Run:** `%s`\n", run.ID)
	fmt.Fprintf(&sb, "- **Status:** %s\n", run.Status)
	if run.HaltedAt != nil {
		fmt.Fprintf(&sb, "- **Halted at:** node %d\n", *run.HaltedAt)
	}
	fmt.Fprintf(&sb, "- **Snapshots:** %d\n\n", run.Log.Len())

	if len(steps) > 0 {
		sb.WriteString("| # | Node | Kind | State | Visited so far | Snapshot bytes |\n")
		sb.WriteString("|---|------|------|-------|----------------|----------------|\n")
		for _, s := range steps {
			name := s.node.Name()
			if name == "" {
				name = fmt.Sprintf("%d", s.handle)
			}
			fmt.Fprintf(&sb, "| %d | %s | %s | %s | %d | %d |\n",
				s.seq, name, s.node.Kind(), s.node.State(), s.visited, s.size)
		}
	}
	return sb.String(), nil
}

type visit struct {
	seq     int
	handle  domain.NodeHandle
	node    domain.Component
	visited int
	size    int
}

// visits decodes every snapshot to describe the node it was recorded for.
func visits(run *domain.Run) ([]visit, error) {
	var out []visit
	for _, snap := range run.Log.Entries() {
		g, err := snap.Graph()
		if err != nil {
			return nil, fmt.Errorf("snapshot %d: %w", snap.Sequence, err)
		}
		c, err := g.Node(snap.Node)
		if err != nil {
			return nil, fmt.Errorf("snapshot %d: %w", snap.Sequence, err)
		}
		count := 0
		for _, n := range g.Nodes() {
			if n.Component.Visited() {
				count++
			}
		}
		out = append(out, visit{seq: snap.Sequence, handle: snap.Node, node: c, visited: count, size: snap.Size()})
	}
	return out, nil
}
