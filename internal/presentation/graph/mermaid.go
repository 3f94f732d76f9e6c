package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/plangraph/pkg/domain"
)

// GraphOverlay contains walk state to visualize on the graph.
type GraphOverlay struct {
	Visited []domain.NodeHandle
	Halted  *domain.NodeHandle
}

// OverlayOf collects the visited flags of g. halted may be nil.
func OverlayOf(g *domain.Graph, halted *domain.NodeHandle) *GraphOverlay {
	overlay := &GraphOverlay{Halted: halted}
	for _, n := range g.Nodes() {
		if n.Component.Visited() {
			overlay.Visited = append(overlay.Visited, n.Handle)
		}
	}
	return overlay
}

// GenerateMermaid produces a Mermaid flowchart syntax string from a graph.
// It applies semantic styling:
// - Root: ((Circle))
// - component_a: [Rectangle]
// - component_b: [/Parallelogram/]
// - component_c: [[Subroutine]]
// - designated root that is not the root variant: {{Hexagon}}
// It also applies overlay styles (Visited/Halted) if provided.
func GenerateMermaid(g *domain.Graph, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")

	root, hasRoot := g.Root()

	for _, node := range g.Nodes() {
		c := node.Component
		opener, closer := "[", "]"

		switch c.Kind() {
		case domain.KindRoot:
			opener, closer = "((", "))"
		case domain.KindB:
			opener, closer = "[/", "/]"
		case domain.KindC:
			opener, closer = "[[", "]]"
		}
		if c.Kind() != domain.KindRoot && hasRoot && node.Handle == root {
			opener, closer = "{{", "}}"
		}

		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", nodeID(node.Handle), opener, label(c), closer))
	}

	for _, e := range g.Edges() {
		arrow := "-->"
		if e.Transition.Name != "" {
			// Escape double quotes in the label for Mermaid
			safeName := strings.ReplaceAll(e.Transition.Name, "\"", "'")
			arrow = fmt.Sprintf("-- \"%s\" -->", safeName)
		}
		sb.WriteString(fmt.Sprintf("    %s %s %s\n", nodeID(e.From), arrow, nodeID(e.To)))
	}

	// Apply Overlay Styles
	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef visited fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef halted fill:#ffeb3b,stroke:#fbc02d,stroke-width:4px,color:#000;\n")

		seen := make(map[domain.NodeHandle]bool)
		for _, h := range overlay.Visited {
			if _, err := g.Node(h); err != nil || seen[h] {
				continue
			}
			seen[h] = true
			sb.WriteString(fmt.Sprintf("    class %s visited;\n", nodeID(h)))
		}

		if overlay.Halted != nil {
			sb.WriteString(fmt.Sprintf("    class %s halted;\n", nodeID(*overlay.Halted)))
		}
	}

	return sb.String()
}

func nodeID(h domain.NodeHandle) string {
	return fmt.Sprintf("n%d", h)
}

func label(c domain.Component) string {
	text := domain.Describe(c)
	if c.Kind() != domain.KindRoot && c.Name() != "" {
		text = c.Name() + " <br/> " + text
	}
	return strings.ReplaceAll(text, "\"", "'")
}
