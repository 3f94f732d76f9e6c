package tui

import (
	"github.com/charmbracelet/glamour"
)

// DefaultWidth is the wrap column used when the terminal width is unknown.
const DefaultWidth = 100

// RenderMarkdown styles a markdown run report for a terminal, picking a light
// or dark theme from the background. Rendering failures return the input
// unchanged so a report is always printed.
func RenderMarkdown(markdown string, width int) string {
	if width <= 0 {
		width = DefaultWidth
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return markdown
	}
	out, err := r.Render(markdown)
	if err != nil {
		return markdown
	}
	return out
}
