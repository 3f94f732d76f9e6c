package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/muesli/termenv"
)

// PrintBanner writes the plangraph ASCII banner and version to w.
// Colors degrade to plain text when w is not a terminal.
func PrintBanner(w io.Writer, version string) {
	out := termenv.NewOutput(w)
	// Using a subtle gradient-like color scheme (Teal/Green)
	lines := []struct {
		text, color string
	}{
		{"        _                                        _    ", "#22d3ee"},
		{"  _ __ | | __ _ _ __   __ _ _ __ __ _ _ __ | |__  ", "#2dd4bf"},
		{" | '_ \\| |/ _` | '_ \\ / _` | '__/ _` | '_ \\| '_ \\ ", "#34d399"},
		{" | |_) | | (_| | | | | (_| | | | (_| | |_) | | | |", "#4ade80"},
		{" | .__/|_|\\__,_|_| |_|\\__, |_|  \\__,_| .__/|_| |_|", "#a3e635"},
		{" |_|                  |___/          |_|          ", "#facc15"},
	}

	fmt.Fprintln(w)
	for _, l := range lines {
		fmt.Fprintln(w, out.String(l.text).Foreground(out.Color(l.color)))
	}
	if v := strings.TrimSpace(version); v != "" {
		fmt.Fprintln(w, out.String("  v"+v).Faint())
	}
	fmt.Fprintln(w)
}
