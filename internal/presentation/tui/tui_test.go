package tui

import (
	"bytes"
	"strings"
	"testing"
)

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "1.2.3\n")

	out := buf.String()
	if !strings.Contains(out, "v1.2.3") {
		t.Errorf("banner should carry the version, got:\n%s", out)
	}
	// A bytes.Buffer is not a TTY, so no escape sequences are emitted.
	if strings.Contains(out, "\x1b[") {
		t.Error("unexpected ANSI sequences for a non-terminal writer")
	}
}

func TestRenderMarkdown(t *testing.T) {
	md := "# plan\n\n| Seq | Node |\n|---|---|\n| 0 | root |\n"
	out := RenderMarkdown(md, 0)
	if !strings.Contains(out, "plan") || !strings.Contains(out, "root") {
		t.Errorf("rendered output lost content: %q", out)
	}
}
