package statuscolor

import (
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/selimozcann/LinkGuard/internal/model"
)

func TestSprintPlain(t *testing.T) {
	prev := color.NoColor
	color.NoColor = true
	defer func() { color.NoColor = prev }()

	tests := []struct {
		status int
		want   string
	}{
		{0, "-"},
		{302, "302"},
		{200, "200"},
		{404, "404"},
	}
	for _, tt := range tests {
		if got := Sprint(tt.status); got != tt.want {
			t.Fatalf("Sprint(%d) = %q, want %q", tt.status, got, tt.want)
		}
	}
	if got := Verdict(model.VerdictBlock); got != "BLOCK" {
		t.Fatalf("Verdict(block) = %q", got)
	}
	if got := Severity("x", model.SeverityDanger); got != "x" {
		t.Fatalf("Severity = %q", got)
	}
}

func TestColorsWhenEnabled(t *testing.T) {
	prev := color.NoColor
	color.NoColor = false
	defer func() { color.NoColor = prev }()

	if got := WrapByStatus("moved", 302); !strings.Contains(got, "\x1b[32m") {
		t.Fatalf("expected green escape for 302, got %q", got)
	}
	if got := Verdict(model.VerdictAllow); !strings.Contains(got, "ALLOW") || !strings.HasPrefix(got, "\x1b[") {
		t.Fatalf("expected coloured ALLOW, got %q", got)
	}
}
