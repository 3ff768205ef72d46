package util

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestEllipsize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		max  int
		want string
	}{
		{"short string unchanged", "hello", 10, "hello"},
		{"exact length unchanged", "hello", 5, "hello"},
		{"long string truncated", "hello world", 8, "hello..."},
		{"tiny budget collapses to ellipsis", "hello", 3, "..."},
		{"newlines flattened", "first line\nsecond line", 40, "first line second line"},
		{"runs of whitespace collapsed", "a   b\t\tc", 10, "a b c"},
		{"wide runes counted as runes", "日本語テスト", 5, "日本..."},
		{"empty string unchanged", "", 10, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Ellipsize(tt.in, tt.max); got != tt.want {
				t.Errorf("Ellipsize(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
			}
		})
	}
}

func TestEllipsizeANSI(t *testing.T) {
	styled := lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Render("hello world")

	if got := EllipsizeANSI("hello", 10); got != "hello" {
		t.Errorf("EllipsizeANSI() = %q, want unchanged string", got)
	}
	if got := EllipsizeANSI("hello", 2); got != "..." {
		t.Errorf("EllipsizeANSI() with tiny budget = %q, want ellipsis", got)
	}

	got := EllipsizeANSI(styled, 8)
	if w := lipgloss.Width(got); w > 8 {
		t.Errorf("EllipsizeANSI() width = %d, want <= 8", w)
	}

	if got := EllipsizeANSI(styled, 40); got != styled {
		t.Error("EllipsizeANSI() should leave short styled text untouched")
	}
}
