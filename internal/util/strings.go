// Package util holds small string helpers shared by the command surface.
package util

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// Ellipsize flattens s to a single line and truncates it to max runes,
// appending "..." when truncated. Not ANSI-aware; for styled terminal
// output use EllipsizeANSI.
func Ellipsize(s string, max int) string {
	s = strings.Join(strings.Fields(s), " ")
	if max <= 3 {
		return "..."
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}

// EllipsizeANSI truncates s to max visual columns, appending "..." when
// truncated. Escape sequences and wide characters are measured correctly,
// so styled text keeps its styling.
func EllipsizeANSI(s string, max int) string {
	if max <= 3 {
		return "..."
	}
	if lipgloss.Width(s) <= max {
		return s
	}
	return ansi.Truncate(s, max, "...")
}
