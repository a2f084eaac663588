// Package style holds hostkit's terminal palette. Output is styled with
// lipgloss only when it goes to a terminal.
package style

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

var (
	// Colors
	ColorGreen  = lipgloss.Color("#22c55e")
	ColorRed    = lipgloss.Color("#ef4444")
	ColorYellow = lipgloss.Color("#eab308")
	ColorBlue   = lipgloss.Color("#3b82f6")
	ColorDim    = lipgloss.Color("#6b7280")
)

// Status marks, readable without color.
const (
	CheckMark = "[OK]"
	CrossMark = "[!!]"
	WarnMark  = "[??]"
)

// Palette renders text in hostkit's colors, or leaves it alone when
// disabled.
type Palette struct {
	enabled bool
}

// For returns a Palette that styles only if w is a terminal.
func For(w io.Writer) Palette {
	return Palette{enabled: IsTerminal(w)}
}

// Plain returns a Palette that never styles.
func Plain() Palette {
	return Palette{}
}

// Enabled reports whether the palette styles its input.
func (p Palette) Enabled() bool {
	return p.enabled
}

// Color renders text in color.
func (p Palette) Color(text string, color lipgloss.Color) string {
	if !p.enabled {
		return text
	}
	return lipgloss.NewStyle().Foreground(color).Render(text)
}

// Title renders text bold.
func (p Palette) Title(text string) string {
	if !p.enabled {
		return text
	}
	return lipgloss.NewStyle().Bold(true).Render(text)
}

func (p Palette) OK(text string) string    { return p.Color(text, ColorGreen) }
func (p Palette) Error(text string) string { return p.Color(text, ColorRed) }
func (p Palette) Warn(text string) string  { return p.Color(text, ColorYellow) }
func (p Palette) Dim(text string) string   { return p.Color(text, ColorDim) }

// IsTerminal reports whether w is a terminal file.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
