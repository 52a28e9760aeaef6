package logging

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Palette, kept small and readable on light and dark terminals.
var (
	ColorHeader  = lipgloss.Color("39")  // Blue
	ColorVerbose = lipgloss.Color("240") // Dark gray
	ColorError   = lipgloss.Color("196") // Red
)

type styles struct {
	header  lipgloss.Style
	verbose lipgloss.Style
	err     lipgloss.Style
}

func newStyles(w io.Writer, color bool) styles {
	r := lipgloss.NewRenderer(w)
	if !color {
		return styles{header: r.NewStyle(), verbose: r.NewStyle(), err: r.NewStyle()}
	}
	return styles{
		header:  r.NewStyle().Bold(true).Foreground(ColorHeader),
		verbose: r.NewStyle().Foreground(ColorVerbose),
		err:     r.NewStyle().Bold(true).Foreground(ColorError),
	}
}

// ColorEnabled reports whether w should receive coloured output.
//
// Returns false if:
//   - NO_COLOR is set (https://no-color.org)
//   - CI is set
//   - w is not a terminal
func ColorEnabled(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" || os.Getenv("CI") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd()))
}
