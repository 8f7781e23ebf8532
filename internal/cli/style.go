package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// isTerminal reports whether a writer is a TTY.
var isTerminal = defaultIsTerminal

// styles renders headings and status words, plain when colour is off.
type styles struct {
	enabled bool
	heading lipgloss.Style
	ok      lipgloss.Style
	warn    lipgloss.Style
	fail    lipgloss.Style
	dim     lipgloss.Style
}

func newStyles(out io.Writer, noColor bool) styles {
	return styles{
		enabled: !noColor && os.Getenv("NO_COLOR") == "" && isTerminal(out),
		heading: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		ok:      lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		warn:    lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
		fail:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
		dim:     lipgloss.NewStyle().Faint(true),
	}
}

func (s styles) render(style lipgloss.Style, text string) string {
	if !s.enabled {
		return text
	}
	return style.Render(text)
}

func (s styles) Heading(text string) string { return s.render(s.heading, text) }
func (s styles) OK(text string) string      { return s.render(s.ok, text) }
func (s styles) Warn(text string) string    { return s.render(s.warn, text) }
func (s styles) Fail(text string) string    { return s.render(s.fail, text) }
func (s styles) Dim(text string) string     { return s.render(s.dim, text) }

// defaultIsTerminal inspects a writer for TTY support.
func defaultIsTerminal(out io.Writer) bool {
	if out == nil {
		return false
	}
	if file, ok := out.(*os.File); ok {
		return term.IsTerminal(int(file.Fd()))
	}
	if fder, ok := out.(interface{ Fd() uintptr }); ok {
		return term.IsTerminal(int(fder.Fd()))
	}
	return false
}
