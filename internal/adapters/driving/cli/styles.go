package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Palette used for terminal output.
var (
	colorPrimary   = lipgloss.Color("#7C3AED")
	colorSecondary = lipgloss.Color("#06B6D4")
	colorMuted     = lipgloss.Color("#6C7086")
	colorSuccess   = lipgloss.Color("#A6E3A1")
	colorWarning   = lipgloss.Color("#F9E2AF")
	colorError     = lipgloss.Color("#F38BA8")
)

// styles renders command output. Styling is applied only when writing to a
// terminal, so piped output and tests see plain text.
type styles struct {
	Title   lipgloss.Style
	Heading lipgloss.Style
	Muted   lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Answer  lipgloss.Style
}

func newStyles(out io.Writer) *styles {
	if !isTerminal(out) {
		plain := lipgloss.NewStyle()
		return &styles{
			Title:   plain,
			Heading: plain,
			Muted:   plain,
			Success: plain,
			Warning: plain,
			Error:   plain,
			Answer:  plain,
		}
	}

	return &styles{
		Title:   lipgloss.NewStyle().Bold(true).Foreground(colorPrimary),
		Heading: lipgloss.NewStyle().Bold(true).Foreground(colorSecondary),
		Muted:   lipgloss.NewStyle().Foreground(colorMuted),
		Success: lipgloss.NewStyle().Foreground(colorSuccess),
		Warning: lipgloss.NewStyle().Foreground(colorWarning),
		Error:   lipgloss.NewStyle().Foreground(colorError),
		Answer: lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Padding(0, 1),
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
