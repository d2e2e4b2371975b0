package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	faintStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	warningStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("214")).
			Foreground(lipgloss.Color("214")).
			Padding(0, 1)
)

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// printWarning writes a boxed warning. Plain text is used when w is not a
// terminal.
func printWarning(w io.Writer, title string, lines ...string) {
	if !isTerminal(w) {
		fmt.Fprintf(w, "warning: %s\n", title)
		for _, l := range lines {
			fmt.Fprintf(w, "  %s\n", l)
		}
		return
	}
	body := append([]string{lipgloss.NewStyle().Bold(true).Render("⚠ " + title)}, lines...)
	fmt.Fprintln(w, warningStyle.Render(strings.Join(body, "\n")))
}

// printCode writes code highlighted for the terminal, or as is when w is
// not one or highlighting fails.
func printCode(w io.Writer, code, language string) {
	if isTerminal(w) {
		var buf strings.Builder
		if err := quick.Highlight(&buf, code, language, "terminal256", "monokai"); err == nil {
			fmt.Fprintln(w, buf.String())
			return
		}
	}
	fmt.Fprintln(w, code)
}

func printTitle(w io.Writer, title string) {
	if isTerminal(w) {
		fmt.Fprintln(w, titleStyle.Render(title))
		return
	}
	fmt.Fprintln(w, title)
}
