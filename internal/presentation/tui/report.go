package tui

import (
	"fmt"
	"io"

	"github.com/aretw0/lattice/pkg/placement"
	"github.com/muesli/termenv"
)

// PrintValidation writes a coloured placement report for one document.
func PrintValidation(w io.Writer, name string, res placement.Result) {
	p := termenv.ColorProfile()
	if res.OK {
		fmt.Fprintf(w, "%s %s\n", termenv.String("✔").Foreground(p.Color("#22c55e")), name)
		return
	}

	fmt.Fprintf(w, "%s %s (%d issues)\n", termenv.String("✘").Foreground(p.Color("#ef4444")).Bold(), name, len(res.Issues))
	for _, issue := range res.Issues {
		fmt.Fprintf(w, "  %s %s\n", termenv.String(fmt.Sprint(issue.Path)).Faint(), issue.Message)
	}
}

// PrintSystemMessage writes a dimmed status line.
func PrintSystemMessage(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, termenv.String("› "+fmt.Sprintf(format, args...)).Faint())
}
