package cli

import (
	"fmt"
	"io"

	"github.com/aretw0/lattice/internal/presentation/graph"
	"github.com/aretw0/lattice/internal/presentation/tui"
)

// Outline formats.
const (
	FormatMarkdown = "markdown"
	FormatMermaid  = "mermaid"
)

// OutlineOptions configure RunOutline.
type OutlineOptions struct {
	Format       string
	Render       bool // render markdown for the terminal
	SectionsOnly bool
	Selected     []string // highlighted in mermaid output
}

// RunOutline prints the structure of the document at path.
func RunOutline(w io.Writer, path string, opts OutlineOptions) error {
	doc, err := LoadDocument(path)
	if err != nil {
		return err
	}

	var out string
	switch opts.Format {
	case "", FormatMarkdown:
		out = graph.GenerateOutline(PageName(path), doc, opts.SectionsOnly)
	case FormatMermaid:
		out = graph.GenerateMermaid(doc, &graph.Overlay{Selected: opts.Selected, SectionsOnly: opts.SectionsOnly})
		if opts.Render {
			out = "```mermaid\n" + out + "```\n"
		}
	default:
		return fmt.Errorf("unknown format %q (use %s or %s)", opts.Format, FormatMarkdown, FormatMermaid)
	}

	if opts.Render {
		render, err := tui.NewRenderer(0)
		if err != nil {
			return fmt.Errorf("failed to create renderer: %w", err)
		}
		if out, err = render(out); err != nil {
			return fmt.Errorf("failed to render outline: %w", err)
		}
	}

	_, err = io.WriteString(w, out)
	return err
}
