package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/placement"
	"github.com/aretw0/lattice/pkg/tree"
)

// GenerateOutline renders the document as a Markdown nested list with a
// summary header and the placement errors, if any.
func GenerateOutline(title string, doc domain.Document, sectionsOnly bool) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# %s\n\n", title))
	sb.WriteString(fmt.Sprintf("%d components, %d at the root.\n\n", doc.Count(), len(doc)))

	if len(doc) == 0 {
		sb.WriteString("_Empty page._\n")
		return sb.String()
	}

	tree.Walk(doc, func(n, _ *domain.Node, depth int) bool {
		sb.WriteString(strings.Repeat("  ", depth))
		sb.WriteString(fmt.Sprintf("- **%s** `%s`", n.Type, n.ID))
		if s := summarizeProps(n.Props); s != "" {
			sb.WriteString(" " + s)
		}
		sb.WriteString("\n")
		return true
	})

	res := placement.ValidateDocument(doc, sectionsOnly)
	if !res.OK {
		sb.WriteString("\n## Placement errors\n\n")
		for _, issue := range res.Issues {
			sb.WriteString(fmt.Sprintf("- `%s` %s\n", formatPath(issue.Path), issue.Message))
		}
	}
	return sb.String()
}

// summarizeProps lists scalar props in key order. Nested values are elided.
func summarizeProps(props map[string]any) string {
	if len(props) == 0 {
		return ""
	}
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		switch v := props[k].(type) {
		case string, bool, float64, int:
			parts = append(parts, fmt.Sprintf("%s=%v", k, v))
		default:
			parts = append(parts, k+"=…")
		}
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func formatPath(path []any) string {
	parts := make([]string, len(path))
	for i, p := range path {
		parts[i] = fmt.Sprint(p)
	}
	return strings.Join(parts, ".")
}
