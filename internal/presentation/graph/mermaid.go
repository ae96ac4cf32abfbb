// Package graph renders a document tree for humans: a Mermaid containment
// diagram and a Markdown outline.
package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/placement"
	"github.com/aretw0/lattice/pkg/tree"
)

// Overlay contains editor state to highlight on the diagram.
type Overlay struct {
	Selected []string
	// SectionsOnly is used when marking misplaced nodes.
	SectionsOnly bool
}

// GenerateMermaid produces a Mermaid flowchart of the containment tree.
// Shapes follow the component kind:
//   - Section: ((Circle))
//   - Canvas: [/Parallelogram/]
//   - Other containers: [[Subroutine]]
//   - Content: [Rectangle]
//
// Nodes whose placement is illegal under their parent are always styled
// as invalid; the overlay adds the selection.
func GenerateMermaid(doc domain.Document, overlay *Overlay) string {
	var sb strings.Builder
	sb.WriteString("graph TD\n")
	sb.WriteString("    ROOT((\"ROOT\"))\n")

	sectionsOnly := overlay != nil && overlay.SectionsOnly
	var invalid []string

	tree.Walk(doc, func(n, parent *domain.Node, _ int) bool {
		safeID := sanitizeMermaidID(n.ID)

		opener, closer := "[", "]"
		switch n.Type.Kind() {
		case domain.KindSection:
			opener, closer = "((", "))"
		case domain.KindLayoutRoot:
			opener, closer = "[/", "/]"
		case domain.KindContainer:
			opener, closer = "[[", "]]"
		}

		label := strings.ReplaceAll(fmt.Sprintf("%s: %s", n.Type, n.ID), "\"", "'")
		sb.WriteString(fmt.Sprintf("    %s%s\"%s\"%s\n", safeID, opener, label, closer))

		from, parentType := "ROOT", domain.TypeRoot
		if parent != nil {
			from, parentType = sanitizeMermaidID(parent.ID), parent.Type
		}
		sb.WriteString(fmt.Sprintf("    %s --> %s\n", from, safeID))

		if !placement.IsAllowedChild(parentType, n.Type, sectionsOnly) {
			invalid = append(invalid, safeID)
		}
		return true
	})

	if len(invalid) == 0 && (overlay == nil || len(overlay.Selected) == 0) {
		return sb.String()
	}

	sb.WriteString("\n    %% Overlay Styles\n")
	// Black text keeps contrast on light fills in both themes.
	sb.WriteString("    classDef selected fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
	sb.WriteString("    classDef invalid fill:#ffebee,stroke:#c62828,stroke-width:4px,color:#000;\n")

	if overlay != nil {
		seen := make(map[string]bool)
		for _, id := range overlay.Selected {
			safeID := sanitizeMermaidID(id)
			if safeID != "" && !seen[safeID] && tree.Find(doc, id) != nil {
				seen[safeID] = true
				sb.WriteString(fmt.Sprintf("    class %s selected;\n", safeID))
			}
		}
	}
	for _, id := range invalid {
		sb.WriteString(fmt.Sprintf("    class %s invalid;\n", id))
	}

	return sb.String()
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
