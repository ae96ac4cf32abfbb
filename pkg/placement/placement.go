// Package placement decides which component types may be nested under which.
//
// The rules are local: a child is only ever checked against its immediate
// parent. Live drag feedback (CanDropChild) and committed validation
// (Validate) share a single predicate so they can never disagree.
package placement

import (
	"fmt"
	"sort"

	"github.com/aretw0/lattice/pkg/domain"
)

// Set is a set of allowed child types. It may hold domain.TypeContent,
// meaning "any non-container type".
type Set map[domain.ComponentType]struct{}

func newSet(types ...domain.ComponentType) Set {
	s := make(Set, len(types))
	for _, t := range types {
		s[t] = struct{}{}
	}
	return s
}

// Has reports whether t is literally in the set.
func (s Set) Has(t domain.ComponentType) bool {
	_, ok := s[t]
	return ok
}

// Types returns the members sorted by name.
func (s Set) Types() []domain.ComponentType {
	out := make([]domain.ComponentType, 0, len(s))
	for t := range s {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// AllowedChildren returns the child types legal under parentType.
//
//   - ROOT: Section, plus the layout root types unless sectionsOnly.
//   - Section and layout roots: every container except Section, plus content.
//   - Any other container: content only.
//   - Leaves: nothing.
func AllowedChildren(parentType domain.ComponentType, sectionsOnly bool) Set {
	switch parentType.Kind() {
	case domain.KindRoot:
		s := newSet(domain.TypeSection)
		if !sectionsOnly {
			for _, t := range domain.LayoutRootTypes {
				s[t] = struct{}{}
			}
		}
		return s
	case domain.KindSection, domain.KindLayoutRoot:
		s := newSet(domain.TypeContent)
		for _, t := range domain.ContainerTypes {
			if t != domain.TypeSection {
				s[t] = struct{}{}
			}
		}
		return s
	case domain.KindContainer:
		return newSet(domain.TypeContent)
	default:
		return Set{}
	}
}

// IsAllowedChild reports whether childType may be placed under parentType.
func IsAllowedChild(parentType, childType domain.ComponentType, sectionsOnly bool) bool {
	allowed := AllowedChildren(parentType, sectionsOnly)
	if allowed.Has(childType) {
		return true
	}
	return !childType.IsContainer() && allowed.Has(domain.TypeContent)
}

// CanDropChild is the single-pair check used to highlight drop targets while
// a drag is in progress.
func CanDropChild(parentType, childType domain.ComponentType, sectionsOnly bool) bool {
	return IsAllowedChild(parentType, childType, sectionsOnly)
}

// Options configure Validate.
type Options struct {
	// Parent is the type of the drop target. Empty means ROOT.
	Parent       domain.ComponentType
	SectionsOnly bool
}

// Issue pinpoints a single violation. Path mixes list indices and the
// literal "children", e.g. [0, "children", 2].
type Issue struct {
	Path    []any  `json:"path"`
	Message string `json:"message"`
}

// Result is the outcome of Validate. Errors is deduplicated; Issues keeps
// one entry per offending node.
type Result struct {
	OK     bool     `json:"ok"`
	Errors []string `json:"errors,omitempty"`
	Issues []Issue  `json:"issues,omitempty"`
}

// Validate checks candidate roots against opts.Parent and then every
// parent/child pair inside their subtrees against the immediate parent.
func Validate(nodes []*domain.Node, opts Options) Result {
	parent := opts.Parent
	if parent == "" {
		parent = domain.TypeRoot
	}

	res := Result{OK: true}
	seen := make(map[string]bool)
	report := func(path []any, msg string) {
		res.OK = false
		res.Issues = append(res.Issues, Issue{Path: path, Message: msg})
		if !seen[msg] {
			seen[msg] = true
			res.Errors = append(res.Errors, msg)
		}
	}

	// check reports node against its parent and descends into it. A nil
	// node is an issue of its own; there is nothing below it to walk.
	var check func(node *domain.Node, parentType domain.ComponentType, path []any)
	check = func(node *domain.Node, parentType domain.ComponentType, path []any) {
		if node == nil {
			report(path, fmt.Sprintf("missing component inside %s", parentType))
			return
		}
		if !IsAllowedChild(parentType, node.Type, opts.SectionsOnly) {
			report(path, fmt.Sprintf("%s cannot be placed inside %s", node.Type, parentType))
		}
		for j, child := range node.Children {
			childPath := append(append(make([]any, 0, len(path)+2), path...), "children", j)
			check(child, node.Type, childPath)
		}
	}

	for i, n := range nodes {
		check(n, parent, []any{i})
	}
	return res
}

// ValidateNode validates a single candidate subtree.
func ValidateNode(node *domain.Node, opts Options) Result {
	return Validate([]*domain.Node{node}, opts)
}

// ValidateDocument validates a whole document against the root rules.
func ValidateDocument(doc domain.Document, sectionsOnly bool) Result {
	return Validate(doc, Options{Parent: domain.TypeRoot, SectionsOnly: sectionsOnly})
}

// Err converts a failed result into an error. It returns nil when OK.
func (r Result) Err() error {
	if r.OK {
		return nil
	}
	return &Error{Result: r}
}

// Error is a rejected placement. It matches domain.ErrPlacementRejected.
type Error struct {
	Result Result
}

func (e *Error) Error() string {
	if len(e.Result.Errors) == 1 {
		return fmt.Sprintf("%s: %s", domain.ErrPlacementRejected, e.Result.Errors[0])
	}
	return fmt.Sprintf("%s: %s (and %d more)", domain.ErrPlacementRejected, first(e.Result.Errors), len(e.Result.Errors)-1)
}

func (e *Error) Unwrap() error {
	return domain.ErrPlacementRejected
}

func first(s []string) string {
	if len(s) == 0 {
		return ""
	}
	return s[0]
}
