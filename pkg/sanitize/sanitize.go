// Package sanitize cleans string values arriving from outside the process
// (HTTP and MCP commands) before they enter a document.
package sanitize

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/aretw0/lattice/pkg/domain"
)

// MaxStringSize bounds a single string prop, in bytes.
var MaxStringSize = 16 * 1024

var (
	ErrTooLarge    = errors.New("value exceeds maximum allowed size")
	ErrInvalidUTF8 = errors.New("value contains invalid UTF-8 sequences")
	ErrNilNode     = errors.New("null component")
)

// String enforces the size limit, validates UTF-8 and strips control
// characters other than newline, tab and carriage return.
func String(s string) (string, error) {
	// Reject rather than truncate: a cut string would be a silent edit.
	if len(s) > MaxStringSize {
		return "", fmt.Errorf("%w: size=%d limit=%d", ErrTooLarge, len(s), MaxStringSize)
	}
	if !utf8.ValidString(s) {
		return "", ErrInvalidUTF8
	}

	// Fast path: if no control chars, return as is.
	clean := true
	for _, r := range s {
		if unicode.IsControl(r) && !isSafeControl(r) {
			clean = false
			break
		}
	}
	if clean {
		return s, nil
	}

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if !unicode.IsControl(r) || isSafeControl(r) {
			b.WriteRune(r)
		}
	}
	return b.String(), nil
}

func isSafeControl(r rune) bool {
	return r == '\n' || r == '\t' || r == '\r'
}

// Props returns a sanitized copy of props, descending into nested maps and
// lists. Keys are checked too. A nil map stays nil.
func Props(props map[string]any) (map[string]any, error) {
	if props == nil {
		return nil, nil
	}
	out := make(map[string]any, len(props))
	for k, v := range props {
		key, err := String(k)
		if err != nil {
			return nil, fmt.Errorf("prop key: %w", err)
		}
		val, err := value(v)
		if err != nil {
			return nil, fmt.Errorf("prop %q: %w", key, err)
		}
		out[key] = val
	}
	return out, nil
}

func value(v any) (any, error) {
	switch val := v.(type) {
	case string:
		return String(val)
	case map[string]any:
		return Props(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			s, err := value(item)
			if err != nil {
				return nil, err
			}
			out[i] = s
		}
		return out, nil
	default:
		return v, nil
	}
}

// Node returns a sanitized copy of the subtree. Ids and types are held to
// the same rules as prop values.
func Node(n *domain.Node) (*domain.Node, error) {
	if n == nil {
		return nil, nil
	}
	id, err := String(n.ID)
	if err != nil {
		return nil, fmt.Errorf("id: %w", err)
	}
	typ, err := String(string(n.Type))
	if err != nil {
		return nil, fmt.Errorf("type: %w", err)
	}
	props, err := Props(n.Props)
	if err != nil {
		return nil, err
	}

	out := &domain.Node{ID: id, Type: domain.ComponentType(typ), Props: props}
	if n.Children != nil {
		out.Children = make([]*domain.Node, len(n.Children))
		for i, c := range n.Children {
			if c == nil {
				return nil, fmt.Errorf("children[%d]: %w", i, ErrNilNode)
			}
			if out.Children[i], err = Node(c); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}
