package sanitize

import (
	"strings"
	"testing"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestString_SizeLimit(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{"Under Limit", MaxStringSize - 1, false},
		{"Exact Limit", MaxStringSize, false},
		{"Over Limit", MaxStringSize + 1, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := String(strings.Repeat("a", tt.size))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrTooLarge)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestString_ControlChars(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"Clean", "Hello, world", "Hello, world"},
		{"Keeps Whitespace", "a\tb\r\nc", "a\tb\r\nc"},
		{"Strips ANSI Escape", "\x1b[31mred\x1b[0m", "[31mred[0m"},
		{"Strips NULL And BEL", "a\x00b\x07c", "abc"},
		{"Unicode", "Olá, 世界", "Olá, 世界"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := String(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestString_InvalidUTF8(t *testing.T) {
	_, err := String("bad \xff")
	assert.ErrorIs(t, err, ErrInvalidUTF8)
}

func TestProps(t *testing.T) {
	in := map[string]any{
		"text":    "Hi\x00",
		"columns": float64(3),
		"title":   map[string]any{"en": "Welcome\x07"},
		"items":   []any{"a\x1b", map[string]any{"label": "b\x00"}, nil},
	}

	out, err := Props(in)
	require.NoError(t, err)
	assert.Equal(t, "Hi", out["text"])
	assert.Equal(t, float64(3), out["columns"])
	assert.Equal(t, "Welcome", out["title"].(map[string]any)["en"])
	assert.Equal(t, []any{"a", map[string]any{"label": "b"}, nil}, out["items"])
	assert.Equal(t, "Hi\x00", in["text"], "the input is not modified")

	out, err = Props(nil)
	require.NoError(t, err)
	assert.Nil(t, out)

	_, err = Props(map[string]any{"nested": map[string]any{"x": "\xff"}})
	assert.ErrorContains(t, err, `prop "nested"`)
}

func TestNode(t *testing.T) {
	n := &domain.Node{
		ID:    "s1\x00",
		Type:  domain.TypeSection,
		Props: map[string]any{"padding": "8px"},
		Children: []*domain.Node{
			{ID: "t1", Type: "Text", Props: map[string]any{"text": "x\x07"}},
		},
	}

	out, err := Node(n)
	require.NoError(t, err)
	assert.Equal(t, "s1", out.ID)
	assert.Equal(t, "x", out.Children[0].Props["text"])
	assert.Nil(t, out.Children[0].Children)
	assert.Equal(t, "s1\x00", n.ID)

	_, err = Node(&domain.Node{ID: "\xff"})
	assert.ErrorContains(t, err, "id:")

	_, err = Node(&domain.Node{ID: "g1", Type: domain.TypeGrid, Children: []*domain.Node{{ID: "t1", Type: "Text"}, nil}})
	assert.ErrorIs(t, err, ErrNilNode)
	assert.ErrorContains(t, err, "children[1]")
}
