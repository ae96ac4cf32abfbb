package tui

import (
	"bytes"
	"testing"

	"github.com/aretw0/lattice/pkg/placement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintValidation(t *testing.T) {
	var buf bytes.Buffer
	PrintValidation(&buf, "home.json", placement.Result{OK: true})
	assert.Contains(t, buf.String(), "home.json")

	buf.Reset()
	PrintValidation(&buf, "bad.json", placement.Result{
		Issues: []placement.Issue{{Path: []any{0, "children", 1}, Message: "Section cannot be placed inside Grid"}},
	})
	assert.Contains(t, buf.String(), "bad.json (1 issues)")
	assert.Contains(t, buf.String(), "Section cannot be placed inside Grid")
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "0.1.0\n")
	assert.Contains(t, buf.String(), "v0.1.0")
}

func TestNewRenderer(t *testing.T) {
	render, err := NewRenderer(80)
	require.NoError(t, err)
	out, err := render("# Title\n\n- item\n")
	require.NoError(t, err)
	assert.Contains(t, out, "Title")
	assert.Contains(t, out, "item")
}
