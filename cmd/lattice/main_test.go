package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "lattice version ")
}

func TestValidateCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "home.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":"c1","type":"Canvas"}]`), 0644))

	_, err := run(t, "validate", path)
	require.NoError(t, err)

	out, err := run(t, "validate", "--sections-only", path)
	assert.Error(t, err)
	assert.Contains(t, out, "Canvas cannot be placed inside ROOT")
}

func TestOutlineCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "home.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":"s1","type":"Section"}]`), 0644))

	out, err := run(t, "outline", "--format", "mermaid", path)
	require.NoError(t, err)
	assert.Contains(t, out, `s1(("Section: s1"))`)
}

func TestConfigFlag(t *testing.T) {
	_, err := run(t, "validate", "--config", filepath.Join(t.TempDir(), "missing.yaml"), "x.json")
	assert.ErrorContains(t, err, "read config")
}
