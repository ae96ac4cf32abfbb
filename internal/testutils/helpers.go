package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	"github.com/stretchr/testify/require"
)

// SetupTemplateRepo initializes an unversioned Loam repository in a temporary
// directory and writes files (name -> content) into it.
// It returns the absolute path to the temp dir and the initialized repository.
func SetupTemplateRepo(t *testing.T, files map[string]string) (string, core.Repository) {
	t.Helper()

	absPath, err := filepath.Abs(t.TempDir())
	require.NoError(t, err, "Failed to get absolute path for temp dir")

	repo, err := loam.Init(absPath, loam.WithVersioning(false))
	require.NoError(t, err, "Failed to init loam repo")

	for name, content := range files {
		path := filepath.Join(absPath, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}

	return absPath, repo
}
