package tests

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
)

// TemplateLibraryContractTest is a reusable test suite that verifies if an adapter complies with ports.TemplateLibrary.
// expected maps template names to the id of their root node.
func TemplateLibraryContractTest(t *testing.T, lib ports.TemplateLibrary, expected map[string]string) {
	t.Helper()
	ctx := context.Background()

	t.Run("Template_Success", func(t *testing.T) {
		for name, rootID := range expected {
			node, err := lib.Template(ctx, name)
			if err != nil {
				t.Fatalf("unexpected error getting template %s: %v", name, err)
			}
			if node.ID != rootID {
				t.Errorf("root mismatch for %s. got %q, want %q", name, node.ID, rootID)
			}
		}
	})

	t.Run("Template_IsolatedCopy", func(t *testing.T) {
		for name := range expected {
			first, err := lib.Template(ctx, name)
			if err != nil {
				t.Fatal(err)
			}
			first.ID = "mutated"
			second, err := lib.Template(ctx, name)
			if err != nil {
				t.Fatal(err)
			}
			if second.ID == "mutated" {
				t.Errorf("template %s leaked a shared node", name)
			}
		}
	})

	t.Run("Template_NotFound", func(t *testing.T) {
		_, err := lib.Template(ctx, "non-existent-template")
		if !errors.Is(err, domain.ErrTemplateNotFound) {
			t.Errorf("expected ErrTemplateNotFound, got %v", err)
		}
	})

	t.Run("Templates", func(t *testing.T) {
		names, err := lib.Templates(ctx)
		if err != nil {
			t.Fatalf("unexpected error listing templates: %v", err)
		}
		if len(names) != len(expected) {
			t.Errorf("expected %d templates, got %d", len(expected), len(names))
		}
		if !slices.IsSorted(names) {
			t.Errorf("expected sorted names, got %v", names)
		}
		for name := range expected {
			if !slices.Contains(names, name) {
				t.Errorf("template %s missing from list", name)
			}
		}
	})
}
