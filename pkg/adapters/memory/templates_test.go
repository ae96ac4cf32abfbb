package memory_test

import (
	"testing"

	"github.com/aretw0/lattice/pkg/adapters/memory"
	"github.com/aretw0/lattice/pkg/domain"
	contract "github.com/aretw0/lattice/pkg/ports/tests"
)

func TestTemplates_Contract(t *testing.T) {
	lib, err := memory.NewTemplates(map[string]string{
		"hero":  `{"id":"hero","type":"Section","children":[{"id":"h1","type":"Heading"}]}`,
		"media": `{"id":"m","type":"Grid","children":[]}`,
	})
	if err != nil {
		t.Fatal(err)
	}

	contract.TemplateLibraryContractTest(t, lib, map[string]string{
		"hero":  "hero",
		"media": "m",
	})
}

func TestTemplates_FromNodes(t *testing.T) {
	lib, err := memory.NewFromNodes(&domain.Node{ID: "cta", Type: domain.TypeFlex})
	if err != nil {
		t.Fatal(err)
	}
	contract.TemplateLibraryContractTest(t, lib, map[string]string{"cta": "cta"})

	if _, err := memory.NewFromNodes(&domain.Node{Type: "Text"}); err == nil {
		t.Error("expected error for template without id")
	}
}

func TestTemplates_InvalidJSON(t *testing.T) {
	if _, err := memory.NewTemplates(map[string]string{"bad": "{"}); err == nil {
		t.Error("expected error for invalid JSON")
	}
}
