package loam

import (
	"context"
	"testing"

	"github.com/aretw0/lattice/internal/testutils"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports/tests"
	"github.com/aretw0/loam"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const heroTemplate = `---
label: Hero
category: sections
root:
  id: hero
  type: Section
  props:
    padding: 48px
  children:
    - id: hero-title
      type: Heading
      props:
        text:
          en: Welcome
          pt: Bem-vindo
        level: 1
---
A full-width section with a heading.`

const cardsTemplate = `{
  "id": "cards.json",
  "label": "Cards",
  "description": "Three column grid",
  "root": {
    "id": "cards",
    "type": "Grid",
    "props": {"columns": 3}
  }
}`

func newLibrary(t *testing.T, files map[string]string) *Library {
	t.Helper()
	_, repo := testutils.SetupTemplateRepo(t, files)
	return New(loam.NewTypedRepository[TemplateMetadata](repo))
}

func TestLibrary_Contract(t *testing.T) {
	lib := newLibrary(t, map[string]string{
		"hero.md":    heroTemplate,
		"cards.json": cardsTemplate,
	})

	tests.TemplateLibraryContractTest(t, lib, map[string]string{
		"hero":  "hero",
		"cards": "cards",
	})
}

func TestLibrary_DecodesSubtree(t *testing.T) {
	lib := newLibrary(t, map[string]string{"hero.md": heroTemplate})

	root, err := lib.Template(context.Background(), "hero")
	require.NoError(t, err)

	assert.Equal(t, domain.TypeSection, root.Type)
	assert.Equal(t, "48px", root.Props["padding"])
	require.Len(t, root.Children, 1)

	title := root.Children[0]
	assert.Equal(t, domain.ComponentType("Heading"), title.Type)
	assert.Equal(t, map[string]any{"en": "Welcome", "pt": "Bem-vindo"}, title.Props["text"])
	assert.NotNil(t, title.Props)
}

func TestLibrary_ContainerGetsChildren(t *testing.T) {
	lib := newLibrary(t, map[string]string{"cards.json": cardsTemplate})

	root, err := lib.Template(context.Background(), "cards")
	require.NoError(t, err)
	assert.NotNil(t, root.Children, "containers always carry a children list")
	assert.Empty(t, root.Children)
}

func TestLibrary_Entries(t *testing.T) {
	lib := newLibrary(t, map[string]string{
		"hero.md":    heroTemplate,
		"cards.json": cardsTemplate,
	})

	entries, err := lib.Entries(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "cards", entries[0].Name)
	assert.Equal(t, "Three column grid", entries[0].Description)

	assert.Equal(t, "hero", entries[1].Name)
	assert.Equal(t, "Hero", entries[1].Label)
	assert.Equal(t, "sections", entries[1].Category)
	assert.Equal(t, "A full-width section with a heading.", entries[1].Description, "body is the fallback description")
}

func TestLibrary_DetectsCollisions(t *testing.T) {
	lib := newLibrary(t, map[string]string{
		"cards.md": `---
root:
  id: other
  type: Grid
---`,
		"cards.json": cardsTemplate,
	})

	_, err := lib.Templates(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "collision detected")
	assert.Contains(t, err.Error(), "cards")
}

func TestLibrary_MissingRoot(t *testing.T) {
	lib := newLibrary(t, map[string]string{
		"broken.md": `---
label: Broken
---
No root here`,
	})

	_, err := lib.Template(context.Background(), "broken")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing root")
}
