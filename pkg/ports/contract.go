package ports

import (
	"context"
	"testing"
	"time"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func contractDocument() domain.Document {
	return domain.Document{
		{ID: "s1", Type: domain.TypeSection, Props: map[string]any{"padding": "24px"}, Children: []*domain.Node{
			{ID: "g1", Type: domain.TypeGrid, Props: map[string]any{"columns": float64(3)}, Children: []*domain.Node{
				{ID: "t1", Type: "Text", Props: map[string]any{"text": map[string]any{"en": "Hello", "pt": "Olá"}}},
			}},
		}},
		{ID: "c1", Type: domain.TypeCanvas, Children: []*domain.Node{}},
	}
}

// RunDocumentStoreContract runs a suite of tests to verify that a DocumentStore implementation
// adheres to the defined interface contract.
func RunDocumentStoreContract(t *testing.T, store DocumentStore) {
	ctx := context.Background()
	pageID := "contract-test-page-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		doc := contractDocument()

		err := store.Save(ctx, pageID, doc)
		require.NoError(t, err, "Save should not return error")

		loaded, err := store.Load(ctx, pageID)
		require.NoError(t, err, "Load should not return error")
		require.Len(t, loaded, 2)
		assert.Equal(t, "s1", loaded[0].ID)
		assert.Equal(t, domain.TypeSection, loaded[0].Type)
		assert.Equal(t, "24px", loaded[0].Props["padding"])
		require.Len(t, loaded[0].Children, 1)
		// JSON-backed stores decode numbers as float64, which is why the fixture uses them.
		assert.Equal(t, float64(3), loaded[0].Children[0].Props["columns"])
		assert.Equal(t, "t1", loaded[0].Children[0].Children[0].ID)
		assert.Equal(t, domain.TypeCanvas, loaded[1].Type)
	})

	t.Run("Saved Copy Is Isolated", func(t *testing.T) {
		doc := contractDocument()
		require.NoError(t, store.Save(ctx, pageID, doc))

		doc[0].Props["padding"] = "0"

		loaded, err := store.Load(ctx, pageID)
		require.NoError(t, err)
		assert.Equal(t, "24px", loaded[0].Props["padding"])
	})

	t.Run("Overwrite", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, pageID, contractDocument()))
		require.NoError(t, store.Save(ctx, pageID, domain.Document{{ID: "only", Type: domain.TypeSection}}))

		loaded, err := store.Load(ctx, pageID)
		require.NoError(t, err)
		require.Len(t, loaded, 1)
		assert.Equal(t, "only", loaded[0].ID)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+pageID)
		assert.ErrorIs(t, err, domain.ErrPageNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		err := store.Save(ctx, pageID, contractDocument())
		require.NoError(t, err)

		err = store.Delete(ctx, pageID)
		require.NoError(t, err, "Delete should not return error")

		_, err = store.Load(ctx, pageID)
		assert.ErrorIs(t, err, domain.ErrPageNotFound, "Load after Delete should return ErrPageNotFound")
	})

	t.Run("List", func(t *testing.T) {
		id1 := pageID + "-1"
		id2 := pageID + "-2"
		_ = store.Save(ctx, id1, contractDocument())
		_ = store.Save(ctx, id2, contractDocument())

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		pages, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, pages, id1)
		assert.Contains(t, pages, id2)
	})
}
