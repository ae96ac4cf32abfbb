package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/lattice/pkg/adapters/memory"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunDocumentStoreContract(t, store)
}

func TestMemoryStore_Publish(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	_, err := store.Published(ctx, "home")
	assert.ErrorIs(t, err, domain.ErrPageNotFound)

	doc := domain.Document{{ID: "s1", Type: domain.TypeSection}}
	require.NoError(t, store.Publish(ctx, "home", doc))
	doc[0].ID = "changed"

	published, err := store.Published(ctx, "home")
	require.NoError(t, err)
	assert.Equal(t, "s1", published[0].ID)

	_, err = store.Load(ctx, "home")
	assert.ErrorIs(t, err, domain.ErrPageNotFound, "publishing does not create a working copy")
}
