package middleware_test

import (
	"context"
	"testing"

	"github.com/aretw0/lattice/pkg/adapters/memory"
	"github.com/aretw0/lattice/pkg/autosave"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/persistence/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// saveOnly hides the Publisher side of the memory store.
type saveOnly struct{ *memory.Store }

func (saveOnly) Publish() {}

func formDoc() domain.Document {
	return domain.Document{
		{ID: "s1", Type: domain.TypeSection, Props: map[string]any{"title": "Contact"}, Children: []*domain.Node{
			{ID: "f1", Type: "Form", Props: map[string]any{
				"apiToken": "tok-123",
				"endpoint": map[string]any{"url": "https://example.com", "apiSecret": "s3cr3t"},
				"fields": []any{
					map[string]any{"name": "email", "password": "hunter2"},
				},
			}},
		}},
	}
}

func TestPIIMiddleware_Masking(t *testing.T) {
	underlying := memory.NewStore()
	mw, err := middleware.NewPIIMiddleware([]string{"(?i)token", "(?i)secret", "password"})
	require.NoError(t, err)
	secure := mw(underlying)
	ctx := context.Background()

	doc := formDoc()
	require.NoError(t, secure.Save(ctx, "home", doc))

	assert.Equal(t, "tok-123", doc[0].Children[0].Props["apiToken"], "the in-memory document is not modified")

	stored, err := underlying.Load(ctx, "home")
	require.NoError(t, err)
	assert.Equal(t, "Contact", stored[0].Props["title"])

	props := stored[0].Children[0].Props
	assert.Equal(t, middleware.Mask, props["apiToken"])
	endpoint := props["endpoint"].(map[string]any)
	assert.Equal(t, "https://example.com", endpoint["url"])
	assert.Equal(t, middleware.Mask, endpoint["apiSecret"])
	field := props["fields"].([]any)[0].(map[string]any)
	assert.Equal(t, "email", field["name"])
	assert.Equal(t, middleware.Mask, field["password"])
}

func TestPIIMiddleware_Publish(t *testing.T) {
	underlying := memory.NewStore()
	mw, err := middleware.NewPIIMiddleware([]string{"(?i)token"})
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, mw(underlying).Publish(ctx, "home", formDoc()))
	published, err := underlying.Published(ctx, "home")
	require.NoError(t, err)
	assert.Equal(t, middleware.Mask, published[0].Children[0].Props["apiToken"])
}

func TestPIIMiddleware_InvalidPattern(t *testing.T) {
	_, err := middleware.NewPIIMiddleware([]string{"("})
	assert.Error(t, err)
}

func TestChain(t *testing.T) {
	underlying := memory.NewStore()
	pii, err := middleware.NewPIIMiddleware([]string{"(?i)token"})
	require.NoError(t, err)
	enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: generateKey(t)})
	require.NoError(t, err)

	// Redact first, then encrypt what is left.
	store := middleware.Chain(underlying, pii, enc)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "home", formDoc()))

	raw, err := underlying.Load(ctx, "home")
	require.NoError(t, err)
	assert.Equal(t, middleware.EnvelopeID, raw[0].ID)

	loaded, err := store.Load(ctx, "home")
	require.NoError(t, err)
	assert.Equal(t, middleware.Mask, loaded[0].Children[0].Props["apiToken"])
}

func TestPublish_WithoutPublisher(t *testing.T) {
	mw, err := middleware.NewPIIMiddleware(nil)
	require.NoError(t, err)

	err = mw(saveOnly{memory.NewStore()}).Publish(context.Background(), "home", formDoc())
	assert.ErrorIs(t, err, autosave.ErrNoPublisher)
}
