package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/pkg/adapters/memory"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ids"
	"github.com/aretw0/lattice/pkg/session"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*Server, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	mgr := session.NewManager(store, session.WithEditorOptions(
		lattice.WithIDGenerator(ids.NewSequence("n")),
	))
	t.Cleanup(func() { _ = mgr.CloseAll(context.Background()) })
	return NewServer(mgr), store
}

func TestServer_EditFlow(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()
	req := mcp.CallToolRequest{}

	res, err := s.handleExecute(ctx, req, map[string]interface{}{
		"page_id": "home",
		"command": `{"op":"add","type":"Section","at":{"index":0}}`,
	})
	require.NoError(t, err)
	assert.Equal(t, lattice.CommandResult{Changed: true, ID: "n1", Revision: 1, Message: "Section added"}, res)

	page, err := s.handleGetPage(ctx, req, map[string]interface{}{"page_id": "home"})
	require.NoError(t, err)
	require.Len(t, page.Document, 1)
	assert.True(t, page.CanUndo)

	undo := s.travel(lattice.CmdUndo)
	res, err = undo(ctx, req, map[string]interface{}{"page_id": "home"})
	require.NoError(t, err)
	assert.True(t, res.Changed)

	page, err = s.handleGetPage(ctx, req, map[string]interface{}{"page_id": "home"})
	require.NoError(t, err)
	assert.Empty(t, page.Document)
	assert.True(t, page.CanRedo)
}

func TestServer_ExecuteErrors(t *testing.T) {
	s, _ := newTestServer(t)
	ctx := context.Background()

	_, err := s.handleExecute(ctx, mcp.CallToolRequest{}, map[string]interface{}{"command": `{"op":"undo"}`})
	assert.EqualError(t, err, "page_id is required")

	_, err = s.handleExecute(ctx, mcp.CallToolRequest{}, map[string]interface{}{"page_id": "home", "command": "not json"})
	assert.ErrorIs(t, err, domain.ErrInvalidCommand)

	_, err = s.handleExecute(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"page_id": "home",
		"command": `{"op":"add","type":"Grid","at":{"index":0}}`,
	})
	assert.ErrorIs(t, err, domain.ErrPlacementRejected)
}

func TestServer_Publish(t *testing.T) {
	s, store := newTestServer(t)
	ctx := context.Background()

	_, err := s.handleExecute(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"page_id": "home",
		"command": `{"op":"add","type":"Section","at":{"index":0}}`,
	})
	require.NoError(t, err)

	page, err := s.handlePublish(ctx, mcp.CallToolRequest{}, map[string]interface{}{"page_id": "home"})
	require.NoError(t, err)
	assert.False(t, page.CanUndo, "publishing clears the history")

	published, err := store.Published(ctx, "home")
	require.NoError(t, err)
	assert.Equal(t, "n1", published[0].ID)
}

func TestServer_Validate(t *testing.T) {
	s, _ := newTestServer(t)

	result, err := s.handleValidate(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{
		"document":      `[{"id":"c","type":"Canvas"}]`,
		"sections_only": true,
	})
	require.NoError(t, err)
	assert.False(t, result.OK)

	result, err = s.handleValidate(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{
		"document": `[{"id":"c","type":"Canvas"}]`,
	})
	require.NoError(t, err)
	assert.True(t, result.OK)

	_, err = s.handleValidate(context.Background(), mcp.CallToolRequest{}, map[string]interface{}{"document": "{"})
	assert.Error(t, err)
}

func TestServer_ReadPageResource(t *testing.T) {
	s, store := newTestServer(t)
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "about", domain.Document{{ID: "s1", Type: domain.TypeSection}}))

	req := mcp.ReadResourceRequest{}
	req.Params.URI = PageURIPrefix + "about"

	contents, err := s.readPage(ctx, req)
	require.NoError(t, err)
	require.Len(t, contents, 1)

	text, ok := contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Equal(t, "application/json", text.MIMEType)

	var page PageView
	require.NoError(t, json.Unmarshal([]byte(text.Text), &page))
	assert.Equal(t, "about", page.PageID)
	assert.Equal(t, "s1", page.Document[0].ID)

	req.Params.URI = "other://about"
	_, err = s.readPage(ctx, req)
	assert.Error(t, err)
}
