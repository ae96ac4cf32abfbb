package lattice_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/placement"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEditor_Execute(t *testing.T) {
	ctx := context.Background()
	ed := newEditor(t)

	res, err := ed.Execute(ctx, lattice.Command{
		Op:   lattice.CmdAdd,
		Type: domain.TypeGrid,
		At:   domain.Location{ParentID: "s1"},
	})
	require.NoError(t, err)
	assert.Equal(t, lattice.CommandResult{Changed: true, ID: "n1", Revision: 1, Message: "Grid added"}, res)

	res, err = ed.Execute(ctx, lattice.Command{Op: lattice.CmdUpdate, ID: "n1", Patch: domain.Patch{"columns": "4"}})
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, float64(4), ed.Document()[0].Children[0].Props["columns"])

	res, err = ed.Execute(ctx, lattice.Command{Op: lattice.CmdRemove, ID: "missing"})
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Equal(t, uint64(2), res.Revision)

	res, err = ed.Execute(ctx, lattice.Command{Op: lattice.CmdUndo})
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, uint64(3), res.Revision)

	res, err = ed.Execute(ctx, lattice.Command{Op: lattice.CmdRedo})
	require.NoError(t, err)
	assert.True(t, res.Changed)

	res, err = ed.Execute(ctx, lattice.Command{Op: lattice.CmdRemoveSelection, IDs: []string{"n1", "s1"}})
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, "2 components removed", res.Message)
	assert.Empty(t, ed.Document())
}

func TestEditor_ExecuteMove(t *testing.T) {
	ctx := context.Background()
	ed := newEditor(t)

	_, err := ed.Execute(ctx, lattice.Command{Op: lattice.CmdAdd, Type: domain.TypeSection, At: domain.RootLocation(1)})
	require.NoError(t, err)

	from, to := domain.RootLocation(1), domain.RootLocation(0)
	res, err := ed.Execute(ctx, lattice.Command{Op: lattice.CmdMove, From: &from, To: &to})
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, "n1", ed.Document()[0].ID)
}

func TestEditor_ExecuteRejected(t *testing.T) {
	ed := newEditor(t)

	_, err := ed.Execute(context.Background(), lattice.Command{
		Op:   lattice.CmdAdd,
		Type: domain.TypeSection,
		At:   domain.Location{ParentID: "s1"},
	})
	var perr *placement.Error
	require.ErrorAs(t, err, &perr)
	assert.ErrorIs(t, err, domain.ErrPlacementRejected)
}

func TestEditor_ExecuteInvalid(t *testing.T) {
	ctx := context.Background()
	ed := newEditor(t)

	tests := []struct {
		name string
		cmd  lattice.Command
	}{
		{"unknown op", lattice.Command{Op: "explode"}},
		{"add without type", lattice.Command{Op: lattice.CmdAdd}},
		{"insert without node", lattice.Command{Op: lattice.CmdInsert}},
		{"template without name", lattice.Command{Op: lattice.CmdTemplate}},
		{"remove without id", lattice.Command{Op: lattice.CmdRemove}},
		{"resize without id", lattice.Command{Op: lattice.CmdResize}},
		{"move without target", lattice.Command{Op: lattice.CmdMove, From: &domain.Location{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ed.Execute(ctx, tt.cmd)
			assert.ErrorIs(t, err, domain.ErrInvalidCommand)
		})
	}
	assert.Equal(t, uint64(0), ed.Revision())
}

func TestEditor_ExecuteSanitizes(t *testing.T) {
	ctx := context.Background()
	ed := newEditor(t)

	res, err := ed.Execute(ctx, lattice.Command{
		Op:    lattice.CmdAdd,
		Type:  "Text",
		Props: map[string]any{"text": "Hi\x1b[2J\x00"},
		At:    domain.Location{ParentID: "s1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Hi[2J", ed.Document()[0].Children[0].Props["text"])

	_, err = ed.Execute(ctx, lattice.Command{Op: lattice.CmdUpdate, ID: res.ID, Patch: domain.Patch{"text": "\xff"}})
	assert.ErrorIs(t, err, domain.ErrInvalidCommand)
}

func TestEditor_ExecuteNullChild(t *testing.T) {
	ctx := context.Background()
	ed := newEditor(t)

	var cmd lattice.Command
	require.NoError(t, json.Unmarshal([]byte(`{"op":"insert","at":{"parent_id":"s1","index":0},"node":{"id":"g1","type":"Grid","children":[null]}}`), &cmd))

	_, err := ed.Execute(ctx, cmd)
	assert.ErrorIs(t, err, domain.ErrInvalidCommand)

	// The editor stays usable after the rejected command.
	done := make(chan domain.Document, 1)
	go func() { done <- ed.Document() }()
	select {
	case doc := <-done:
		assert.Empty(t, doc[0].Children)
	case <-time.After(2 * time.Second):
		t.Fatal("editor lock held after a rejected command")
	}

	res, err := ed.Execute(ctx, lattice.Command{Op: lattice.CmdAdd, Type: "Text", At: domain.Location{ParentID: "s1"}})
	require.NoError(t, err)
	assert.True(t, res.Changed)
}

func TestEditor_ExecuteDuplicateID(t *testing.T) {
	ctx := context.Background()
	ed := newEditor(t)

	_, err := ed.Execute(ctx, lattice.Command{Op: lattice.CmdInsert, Node: &domain.Node{ID: "s1", Type: domain.TypeSection}, At: domain.RootLocation(1)})
	assert.ErrorIs(t, err, domain.ErrDuplicateID)
	assert.Len(t, ed.Document(), 1)
}

func TestEditor_ExecuteDiff(t *testing.T) {
	ctx := context.Background()
	ed := newEditor(t)

	res, diff, err := ed.ExecuteDiff(ctx, lattice.Command{Op: lattice.CmdAdd, Type: "Text", At: domain.Location{ParentID: "s1"}})
	require.NoError(t, err)
	require.NotNil(t, diff)
	assert.Equal(t, "home", diff.PageID)
	assert.Equal(t, res.Revision, diff.Revision)
	assert.Equal(t, []string{"n1"}, diff.Added)

	res, diff, err = ed.ExecuteDiff(ctx, lattice.Command{Op: lattice.CmdUndo})
	require.NoError(t, err)
	assert.Equal(t, uint64(2), res.Revision)
	require.NotNil(t, diff)
	assert.Equal(t, []string{"n1"}, diff.Removed)

	res, diff, err = ed.ExecuteDiff(ctx, lattice.Command{Op: lattice.CmdRemove, ID: "missing"})
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.Nil(t, diff)
}

func TestCommand_JSON(t *testing.T) {
	raw := `{"op":"insert","at":{"parent_id":"s1","index":2},"node":{"id":"x","type":"Text","props":{"text":"hi"}}}`

	var cmd lattice.Command
	require.NoError(t, json.Unmarshal([]byte(raw), &cmd))
	assert.Equal(t, lattice.CmdInsert, cmd.Op)
	assert.Equal(t, domain.Location{ParentID: "s1", Index: 2}, cmd.At)
	require.NotNil(t, cmd.Node)
	assert.Equal(t, "hi", cmd.Node.Props["text"])
}
