package lattice_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/pkg/adapters/memory"
	"github.com/aretw0/lattice/pkg/autosave"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/geometry"
	"github.com/aretw0/lattice/pkg/ids"
	"github.com/aretw0/lattice/pkg/placement"
	"github.com/aretw0/lattice/pkg/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEditor(t *testing.T, opts ...lattice.Option) *lattice.Editor {
	t.Helper()
	doc := domain.Document{{ID: "s1", Type: domain.TypeSection, Children: []*domain.Node{}}}
	opts = append([]lattice.Option{lattice.WithIDGenerator(ids.NewSequence("n"))}, opts...)
	ed, err := lattice.New("home", doc, opts...)
	require.NoError(t, err)
	return ed
}

func TestEditor_Scenario(t *testing.T) {
	ed := newEditor(t)
	original := ed.Document()

	changed, err := ed.Insert(domain.Location{ParentID: "s1"}, &domain.Node{ID: "c1", Type: "Text"})
	require.NoError(t, err)
	require.True(t, changed)
	assert.Equal(t, "Text added", ed.LiveMessage())
	assert.Equal(t, uint64(1), ed.Revision())

	changed, err = ed.Remove("c1")
	require.NoError(t, err)
	require.True(t, changed)
	assert.Equal(t, original, ed.Document())

	require.True(t, ed.CanUndo())
	changed, _ = ed.Undo()
	assert.True(t, changed)
	assert.Equal(t, "c1", ed.Document()[0].Children[0].ID)
	assert.Equal(t, "Component removed", ed.LiveMessage(), "undo does not restore the live message")
}

func TestEditor_NoOp(t *testing.T) {
	ed := newEditor(t)

	for name, op := range map[string]func() (bool, error){
		"remove":    func() (bool, error) { return ed.Remove("missing") },
		"update":    func() (bool, error) { return ed.Update("missing", domain.Patch{"a": 1}) },
		"duplicate": func() (bool, error) { return ed.Duplicate("missing") },
		"move":      func() (bool, error) { return ed.Move(domain.RootLocation(3), domain.RootLocation(0)) },
		"insert": func() (bool, error) {
			return ed.Insert(domain.Location{ParentID: "missing"}, &domain.Node{ID: "x", Type: "Text"})
		},
		"undo": ed.Undo,
		"redo": ed.Redo,
	} {
		changed, err := op()
		assert.NoError(t, err, name)
		assert.False(t, changed, name)
	}
	assert.Equal(t, uint64(0), ed.Revision())
	assert.False(t, ed.CanUndo())
}

func TestEditor_MoveToOwnSlot(t *testing.T) {
	ed := newEditor(t)
	_, err := ed.AddComponent(domain.Location{ParentID: "s1"}, "Text", nil)
	require.NoError(t, err)
	ed.ClearHistory()

	slot := domain.Location{ParentID: "s1", Index: 0}
	changed, err := ed.Move(slot, slot)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.False(t, ed.CanUndo(), "no empty undo step is recorded")
	assert.Equal(t, uint64(1), ed.Revision())
}

func TestEditor_InsertDuplicateID(t *testing.T) {
	ed := newEditor(t)
	_, err := ed.Insert(domain.Location{ParentID: "s1"}, &domain.Node{ID: "t1", Type: "Text"})
	require.NoError(t, err)

	_, err = ed.Insert(domain.Location{ParentID: "s1"}, &domain.Node{ID: "t1", Type: "Text"})
	assert.ErrorIs(t, err, domain.ErrDuplicateID)

	_, err = ed.Insert(domain.RootLocation(1), &domain.Node{ID: "s2", Type: domain.TypeSection, Children: []*domain.Node{
		{ID: "x", Type: "Text"},
		{ID: "x", Type: "Text"},
	}})
	assert.ErrorIs(t, err, domain.ErrDuplicateID, "ids repeated inside the subtree")
	assert.Len(t, ed.Document(), 1)
	assert.Equal(t, uint64(1), ed.Revision())
}

func TestEditor_PlacementGate(t *testing.T) {
	var rejected []*domain.PlacementEvent
	ed := newEditor(t, lattice.WithSectionsOnly(true), lattice.WithLifecycleHooks(domain.LifecycleHooks{
		OnRejected: func(ctx context.Context, e *domain.PlacementEvent) { rejected = append(rejected, e) },
	}))

	_, err := ed.AddComponent(domain.Location{ParentID: "s1"}, domain.TypeSection, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPlacementRejected)
	var perr *placement.Error
	require.True(t, errors.As(err, &perr))

	_, err = ed.AddComponent(domain.RootLocation(0), domain.TypeCanvas, nil)
	assert.ErrorIs(t, err, domain.ErrPlacementRejected, "sections-only forbids canvas roots")

	grid, err := ed.AddComponent(domain.Location{ParentID: "s1"}, domain.TypeGrid, nil)
	require.NoError(t, err)
	assert.Equal(t, "n3", grid, "rejected adds still consume ids")

	_, err = ed.AddComponent(domain.Location{ParentID: grid}, domain.TypeTabs, nil)
	assert.ErrorIs(t, err, domain.ErrPlacementRejected, "containers nest one level below a section")

	text, err := ed.AddComponent(domain.Location{ParentID: grid}, "Text", map[string]any{"text": "hi"})
	require.NoError(t, err)

	// Moving the grid to the root is illegal; moving text into the section is fine.
	_, err = ed.Move(domain.Location{ParentID: "s1", Index: 0}, domain.RootLocation(0))
	assert.ErrorIs(t, err, domain.ErrPlacementRejected)
	changed, err := ed.Move(domain.Location{ParentID: grid, Index: 0}, domain.Location{ParentID: "s1", Index: 0})
	require.NoError(t, err)
	assert.True(t, changed)
	loc, _ := tree.Locate(ed.Document(), text)
	assert.Equal(t, "s1", loc.ParentID)

	assert.Len(t, rejected, 4)
	assert.True(t, ed.Validate().OK)

	assert.True(t, ed.CanDrop("s1", domain.TypeCarousel))
	assert.False(t, ed.CanDrop(grid, domain.TypeCarousel))
	assert.False(t, ed.CanDrop("", domain.TypeCanvas))
	assert.False(t, ed.CanDrop("missing", "Text"))
}

func TestEditor_DuplicateAndSelection(t *testing.T) {
	ed := newEditor(t)
	a, _ := ed.AddComponent(domain.Location{ParentID: "s1"}, "Text", nil)
	b, _ := ed.AddComponent(domain.Location{ParentID: "s1"}, "Image", nil)

	changed, err := ed.Duplicate(a)
	require.NoError(t, err)
	require.True(t, changed)
	assert.Equal(t, []string{"s1", a, "n3", b}, tree.IDs(ed.Document()))

	changed, err = ed.RemoveSelection(domain.NewSelection(a, b, "missing"))
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, []string{"s1", "n3"}, tree.IDs(ed.Document()))
	assert.Equal(t, "2 components removed", ed.LiveMessage())

	changed, _ = ed.RemoveSelection(domain.NewSelection("missing"))
	assert.False(t, changed)
}

func TestEditor_UpdateCoercion(t *testing.T) {
	ed := newEditor(t)
	grid, _ := ed.AddComponent(domain.Location{ParentID: "s1"}, domain.TypeGrid, nil)

	_, err := ed.Update(grid, domain.Patch{"columns": "3"})
	require.NoError(t, err)
	assert.Equal(t, float64(3), tree.Find(ed.Document(), grid).Props["columns"])

	_, err = ed.Update(grid, domain.Patch{"columns": "abc"})
	require.NoError(t, err)
	assert.NotContains(t, tree.Find(ed.Document(), grid).Props, "columns")
}

func TestEditor_CommitGesture(t *testing.T) {
	ed := newEditor(t)
	canvas, err := ed.AddComponent(domain.RootLocation(1), domain.TypeCanvas, nil)
	require.NoError(t, err)
	img, err := ed.AddComponent(domain.Location{ParentID: canvas}, "Image",
		map[string]any{"left": 0, "top": 0, "width": 100, "height": 50})
	require.NoError(t, err)
	rev := ed.Revision()

	frame, err := geometry.FrameFromProps(tree.Find(ed.Document(), img).Props)
	require.NoError(t, err)

	var g geometry.Gesture
	g.Begin(geometry.GestureDrag, img, frame)
	for i := 1; i <= 10; i++ {
		g.Move(float64(i*10), 0, geometry.Context{Grid: 1})
	}
	assert.Equal(t, rev, ed.Revision(), "pointer moves never touch the document")

	changed, err := ed.CommitGesture(&g)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, rev+1, ed.Revision())
	assert.Equal(t, 100.0, tree.Find(ed.Document(), img).Props["left"])
	assert.Equal(t, "Component moved", ed.LiveMessage())

	g.Begin(geometry.GestureResize, img, frame)
	g.Move(20, 20, geometry.Context{})
	g.Cancel()
	changed, _ = ed.CommitGesture(&g)
	assert.False(t, changed, "a cancelled gesture never commits")
}

func TestEditor_Templates(t *testing.T) {
	lib, err := memory.NewFromNodes(&domain.Node{ID: "gallery", Type: domain.TypeGrid, Children: []*domain.Node{
		{ID: "img", Type: "Image"},
	}})
	require.NoError(t, err)
	ed := newEditor(t, lattice.WithTemplates(lib))

	id, err := ed.AddFromTemplate(context.Background(), "gallery", domain.Location{ParentID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", id, "n2"}, tree.IDs(ed.Document()))

	_, err = ed.AddFromTemplate(context.Background(), "nope", domain.Location{ParentID: "s1"})
	assert.ErrorIs(t, err, domain.ErrTemplateNotFound)

	_, err = newEditor(t).AddFromTemplate(context.Background(), "gallery", domain.RootLocation(0))
	assert.ErrorIs(t, err, domain.ErrTemplateNotFound)
}

func TestEditor_Hooks(t *testing.T) {
	var mu sync.Mutex
	var commits []*domain.CommitEvent
	var travels []domain.EventType
	ed := newEditor(t, lattice.WithLifecycleHooks(domain.LifecycleHooks{
		OnCommit: func(ctx context.Context, e *domain.CommitEvent) {
			mu.Lock()
			defer mu.Unlock()
			commits = append(commits, e)
		},
		OnUndo: func(ctx context.Context, e *domain.HistoryEvent) { travels = append(travels, e.Type) },
		OnRedo: func(ctx context.Context, e *domain.HistoryEvent) { travels = append(travels, e.Type) },
	}))

	id, _ := ed.AddComponent(domain.Location{ParentID: "s1"}, "Text", nil)
	ed.Undo()
	ed.Redo()

	require.Len(t, commits, 1)
	assert.Equal(t, domain.OpAdd, commits[0].Operation)
	assert.Equal(t, id, commits[0].NodeID)
	assert.Equal(t, "home", commits[0].PageID)
	assert.Equal(t, []domain.EventType{domain.EventUndo, domain.EventRedo}, travels)
}

func TestEditor_AutosaveAndPublish(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	ed, err := lattice.Open(ctx, "home", store,
		lattice.WithPublisher(store),
		lattice.WithAutosaveDelay(20*time.Millisecond),
	)
	require.NoError(t, err)
	assert.Empty(t, ed.Document())

	_, err = ed.AddComponent(domain.RootLocation(0), domain.TypeSection, nil)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		doc, err := store.Load(ctx, "home")
		return err == nil && len(doc) == 1
	}, time.Second, 5*time.Millisecond)
	assert.Eventually(t, func() bool { return ed.AutosaveStatus() == autosave.StatusIdle }, time.Second, 5*time.Millisecond)

	require.NoError(t, ed.Publish(ctx))
	assert.Equal(t, autosave.StatusSaved, ed.AutosaveStatus())
	assert.False(t, ed.CanUndo(), "publish clears history")
	published, err := store.Published(ctx, "home")
	require.NoError(t, err)
	assert.Len(t, published, 1)

	// Reopening picks up the saved working copy.
	require.NoError(t, ed.Close(ctx))
	reopened, err := lattice.Open(ctx, "home", store)
	require.NoError(t, err)
	assert.Len(t, reopened.Document(), 1)
}

func TestEditor_PublishWithoutPublisher(t *testing.T) {
	ed := newEditor(t)
	assert.ErrorIs(t, ed.Publish(context.Background()), autosave.ErrNoPublisher)
}

func TestEditor_Closed(t *testing.T) {
	ed := newEditor(t)
	require.NoError(t, ed.Close(context.Background()))
	require.NoError(t, ed.Close(context.Background()))

	_, err := ed.Remove("s1")
	assert.ErrorIs(t, err, domain.ErrEditorClosed)
	_, err = ed.Undo()
	assert.ErrorIs(t, err, domain.ErrEditorClosed)
}

func TestEditor_ConcurrentCommits(t *testing.T) {
	ed := newEditor(t, lattice.WithIDGenerator(ids.ULID{}))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = ed.AddComponent(domain.Location{ParentID: "s1"}, "Text", nil)
		}()
	}
	wg.Wait()

	assert.Len(t, ed.Document()[0].Children, 20)
	assert.Equal(t, uint64(20), ed.Revision())
}

func TestNew_DropsNilNodes(t *testing.T) {
	doc := domain.Document{
		nil,
		{ID: "s1", Type: domain.TypeSection, Children: []*domain.Node{nil, {ID: "t1", Type: "Text"}}},
	}
	ed, err := lattice.New("home", doc)
	require.NoError(t, err)

	assert.Equal(t, []string{"s1", "t1"}, tree.IDs(ed.Document()))
	assert.True(t, ed.Validate().OK)

	changed, err := ed.Remove("t1")
	require.NoError(t, err)
	assert.True(t, changed)
}

func TestNew_Validation(t *testing.T) {
	_, err := lattice.New("", nil)
	assert.Error(t, err)

	_, err = lattice.New("p", nil, lattice.WithStore(memory.NewStore()), lattice.WithFlushSchedule("bogus"))
	assert.Error(t, err)

	ed, err := lattice.New("p", nil)
	require.NoError(t, err)
	assert.NotNil(t, ed.Document())
	assert.NotEmpty(t, lattice.Version)
}
