package autosave_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/lattice/pkg/autosave"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu      sync.Mutex
	doc     domain.Document
	rev     uint64
	cleared int
}

func (s *fakeSource) Snapshot() (domain.Document, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc, s.rev
}

func (s *fakeSource) ClearHistory() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cleared++
}

func (s *fakeSource) commit(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = append(append(domain.Document{}, s.doc...), &domain.Node{ID: id, Type: domain.TypeSection})
	s.rev++
}

type fakeStore struct {
	mu       sync.Mutex
	saves    []uint64 // len of each saved document
	fail     error
	gate     chan struct{}
	inFlight atomic.Int32
	overlap  atomic.Bool
}

func (s *fakeStore) Save(ctx context.Context, pageID string, doc domain.Document) error {
	if s.inFlight.Add(1) > 1 {
		s.overlap.Store(true)
	}
	defer s.inFlight.Add(-1)
	if s.gate != nil {
		<-s.gate
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fail != nil {
		return s.fail
	}
	s.saves = append(s.saves, uint64(len(doc)))
	return nil
}

func (s *fakeStore) Load(ctx context.Context, pageID string) (domain.Document, error) {
	return nil, domain.ErrPageNotFound
}
func (s *fakeStore) Delete(ctx context.Context, pageID string) error { return nil }
func (s *fakeStore) List(ctx context.Context) ([]string, error)      { return nil, nil }

func (s *fakeStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.saves)
}

func (s *fakeStore) setFail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fail = err
}

type fakePublisher struct {
	err  error
	docs []domain.Document
}

func (p *fakePublisher) Publish(ctx context.Context, pageID string, doc domain.Document) error {
	if p.err != nil {
		return p.err
	}
	p.docs = append(p.docs, doc)
	return nil
}

func TestNotify_DebouncesBursts(t *testing.T) {
	src := &fakeSource{}
	store := &fakeStore{}
	c := autosave.New("home", src, store, autosave.WithDelay(30*time.Millisecond))

	for i := 0; i < 5; i++ {
		src.commit("s")
		c.Notify()
	}

	assert.Eventually(t, func() bool { return store.count() == 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, 1, store.count(), "a burst produces a single save")
	assert.Equal(t, autosave.StatusIdle, c.Status())
	assert.Equal(t, uint64(5), c.SavedRevision())
}

func TestFlush_SkipsSavedRevision(t *testing.T) {
	src := &fakeSource{}
	store := &fakeStore{}
	c := autosave.New("home", src, store, autosave.WithSavedRevision(0))

	require.NoError(t, c.Flush(context.Background()))
	assert.Equal(t, 0, store.count(), "loaded revision is already persisted")

	src.commit("s1")
	require.NoError(t, c.Flush(context.Background()))
	require.NoError(t, c.Flush(context.Background()))
	assert.Equal(t, 1, store.count())
}

func TestFlush_ErrorThenRecovery(t *testing.T) {
	src := &fakeSource{}
	boom := errors.New("backend down")
	store := &fakeStore{fail: boom}
	var events []*domain.PersistEvent
	c := autosave.New("home", src, store, autosave.WithHooks(domain.LifecycleHooks{
		OnSave: func(ctx context.Context, e *domain.PersistEvent) { events = append(events, e) },
	}))

	src.commit("s1")
	err := c.Flush(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, autosave.StatusError, c.Status())
	assert.ErrorIs(t, c.Err(), boom)

	store.setFail(nil)
	require.NoError(t, c.Flush(context.Background()), "the next cycle retries")
	assert.Equal(t, autosave.StatusIdle, c.Status())
	assert.NoError(t, c.Err())

	require.Len(t, events, 2)
	assert.Equal(t, domain.EventSave, events[0].Type)
	assert.ErrorIs(t, events[0].Err, boom)
	assert.Equal(t, uint64(1), events[1].Revision)
}

func TestFlush_SerialisedAndLastCommitWins(t *testing.T) {
	src := &fakeSource{}
	store := &fakeStore{gate: make(chan struct{})}
	c := autosave.New("home", src, store)

	src.commit("s1")
	done := make(chan error, 2)
	go func() { done <- c.Flush(context.Background()) }()
	assert.Eventually(t, func() bool { return c.Status() == autosave.StatusSaving }, time.Second, time.Millisecond)

	// Editing continues while the save is in flight.
	src.commit("s2")
	go func() { done <- c.Flush(context.Background()) }()

	store.gate <- struct{}{}
	store.gate <- struct{}{}
	require.NoError(t, <-done)
	require.NoError(t, <-done)

	assert.False(t, store.overlap.Load(), "saves must never overlap")
	doc, rev := src.Snapshot()
	assert.Len(t, doc, 2, "a completed save never touches the document")
	assert.Equal(t, rev, c.SavedRevision())
	assert.Equal(t, autosave.StatusIdle, c.Status())
}

func TestPublish(t *testing.T) {
	src := &fakeSource{}
	src.commit("s1")
	pub := &fakePublisher{}
	c := autosave.New("home", src, &fakeStore{}, autosave.WithPublisher(pub))

	require.NoError(t, c.Publish(context.Background()))
	assert.Equal(t, autosave.StatusSaved, c.Status())
	assert.Equal(t, 1, src.cleared)
	require.Len(t, pub.docs, 1)

	pub.err = errors.New("rejected")
	require.Error(t, c.Publish(context.Background()))
	assert.Equal(t, autosave.StatusError, c.Status())
	assert.Equal(t, 1, src.cleared, "history is only cleared on success")
}

func TestPublish_WithoutPublisher(t *testing.T) {
	c := autosave.New("home", &fakeSource{}, &fakeStore{})
	assert.ErrorIs(t, c.Publish(context.Background()), autosave.ErrNoPublisher)
}

func TestFlushSchedule(t *testing.T) {
	src := &fakeSource{}
	store := &fakeStore{}
	c := autosave.New("home", src, store,
		autosave.WithDelay(time.Hour),
		autosave.WithFlushSchedule("@every 1s"),
	)
	require.NoError(t, c.Start())
	defer c.Close(context.Background())

	src.commit("s1")
	c.Notify()
	assert.Eventually(t, func() bool { return store.count() == 1 }, 3*time.Second, 20*time.Millisecond)
}

func TestStart_InvalidSchedule(t *testing.T) {
	c := autosave.New("home", &fakeSource{}, &fakeStore{}, autosave.WithFlushSchedule("not a schedule"))
	assert.Error(t, c.Start())
}

func TestClose_FlushesPending(t *testing.T) {
	src := &fakeSource{}
	store := &fakeStore{}
	c := autosave.New("home", src, store, autosave.WithDelay(time.Hour))

	src.commit("s1")
	c.Notify()
	require.NoError(t, c.Close(context.Background()))
	assert.Equal(t, 1, store.count())

	c.Notify()
	require.NoError(t, c.Close(context.Background()), "close is idempotent")
}
