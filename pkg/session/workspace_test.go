package session_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aretw0/lattice"
	"github.com/aretw0/lattice/pkg/adapters/memory"
	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
	"github.com/aretw0/lattice/pkg/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// SlowStore simulates latency to provoke race conditions if locking is missing.
type SlowStore struct {
	*memory.Store
	loads atomic.Int32
}

func (s *SlowStore) Load(ctx context.Context, pageID string) (domain.Document, error) {
	time.Sleep(10 * time.Millisecond)
	s.loads.Add(1)
	return s.Store.Load(ctx, pageID)
}

type countingLocker struct {
	locks   atomic.Int32
	unlocks atomic.Int32
	err     error
}

func (l *countingLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	if l.err != nil {
		return nil, l.err
	}
	l.locks.Add(1)
	return func(ctx context.Context) error {
		l.unlocks.Add(1)
		return nil
	}, nil
}

func TestManager_OpenOnce(t *testing.T) {
	store := &SlowStore{Store: memory.NewStore()}
	mgr := session.NewManager(store)
	ctx := context.Background()

	var wg sync.WaitGroup
	editors := make([]*lattice.Editor, 10)
	for i := range editors {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ed, err := mgr.Open(ctx, "home")
			assert.NoError(t, err)
			editors[i] = ed
		}(i)
	}
	wg.Wait()

	for _, ed := range editors[1:] {
		assert.Same(t, editors[0], ed)
	}
	assert.Equal(t, int32(1), store.loads.Load(), "the store is read once per page")
	assert.Equal(t, []string{"home"}, mgr.Pages())
}

func TestManager_CloseFlushes(t *testing.T) {
	store := memory.NewStore()
	mgr := session.NewManager(store)
	ctx := context.Background()

	ed, err := mgr.Open(ctx, "home")
	require.NoError(t, err)
	_, err = ed.AddComponent(domain.RootLocation(0), domain.TypeSection, nil)
	require.NoError(t, err)

	require.NoError(t, mgr.Close(ctx, "home"))
	_, open := mgr.Get("home")
	assert.False(t, open)

	saved, err := store.Load(ctx, "home")
	require.NoError(t, err)
	assert.Len(t, saved, 1)

	_, err = ed.AddComponent(domain.RootLocation(0), domain.TypeSection, nil)
	assert.ErrorIs(t, err, domain.ErrEditorClosed)

	assert.NoError(t, mgr.Close(ctx, "never-opened"))
}

func TestManager_ReopenLoadsSaved(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, store.Save(ctx, "home", domain.Document{
		{ID: "s1", Type: domain.TypeSection, Children: []*domain.Node{}},
	}))

	mgr := session.NewManager(store)
	ed, err := mgr.Open(ctx, "home")
	require.NoError(t, err)
	assert.Equal(t, "s1", ed.Document()[0].ID)

	ids, err := mgr.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"home"}, ids)
}

func TestManager_PublishThroughStore(t *testing.T) {
	store := memory.NewStore()
	mgr := session.NewManager(store)
	ctx := context.Background()

	ed, err := mgr.Open(ctx, "home")
	require.NoError(t, err)
	_, err = ed.AddComponent(domain.RootLocation(0), domain.TypeSection, nil)
	require.NoError(t, err)

	require.NoError(t, ed.Publish(ctx))
	published, err := store.Published(ctx, "home")
	require.NoError(t, err)
	assert.Len(t, published, 1)
}

func TestManager_Delete(t *testing.T) {
	store := memory.NewStore()
	mgr := session.NewManager(store)
	ctx := context.Background()

	ed, err := mgr.Open(ctx, "home")
	require.NoError(t, err)
	_, err = ed.AddComponent(domain.RootLocation(0), domain.TypeSection, nil)
	require.NoError(t, err)

	require.NoError(t, mgr.Delete(ctx, "home"))
	_, err = store.Load(ctx, "home")
	assert.ErrorIs(t, err, domain.ErrPageNotFound, "delete runs after the closing flush")
	assert.Empty(t, mgr.Pages())
}

func TestManager_CloseAll(t *testing.T) {
	mgr := session.NewManager(memory.NewStore())
	ctx := context.Background()

	for _, id := range []string{"a", "b", "c"} {
		_, err := mgr.Open(ctx, id)
		require.NoError(t, err)
	}
	require.NoError(t, mgr.CloseAll(ctx))
	assert.Empty(t, mgr.Pages())
}

func TestManager_DistributedLocker(t *testing.T) {
	locker := &countingLocker{}
	mgr := session.NewManager(memory.NewStore(), session.WithLocker(locker))
	ctx := context.Background()

	_, err := mgr.Open(ctx, "home")
	require.NoError(t, err)
	_, err = mgr.Open(ctx, "home") // cached, no lock
	require.NoError(t, err)
	require.NoError(t, mgr.Close(ctx, "home"))

	assert.Equal(t, int32(2), locker.locks.Load())
	assert.Equal(t, int32(2), locker.unlocks.Load())
}

func TestManager_LockFailure(t *testing.T) {
	locker := &countingLocker{err: errors.New("redis down")}
	mgr := session.NewManager(memory.NewStore(), session.WithLocker(locker))

	_, err := mgr.Open(context.Background(), "home")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to acquire distributed lock")
	assert.Empty(t, mgr.Pages())
}
