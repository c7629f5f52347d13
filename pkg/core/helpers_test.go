package core

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/violetcereza/djtag-sync/pkg/model"
	"github.com/violetcereza/djtag-sync/pkg/storage"
	"github.com/violetcereza/djtag-sync/pkg/storage/localfs"
)

var t0 = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock() *fakeClock {
	return &fakeClock{now: t0}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	return c.now
}

func setupStore(t testing.TB) storage.Store {
	t.Helper()
	store, err := localfs.NewAtomic(afero.NewMemMapFs())
	require.NoError(t, err)
	return store
}

func setupOsStore(t testing.TB) storage.Store {
	t.Helper()
	return localfs.New(afero.NewBasePathFs(afero.NewOsFs(), t.TempDir()))
}

func setupLibrary(t testing.TB, name string, src Source, store storage.Store, clock *fakeClock, opts ...LibraryOption) *Library {
	t.Helper()
	opts = append([]LibraryOption{Clock(clock.Now)}, opts...)
	lib, err := NewLibrary(context.Background(), name, src, store, opts...)
	require.NoError(t, err)
	return lib
}

func track(pth string, tags model.Tags) *model.Track {
	return model.NewTrack(pth, tags)
}

type mockSource struct {
	mock.Mock
}

func (m *mockSource) Scan(ctx context.Context) (map[string]*model.Track, error) {
	args := m.Called(ctx)
	tracks, _ := args.Get(0).(map[string]*model.Track)
	return tracks, args.Error(1)
}

func (m *mockSource) Write(ctx context.Context, tracks map[string]*model.Track) error {
	args := m.Called(ctx, tracks)
	return args.Error(0)
}
