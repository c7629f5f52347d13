package core

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/violetcereza/djtag-sync/pkg/model"
	"github.com/violetcereza/djtag-sync/pkg/source/memory"
	"github.com/violetcereza/djtag-sync/pkg/storage"
)

type mergeFixture struct {
	clock         *fakeClock
	id3, swinsian *memory.Source
	files, player *Library
}

// setupMerge builds a tag-rich library and a genre-only library sharing the same tracks,
// both committed once.
func setupMerge(t *testing.T, opts ...LibraryOption) *mergeFixture {
	ctx := context.Background()
	f := &mergeFixture{clock: newClock()}
	f.id3 = memory.New([]*model.Track{
		track("/music/p1.mp3", model.Tags{"title": {"S1"}, "artist": {"A1"}, "album": {"L1"}, "genre": {"Jazz", "Rock"}, "year": {"2020"}}),
		track("/music/p2.mp3", model.Tags{"title": {"S2"}, "genre": {"House"}}),
	}, memory.Keep("title", "artist", "album", "genre", "year", "bpm"))
	f.swinsian = memory.New([]*model.Track{
		track("/music/p1.mp3", model.Tags{"genre": {"Jazz", "Rock"}}),
		track("/music/p2.mp3", model.Tags{"genre": {"House"}}),
	}, memory.Keep("genre"))

	f.files = setupLibrary(t, "ID3Library", f.id3, setupStore(t), f.clock, opts...)
	f.player = setupLibrary(t, "SwinsianLibrary", f.swinsian, setupStore(t), f.clock, opts...)
	for _, lib := range []*Library{f.files, f.player} {
		_, err := lib.Commit(ctx)
		require.NoError(t, err)
	}
	f.clock.Advance(time.Second)
	return f
}

// edit simulates a change made outside of djtag, then commits it
func (f *mergeFixture) edit(t *testing.T, src *memory.Source, lib *Library, tr *model.Track) {
	ctx := context.Background()
	f.clock.Advance(time.Second)
	src.Set(tr)
	require.NoError(t, lib.Rescan(ctx))
	res, err := lib.Commit(ctx)
	require.NoError(t, err)
	require.False(t, res.Skipped)
	f.clock.Advance(time.Second)
}

func TestMergeGenres(t *testing.T) {
	ctx := context.Background()
	f := setupMerge(t)

	f.edit(t, f.swinsian, f.player, track("/music/p1.mp3", model.Tags{"genre": {"Alternative", "Jazz", "Rock"}}))

	res, err := Merge(ctx, f.files, f.player)
	require.NoError(t, err)
	assert.False(t, res.NothingToMerge)
	assert.Equal(t, 2, res.Commits)
	assert.Equal(t, []string{"/music/p1.mp3"}, res.Applied)
	assert.True(t, res.Written)
	require.NotNil(t, res.Commit)
	assert.Equal(t, 2, f.files.History().Len())

	p1, _ := f.id3.Get("/music/p1.mp3")
	assert.Equal(t, []string{"Alternative", "Jazz", "Rock"}, p1.Tags["genre"])
	assert.Equal(t, "S1", p1.Tags.First("title"), "tags unknown to the other library are preserved")
	assert.Equal(t, "L1", p1.Tags.First("album"))

	wm, ok := f.files.History().Watermark("SwinsianLibrary")
	require.True(t, ok)
	assert.True(t, res.Watermark.Equal(wm))
}

func TestMergeConcurrentGenreEdits(t *testing.T) {
	ctx := context.Background()
	f := setupMerge(t)

	f.edit(t, f.id3, f.files, track("/music/p2.mp3", model.Tags{"title": {"S2"}, "genre": {"House", "Techno"}}))
	f.edit(t, f.swinsian, f.player, track("/music/p2.mp3", model.Tags{"genre": {"Deep House"}}))

	res, err := Merge(ctx, f.files, f.player)
	require.NoError(t, err)
	assert.Equal(t, []string{"/music/p2.mp3"}, res.Applied)
	assert.True(t, res.Written)

	p2, _ := f.id3.Get("/music/p2.mp3")
	assert.Equal(t, []string{"Deep House", "Techno"}, p2.Tags["genre"], "a renamed genre does not drop genres added elsewhere")
	assert.Equal(t, "S2", p2.Tags.First("title"))
}

func TestMergeKeepsSchema(t *testing.T) {
	ctx := context.Background()
	f := setupMerge(t)

	f.edit(t, f.id3, f.files, track("/music/p1.mp3",
		model.Tags{"title": {"S1"}, "artist": {"A1"}, "album": {"L1"}, "genre": {"Jazz", "Rock"}, "year": {"2021"}, "bpm": {"120"}}))

	res, err := Merge(ctx, f.player, f.files)
	require.NoError(t, err)
	assert.Equal(t, []string{"/music/p1.mp3"}, res.Applied)
	assert.False(t, res.Written, "no genre changed: no updates needed")
	assert.Equal(t, 0, f.swinsian.Writes())
	assert.Equal(t, 1, f.player.History().Len())

	p1 := f.player.Tracks()["/music/p1.mp3"]
	assert.Equal(t, model.Tags{"genre": {"Jazz", "Rock"}}, p1.Tags, "the genre-only library never absorbs other tags")

	// the genre change is propagated, but only the genre
	f.edit(t, f.id3, f.files, track("/music/p1.mp3",
		model.Tags{"title": {"S1"}, "artist": {"A1"}, "album": {"L1"}, "genre": {"Alternative", "Jazz", "Rock"}, "year": {"2021"}, "bpm": {"120"}}))
	res, err = Merge(ctx, f.player, f.files)
	require.NoError(t, err)
	assert.True(t, res.Written)
	assert.Equal(t, 1, res.Commits)
	p1, _ = f.swinsian.Get("/music/p1.mp3")
	assert.Equal(t, model.Tags{"genre": {"Alternative", "Jazz", "Rock"}}, p1.Tags)
}

func TestMergeNothingToMerge(t *testing.T) {
	ctx := context.Background()
	f := setupMerge(t)

	_, err := Merge(ctx, f.files, f.player)
	require.NoError(t, err)
	commits := f.files.History().Len()

	later := f.clock.Advance(time.Hour)
	res, err := Merge(ctx, f.files, f.player)
	require.NoError(t, err)
	assert.True(t, res.NothingToMerge)
	assert.False(t, res.Written)
	assert.Equal(t, commits, f.files.History().Len(), "no snapshot is written")

	wm, ok := f.files.History().Watermark("SwinsianLibrary")
	require.True(t, ok)
	assert.True(t, later.Equal(wm), "the watermark advances anyway")
	assert.Equal(t, "nothing to merge", res.String())
}

func TestMergeFirstCommitHasNoBaseline(t *testing.T) {
	ctx := context.Background()
	f := setupMerge(t)

	// the very first commit of the other library is only a baseline
	res, err := Merge(ctx, f.files, f.player)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Commits)
	assert.Empty(t, res.Applied)
	assert.False(t, res.Written)
	assert.Contains(t, res.String(), "no updates needed")
}

func TestMergeSharedTracksOnly(t *testing.T) {
	ctx := context.Background()

	for _, toPin := range []struct {
		Name          string
		CreateMissing bool
	}{
		{Name: "skip unknown tracks"},
		{Name: "create unknown tracks", CreateMissing: true},
	} {
		fixture := toPin
		t.Run(fixture.Name, func(t *testing.T) {
			clock := newClock()
			a := memory.New([]*model.Track{
				track("/music/p1.mp3", model.Tags{"title": {"S1"}}),
				track("/music/p2.mp3", model.Tags{"title": {"S2"}}),
			})
			b := memory.New([]*model.Track{
				track("/music/p1.mp3", model.Tags{"title": {"S1"}}),
				track("/music/p3.mp3", model.Tags{"title": {"S3"}}),
			})
			libA := setupLibrary(t, "A", a, setupStore(t), clock, CreateMissing(fixture.CreateMissing))
			libB := setupLibrary(t, "B", b, setupStore(t), clock)
			for _, lib := range []*Library{libA, libB} {
				_, err := lib.Commit(ctx)
				require.NoError(t, err)
			}
			clock.Advance(time.Second)

			b.Set(track("/music/p1.mp3", model.Tags{"title": {"S1"}, "genre": {"Rock"}}))
			b.Set(track("/music/p3.mp3", model.Tags{"title": {"S3"}, "genre": {"Jazz"}}))
			require.NoError(t, libB.Rescan(ctx))
			_, err := libB.Commit(ctx)
			require.NoError(t, err)

			ld, err := DiffSnapshots(mustLatest(t, libA), mustLatest(t, libB))
			require.NoError(t, err)
			for _, pth := range ld.Paths() {
				assert.Equal(t, "/music/p1.mp3", pth, "library diffs only hold shared tracks")
			}
			assert.Equal(t, []string{"/music/p3.mp3"}, ld.AddedPaths)
			assert.Equal(t, []string{"/music/p2.mp3"}, ld.RemovedPaths)

			res, err := Merge(ctx, libA, libB)
			require.NoError(t, err)
			p1, _ := a.Get("/music/p1.mp3")
			assert.Equal(t, []string{"Rock"}, p1.Tags["genre"])

			p3, ok := a.Get("/music/p3.mp3")
			if fixture.CreateMissing {
				assert.Equal(t, []string{"/music/p1.mp3", "/music/p3.mp3"}, res.Applied)
				require.True(t, ok)
				assert.Equal(t, model.Tags{"genre": {"Jazz"}}, p3.Tags, "only the diffed content is created")
			} else {
				assert.Equal(t, []string{"/music/p1.mp3"}, res.Applied)
				assert.Equal(t, []string{"/music/p3.mp3"}, res.Skipped)
				assert.False(t, ok)
			}
		})
	}
}

func TestMergeFailedTrack(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	failing := errors.New("cannot hold this")
	a := memory.New([]*model.Track{
		track("/music/p1.mp3", model.Tags{"title": {"S1"}}),
		track("/music/p2.mp3", model.Tags{"title": {"S2"}}),
	}, memory.Scaffold(func(tr *model.Track, _ model.StructuralDiff) error {
		if tr.Path == "/music/p2.mp3" {
			return failing
		}
		return nil
	}))
	b := memory.New([]*model.Track{
		track("/music/p1.mp3", model.Tags{"title": {"S1"}}),
		track("/music/p2.mp3", model.Tags{"title": {"S2"}}),
	})
	libA := setupLibrary(t, "A", a, setupStore(t), clock)
	libB := setupLibrary(t, "B", b, setupStore(t), clock)
	for _, lib := range []*Library{libA, libB} {
		_, err := lib.Commit(ctx)
		require.NoError(t, err)
	}
	clock.Advance(time.Second)

	b.Set(track("/music/p1.mp3", model.Tags{"title": {"S1 (remix)"}}))
	b.Set(track("/music/p2.mp3", model.Tags{"title": {"S2 (remix)"}}))
	require.NoError(t, libB.Rescan(ctx))
	_, err := libB.Commit(ctx)
	require.NoError(t, err)

	res, err := Merge(ctx, libA, libB)
	require.NoError(t, err, "a failing track does not abort the merge")
	assert.Equal(t, []string{"/music/p1.mp3"}, res.Applied)
	assert.Equal(t, []string{"/music/p2.mp3"}, res.Failed)
	assert.True(t, res.Written)

	assert.Equal(t, "S1 (remix)", libA.Tracks()["/music/p1.mp3"].Tags.First("title"))
	assert.Equal(t, "S2", libA.Tracks()["/music/p2.mp3"].Tags.First("title"), "the failed track is restored")
}

func TestMergeFailedTrackAcrossCommits(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	a := memory.New([]*model.Track{
		track("/music/p2.mp3", model.Tags{"title": {"S2"}}),
	}, memory.Scaffold(func(tr *model.Track, _ model.StructuralDiff) error {
		if tr.Tags.First("title") == "S2 v2" {
			return errors.New("cannot hold this")
		}
		return nil
	}))
	b := memory.New([]*model.Track{
		track("/music/p2.mp3", model.Tags{"title": {"S2"}}),
	})
	libA := setupLibrary(t, "A", a, setupStore(t), clock)
	libB := setupLibrary(t, "B", b, setupStore(t), clock)
	for _, lib := range []*Library{libA, libB} {
		_, err := lib.Commit(ctx)
		require.NoError(t, err)
	}
	_, err := Merge(ctx, libA, libB)
	require.NoError(t, err)
	clock.Advance(time.Second)

	for _, title := range []string{"S2 v1", "S2 v2"} {
		b.Set(track("/music/p2.mp3", model.Tags{"title": {title}}))
		require.NoError(t, libB.Rescan(ctx))
		_, err = libB.Commit(ctx)
		require.NoError(t, err)
		clock.Advance(time.Second)
	}

	res, err := Merge(ctx, libA, libB)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Commits)
	assert.Equal(t, []string{"/music/p2.mp3"}, res.Failed)
	assert.Empty(t, res.Applied)
	assert.Equal(t, "S2", libA.Tracks()["/music/p2.mp3"].Tags.First("title"),
		"a failed track gets none of the changes of earlier commits")
	p2, _ := a.Get("/music/p2.mp3")
	assert.Equal(t, "S2", p2.Tags.First("title"))
}

func TestMergeMalformedWatermark(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	storeA := setupStore(t)
	require.NoError(t, storeA.Put(ctx, model.GetMetaKey(),
		bytes.NewBufferString("B:\n  last_merged: not-a-time\n"), storage.OverWrite))

	a := memory.New([]*model.Track{track("/music/p1.mp3", model.Tags{"title": {"S1"}})})
	b := memory.New([]*model.Track{track("/music/p1.mp3", model.Tags{"title": {"S1"}})})
	libA := setupLibrary(t, "A", a, storeA, clock)
	libB := setupLibrary(t, "B", b, setupStore(t), clock)
	for _, lib := range []*Library{libA, libB} {
		_, err := lib.Commit(ctx)
		require.NoError(t, err)
	}
	clock.Advance(time.Second)
	b.Set(track("/music/p1.mp3", model.Tags{"title": {"S1"}, "bpm": {"128"}}))
	require.NoError(t, libB.Rescan(ctx))
	_, err := libB.Commit(ctx)
	require.NoError(t, err)

	res, err := Merge(ctx, libA, libB)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Commits, "a malformed watermark means a full resync")
	assert.Equal(t, []string{"/music/p1.mp3"}, res.Applied)

	wm, ok := libA.History().Watermark("B")
	require.True(t, ok)
	assert.True(t, clock.Now().Equal(wm))
}

func TestMergeWriteFailure(t *testing.T) {
	ctx := context.Background()
	clock := newClock()
	tracks := map[string]*model.Track{"/music/p1.mp3": track("/music/p1.mp3", model.Tags{"title": {"S1"}})}
	src := &mockSource{}
	src.On("Scan", mock.Anything).Return(tracks, nil)
	src.On("Write", mock.Anything, mock.Anything).Return(errors.New("disk full"))

	libA := setupLibrary(t, "A", src, setupStore(t), clock)
	b := memory.New([]*model.Track{track("/music/p1.mp3", model.Tags{"title": {"S1"}})})
	libB := setupLibrary(t, "B", b, setupStore(t), clock)
	_, err := libB.Commit(ctx)
	require.NoError(t, err)

	// A has never been committed: merging has to write it
	_, err = Merge(ctx, libA, libB)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	_, ok := libA.History().Watermark("B")
	assert.False(t, ok, "the watermark is not advanced when the merge fails")
}

func TestMergeArguments(t *testing.T) {
	ctx := context.Background()
	lib := setupLibrary(t, "A", memory.New(nil), setupStore(t), newClock())

	_, err := Merge(ctx, lib, nil)
	require.Error(t, err)
	_, err = Merge(ctx, lib, lib)
	require.Error(t, err)
	_, err = Overwrite(ctx, nil, lib)
	require.Error(t, err)
	_, err = Overwrite(ctx, lib, lib)
	require.Error(t, err)
}

func TestOverwrite(t *testing.T) {
	ctx := context.Background()
	f := setupMerge(t)
	f.swinsian.Set(track("/music/p9.mp3", model.Tags{"genre": {"Techno"}}))
	f.swinsian.Set(track("/music/p1.mp3", model.Tags{"genre": {"Ambient"}}))
	require.NoError(t, f.player.Rescan(ctx))

	res, err := Overwrite(ctx, f.files, f.player)
	require.NoError(t, err)
	assert.False(t, res.Skipped)
	assert.Equal(t, 2, f.files.History().Len())

	p1, _ := f.id3.Get("/music/p1.mp3")
	assert.Equal(t, model.Tags{"genre": {"Ambient"}}, p1.Tags, "tags are replaced, not merged")
	p9, ok := f.id3.Get("/music/p9.mp3")
	require.True(t, ok)
	assert.Equal(t, []string{"Techno"}, p9.Tags["genre"])
}

func mustLatest(t testing.TB, lib *Library) *model.Snapshot {
	t.Helper()
	snap, err := lib.History().Latest(context.Background())
	require.NoError(t, err)
	return snap
}
