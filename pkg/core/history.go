package core

import (
	"bytes"
	"context"
	"sort"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"go.uber.org/zap"

	"github.com/violetcereza/djtag-sync/pkg/core/status"
	"github.com/violetcereza/djtag-sync/pkg/errors"
	"github.com/violetcereza/djtag-sync/pkg/model"
	"github.com/violetcereza/djtag-sync/pkg/storage"
	storagestatus "github.com/violetcereza/djtag-sync/pkg/storage/status"
)

// History is the ordered log of the commits of a source, together with its merge metadata.
//
// Commits are identified and ordered by their timestamp, which is strictly increasing.
type History struct {
	store     storage.Store
	source    string
	l         *zap.Logger
	cacheSize int

	entries []time.Time
	meta    model.MetaDescriptor
	cache   *lru.Cache
}

func defaultHistory(store storage.Store) *History {
	return &History{
		store:     store,
		l:         zap.NewNop(),
		cacheSize: defaultCacheSize,
	}
}

// OpenHistory reads the commit keys and merge metadata held by a store
func OpenHistory(ctx context.Context, store storage.Store, opts ...HistoryOption) (*History, error) {
	if store == nil {
		return nil, errors.New("history store is required")
	}
	h := defaultHistory(store)
	for _, apply := range opts {
		apply(h)
	}
	h.l = h.l.With(zap.String("history", h.source))

	cache, err := lru.New(h.cacheSize)
	if err != nil {
		return nil, err
	}
	h.cache = cache

	keys, err := store.KeysPrefix(ctx, model.GetCommitsPrefix())
	if err != nil {
		return nil, errors.New("cannot list commits").Wrap(err)
	}
	h.entries = make([]time.Time, 0, len(keys))
	for _, key := range keys {
		ts, err := model.ParseCommitKey(key)
		if err != nil {
			h.l.Warn("ignoring unexpected object in history", zap.String("key", key), zap.Error(err))
			continue
		}
		h.entries = append(h.entries, ts)
	}
	sort.Slice(h.entries, func(i, j int) bool { return h.entries[i].Before(h.entries[j]) })

	if err := h.readMeta(ctx); err != nil {
		return nil, err
	}
	h.l.Debug("history opened", zap.Int("commits", len(h.entries)), zap.String("store", store.String()))
	return h, nil
}

func (h *History) readMeta(ctx context.Context) error {
	h.meta = make(model.MetaDescriptor)
	b, err := storage.ReadAll(ctx, h.store, model.GetMetaKey())
	if err != nil {
		if errors.Is(err, storagestatus.ErrNotFound) {
			return nil
		}
		return errors.New("cannot read merge metadata").Wrap(err)
	}
	meta, err := model.UnmarshalMeta(b)
	if err != nil {
		h.l.Warn("ignoring corrupted merge metadata", zap.Error(err))
		return nil
	}
	h.meta = meta
	return nil
}

// Source this history belongs to
func (h *History) Source() string {
	return h.source
}

// Len yields the number of commits
func (h *History) Len() int {
	return len(h.entries)
}

// Entries lists the timestamps of all commits, oldest first
func (h *History) Entries() []time.Time {
	res := make([]time.Time, len(h.entries))
	copy(res, h.entries)
	return res
}

// MostRecent yields the timestamp of the latest commit
func (h *History) MostRecent() (time.Time, error) {
	if len(h.entries) == 0 {
		return time.Time{}, status.ErrEmptyLog
	}
	return h.entries[len(h.entries)-1], nil
}

func (h *History) index(ts time.Time) (int, bool) {
	i := sort.Search(len(h.entries), func(i int) bool { return !h.entries[i].Before(ts) })
	return i, i < len(h.entries) && h.entries[i].Equal(ts)
}

// Load the commit taken at exactly this time
func (h *History) Load(ctx context.Context, ts time.Time) (*model.Snapshot, error) {
	if _, ok := h.index(ts); !ok {
		return nil, status.ErrCommitNotFound.WrapMessage("at %s", ts.Format(time.RFC3339Nano))
	}
	if v, ok := h.cache.Get(ts.UnixNano()); ok {
		return v.(*model.Snapshot), nil
	}

	key := model.GetCommitKey(ts)
	b, err := storage.ReadAll(ctx, h.store, key)
	if err != nil {
		if errors.Is(err, storagestatus.ErrNotFound) {
			return nil, status.ErrCommitNotFound.Wrap(err)
		}
		return nil, err
	}
	snapshot, err := model.UnmarshalSnapshot(b)
	if err != nil {
		return nil, errors.New("corrupted commit").WrapMessage("key %q: %v", key, err)
	}
	h.cache.Add(ts.UnixNano(), snapshot)
	return snapshot, nil
}

// Latest loads the most recent commit
func (h *History) Latest(ctx context.Context) (*model.Snapshot, error) {
	ts, err := h.MostRecent()
	if err != nil {
		return nil, err
	}
	return h.Load(ctx, ts)
}

// Since lists the timestamps of the commits strictly after ts, oldest first
func (h *History) Since(ts time.Time) []time.Time {
	i := sort.Search(len(h.entries), func(i int) bool { return h.entries[i].After(ts) })
	res := make([]time.Time, len(h.entries)-i)
	copy(res, h.entries[i:])
	return res
}

// Baseline yields the timestamp of the most recent commit at or before ts
func (h *History) Baseline(ts time.Time) (time.Time, bool) {
	i := sort.Search(len(h.entries), func(i int) bool { return h.entries[i].After(ts) })
	if i == 0 {
		return time.Time{}, false
	}
	return h.entries[i-1], true
}

// Append stores a new commit.
//
// A commit dated at or before the latest one is moved to just after it, so that
// commit timestamps remain strictly increasing. The stored snapshot is returned.
func (h *History) Append(ctx context.Context, snapshot *model.Snapshot) (*model.Snapshot, error) {
	if snapshot == nil {
		return nil, model.SnapshotIsRequired
	}
	if latest, err := h.MostRecent(); err == nil && !snapshot.Timestamp().After(latest) {
		bumped := latest.Add(time.Nanosecond)
		h.l.Debug("moving commit after the latest one",
			zap.Time("requested", snapshot.Timestamp()), zap.Time("timestamp", bumped))
		snapshot = model.NewSnapshot(snapshot.Source(), bumped, snapshot.Tracks())
	}

	b, err := model.MarshalSnapshot(snapshot)
	if err != nil {
		return nil, err
	}
	key := model.GetCommitKey(snapshot.Timestamp())
	if err := h.store.Put(ctx, key, bytes.NewReader(b), storage.NoOverWrite); err != nil {
		return nil, errors.New("cannot store commit").WrapWithLog(h.l, err, zap.String("key", key))
	}

	h.entries = append(h.entries, snapshot.Timestamp())
	h.cache.Add(snapshot.Timestamp().UnixNano(), snapshot)
	h.l.Info("committed", zap.String("id", snapshot.ID()), zap.String("key", key), zap.Int("tracks", snapshot.Len()))
	return snapshot, nil
}

// Watermark yields the time up to which the commits of some counterpart have been merged.
//
// A malformed timestamp is reported as absent.
func (h *History) Watermark(counterpart string) (time.Time, bool) {
	m, ok := h.meta[counterpart]
	if !ok || m.LastMerged == "" {
		return time.Time{}, false
	}
	ts, err := time.Parse(time.RFC3339Nano, m.LastMerged)
	if err != nil {
		_ = status.ErrMalformedWatermark.WrapWithLog(h.l, err,
			zap.String("counterpart", counterpart), zap.String("last_merged", m.LastMerged))
		return time.Time{}, false
	}
	return ts.UTC(), true
}

// SetWatermark records the time up to which the commits of some counterpart have been merged
func (h *History) SetWatermark(ctx context.Context, counterpart string, ts time.Time) error {
	meta := make(model.MetaDescriptor, len(h.meta)+1)
	for k, v := range h.meta {
		meta[k] = v
	}
	meta[counterpart] = model.MergeDescriptor{LastMerged: ts.UTC().Format(time.RFC3339Nano)}

	b, err := model.MarshalMeta(meta)
	if err != nil {
		return err
	}
	if err := h.store.Put(ctx, model.GetMetaKey(), bytes.NewReader(b), storage.OverWrite); err != nil {
		return errors.New("cannot store merge metadata").Wrap(err)
	}
	h.meta = meta
	h.l.Debug("watermark set", zap.String("counterpart", counterpart), zap.Time("last_merged", ts))
	return nil
}

// DiffAgainstLatest compares some tracks with the latest commit.
//
// The returned flag is false when the history is empty: all tracks are then reported as added.
func (h *History) DiffAgainstLatest(ctx context.Context, tracks map[string]*model.Track) (LibraryDiff, bool, error) {
	latest, err := h.Latest(ctx)
	switch {
	case errors.Is(err, status.ErrEmptyLog):
		return DiffTracks(nil, tracks), false, nil
	case err != nil:
		return LibraryDiff{}, false, err
	}
	return DiffTracks(latest.Tracks(), tracks), true, nil
}
