package core

import (
	"context"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/violetcereza/djtag-sync/pkg/errors"
	"github.com/violetcereza/djtag-sync/pkg/model"
	"github.com/violetcereza/djtag-sync/pkg/storage"
)

// Library binds a tag source to the history of its commits.
//
// The tracks of a library are its live state: they are scanned from the source
// when the library is built, mutated by merges, and persisted by Write.
type Library struct {
	name    string
	source  Source
	history *History
	tracks  map[string]*model.Track

	l             *zap.Logger
	now           func() time.Time
	cacheSize     int
	createMissing bool
	out           io.Writer
	formatter     Formatter
}

// CommitResult describes the outcome of a commit
type CommitResult struct {
	// Skipped is true when nothing changed since the latest commit
	Skipped bool

	// Snapshot is the stored commit, or the latest one when skipped
	Snapshot *model.Snapshot

	// Diff holds the changes since the previous commit
	Diff LibraryDiff
}

func defaultLibrary(name string, source Source) *Library {
	return &Library{
		name:      name,
		source:    source,
		l:         zap.NewNop(),
		now:       time.Now,
		cacheSize: defaultCacheSize,
		out:       io.Discard,
	}
}

// NewLibrary scans a source and opens its history
func NewLibrary(ctx context.Context, name string, source Source, store storage.Store, opts ...LibraryOption) (*Library, error) {
	if name == "" {
		return nil, errors.New("library name is required")
	}
	if source == nil {
		return nil, errors.New("library source is required")
	}
	lib := defaultLibrary(name, source)
	for _, apply := range opts {
		apply(lib)
	}
	lib.l = lib.l.With(zap.String("library", name))

	history, err := OpenHistory(ctx, store,
		HistorySource(name),
		HistoryLogger(lib.l),
		HistoryCacheSize(lib.cacheSize),
	)
	if err != nil {
		return nil, err
	}
	lib.history = history

	if err := lib.Rescan(ctx); err != nil {
		return nil, err
	}
	return lib, nil
}

// Rescan replaces the live state with a fresh scan of the source
func (lib *Library) Rescan(ctx context.Context) error {
	scanned, err := lib.source.Scan(ctx)
	if err != nil {
		return errors.New("cannot scan library").WrapMessage("%s: %v", lib.name, err)
	}
	tracks := make(map[string]*model.Track, len(scanned))
	for pth, t := range scanned {
		if t == nil {
			continue
		}
		if t.Path == "" {
			t.Path = pth
		}
		tracks[t.Path] = t
	}
	lib.tracks = tracks
	lib.l.Debug("library scanned", zap.Int("tracks", len(tracks)))
	return nil
}

// Name of the library
func (lib *Library) Name() string {
	return lib.name
}

// Source of the library
func (lib *Library) Source() Source {
	return lib.source
}

// History of the library
func (lib *Library) History() *History {
	return lib.history
}

// Tracks is the live state of the library, indexed by path. It may be mutated.
func (lib *Library) Tracks() map[string]*model.Track {
	return lib.tracks
}

// Status compares the live state with the latest commit.
//
// The returned flag is false when nothing has been committed yet.
func (lib *Library) Status(ctx context.Context) (LibraryDiff, bool, error) {
	return lib.history.DiffAgainstLatest(ctx, lib.tracks)
}

// PrintStatus renders the changes since the latest commit on the output of the library
func (lib *Library) PrintStatus(ctx context.Context) error {
	ld, _, err := lib.Status(ctx)
	if err != nil {
		return err
	}
	if err := lib.formatter.FormatTitle(lib.out, lib.name); err != nil {
		return err
	}
	return lib.formatter.FormatLibraryDiff(lib.out, ld)
}

// Commit stores the live state as a new commit, unless nothing changed since the latest one
func (lib *Library) Commit(ctx context.Context) (*CommitResult, error) {
	ld, hasPrior, err := lib.Status(ctx)
	if err != nil {
		return nil, err
	}
	if hasPrior && ld.IsEmpty() && !ld.HasTrackSetChanges() {
		lib.l.Info("no changes detected: commit skipped")
		latest, err := lib.history.Latest(ctx)
		if err != nil {
			return nil, err
		}
		return &CommitResult{Skipped: true, Snapshot: latest, Diff: ld}, nil
	}

	snapshot, err := lib.history.Append(ctx, model.NewSnapshot(lib.name, lib.now(), lib.tracks))
	if err != nil {
		return nil, err
	}
	return &CommitResult{Snapshot: snapshot, Diff: ld}, nil
}

// Write persists the live state through the source
func (lib *Library) Write(ctx context.Context) error {
	if err := lib.source.Write(ctx, lib.tracks); err != nil {
		return errors.New("cannot write library").WrapMessage("%s: %v", lib.name, err)
	}
	lib.l.Info("library written", zap.Int("tracks", len(lib.tracks)))
	return nil
}

func (lib *Library) scaffold(track *model.Track, d model.StructuralDiff) error {
	return scaffold(lib.source, track, d)
}
