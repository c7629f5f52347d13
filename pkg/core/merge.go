package core

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/violetcereza/djtag-sync/pkg/core/status"
	"github.com/violetcereza/djtag-sync/pkg/model"
)

// MergeResult describes the outcome of merging one library into another
type MergeResult struct {
	// NothingToMerge is true when the other library has no commit since the latest merge
	NothingToMerge bool

	// Commits is the number of commits replayed
	Commits int

	// Applied lists the tracks which received changes, sorted
	Applied []string

	// Skipped lists the tracks changed by the other library but unknown to this one, sorted
	Skipped []string

	// Failed lists the tracks which could not receive changes, sorted
	Failed []string

	// Written is true when the merged library has been written and committed
	Written bool

	// Commit is the commit stored after writing, if any
	Commit *model.Snapshot

	// Watermark is the time recorded as the latest merge
	Watermark time.Time
}

func (r *MergeResult) String() string {
	switch {
	case r.NothingToMerge:
		return "nothing to merge"
	case !r.Written:
		return fmt.Sprintf("no updates needed (%d commits replayed)", r.Commits)
	default:
		return fmt.Sprintf("%d tracks updated from %d commits (%d skipped, %d failed)",
			len(r.Applied), r.Commits, len(r.Skipped), len(r.Failed))
	}
}

func sortedKeys(set map[string]struct{}) []string {
	res := make([]string, 0, len(set))
	for k := range set {
		res = append(res, k)
	}
	sort.Strings(res)
	return res
}

// Merge replays onto a library the changes committed by another one since they were last merged.
//
// Only tracks known to both libraries receive changes, unless the target library
// was built with CreateMissing. Failing to update a track does not stop the merge.
// The merge time is always recorded, even when nothing changed.
func Merge(ctx context.Context, into, from *Library) (*MergeResult, error) {
	if into == nil || from == nil {
		return nil, status.ErrLibraryRequired
	}
	if into == from || into.name == from.name {
		return nil, status.ErrSameLibrary.WrapMessage("%s", into.name)
	}
	l := into.l.With(zap.String("from", from.name))
	now := into.now()
	result := &MergeResult{Watermark: now.UTC()}

	watermark, hasWatermark := into.history.Watermark(from.name)
	unmerged := from.history.Since(watermark)
	if len(unmerged) == 0 {
		l.Info("nothing to merge", zap.Time("watermark", watermark))
		result.NothingToMerge = true
		return result, into.history.SetWatermark(ctx, from.name, now)
	}

	baseline := model.EmptySnapshot(from.name)
	if hasWatermark {
		if ts, ok := from.history.Baseline(watermark); ok {
			snapshot, err := from.history.Load(ctx, ts)
			if err != nil {
				return nil, err
			}
			baseline = snapshot
		}
	}

	applied := make(map[string]struct{})
	skipped := make(map[string]struct{})
	failed := make(map[string]struct{})
	originals := make(map[string]trackBackup)

	previous := baseline
	for _, ts := range unmerged {
		current, err := from.history.Load(ctx, ts)
		if err != nil {
			return nil, err
		}
		ld, err := DiffSnapshots(previous, current)
		if err != nil {
			return nil, err
		}
		for _, pth := range ld.Paths() {
			if _, ko := failed[pth]; ko {
				continue
			}
			entry := ld.Entries[pth]
			if _, ok := originals[pth]; !ok {
				originals[pth] = into.backupTrack(pth)
			}
			switch err := into.applyEntry(entry); {
			case err == errTrackUnknown:
				skipped[pth] = struct{}{}
				l.Debug("skipping track unknown to this library", zap.String("path", pth))
			case err != nil:
				failed[pth] = struct{}{}
				delete(applied, pth)
				into.restoreTrack(pth, originals[pth])
				_ = status.ErrApplyTrack.WrapWithLog(l, err, zap.String("path", pth), zap.Time("commit", ts))
			default:
				applied[pth] = struct{}{}
			}
		}
		previous = current
		result.Commits++
	}
	result.Applied = sortedKeys(applied)
	result.Skipped = sortedKeys(skipped)
	result.Failed = sortedKeys(failed)

	ld, hasPrior, err := into.Status(ctx)
	if err != nil {
		return nil, err
	}
	if hasPrior && ld.IsEmpty() && !ld.HasTrackSetChanges() {
		l.Info("no updates needed", zap.Int("commits", result.Commits))
	} else {
		if err := into.Write(ctx); err != nil {
			return nil, err
		}
		committed, err := into.Commit(ctx)
		if err != nil {
			return nil, err
		}
		result.Written = true
		result.Commit = committed.Snapshot
		l.Info("merged", zap.Int("commits", result.Commits), zap.Int("tracks", len(result.Applied)))
	}

	return result, into.history.SetWatermark(ctx, from.name, now)
}

type mergeError string

func (e mergeError) Error() string { return string(e) }

const errTrackUnknown mergeError = "track unknown to this library"

// trackBackup holds the tags of a track before a merge touched it
type trackBackup struct {
	tags    model.Tags
	existed bool
}

func (lib *Library) backupTrack(pth string) trackBackup {
	track, ok := lib.tracks[pth]
	if !ok || track == nil {
		return trackBackup{}
	}
	return trackBackup{tags: track.Tags.Clone(), existed: true}
}

// restoreTrack brings a track back to its state before the merge
func (lib *Library) restoreTrack(pth string, b trackBackup) {
	if !b.existed {
		delete(lib.tracks, pth)
		return
	}
	if track, ok := lib.tracks[pth]; ok && track != nil {
		track.Tags = b.tags.Clone()
	}
}

// applyEntry replays the changes of a single track onto the live state.
//
// On failure, the track is restored as it was.
func (lib *Library) applyEntry(entry LibraryDiffEntry) error {
	track, ok := lib.tracks[entry.Path]
	created := false
	if !ok || track == nil {
		if !lib.createMissing {
			return errTrackUnknown
		}
		track = model.NewTrack(entry.Path, nil)
		created = true
	}

	backup := track.Tags.Clone()
	if err := track.Apply(entry.Diff); err != nil {
		track.Tags = backup
		return err
	}
	if err := lib.scaffold(track, entry.Diff); err != nil {
		track.Tags = backup
		return err
	}
	if created {
		lib.tracks[entry.Path] = track
	}
	return nil
}
