package core

import (
	"sort"

	"github.com/violetcereza/djtag-sync/pkg/model"
)

// LibraryDiffEntry describes the changes of a single track between two states of a library
type LibraryDiffEntry struct {
	Path string
	Old  *model.Track
	New  *model.Track
	Diff model.StructuralDiff
}

// LibraryDiff describes all differences between two states of a library.
//
// Entries only ever hold tracks known to both states: whole tracks added
// or removed are reported separately and never merged.
type LibraryDiff struct {
	Entries      map[string]LibraryDiffEntry
	AddedPaths   []string
	RemovedPaths []string
}

// IsEmpty tells if no shared track has changed
func (ld LibraryDiff) IsEmpty() bool {
	return len(ld.Entries) == 0
}

// HasTrackSetChanges tells if tracks have appeared or disappeared
func (ld LibraryDiff) HasTrackSetChanges() bool {
	return len(ld.AddedPaths) > 0 || len(ld.RemovedPaths) > 0
}

// Len yields the number of changed tracks
func (ld LibraryDiff) Len() int {
	return len(ld.Entries)
}

// Paths of the changed tracks, sorted
func (ld LibraryDiff) Paths() []string {
	res := make([]string, 0, len(ld.Entries))
	for pth := range ld.Entries {
		res = append(res, pth)
	}
	sort.Strings(res)
	return res
}

// DiffSnapshots computes the differences between two snapshots
func DiffSnapshots(older, newer *model.Snapshot) (LibraryDiff, error) {
	if older == nil || newer == nil {
		return LibraryDiff{}, model.SnapshotIsRequired
	}
	return DiffTracks(older.Tracks(), newer.Tracks()), nil
}

// DiffTracks computes the differences between two mappings of tracks
func DiffTracks(older, newer map[string]*model.Track) LibraryDiff {
	ld := LibraryDiff{
		Entries: make(map[string]LibraryDiffEntry),
	}
	for pth, o := range older {
		n, ok := newer[pth]
		if !ok || n == nil {
			ld.RemovedPaths = append(ld.RemovedPaths, pth)
			continue
		}
		if o == nil {
			ld.AddedPaths = append(ld.AddedPaths, pth)
			continue
		}
		d := model.ComputeDiff(o.Tags, n.Tags)
		if d.IsEmpty() {
			continue
		}
		ld.Entries[pth] = LibraryDiffEntry{
			Path: pth,
			Old:  o,
			New:  n,
			Diff: d,
		}
	}
	for pth, n := range newer {
		if n == nil {
			continue
		}
		if _, ok := older[pth]; !ok {
			ld.AddedPaths = append(ld.AddedPaths, pth)
		}
	}
	sort.Strings(ld.AddedPaths)
	sort.Strings(ld.RemovedPaths)
	return ld
}
