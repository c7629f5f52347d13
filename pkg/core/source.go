package core

import (
	"context"

	"github.com/violetcereza/djtag-sync/pkg/model"
)

// Source knows how to enumerate and persist the tags of some tag medium
type Source interface {
	// Scan enumerates the current state of all tracks, indexed by path
	Scan(context.Context) (map[string]*model.Track, error)

	// Write persists tracks back to the medium. Tracks outside of the library root are skipped.
	Write(context.Context, map[string]*model.Track) error
}

// Scaffolder is implemented by sources which need to post-process a track after changes have been
// replayed onto it, e.g. to retain only the tags they can persist
type Scaffolder interface {
	Scaffold(*model.Track, model.StructuralDiff) error
}

// DefaultScaffold normalizes genres
func DefaultScaffold(track *model.Track, _ model.StructuralDiff) error {
	if track == nil {
		return model.TrackIsRequired
	}
	track.Tags = track.Tags.Normalize()
	return nil
}

// KeepOnly retains only the given keys in the tags of a track, then normalizes genres
func KeepOnly(track *model.Track, keys ...string) error {
	if track == nil {
		return model.TrackIsRequired
	}
	allowed := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		allowed[k] = struct{}{}
	}
	for k := range track.Tags {
		if _, ok := allowed[k]; !ok {
			delete(track.Tags, k)
		}
	}
	return DefaultScaffold(track, model.StructuralDiff{})
}

func scaffold(source Source, track *model.Track, d model.StructuralDiff) error {
	if s, ok := source.(Scaffolder); ok {
		return s.Scaffold(track, d)
	}
	return DefaultScaffold(track, d)
}
