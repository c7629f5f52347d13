package core

import (
	"context"

	"go.uber.org/zap"

	"github.com/violetcereza/djtag-sync/pkg/core/status"
	"github.com/violetcereza/djtag-sync/pkg/model"
)

// Overwrite replaces the tags of every track of dst with the tags of the same track in src,
// then writes and commits dst.
//
// Tracks only known to src are added to dst. The scaffold hook of dst still runs on every
// replaced track, so dst only retains the tags it supports.
func Overwrite(ctx context.Context, dst, src *Library) (*CommitResult, error) {
	if dst == nil || src == nil {
		return nil, status.ErrLibraryRequired
	}
	if dst == src || dst.name == src.name {
		return nil, status.ErrSameLibrary.WrapMessage("%s", dst.name)
	}
	l := dst.l.With(zap.String("from", src.name))

	replaced := 0
	for _, track := range model.SortedTracks(src.tracks) {
		replacement := track.Clone()
		if err := dst.scaffold(replacement, model.StructuralDiff{}); err != nil {
			_ = status.ErrApplyTrack.WrapWithLog(l, err, zap.String("path", track.Path))
			continue
		}
		dst.tracks[track.Path] = replacement
		replaced++
	}
	l.Info("tracks overwritten", zap.Int("tracks", replaced))

	if err := dst.Write(ctx); err != nil {
		return nil, err
	}
	return dst.Commit(ctx)
}
