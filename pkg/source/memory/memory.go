// Package memory implements an in-memory tag source
package memory

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/violetcereza/djtag-sync/pkg/model"
	"github.com/violetcereza/djtag-sync/pkg/source"
)

// Option is a functor to build an in-memory source with some options
type Option func(*Source)

// Root restricts writes to tracks under this folder
func Root(root string) Option {
	return func(s *Source) {
		s.root = root
	}
}

// Keep makes the source retain only these tags after changes are replayed onto a track
func Keep(keys ...string) Option {
	return func(s *Source) {
		s.keep = keys
	}
}

// Scaffold sets the hook run after changes are replayed onto a track
func Scaffold(fn func(*model.Track, model.StructuralDiff) error) Option {
	return func(s *Source) {
		s.scaffold = fn
	}
}

// Logger for the source
func Logger(l *zap.Logger) Option {
	return func(s *Source) {
		if l != nil {
			s.l = l
		}
	}
}

// Source keeps tracks in memory and records writes
type Source struct {
	mu       sync.Mutex
	tracks   map[string]*model.Track
	root     string
	keep     []string
	scaffold func(*model.Track, model.StructuralDiff) error
	writes   int
	l        *zap.Logger
}

// New in-memory source holding copies of some tracks
func New(tracks []*model.Track, opts ...Option) *Source {
	s := &Source{
		tracks: make(map[string]*model.Track, len(tracks)),
		l:      zap.NewNop(),
	}
	for _, apply := range opts {
		apply(s)
	}
	for _, t := range tracks {
		s.tracks[t.Path] = t.Clone()
	}
	return s
}

// Scan yields copies of the tracks
func (s *Source) Scan(_ context.Context) (map[string]*model.Track, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return model.CloneTracks(s.tracks), nil
}

// Write stores copies of the tracks under the root
func (s *Source) Write(ctx context.Context, tracks map[string]*model.Track) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for pth, t := range tracks {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.root != "" && !source.InRoot(s.root, pth) {
			s.l.Warn("skipping track outside of library root", zap.String("path", pth), zap.String("root", s.root))
			continue
		}
		s.tracks[pth] = t.Clone()
	}
	s.writes++
	return nil
}

// Scaffold retains the configured tags and normalizes genres, unless a custom hook is set
func (s *Source) Scaffold(track *model.Track, d model.StructuralDiff) error {
	if track == nil {
		return model.TrackIsRequired
	}
	if s.scaffold != nil {
		return s.scaffold(track, d)
	}
	if len(s.keep) > 0 {
		allowed := make(map[string]struct{}, len(s.keep))
		for _, k := range s.keep {
			allowed[k] = struct{}{}
		}
		for k := range track.Tags {
			if _, ok := allowed[k]; !ok {
				delete(track.Tags, k)
			}
		}
	}
	track.Tags = track.Tags.Normalize()
	return nil
}

// Set replaces a track, as if edited outside of djtag
func (s *Source) Set(track *model.Track) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracks[track.Path] = track.Clone()
}

// Get a copy of a track
func (s *Source) Get(path string) (*model.Track, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tracks[path]
	return t.Clone(), ok
}

// Writes counts the calls to Write
func (s *Source) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
