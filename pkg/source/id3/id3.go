// Package id3 reads and writes the ID3v2 tags of the music files in a folder
package id3

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bogem/id3v2/v2"
	"github.com/karrick/godirwalk"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/violetcereza/djtag-sync/pkg/core"
	"github.com/violetcereza/djtag-sync/pkg/model"
	"github.com/violetcereza/djtag-sync/pkg/source"
)

const (
	defaultConcurrency = 8

	multiValueSeparator = "\x00"
	genreSeparator      = ", "
)

// Extensions of the files recognized as music
var Extensions = []string{".mp3", ".flac", ".wav", ".m4a", ".ogg", ".aac"}

// SupportedKeys are the tags persisted as ID3v2 text frames
var SupportedKeys = []string{
	"title", "artist", "album", "albumartist", model.GenreKey,
	"date", "tracknumber", "discnumber", "bpm", "composer",
}

var frameIDs = map[string]string{
	"title":       "TIT2",
	"artist":      "TPE1",
	"album":       "TALB",
	"albumartist": "TPE2",
	"genre":       "TCON",
	"tracknumber": "TRCK",
	"discnumber":  "TPOS",
	"bpm":         "TBPM",
	"composer":    "TCOM",
}

// Option is a functor to build an ID3 source with some options
type Option func(*Source)

// Logger for the source
func Logger(l *zap.Logger) Option {
	return func(s *Source) {
		if l != nil {
			s.l = l
		}
	}
}

// Concurrency sets how many files are read in parallel while scanning
func Concurrency(n int) Option {
	return func(s *Source) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// Source of tags stored in the music files under a root folder
type Source struct {
	root        string
	concurrency int
	l           *zap.Logger
}

var _ core.Source = &Source{}
var _ core.Scaffolder = &Source{}

// New ID3 source for the music files under root
func New(root string, opts ...Option) (*Source, error) {
	abs, err := source.CheckRoot(root)
	if err != nil {
		return nil, err
	}
	s := &Source{
		root:        abs,
		concurrency: defaultConcurrency,
		l:           zap.NewNop(),
	}
	for _, apply := range opts {
		apply(s)
	}
	return s, nil
}

// Root folder of the library
func (s *Source) Root() string {
	return s.root
}

// IsMusicFile tells if a file name has a recognized music extension
func IsMusicFile(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range Extensions {
		if ext == e {
			return true
		}
	}
	return false
}

func (s *Source) walk() ([]string, error) {
	var files []string
	err := godirwalk.Walk(s.root, &godirwalk.Options{
		Callback: func(osPathname string, de *godirwalk.Dirent) error {
			if de.IsDir() {
				if de.Name() == model.GetHistoryFolder() {
					return godirwalk.SkipThis
				}
				return nil
			}
			if IsMusicFile(osPathname) {
				files = append(files, osPathname)
			}
			return nil
		},
		ErrorCallback: func(osPathname string, err error) godirwalk.ErrorAction {
			s.l.Warn("cannot walk music folder", zap.String("path", osPathname), zap.Error(err))
			return godirwalk.SkipNode
		},
	})
	return files, err
}

// Scan walks the root folder and reads the tags of every music file.
//
// Files without a tag yield tracks without tags. Files which cannot be read are logged and skipped.
func (s *Source) Scan(ctx context.Context) (map[string]*model.Track, error) {
	files, err := s.walk()
	if err != nil {
		return nil, err
	}
	s.l.Info("scanning music folder", zap.String("root", s.root), zap.Int("files", len(files)))

	var mu sync.Mutex
	tracks := make(map[string]*model.Track, len(files))

	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(s.concurrency)
	for _, pth := range files {
		pth := pth
		if gctx.Err() != nil {
			break
		}
		group.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			tags, err := readTags(pth)
			if err != nil {
				s.l.Warn("cannot read tags", zap.String("path", pth), zap.Error(err))
				return nil
			}
			mu.Lock()
			tracks[pth] = model.NewTrack(pth, tags)
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return tracks, nil
}

func frameID(tag *id3v2.Tag, key string) string {
	if key == "date" {
		if tag.Version() == 4 {
			return "TDRC"
		}
		return "TYER"
	}
	return frameIDs[key]
}

func splitText(text string) []string {
	var values []string
	for _, v := range strings.Split(text, multiValueSeparator) {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}

func readTags(pth string) (model.Tags, error) {
	tag, err := id3v2.Open(pth, id3v2.Options{Parse: true})
	if err != nil {
		return nil, err
	}
	defer tag.Close()

	tags := make(model.Tags)
	for _, key := range SupportedKeys {
		id := frameID(tag, key)
		values := splitText(tag.GetTextFrame(id).Text)
		if len(values) == 0 && key == "date" {
			// fall back to TDRC on v2.3 tags written by v2.4 tools
			values = splitText(tag.GetTextFrame("TDRC").Text)
		}
		if len(values) > 0 {
			tags[key] = values
		}
	}
	return tags, nil
}

func frameText(key string, values []string) string {
	if key == model.GenreKey {
		return strings.Join(model.NormalizeGenre(values), genreSeparator)
	}
	return strings.Join(values, multiValueSeparator)
}

// Write persists the supported tags of each track into its file.
//
// Frames are only rewritten when they differ. Missing files and files outside of the root are logged and skipped.
func (s *Source) Write(ctx context.Context, tracks map[string]*model.Track) error {
	var written int
	for _, track := range model.SortedTracks(tracks) {
		if err := ctx.Err(); err != nil {
			return err
		}
		pth := track.Path
		if !source.InRoot(s.root, pth) {
			s.l.Warn("skipping track outside of library root", zap.String("path", pth), zap.String("root", s.root))
			continue
		}
		fi, err := os.Stat(pth)
		if err != nil || !fi.Mode().IsRegular() {
			s.l.Warn("file does not exist", zap.String("path", pth))
			continue
		}
		changed, err := writeTags(pth, track.Tags)
		if err != nil {
			s.l.Warn("cannot write tags", zap.String("path", pth), zap.Error(err))
			continue
		}
		if changed {
			written++
			s.l.Debug("updated tags", zap.String("path", pth))
		}
	}
	s.l.Info("wrote tags", zap.String("root", s.root), zap.Int("updated", written))
	return nil
}

func writeTags(pth string, tags model.Tags) (bool, error) {
	tag, err := id3v2.Open(pth, id3v2.Options{Parse: true})
	if err != nil {
		return false, err
	}
	defer tag.Close()

	var changed bool
	for _, key := range SupportedKeys {
		id := frameID(tag, key)
		want := frameText(key, tags[key])
		has := len(tag.GetFrames(id)) > 0
		switch {
		case want == "" && has:
			tag.DeleteFrames(id)
			changed = true
		case want != "" && (!has || tag.GetTextFrame(id).Text != want):
			tag.AddTextFrame(id, tag.DefaultEncoding(), want)
			changed = true
		}
	}
	if !changed {
		return false, nil
	}
	return true, tag.Save()
}

// Scaffold retains only the tags which ID3 frames can hold
func (s *Source) Scaffold(track *model.Track, _ model.StructuralDiff) error {
	return core.KeepOnly(track, SupportedKeys...)
}
