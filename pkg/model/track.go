package model

import (
	"path/filepath"
	"sort"
)

// Track is a music file and its tag document
type Track struct {
	Path string
	Tags Tags
}

// NewTrack builds a track with a copy of the given tags, with genres normalized
func NewTrack(path string, tags Tags) *Track {
	if tags == nil {
		tags = Tags{}
	}
	return &Track{
		Path: path,
		Tags: tags.Normalize(),
	}
}

// Clone performs a deep copy of the track
func (t *Track) Clone() *Track {
	if t == nil {
		return nil
	}
	return &Track{Path: t.Path, Tags: t.Tags.Clone()}
}

// Equal tells if two tracks share the same path and the same tags
func (t *Track) Equal(other *Track) bool {
	if t == nil || other == nil {
		return t == other
	}
	return t.Path == other.Path && t.Tags.Equal(other.Tags)
}

// Label is a human readable name for the track: "artist – title",
// or the base name of the file when either is unknown.
func (t *Track) Label() string {
	artist, title := t.Tags.First("artist"), t.Tags.First("title")
	if artist != "" && title != "" {
		return artist + " – " + title
	}
	return filepath.Base(t.Path)
}

// Diff yields the changes turning the tags of this track into the tags of the other one
func (t *Track) Diff(other *Track) (StructuralDiff, error) {
	if t == nil || other == nil {
		return StructuralDiff{}, TrackIsRequired
	}
	return ComputeDiff(t.Tags, other.Tags), nil
}

// Apply replays a diff onto the tags of this track.
//
// The track is left untouched when the diff cannot be applied.
func (t *Track) Apply(d StructuralDiff) error {
	if t == nil {
		return TrackIsRequired
	}
	if d.IsEmpty() {
		return nil
	}
	tags, err := d.Apply(t.Tags)
	if err != nil {
		return err
	}
	t.Tags = tags
	return nil
}

// Tracks is a collection of tracks, sortable by path
type Tracks []*Track

func (tr Tracks) Len() int           { return len(tr) }
func (tr Tracks) Less(i, j int) bool { return tr[i].Path < tr[j].Path }
func (tr Tracks) Swap(i, j int)      { tr[i], tr[j] = tr[j], tr[i] }

// SortedTracks lists the tracks of a mapping, sorted by path
func SortedTracks(tracks map[string]*Track) Tracks {
	res := make(Tracks, 0, len(tracks))
	for _, t := range tracks {
		res = append(res, t)
	}
	sort.Sort(res)
	return res
}

// CloneTracks performs a deep copy of a mapping of tracks
func CloneTracks(tracks map[string]*Track) map[string]*Track {
	res := make(map[string]*Track, len(tracks))
	for k, t := range tracks {
		res[k] = t.Clone()
	}
	return res
}
