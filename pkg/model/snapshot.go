package model

import (
	"time"

	iradix "github.com/hashicorp/go-immutable-radix"
	"github.com/segmentio/ksuid"
)

// Snapshot is a point in time, read-only view of the tracks of a source.
//
// The tracks held by a snapshot are copies: mutating the tracks of a
// library never alters its history, and tracks read from a snapshot
// are copies as well.
type Snapshot struct {
	id        string
	source    string
	timestamp time.Time
	tree      *iradix.Tree
}

// NewSnapshot builds a snapshot from deep copies of the given tracks.
//
// Tracks are indexed by their path.
func NewSnapshot(source string, timestamp time.Time, tracks map[string]*Track) *Snapshot {
	txn := iradix.New().Txn()
	for _, t := range tracks {
		if t == nil {
			continue
		}
		txn.Insert([]byte(t.Path), t.Clone())
	}
	ts := timestamp.UTC()
	return &Snapshot{
		id:        NewSnapshotID(ts),
		source:    source,
		timestamp: ts,
		tree:      txn.Commit(),
	}
}

// EmptySnapshot is the snapshot of a source which has no history yet
func EmptySnapshot(source string) *Snapshot {
	return &Snapshot{
		source: source,
		tree:   iradix.New(),
	}
}

// NewSnapshotID derives a k-sortable unique ID from the commit time
func NewSnapshotID(ts time.Time) string {
	id, err := ksuid.NewRandomWithTime(ts)
	if err != nil {
		return ksuid.New().String()
	}
	return id.String()
}

// ID of the commit
func (s *Snapshot) ID() string { return s.id }

// Source name
func (s *Snapshot) Source() string { return s.source }

// Timestamp of the commit
func (s *Snapshot) Timestamp() time.Time { return s.timestamp }

// IsZero tells if this snapshot stands for the absence of any commit
func (s *Snapshot) IsZero() bool { return s.timestamp.IsZero() }

// Len yields the number of tracks
func (s *Snapshot) Len() int { return s.tree.Len() }

// Has tells if a track is known at this path
func (s *Snapshot) Has(path string) bool {
	_, ok := s.tree.Get([]byte(path))
	return ok
}

// Get a copy of the track at this path
func (s *Snapshot) Get(path string) (*Track, bool) {
	v, ok := s.tree.Get([]byte(path))
	if !ok {
		return nil, false
	}
	return v.(*Track).Clone(), true
}

// Walk iterates over copies of the tracks, sorted by path, until fn returns false
func (s *Snapshot) Walk(fn func(*Track) bool) {
	s.tree.Root().Walk(func(_ []byte, v interface{}) bool {
		return !fn(v.(*Track).Clone())
	})
}

// Paths of all tracks, sorted
func (s *Snapshot) Paths() []string {
	res := make([]string, 0, s.tree.Len())
	s.tree.Root().Walk(func(k []byte, _ interface{}) bool {
		res = append(res, string(k))
		return false
	})
	return res
}

// Tracks yields copies of all the tracks, indexed by path
func (s *Snapshot) Tracks() map[string]*Track {
	res := make(map[string]*Track, s.tree.Len())
	s.Walk(func(t *Track) bool {
		res[t.Path] = t
		return true
	})
	return res
}
