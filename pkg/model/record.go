package model

import (
	"fmt"
	"time"

	iradix "github.com/hashicorp/go-immutable-radix"
	"gopkg.in/yaml.v2"
)

const (
	// CurrentSnapshotVersion is the version of the commit records written by djtag
	CurrentSnapshotVersion = 1
)

// SnapshotDescriptor is the persisted form of a snapshot
type SnapshotDescriptor struct {
	Version   uint64            `json:"version" yaml:"version"`
	ID        string            `json:"id" yaml:"id"`
	Source    string            `json:"source" yaml:"source"`
	Timestamp string            `json:"timestamp" yaml:"timestamp"`
	Tracks    []TrackDescriptor `json:"tracks" yaml:"tracks"`
	_         struct{}
}

// TrackDescriptor is the persisted form of a track
type TrackDescriptor struct {
	Path string              `json:"path" yaml:"path"`
	Tags map[string][]string `json:"tags,omitempty" yaml:"tags,omitempty"`
	_    struct{}
}

// Descriptor yields the persisted form of the snapshot
func (s *Snapshot) Descriptor() SnapshotDescriptor {
	d := SnapshotDescriptor{
		Version:   CurrentSnapshotVersion,
		ID:        s.id,
		Source:    s.source,
		Timestamp: s.timestamp.Format(time.RFC3339Nano),
		Tracks:    make([]TrackDescriptor, 0, s.Len()),
	}
	s.Walk(func(t *Track) bool {
		d.Tracks = append(d.Tracks, TrackDescriptor{Path: t.Path, Tags: t.Tags})
		return true
	})
	return d
}

// MarshalSnapshot serializes a snapshot as yaml
func MarshalSnapshot(s *Snapshot) ([]byte, error) {
	if s == nil {
		return nil, SnapshotIsRequired
	}
	return yaml.Marshal(s.Descriptor())
}

// UnmarshalSnapshot rebuilds a snapshot from its yaml record
func UnmarshalSnapshot(b []byte) (*Snapshot, error) {
	var d SnapshotDescriptor
	if err := yaml.Unmarshal(b, &d); err != nil {
		return nil, err
	}
	return d.Snapshot()
}

// Snapshot rebuilds a snapshot from its persisted form
func (d SnapshotDescriptor) Snapshot() (*Snapshot, error) {
	if d.Version > CurrentSnapshotVersion {
		return nil, fmt.Errorf("%w: %d", UnsupportedSnapshotVersion, d.Version)
	}
	ts, err := time.Parse(time.RFC3339Nano, d.Timestamp)
	if err != nil {
		return nil, fmt.Errorf("invalid timestamp in snapshot %q: %v", d.ID, err)
	}

	txn := iradix.New().Txn()
	for _, td := range d.Tracks {
		if td.Path == "" {
			return nil, PathIsRequired
		}
		tags := Tags(td.Tags)
		if tags == nil {
			tags = Tags{}
		}
		txn.Insert([]byte(td.Path), &Track{Path: td.Path, Tags: tags.Clone()})
	}

	id := d.ID
	if id == "" {
		id = NewSnapshotID(ts)
	}
	return &Snapshot{
		id:        id,
		source:    d.Source,
		timestamp: ts.UTC(),
		tree:      txn.Commit(),
	}, nil
}
