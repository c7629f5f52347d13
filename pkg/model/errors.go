package model

type errorString string

func (e errorString) Error() string {
	return string(e)
}

const (
	// TrackIsRequired error whenever a track is expected but not provided
	TrackIsRequired errorString = "track is required"

	// SnapshotIsRequired error whenever a snapshot is expected but not provided
	SnapshotIsRequired errorString = "snapshot is required"

	// PathIsRequired error whenever a track is created without a path
	PathIsRequired errorString = "track path is required"

	// UnknownChangeKind is returned when replaying a change of some unsupported kind
	UnknownChangeKind errorString = "unknown change kind"

	// InvalidCommitKey is returned when a storage key does not designate a commit
	InvalidCommitKey errorString = "invalid commit key"

	// UnsupportedSnapshotVersion is returned when reading a commit written by a newer version of djtag
	UnsupportedSnapshotVersion errorString = "unsupported snapshot version"
)
