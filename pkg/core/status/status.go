// Package status exports errors produced by the core package.
package status

import (
	"github.com/violetcereza/djtag-sync/pkg/errors"
)

var (
	// ErrEmptyLog indicates that a history holds no commit yet
	ErrEmptyLog = errors.New("no commit in history")

	// ErrCommitNotFound indicates that no commit exists at the requested timestamp
	ErrCommitNotFound = errors.New("commit not found")

	// ErrHistoryLocked indicates that another process currently holds the lock on a history
	ErrHistoryLocked = errors.New("history is locked by another process")

	// ErrLibraryRoot indicates that the root folder of a library does not exist or is not a folder
	ErrLibraryRoot = errors.New("invalid library root")

	// ErrMalformedWatermark indicates that the merge metadata holds an unparseable timestamp
	ErrMalformedWatermark = errors.New("malformed merge watermark")

	// ErrApplyTrack indicates that a diff could not be replayed onto a track
	ErrApplyTrack = errors.New("cannot apply changes to track")

	// ErrUnknownSource indicates that a source name is not supported
	ErrUnknownSource = errors.New("unknown source")

	// ErrSameLibrary indicates an attempt to merge or overwrite a library with itself
	ErrSameLibrary = errors.New("cannot combine a library with itself")

	// ErrLibraryRequired indicates that a library is expected but not provided
	ErrLibraryRequired = errors.New("library is required")
)
