// Copyright © 2018 One Concern

// Package core implements the history and merge logic of djtag.
//
// A Library binds a tag source (files on disk, a media player database, ...) to the
// history of its commits. Merging replays onto one library the changes recorded by
// the commits of another one, since the last time they were merged.
package core
