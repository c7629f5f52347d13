// Package source groups the tag sources djtag knows how to synchronize.
//
//   - id3: tags embedded in the music files of a folder
//   - swinsian: the library database of the Swinsian media player, where playlists act as genres
//   - memory: an in-memory source, for tests and fixtures
package source
