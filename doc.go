/*
Package djtag provides CLI tooling to keep the tags of DJ music libraries in sync.

The primary goal of djtag is to let the same music collection be tagged from several tools
(the ID3 tags embedded in the music files, a Swinsian library) and to reconcile the edits made in each of them.

Every library keeps its own history of commits. Merging a library into another one replays
the changes committed by the first since they were last merged, track by track.
*/
package djtag
