// Package model describes the base objects manipulated by djtag.
//
// The object model for djtag is composed of:
//
//  Tracks:
//    A track is one music file, identified by its path, together with its tag document.
//    Every tag value is an ordered sequence of strings: a scalar is a one element sequence.
//
//  Structural diffs:
//    A structural diff is the list of key-level changes turning one tag document into another.
//    Diffs may be replayed onto a different document: this is how tags flow between sources.
//
//  Snapshots:
//    A snapshot is a point in time read-only view of all the tracks known to a source.
//    This is analogous to a commit in git.
//
//  Merge metadata:
//    For each counterpart source, the time up to which its commits have been merged.
package model
