// Copyright © 2018 One Concern

// Package storage provides interface to handle backend storage objects.
//
// djtag keeps the history of every tag source in such a store: one object per commit,
// plus a small metadata object.
//
// This package supports the following backends:
//   - local file system (plain or atomic puts)
package storage
