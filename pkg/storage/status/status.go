// Copyright © 2018 One Concern

// Package status declares error constants returned by
// implementations of the Store interface.
//
// NOTE: such constants are located in a separate package to avoid
// creating undue cyclical dependencies between pkg/storage and one
// of its implementions.
package status

import "github.com/violetcereza/djtag-sync/pkg/errors"

var (
	// Sentinel errors returned by implementations of the interface defined by storage

	// ErrNotFound indicates that the requested key does not exist in the store
	ErrNotFound = errors.New("not found")

	// ErrExists indicates that the key already exists and cannot be overridden
	ErrExists = errors.New("exists already")

	// ErrInvalidKey indicates that the key is empty or collides with a reserved area of the store
	ErrInvalidKey = errors.New("invalid storage key")

	// ErrStorageAPI indicates any other storage error
	ErrStorageAPI = errors.New("storage error")

	// ErrObjectTooBig indicates that the object is too big to be read into memory
	ErrObjectTooBig = errors.New("object too big to be read into memory")
)
