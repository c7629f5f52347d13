// Copyright © 2018 One Concern

package storage

import (
	"context"
	"io"

	"github.com/violetcereza/djtag-sync/pkg/storage/status"
)

// MaxObjectSizeInMemory bounds the size of objects read with ReadAll
const MaxObjectSizeInMemory = 64 * 1024 * 1024

// PutMode tells Put whether an existing key may be replaced
type PutMode bool

const (
	// OverWrite replaces any existing object under the same key
	OverWrite PutMode = false

	// NoOverWrite fails with status.ErrExists when the key is already present
	NoOverWrite PutMode = true
)

// Store implementations know how to write entries to a K/V model.
//
// Typically this is something file system-like.
// Implementations of this interface are assumed to be fairly simple.
type Store interface {
	String() string
	Has(context.Context, string) (bool, error)
	Get(context.Context, string) (io.ReadCloser, error)
	Put(context.Context, string, io.Reader, PutMode) error
	Delete(context.Context, string) error
	Keys(context.Context) ([]string, error)
	KeysPrefix(context.Context, string) ([]string, error)
	Clear(context.Context) error
}

// ReadAll fetches a whole object into memory
func ReadAll(ctx context.Context, store Store, key string) ([]byte, error) {
	reader, err := store.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	defer reader.Close()

	object, err := io.ReadAll(io.LimitReader(reader, MaxObjectSizeInMemory+1))
	if err != nil {
		return nil, status.ErrStorageAPI.Wrap(err)
	}
	if len(object) > MaxObjectSizeInMemory {
		return nil, status.ErrObjectTooBig.WrapMessage("key %q", key)
	}
	return object, nil
}
