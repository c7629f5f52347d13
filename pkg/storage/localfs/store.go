// Copyright © 2018 One Concern

package localfs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/afero"
	"github.com/violetcereza/djtag-sync/pkg/storage"
	"github.com/violetcereza/djtag-sync/pkg/storage/status"
)

// New creates a new local file system backed storage model
func New(fs afero.Fs) storage.Store {
	if fs == nil {
		fs = afero.NewBasePathFs(afero.NewOsFs(), ".djtag")
	}
	return &localFS{
		fs: fs,
	}
}

type localFS struct {
	fs afero.Fs
}

func toPath(key string) string {
	return filepath.FromSlash(key)
}

func toKey(pth string) string {
	return filepath.ToSlash(pth)
}

func (l *localFS) Has(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, status.ErrInvalidKey
	}
	fi, err := l.fs.Stat(toPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, status.ErrStorageAPI.Wrap(err)
	}

	return !fi.IsDir(), nil
}

func (l *localFS) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	has, err := l.Has(ctx, key)
	if err != nil {
		return nil, err
	}
	if !has {
		return nil, status.ErrNotFound.WrapMessage("key %q", key)
	}
	t, err := l.fs.Open(toPath(key))
	if err != nil {
		return nil, status.ErrStorageAPI.Wrap(err)
	}
	return t, nil
}

func (l *localFS) Put(ctx context.Context, key string, source io.Reader, mode storage.PutMode) error {
	if key == "" {
		return status.ErrInvalidKey
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	pth := toPath(key)
	if dir := filepath.Dir(pth); dir != "" && dir != "." {
		if err := l.fs.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("ensuring directories for %q: %v", key, err)
		}
	}
	flag := os.O_CREATE | os.O_WRONLY | os.O_SYNC
	if mode == storage.NoOverWrite {
		flag |= os.O_EXCL
	} else {
		flag |= os.O_TRUNC
	}
	target, err := l.fs.OpenFile(pth, flag, 0600)
	if err != nil {
		if os.IsExist(err) {
			return status.ErrExists.WrapMessage("key %q", key)
		}
		return fmt.Errorf("create record for %q: %v", key, err)
	}

	// If reader implements WriterTo use it.
	if wt, ok := source.(io.WriterTo); ok {
		_, err = wt.WriteTo(target)
	} else {
		_, err = io.Copy(target, source)
	}
	if err != nil {
		_ = target.Close()
		return fmt.Errorf("write record for %q: %v", key, err)
	}

	return target.Close()
}

func (l *localFS) Delete(ctx context.Context, key string) error {
	if err := l.fs.Remove(toPath(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing %q: %v", key, err)
	}
	return nil
}

func (l *localFS) Keys(ctx context.Context) ([]string, error) {
	const root = "."
	var res []string
	if _, err := l.fs.Stat(root); os.IsNotExist(err) {
		return res, nil
	}
	e := afero.Walk(l.fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path == root || info.IsDir() {
			return nil
		}
		res = append(res, toKey(path))
		return nil
	})
	if e != nil {
		return nil, status.ErrStorageAPI.Wrap(e)
	}
	sort.Strings(res)
	return res, nil
}

func (l *localFS) KeysPrefix(ctx context.Context, prefix string) ([]string, error) {
	keys, err := l.Keys(ctx)
	if err != nil {
		return nil, err
	}
	res := keys[:0]
	for _, key := range keys {
		if strings.HasPrefix(key, prefix) {
			res = append(res, key)
		}
	}
	return res, nil
}

func (l *localFS) Clear(ctx context.Context) error {
	keys, err := l.Keys(ctx)
	if err != nil {
		return err
	}
	for _, key := range keys {
		if err := l.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

func (l *localFS) String() string {
	return describe("localfs", l.fs)
}

func describe(name string, fs afero.Fs) string {
	switch fs := fs.(type) {
	case *afero.BasePathFs:
		pp, err := fs.RealPath("")
		if err != nil {
			return name
		}
		return name + "@" + pp
	default:
		return name
	}
}

/* thread-safe local storage implementation.
 * use a decorator pattern to implement atomic Put()s via atomicity of afero.Fs.Rename()
 * for those filesystems where Rename() is thread-safe:  files are placed in a staging area,
 * then Rename()d into place.
 */

/* staging area key prefix and helper functions */
const (
	nestedPutStageName = ".put-stage"
)

func maybeInvalidKey(key string) error {
	pathComponents := strings.Split(strings.TrimLeft(key, "/"), "/")
	if len(pathComponents) == 0 {
		return nil
	}
	if pathComponents[0] == nestedPutStageName {
		return status.ErrInvalidKey.WrapMessage("key %q conflicts with put staging area name %q", key, nestedPutStageName)
	}
	return nil
}

func filterInvalidKeys(ks []string) []string {
	/* https://github.com/golang/go/wiki/SliceTricks#filtering-without-allocating */
	ksFiltered := ks[:0]
	for _, key := range ks {
		if err := maybeInvalidKey(key); err == nil {
			ksFiltered = append(ksFiltered, key)
		}
	}
	for i := len(ksFiltered); i < len(ks); i++ {
		ks[i] = ""
	}
	return ksFiltered
}

// NewAtomic creates a local file system store where puts are staged then renamed into place
func NewAtomic(fs afero.Fs) (storage.Store, error) {
	if fs == nil {
		fs = afero.NewBasePathFs(afero.NewOsFs(), ".djtag")
	}
	/* the staging area exists within the afero.Fs itself */
	if err := fs.MkdirAll(nestedPutStageName, 0700); err != nil {
		return nil, fmt.Errorf("ensuring put staging directory for %q: %v", nestedPutStageName, err)
	}
	return &localFSAtomic{
		storeImpl: localFS{fs: fs},
	}, nil
}

type localFSAtomic struct {
	storeImpl localFS
}

/* implementing the Store interface is mostly a matter of wrapping the decorated localFs's
 * interface with helper functions.
 */

func (l *localFSAtomic) Has(ctx context.Context, key string) (bool, error) {
	if err := maybeInvalidKey(key); err != nil {
		return false, err
	}
	return l.storeImpl.Has(ctx, key)
}

func (l *localFSAtomic) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if err := maybeInvalidKey(key); err != nil {
		return nil, err
	}
	return l.storeImpl.Get(ctx, key)
}

func (l *localFSAtomic) Delete(ctx context.Context, key string) error {
	if err := maybeInvalidKey(key); err != nil {
		return err
	}
	return l.storeImpl.Delete(ctx, key)
}

func (l *localFSAtomic) Keys(ctx context.Context) ([]string, error) {
	ks, err := l.storeImpl.Keys(ctx)
	if err != nil {
		return ks, err
	}
	return filterInvalidKeys(ks), nil
}

func (l *localFSAtomic) KeysPrefix(ctx context.Context, prefix string) ([]string, error) {
	ks, err := l.storeImpl.KeysPrefix(ctx, prefix)
	if err != nil {
		return ks, err
	}
	return filterInvalidKeys(ks), nil
}

func (l *localFSAtomic) Clear(ctx context.Context) error {
	ks, err := l.Keys(ctx)
	if err != nil {
		return err
	}
	for _, key := range ks {
		if err := l.storeImpl.Delete(ctx, key); err != nil {
			return err
		}
	}
	return nil
}

/* the Put() implementation is the only part of the Store interface implemented
 * outside of the functional wrap design pattern
 */
func (l *localFSAtomic) Put(ctx context.Context, key string, source io.Reader, mode storage.PutMode) error {
	if err := maybeInvalidKey(key); err != nil {
		return err
	}
	if mode == storage.NoOverWrite {
		has, err := l.storeImpl.Has(ctx, key)
		if err != nil {
			return err
		}
		if has {
			return status.ErrExists.WrapMessage("key %q", key)
		}
	}
	putStageKey := nestedPutStageName + "/" + key
	if err := l.storeImpl.Put(ctx, putStageKey, source, storage.OverWrite); err != nil {
		return err
	}
	/* Rename() doesn't create directories automatically */
	if dir := filepath.Dir(toPath(key)); dir != "" && dir != "." {
		if err := l.storeImpl.fs.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("ensuring directories for %q: %v", key, err)
		}
	}
	return l.storeImpl.fs.Rename(toPath(putStageKey), toPath(key))
}

func (l *localFSAtomic) String() string {
	return describe("localfs-atomic", l.storeImpl.fs)
}
