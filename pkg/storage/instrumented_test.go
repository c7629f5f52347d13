package storage_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/violetcereza/djtag-sync/pkg/errors"
	"github.com/violetcereza/djtag-sync/pkg/storage"
	"github.com/violetcereza/djtag-sync/pkg/storage/localfs"
	"github.com/violetcereza/djtag-sync/pkg/storage/status"
)

func TestInstrument(t *testing.T) {
	ctx := context.Background()
	core, logs := observer.New(zap.DebugLevel)
	store := storage.Instrument(zap.New(core), localfs.New(afero.NewMemMapFs()))

	require.NoError(t, store.Put(ctx, "commits/a.yaml", bytes.NewBufferString("a"), storage.NoOverWrite))
	err := store.Put(ctx, "commits/a.yaml", bytes.NewBufferString("b"), storage.NoOverWrite)
	assert.True(t, errors.Is(err, status.ErrExists))

	b, err := storage.ReadAll(ctx, store, "commits/a.yaml")
	require.NoError(t, err)
	assert.Equal(t, "a", string(b))

	keys, err := store.KeysPrefix(ctx, "commits/")
	require.NoError(t, err)
	assert.Equal(t, []string{"commits/a.yaml"}, keys)

	_, err = store.Get(ctx, "missing")
	assert.True(t, errors.Is(err, status.ErrNotFound))

	puts := logs.FilterMessage("storage put")
	require.Equal(t, 2, puts.Len())
	assert.Equal(t, 2, puts.FilterField(zap.String("key", "commits/a.yaml")).FilterField(zap.Bool("exclusive", true)).Len())
	assert.Equal(t, 2, logs.FilterMessage("storage get").Len())
	assert.Equal(t, 1, logs.FilterMessage("storage keys prefix").FilterField(zap.Int("count", 1)).Len())
	assert.Equal(t, store.String(), logs.All()[0].ContextMap()["store"])
}

func TestReadAllMissing(t *testing.T) {
	_, err := storage.ReadAll(context.Background(), localfs.New(afero.NewMemMapFs()), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, status.ErrNotFound))
}
