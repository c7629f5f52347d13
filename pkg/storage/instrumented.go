// Copyright © 2018 One Concern

package storage

import (
	"context"
	"io"
	"time"

	"go.uber.org/zap"
)

// Instrument decorates a store so that every call is traced at debug level
func Instrument(l *zap.Logger, store Store) Store {
	if l == nil {
		l = zap.NewNop()
	}
	return &instrumentedStore{
		store: store,
		l:     l.With(zap.String("store", store.String())),
	}
}

type instrumentedStore struct {
	store Store
	l     *zap.Logger
}

func (i *instrumentedStore) trace(op string, start time.Time, err error, fields ...zap.Field) {
	fields = append(fields, zap.String("op", op), zap.Duration("duration", time.Since(start)))
	if err != nil {
		fields = append(fields, zap.Error(err))
	}
	i.l.Debug("storage "+op, fields...)
}

func (i *instrumentedStore) Has(ctx context.Context, key string) (has bool, err error) {
	defer func(start time.Time) { i.trace("has", start, err, zap.String("key", key)) }(time.Now())
	return i.store.Has(ctx, key)
}

func (i *instrumentedStore) Get(ctx context.Context, key string) (rdr io.ReadCloser, err error) {
	defer func(start time.Time) { i.trace("get", start, err, zap.String("key", key)) }(time.Now())
	return i.store.Get(ctx, key)
}

func (i *instrumentedStore) Put(ctx context.Context, key string, rdr io.Reader, mode PutMode) (err error) {
	defer func(start time.Time) {
		i.trace("put", start, err, zap.String("key", key), zap.Bool("exclusive", bool(mode)))
	}(time.Now())
	return i.store.Put(ctx, key, rdr, mode)
}

func (i *instrumentedStore) Delete(ctx context.Context, key string) (err error) {
	defer func(start time.Time) { i.trace("delete", start, err, zap.String("key", key)) }(time.Now())
	return i.store.Delete(ctx, key)
}

func (i *instrumentedStore) Keys(ctx context.Context) (keys []string, err error) {
	defer func(start time.Time) { i.trace("keys", start, err, zap.Int("count", len(keys))) }(time.Now())
	return i.store.Keys(ctx)
}

func (i *instrumentedStore) KeysPrefix(ctx context.Context, prefix string) (keys []string, err error) {
	defer func(start time.Time) {
		i.trace("keys prefix", start, err, zap.String("prefix", prefix), zap.Int("count", len(keys)))
	}(time.Now())
	return i.store.KeysPrefix(ctx, prefix)
}

func (i *instrumentedStore) Clear(ctx context.Context) (err error) {
	defer func(start time.Time) { i.trace("clear", start, err) }(time.Now())
	return i.store.Clear(ctx)
}

func (i *instrumentedStore) String() string {
	return i.store.String()
}
