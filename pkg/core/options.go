package core

import (
	"io"
	"time"

	"go.uber.org/zap"
)

const (
	defaultCacheSize = 16
)

// HistoryOption is a functor to open a history with some options
type HistoryOption func(*History)

// HistorySource sets the name of the source a history belongs to
func HistorySource(name string) HistoryOption {
	return func(h *History) {
		h.source = name
	}
}

// HistoryLogger sets a logger for a history
func HistoryLogger(l *zap.Logger) HistoryOption {
	return func(h *History) {
		if l != nil {
			h.l = l
		}
	}
}

// HistoryCacheSize sets the number of loaded commits kept in memory. It defaults to defaultCacheSize
func HistoryCacheSize(size int) HistoryOption {
	return func(h *History) {
		if size <= 0 {
			h.cacheSize = defaultCacheSize
			return
		}
		h.cacheSize = size
	}
}

// LibraryOption is a functor to build a library with some options
type LibraryOption func(*Library)

// LibraryLogger sets a logger for a library and its history
func LibraryLogger(l *zap.Logger) LibraryOption {
	return func(lib *Library) {
		if l != nil {
			lib.l = l
		}
	}
}

// Clock sets the source of time used to date commits and merges
func Clock(now func() time.Time) LibraryOption {
	return func(lib *Library) {
		if now != nil {
			lib.now = now
		}
	}
}

// CacheSize sets the number of loaded commits kept in memory
func CacheSize(size int) LibraryOption {
	return func(lib *Library) {
		lib.cacheSize = size
	}
}

// CreateMissing tells a merge to create tracks found in the other library but not in this one.
//
// By default, only tracks known to both libraries are merged.
func CreateMissing(enabled bool) LibraryOption {
	return func(lib *Library) {
		lib.createMissing = enabled
	}
}

// Output sets the writer receiving human readable reports
func Output(w io.Writer) LibraryOption {
	return func(lib *Library) {
		if w != nil {
			lib.out = w
		}
	}
}

// Formatting sets how reports are rendered
func Formatting(f Formatter) LibraryOption {
	return func(lib *Library) {
		lib.formatter = f
	}
}
