package cmd

import (
	"context"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/violetcereza/djtag-sync/pkg/core"
	"github.com/violetcereza/djtag-sync/pkg/core/status"
	"github.com/violetcereza/djtag-sync/pkg/dlogger"
	"github.com/violetcereza/djtag-sync/pkg/model"
	"github.com/violetcereza/djtag-sync/pkg/source/id3"
	"github.com/violetcereza/djtag-sync/pkg/source/swinsian"
	"github.com/violetcereza/djtag-sync/pkg/storage"
	"github.com/violetcereza/djtag-sync/pkg/storage/localfs"
)

const (
	id3Source      = "id3"
	swinsianSource = "swinsian"
)

var (
	allSources = []string{swinsianSource, id3Source}

	libraryNames = map[string]string{
		id3Source:      "ID3Library",
		swinsianSource: "SwinsianLibrary",
	}
)

// parseSources validates source names. No name at all stands for every known source.
func parseSources(args []string) ([]string, error) {
	if len(args) == 0 {
		return allSources, nil
	}
	seen := make(map[string]struct{}, len(args))
	res := make([]string, 0, len(args))
	for _, arg := range args {
		if _, ok := libraryNames[arg]; !ok {
			return nil, status.ErrUnknownSource.WrapMessage("%q (expected one of %v)", arg, allSources)
		}
		if _, ok := seen[arg]; ok {
			continue
		}
		seen[arg] = struct{}{}
		res = append(res, arg)
	}
	return res, nil
}

// cliOptionInputs builds the libraries of a command from the CLI flags
type cliOptionInputs struct {
	config *CLIConfig
	flags  *flagsT
	out    io.Writer
	l      *zap.Logger
}

func newCliOptionInputs(config *CLIConfig, flags *flagsT, out io.Writer) *cliOptionInputs {
	return &cliOptionInputs{
		config: config,
		flags:  flags,
		out:    out,
	}
}

func (in *cliOptionInputs) getLogger() (*zap.Logger, error) {
	if in.l != nil {
		return in.l, nil
	}
	var opts []dlogger.Option
	if in.flags.root.logFile != "" {
		opts = append(opts, dlogger.File(in.flags.root.logFile))
	}
	l, err := dlogger.GetLogger(in.flags.root.logLevel, opts...)
	if err != nil {
		return nil, err
	}
	in.l = l
	return l, nil
}

func (in *cliOptionInputs) formatter() core.Formatter {
	return core.Formatter{
		Color:   !in.flags.root.noColor && !color.NoColor,
		Unified: in.flags.status.unified,
		Context: in.flags.status.context,
	}
}

func (in *cliOptionInputs) newSource(name string) (core.Source, error) {
	l, err := in.getLogger()
	if err != nil {
		return nil, err
	}
	l = l.With(zap.String("library", libraryNames[name]))
	switch name {
	case id3Source:
		return id3.New(in.flags.root.musicFolder, id3.Logger(l))
	case swinsianSource:
		return swinsian.New(in.flags.root.swinsianDB, in.flags.root.musicFolder, swinsian.Logger(l))
	default:
		return nil, status.ErrUnknownSource.WrapMessage("%q", name)
	}
}

func (in *cliOptionInputs) historyStore(name string) (storage.Store, error) {
	l, err := in.getLogger()
	if err != nil {
		return nil, err
	}
	dir := model.GetHistoryDir(in.flags.root.musicFolder, libraryNames[name])
	store, err := localfs.NewAtomic(afero.NewBasePathFs(afero.NewOsFs(), dir))
	if err != nil {
		return nil, err
	}
	return storage.Instrument(l, store), nil
}

// openedLibrary is a library, possibly holding the lock on its history
type openedLibrary struct {
	*core.Library
	store storage.Store
	lock  *core.HistoryLock
}

func (o *openedLibrary) Close() error {
	return o.lock.Unlock()
}

type openedLibraries []*openedLibrary

func (libs openedLibraries) Close() {
	for _, lib := range libs {
		if err := lib.Close(); err != nil {
			logFatalf("cannot release history lock %s: %v", lib.lock.Path(), err)
		}
	}
}

// openLibrary scans a source and opens its history. Unless readOnly, the history is locked first.
func (in *cliOptionInputs) openLibrary(ctx context.Context, name string, readOnly bool) (*openedLibrary, error) {
	l, err := in.getLogger()
	if err != nil {
		return nil, err
	}
	res := &openedLibrary{}
	if !readOnly {
		res.lock, err = core.LockHistory(model.GetHistoryDir(in.flags.root.musicFolder, libraryNames[name]))
		if err != nil {
			return nil, err
		}
	}
	lib, err := in.newLibrary(ctx, name, l, res)
	if err != nil {
		_ = res.Close()
		return nil, err
	}
	res.Library = lib
	return res, nil
}

func (in *cliOptionInputs) newLibrary(ctx context.Context, name string, l *zap.Logger, res *openedLibrary) (*core.Library, error) {
	src, err := in.newSource(name)
	if err != nil {
		return nil, err
	}
	res.store, err = in.historyStore(name)
	if err != nil {
		return nil, err
	}
	return core.NewLibrary(ctx, libraryNames[name], src, res.store,
		core.LibraryLogger(l.With(zap.String("library", libraryNames[name]))),
		core.Output(in.out),
		core.Formatting(in.formatter()),
	)
}

// openLibraries opens the libraries of several sources. On failure, the libraries already opened are closed.
func (in *cliOptionInputs) openLibraries(ctx context.Context, names []string, readOnly bool) (openedLibraries, error) {
	libs := make(openedLibraries, 0, len(names))
	for _, name := range names {
		lib, err := in.openLibrary(ctx, name, readOnly)
		if err != nil {
			libs.Close()
			return nil, err
		}
		libs = append(libs, lib)
	}
	return libs, nil
}
