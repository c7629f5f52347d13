// Package swinsian reads and writes genres in a Swinsian library database.
//
// A Swinsian library is a SQLite database. The genres of a track are the names of the playlists holding it:
// writing genres back creates, fills and prunes playlists accordingly.
package swinsian

import (
	"context"
	"database/sql"
	"os"
	"sort"
	"strings"

	_ "github.com/ncruces/go-sqlite3/driver" // registers the sqlite3 driver
	_ "github.com/ncruces/go-sqlite3/embed"  // embeds the sqlite3 engine
	"go.uber.org/zap"

	"github.com/violetcereza/djtag-sync/pkg/core"
	"github.com/violetcereza/djtag-sync/pkg/errors"
	"github.com/violetcereza/djtag-sync/pkg/model"
	"github.com/violetcereza/djtag-sync/pkg/source"
)

const (
	driverName     = "sqlite3"
	genreSeparator = ", "
)

// ErrDatabase indicates that the Swinsian library database cannot be used
var ErrDatabase = errors.New("cannot use swinsian library database")

// Option is a functor to build a Swinsian source with some options
type Option func(*Source)

// Logger for the source
func Logger(l *zap.Logger) Option {
	return func(s *Source) {
		if l != nil {
			s.l = l
		}
	}
}

// Source of genres stored as playlists in a Swinsian library
type Source struct {
	db   string
	root string
	l    *zap.Logger
}

var _ core.Source = &Source{}
var _ core.Scaffolder = &Source{}

// New Swinsian source for the database at dbPath. Only tracks under root are ever written.
func New(dbPath, root string, opts ...Option) (*Source, error) {
	abs, err := source.CheckRoot(root)
	if err != nil {
		return nil, err
	}
	fi, err := os.Stat(dbPath)
	if err != nil {
		return nil, ErrDatabase.Wrap(err)
	}
	if !fi.Mode().IsRegular() {
		return nil, ErrDatabase.WrapMessage("%s is not a file", dbPath)
	}
	s := &Source{
		db:   dbPath,
		root: abs,
		l:    zap.NewNop(),
	}
	for _, apply := range opts {
		apply(s)
	}
	return s, nil
}

// DB is the path to the library database
func (s *Source) DB() string {
	return s.db
}

func (s *Source) open(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open(driverName, "file:"+s.db)
	if err != nil {
		return nil, ErrDatabase.Wrap(err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, ErrDatabase.Wrap(err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout=5000"); err != nil {
		_ = db.Close()
		return nil, ErrDatabase.Wrap(err)
	}
	return db, nil
}

type queryer interface {
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
}

type membership struct {
	playlist int64
	track    int64
}

type library struct {
	trackPaths  map[int64]string
	trackIDs    map[string]int64
	playlists   map[int64]string
	playlistIDs map[string]int64
	members     map[membership]struct{}
}

func loadLibrary(ctx context.Context, q queryer) (*library, error) {
	lib := &library{
		trackPaths:  make(map[int64]string),
		trackIDs:    make(map[string]int64),
		playlists:   make(map[int64]string),
		playlistIDs: make(map[string]int64),
		members:     make(map[membership]struct{}),
	}

	err := scanRows(ctx, q, "SELECT track_id, path FROM track", func(rows *sql.Rows) error {
		var (
			id   int64
			path sql.NullString
		)
		if err := rows.Scan(&id, &path); err != nil {
			return err
		}
		if path.String == "" {
			return nil
		}
		lib.trackPaths[id] = path.String
		lib.trackIDs[path.String] = id
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = scanRows(ctx, q, "SELECT playlist_id, name FROM playlist", func(rows *sql.Rows) error {
		var (
			id   int64
			name sql.NullString
		)
		if err := rows.Scan(&id, &name); err != nil {
			return err
		}
		lib.playlists[id] = name.String
		if name.String != "" {
			lib.playlistIDs[name.String] = id
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	err = scanRows(ctx, q, "SELECT playlist_id, track_id FROM playlisttrack", func(rows *sql.Rows) error {
		var m membership
		if err := rows.Scan(&m.playlist, &m.track); err != nil {
			return err
		}
		lib.members[m] = struct{}{}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return lib, nil
}

func scanRows(ctx context.Context, q queryer, query string, fn func(*sql.Rows) error) error {
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return ErrDatabase.Wrap(err)
	}
	defer rows.Close()
	for rows.Next() {
		if err := fn(rows); err != nil {
			return ErrDatabase.Wrap(err)
		}
	}
	if err := rows.Err(); err != nil {
		return ErrDatabase.Wrap(err)
	}
	return nil
}

// Scan reads every track of the database. The genres of a track are the names of its playlists.
func (s *Source) Scan(ctx context.Context) (map[string]*model.Track, error) {
	db, err := s.open(ctx)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	lib, err := loadLibrary(ctx, db)
	if err != nil {
		return nil, err
	}

	genres := make(map[int64][]string, len(lib.trackPaths))
	for m := range lib.members {
		name := lib.playlists[m.playlist]
		if _, ok := lib.trackPaths[m.track]; !ok || name == "" {
			continue
		}
		genres[m.track] = append(genres[m.track], name)
	}

	tracks := make(map[string]*model.Track, len(lib.trackPaths))
	for id, pth := range lib.trackPaths {
		tags := model.Tags{}
		if g := model.NormalizeGenre(genres[id]); len(g) > 0 {
			tags[model.GenreKey] = g
		}
		tracks[pth] = model.NewTrack(pth, tags)
	}
	s.l.Info("scanned swinsian library", zap.String("db", s.db), zap.Int("tracks", len(tracks)))
	return tracks, nil
}

// Write stores the genres of tracks as playlist memberships, in a single transaction.
//
// Playlists are created as needed and registered at the top level. Playlists which no written track uses any more
// are deleted. Tracks outside of the library root or unknown to the database are skipped.
func (s *Source) Write(ctx context.Context, tracks map[string]*model.Track) (err error) {
	db, err := s.open(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return ErrDatabase.Wrap(err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	w := &writer{tx: tx, l: s.l, used: make(map[int64]struct{})}
	if w.lib, err = loadLibrary(ctx, tx); err != nil {
		return err
	}
	if err = tx.QueryRowContext(ctx, "SELECT COALESCE(MAX(playlist_id), 0) FROM playlist").Scan(&w.nextPlaylist); err != nil {
		return ErrDatabase.Wrap(err)
	}
	w.nextPlaylist++

	for _, track := range model.SortedTracks(tracks) {
		if !source.InRoot(s.root, track.Path) {
			s.l.Warn("skipping track outside of library root", zap.String("path", track.Path), zap.String("root", s.root))
			continue
		}
		id, ok := w.lib.trackIDs[track.Path]
		if !ok {
			s.l.Debug("skipping track unknown to swinsian", zap.String("path", track.Path))
			continue
		}
		if err = w.writeTrack(ctx, id, model.NormalizeGenre(track.Tags[model.GenreKey])); err != nil {
			return err
		}
	}

	if err = w.registerPlaylists(ctx); err != nil {
		return err
	}
	if err = w.prunePlaylists(ctx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return ErrDatabase.Wrap(err)
	}
	s.l.Info("wrote swinsian library", zap.String("db", s.db), zap.Int("playlists", len(w.used)))
	return nil
}

type writer struct {
	tx           *sql.Tx
	lib          *library
	used         map[int64]struct{}
	nextPlaylist int64
	l            *zap.Logger
}

func (w *writer) exec(ctx context.Context, query string, args ...interface{}) error {
	if _, err := w.tx.ExecContext(ctx, query, args...); err != nil {
		return ErrDatabase.Wrap(err)
	}
	return nil
}

func (w *writer) playlist(ctx context.Context, name string) (int64, error) {
	if id, ok := w.lib.playlistIDs[name]; ok {
		return id, nil
	}
	id := w.nextPlaylist
	if err := w.exec(ctx,
		"INSERT INTO playlist (playlist_id, name, pindex, folder, expanded) VALUES (?, ?, 0, 0, 0)",
		id, name); err != nil {
		return 0, err
	}
	w.nextPlaylist++
	w.lib.playlists[id] = name
	w.lib.playlistIDs[name] = id
	w.l.Debug("created playlist", zap.String("name", name), zap.Int64("playlist_id", id))
	return id, nil
}

func (w *writer) writeTrack(ctx context.Context, track int64, genres []string) error {
	if err := w.exec(ctx, "UPDATE track SET genre = ? WHERE track_id = ?",
		strings.Join(genres, genreSeparator), track); err != nil {
		return err
	}

	wanted := make(map[int64]struct{}, len(genres))
	for _, genre := range genres {
		id, err := w.playlist(ctx, genre)
		if err != nil {
			return err
		}
		wanted[id] = struct{}{}
		w.used[id] = struct{}{}

		m := membership{playlist: id, track: track}
		if _, ok := w.lib.members[m]; ok {
			continue
		}
		if err := w.exec(ctx,
			"INSERT INTO playlisttrack (playlist_id, track_id, tindex) VALUES (?, ?, 0)",
			id, track); err != nil {
			return err
		}
		w.lib.members[m] = struct{}{}
	}

	for m := range w.lib.members {
		if m.track != track {
			continue
		}
		if _, ok := wanted[m.playlist]; ok {
			continue
		}
		if err := w.exec(ctx, "DELETE FROM playlisttrack WHERE playlist_id = ? AND track_id = ?",
			m.playlist, m.track); err != nil {
			return err
		}
		delete(w.lib.members, m)
	}
	return nil
}

func sortedIDs(ids map[int64]string) []int64 {
	res := make([]int64, 0, len(ids))
	for id := range ids {
		res = append(res, id)
	}
	sort.Slice(res, func(i, j int) bool { return res[i] < res[j] })
	return res
}

// registerPlaylists lists every used playlist at the top level, so that Swinsian shows it
func (w *writer) registerPlaylists(ctx context.Context) error {
	top := make(map[int64]struct{})
	err := scanRows(ctx, w.tx, "SELECT playlist_id FROM topplaylist", func(rows *sql.Rows) error {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return err
		}
		top[id] = struct{}{}
		return nil
	})
	if err != nil {
		return err
	}

	var nextTop, nextIndex int64
	if err := w.tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(topplaylist_id), 0), COALESCE(MAX(pindex), 0) FROM topplaylist").
		Scan(&nextTop, &nextIndex); err != nil {
		return ErrDatabase.Wrap(err)
	}

	for _, id := range sortedIDs(w.lib.playlists) {
		if _, ok := w.used[id]; !ok {
			continue
		}
		if _, ok := top[id]; ok {
			continue
		}
		nextTop++
		nextIndex++
		if err := w.exec(ctx, "INSERT INTO topplaylist (topplaylist_id, pindex, playlist_id) VALUES (?, ?, ?)",
			nextTop, nextIndex, id); err != nil {
			return err
		}
	}
	return nil
}

func (w *writer) prunePlaylists(ctx context.Context) error {
	for _, id := range sortedIDs(w.lib.playlists) {
		if _, ok := w.used[id]; ok {
			continue
		}
		for _, query := range []string{
			"DELETE FROM topplaylist WHERE playlist_id = ?",
			"DELETE FROM playlisttrack WHERE playlist_id = ?",
			"DELETE FROM playlist WHERE playlist_id = ?",
		} {
			if err := w.exec(ctx, query, id); err != nil {
				return err
			}
		}
		w.l.Debug("deleted unused playlist", zap.String("name", w.lib.playlists[id]), zap.Int64("playlist_id", id))
	}
	return nil
}

// Scaffold retains only genres, the only tag a Swinsian library stores
func (s *Source) Scaffold(track *model.Track, _ model.StructuralDiff) error {
	return core.KeepOnly(track, model.GenreKey)
}
