package cmd

import (
	"bytes"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bogem/id3v2/v2"
	jsoniter "github.com/json-iterator/go"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/violetcereza/djtag-sync/pkg/core/status"
	"github.com/violetcereza/djtag-sync/pkg/errors"
	"github.com/violetcereza/djtag-sync/pkg/model"
)

type exitMocks struct {
	messages []string
}

func (m *exitMocks) Fatalf(format string, v ...interface{}) {
	m.messages = append(m.messages, fmt.Sprintf(format, v...))
}

func (m *exitMocks) Fatalln(v ...interface{}) {
	m.messages = append(m.messages, fmt.Sprintln(v...))
}

func (m *exitMocks) fatalCalls() int {
	return len(m.messages)
}

var fatals *exitMocks

type testLibrary struct {
	music string
	db    string
}

func (f testLibrary) path(name string) string {
	return filepath.Join(f.music, name)
}

func setupTests(t *testing.T) testLibrary {
	fatals = &exitMocks{}
	logFatalln = fatals.Fatalln
	logFatalf = fatals.Fatalf

	dir := t.TempDir()
	f := testLibrary{music: filepath.Join(dir, "Music"), db: filepath.Join(dir, "Library.sqlite")}
	require.NoError(t, os.MkdirAll(f.music, 0o755))
	writeMusic(t, f.path("p1.mp3"), map[string]string{"TIT2": "S1", "TPE1": "A1", "TCON": "Rock"})
	writeMusic(t, f.path("p2.mp3"), map[string]string{"TIT2": "S2"})

	execSQL(t, f,
		`CREATE TABLE track (track_id INTEGER PRIMARY KEY, title TEXT, genre TEXT, path TEXT)`,
		`CREATE TABLE playlist (playlist_id INTEGER PRIMARY KEY, name TEXT, pindex INTEGER, folder INTEGER, expanded INTEGER)`,
		`CREATE TABLE playlisttrack (playlist_id INTEGER, track_id INTEGER, tindex INTEGER)`,
		`CREATE TABLE topplaylist (topplaylist_id INTEGER PRIMARY KEY, pindex INTEGER, playlist_id INTEGER)`,
		fmt.Sprintf(`INSERT INTO track (track_id, title, genre, path) VALUES (1, 'S1', 'Rock', '%s')`, f.path("p1.mp3")),
		fmt.Sprintf(`INSERT INTO track (track_id, title, genre, path) VALUES (2, 'S2', '', '%s')`, f.path("p2.mp3")),
		`INSERT INTO playlist (playlist_id, name, pindex, folder, expanded) VALUES (1, 'Rock', 0, 0, 0)`,
		`INSERT INTO playlisttrack (playlist_id, track_id, tindex) VALUES (1, 1, 0)`,
		`INSERT INTO topplaylist (topplaylist_id, pindex, playlist_id) VALUES (1, 1, 1)`,
	)
	return f
}

func writeMusic(t *testing.T, pth string, frames map[string]string) {
	require.NoError(t, os.WriteFile(pth, make([]byte, 32), 0o600))
	tag, err := id3v2.Open(pth, id3v2.Options{Parse: true})
	require.NoError(t, err)
	for id, text := range frames {
		tag.AddTextFrame(id, tag.DefaultEncoding(), text)
	}
	require.NoError(t, tag.Save())
	require.NoError(t, tag.Close())
}

func readGenre(t *testing.T, pth string) string {
	tag, err := id3v2.Open(pth, id3v2.Options{Parse: true})
	require.NoError(t, err)
	defer tag.Close()
	return tag.GetTextFrame("TCON").Text
}

func execSQL(t *testing.T, f testLibrary, queries ...string) {
	db, err := sql.Open("sqlite3", "file:"+f.db)
	require.NoError(t, err)
	defer db.Close()
	for _, q := range queries {
		_, err := db.Exec(q)
		require.NoError(t, err, q)
	}
}

func runCmd(t *testing.T, f testLibrary, cmd []string, stdin string, intentMsg string) string {
	djtagFlags = flagsT{}
	fatalCallsBefore := fatals.fatalCalls()

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(append(cmd,
		"--music-folder", f.music,
		"--swinsian-db", f.db,
		"--log-level", "none",
		"--no-color",
	))
	require.NoError(t, rootCmd.Execute(), "error executing '"+strings.Join(cmd, " ")+"' : "+intentMsg)
	require.Equal(t, fatalCallsBefore, fatals.fatalCalls(), "unexpected fatal error: %v (%s)", fatals.messages, intentMsg)
	return out.String()
}

func runFailingCmd(t *testing.T, f testLibrary, cmd []string, intentMsg string) string {
	djtagFlags = flagsT{}
	fatalCallsBefore := fatals.fatalCalls()
	rootCmd.SetOut(&bytes.Buffer{})
	rootCmd.SetArgs(append(cmd, "--music-folder", f.music, "--swinsian-db", f.db, "--log-level", "none"))
	_ = rootCmd.Execute()
	require.Greater(t, fatals.fatalCalls(), fatalCallsBefore, intentMsg)
	return fatals.messages[len(fatals.messages)-1]
}

func TestCommitAndLog(t *testing.T) {
	f := setupTests(t)

	out := runCmd(t, f, []string{"commit", "id3"}, "", "first commit")
	assert.Contains(t, out, "ID3Library: committed 2 tracks")
	assert.DirExists(t, model.GetHistoryDir(f.music, "ID3Library"))
	assert.NoFileExists(t, filepath.Join(model.GetHistoryDir(f.music, "ID3Library"), model.GetLockFile()),
		"the history lock is released")

	out = runCmd(t, f, []string{"commit", "id3"}, "", "commit without changes")
	assert.Contains(t, out, "ID3Library: nothing to commit (2 tracks)")

	writeMusic(t, f.path("p2.mp3"), map[string]string{"TIT2": "S2", "TCON": "Jazz"})
	out = runCmd(t, f, []string{"status", "id3"}, "", "status after an edit")
	assert.Contains(t, out, "ID3Library")
	assert.Contains(t, out, "// +genre")

	out = runCmd(t, f, []string{"status", "id3", "--unified"}, "", "unified status")
	assert.Contains(t, out, "(committed)")
	assert.Contains(t, out, "+genre:")

	runCmd(t, f, []string{"commit", "id3"}, "", "second commit")
	out = runCmd(t, f, []string{"log", "id3"}, "", "log")
	assert.Equal(t, 2, strings.Count(out, "2 tracks"), "the log shows both commits: %s", out)

	out = runCmd(t, f, []string{"log", "id3", "--json"}, "", "log as json")
	var commits []commitEntry
	require.NoError(t, jsoniter.UnmarshalFromString(out, &commits))
	require.Len(t, commits, 2)
	assert.Equal(t, "ID3Library", commits[0].Library)
	assert.True(t, commits[0].Timestamp > commits[1].Timestamp, "newest commits come first")
	assert.Greater(t, commits[0].Size, 0)
	assert.NotEmpty(t, commits[0].HumanSize)
}

func TestMerge(t *testing.T) {
	f := setupTests(t)

	out := runCmd(t, f, []string{"merge"}, "", "first merge")
	assert.Contains(t, out, "SwinsianLibrary: committed 2 tracks")
	assert.Contains(t, out, "ID3Library: committed 2 tracks")
	assert.Contains(t, out, "SwinsianLibrary <- ID3Library: no updates needed")
	assert.Contains(t, out, "ID3Library <- SwinsianLibrary: no updates needed")

	// a new genre is given in Swinsian
	execSQL(t, f,
		`INSERT INTO playlist (playlist_id, name, pindex, folder, expanded) VALUES (2, 'House', 0, 0, 0)`,
		`INSERT INTO playlisttrack (playlist_id, track_id, tindex) VALUES (2, 1, 0)`,
	)
	out = runCmd(t, f, []string{"merge"}, "", "second merge")
	assert.Contains(t, out, "SwinsianLibrary <- ID3Library: nothing to merge")
	assert.Contains(t, out, "ID3Library <- SwinsianLibrary: 1 tracks updated from 1 commits")
	assert.Equal(t, "House, Rock", readGenre(t, f.path("p1.mp3")))

	out = runCmd(t, f, []string{"status"}, "", "status after merge")
	assert.Equal(t, 2, strings.Count(out, "No changes detected"), out)
}

func TestOverwrite(t *testing.T) {
	f := setupTests(t)
	writeMusic(t, f.path("p2.mp3"), map[string]string{"TIT2": "S2", "TCON": "Jazz"})

	out := runCmd(t, f, []string{"overwrite", "swinsian", "id3"}, "\n", "declined overwrite")
	assert.Contains(t, out, "Are you sure you want to overwrite swinsian with id3? (y/N): ")
	assert.Contains(t, out, "Aborted overwrite.")

	out = runCmd(t, f, []string{"overwrite", "swinsian", "id3"}, "y\n", "confirmed overwrite")
	assert.NotContains(t, out, "Aborted overwrite.")
	assert.Contains(t, out, "SwinsianLibrary: committed 2 tracks")

	// every tag is replaced, including those the other library cannot hold
	out = runCmd(t, f, []string{"overwrite", "id3", "swinsian", "--yes"}, "", "overwrite back")
	assert.NotContains(t, out, "Are you sure")
	assert.Contains(t, out, "ID3Library: committed 2 tracks")
	assert.Equal(t, "Jazz", readGenre(t, f.path("p2.mp3")))
	assert.Equal(t, "Rock", readGenre(t, f.path("p1.mp3")))

	tag, err := id3v2.Open(f.path("p1.mp3"), id3v2.Options{Parse: true})
	require.NoError(t, err)
	defer tag.Close()
	assert.Empty(t, tag.GetTextFrame("TIT2").Text)
	assert.Contains(t, overwriteCmd.Long, "deleting titles", "the frames lost by an overwrite are documented")
}

func TestInvalidSources(t *testing.T) {
	f := setupTests(t)

	msg := runFailingCmd(t, f, []string{"commit", "itunes"}, "unknown source")
	assert.Contains(t, msg, status.ErrUnknownSource.Error())

	msg = runFailingCmd(t, f, []string{"overwrite", "id3", "id3"}, "same library")
	assert.Contains(t, msg, status.ErrSameLibrary.Error())

	names, err := parseSources(nil)
	require.NoError(t, err)
	assert.Equal(t, allSources, names)
	names, err = parseSources([]string{"id3", "id3"})
	require.NoError(t, err)
	assert.Equal(t, []string{"id3"}, names)
	_, err = parseSources([]string{"itunes"})
	assert.True(t, errors.Is(err, status.ErrUnknownSource))
}

func TestConfirm(t *testing.T) {
	var out bytes.Buffer
	assert.True(t, confirm(strings.NewReader("y\n"), &out, "go?"))
	assert.True(t, confirm(strings.NewReader(" Y "), &out, "go?"))
	assert.False(t, confirm(strings.NewReader("yes\n"), &out, "go?"))
	assert.False(t, confirm(strings.NewReader(""), &out, "go?"))
	assert.Equal(t, strings.Repeat("go? (y/N): ", 4), out.String())
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "Music"), expandHome("~/Music"))
	assert.Equal(t, "/abs/Music", expandHome("/abs/Music"))
}
