package model

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

const (
	// descriptor files (object metadata)
	commitsPrefix       = "commits/"
	commitDescriptorExt = ".yaml"
	metaDescriptorFile  = "meta.yaml"
	lockFile            = "djtag.lock"
	historyFolder       = ".djtag"

	// CommitTimeFormat is the layout of commit timestamps in storage keys
	CommitTimeFormat = "2006-01-02_15-04-05.000000000"
)

var isCommitKeyRe *regexp.Regexp

func init() {
	isCommitKeyRe = regexp.MustCompile(`^` + commitsPrefix + `(\d{4}-\d{2}-\d{2}_\d{2}-\d{2}-\d{2}\.\d{9})\` + commitDescriptorExt + `$`)
}

// GetCommitsPrefix is the prefix of all commit keys in a history store
func GetCommitsPrefix() string {
	return commitsPrefix
}

// GetCommitKey yields the storage key of the commit taken at this time
func GetCommitKey(ts time.Time) string {
	return fmt.Sprint(commitsPrefix, ts.UTC().Format(CommitTimeFormat), commitDescriptorExt)
}

// ParseCommitKey yields the time of the commit stored under this key
func ParseCommitKey(key string) (time.Time, error) {
	m := isCommitKeyRe.FindStringSubmatch(strings.TrimPrefix(key, "/"))
	if m == nil {
		return time.Time{}, fmt.Errorf("%w: %q", InvalidCommitKey, key)
	}
	ts, err := time.ParseInLocation(CommitTimeFormat, m[1], time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", InvalidCommitKey, key, err)
	}
	return ts, nil
}

// GetMetaKey yields the storage key of the merge metadata
func GetMetaKey() string {
	return metaDescriptorFile
}

// GetLockFile yields the name of the lock file guarding a history
func GetLockFile() string {
	return lockFile
}

// GetHistoryDir is the folder holding the history of some source, under the music folder
func GetHistoryDir(musicFolder, source string) string {
	return filepath.Join(musicFolder, historyFolder, source)
}

// GetHistoryFolder is the name of the folder holding all histories, under the music folder
func GetHistoryFolder() string {
	return historyFolder
}
