package source

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/violetcereza/djtag-sync/pkg/core/status"
)

// InRoot tells if a path lies inside the library root folder
func InRoot(root, path string) bool {
	if root == "" {
		return false
	}
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(path))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

// CheckRoot verifies that the library root exists and is a folder
func CheckRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", status.ErrLibraryRoot.Wrap(err)
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return "", status.ErrLibraryRoot.Wrap(err)
	}
	if !fi.IsDir() {
		return "", status.ErrLibraryRoot.WrapMessage("%s is not a folder", abs)
	}
	return abs, nil
}
