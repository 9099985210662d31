// Package paths locates Heroes III data files such as H3sprite.lod.
package paths

import (
	"os"

	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// Find locates the passed data file shortname and returns an absolute or
// relative path to find it at, or an empty string if it is nowhere to be
// found.
//
// For example, for "H3sprite.lod" it may return
// "/home/user/.wine/drive_c/GOG Games/HoMM 3 Complete/Data/H3sprite.lod".
func Find(fileName string) string {
	for _, path := range getPossiblePaths(fileName) {
		if st, err := os.Stat(path); err == nil && st.Mode().IsRegular() {
			glog.V(1).Infof("paths.Find(%q)=%s", fileName, path)
			return path
		}
	}
	return ""
}

// Open locates the passed file in the same locations that Find would look,
// and opens it.
func Open(fileName string) (*os.File, error) {
	path := Find(fileName)
	if path == "" {
		return nil, errors.Wrapf(os.ErrNotExist, "paths.Open(%q): not found in %d locations", fileName, len(getPossiblePathDirs()))
	}
	return os.Open(path)
}
