package paths

import (
	"os"
	"path/filepath"
)

// DataDirEnv names an environment variable pointing at a game's Data
// directory. It is searched first.
const DataDirEnv = "HEROES3_DATA"

// installDirs are where the game usually lives, relative to a drive root
// or a wine prefix's drive_c.
var installDirs = []string{
	"GOG Games/HoMM 3 Complete",
	"GOG Games/Heroes of Might and Magic 3 Complete",
	"Program Files/3DO/Heroes 3",
	"Program Files (x86)/3DO/Heroes 3",
	"Program Files (x86)/GOG Galaxy/Games/HoMM 3 Complete",
	"Program Files (x86)/Steam/steamapps/common/Heroes of Might & Magic III - HD Edition",
}

func getPossiblePathDirs() []string {
	var dirs []string
	if d := os.Getenv(DataDirEnv); d != "" {
		dirs = append(dirs, d)
	}
	dirs = append(dirs, ".", "Data", "datafiles")

	var roots []string
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, ".local/share/heroes3/Data"))
		roots = append(roots, filepath.Join(home, ".wine/drive_c"))
	}
	roots = append(roots, "C:/")
	for _, root := range roots {
		for _, d := range installDirs {
			dirs = append(dirs, filepath.Join(root, d, "Data"))
		}
	}
	return dirs
}

// getPossiblePaths lists every candidate location for fileName, most
// preferred first.
func getPossiblePaths(fileName string) []string {
	var paths []string
	for _, d := range getPossiblePathDirs() {
		paths = append(paths, filepath.Join(d, fileName))
	}
	return paths
}
