// Package driver loads the foreign routine library and calls its routines
// with marshaled handles.
package driver

import (
	"fmt"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
)

// libraryExts are the shared object extensions accepted in a search directory.
var libraryExts = []string{"so", "dll", "dylib"}

// PlatformExt returns the shared library extension for goos, including the
// leading dot.
func PlatformExt(goos string) string {
	switch goos {
	case "windows":
		return ".dll"
	case "darwin", "ios":
		return ".dylib"
	default:
		return ".so"
	}
}

// FindLibrary resolves the shared library name (without extension) to a
// loadable path.
//
// With an empty dir the platform file name is returned as is, leaving the
// search to the platform loader. Otherwise dir is scanned for files starting
// with name whose final extension is so, dll or dylib; exactly one must match.
func FindLibrary(name, dir string) (string, error) {
	if dir == "" {
		return name + PlatformExt(runtime.GOOS), nil
	}

	matches, err := filepath.Glob(filepath.Join(dir, escapeGlob(name)+"*"))
	if err != nil {
		return "", fmt.Errorf("find library %s in %s: %w", name, dir, err)
	}

	var candidates []string
	for _, m := range matches {
		ext := strings.ToLower(filepath.Ext(m))
		if slices.Contains(libraryExts, strings.TrimPrefix(ext, ".")) {
			candidates = append(candidates, m)
		}
	}
	slices.Sort(candidates)

	switch len(candidates) {
	case 0:
		return "", fmt.Errorf("%w: %s in %s", ErrLibraryNotFound, name, dir)
	case 1:
		return candidates[0], nil
	default:
		return "", fmt.Errorf("%w: %s in %s matches %s",
			ErrAmbiguousLibrary, name, dir, strings.Join(candidates, ", "))
	}
}

// escapeGlob quotes glob metacharacters in s. Windows has no glob escape.
func escapeGlob(s string) string {
	if runtime.GOOS == "windows" {
		return s
	}
	return strings.NewReplacer(`*`, `\*`, `?`, `\?`, `[`, `\[`).Replace(s)
}
