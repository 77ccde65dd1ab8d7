package shared

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// DatabaseFilename is the name rekordbox gives its library database.
const DatabaseFilename = "master.db"

var getRuntime = func() string { return runtime.GOOS }

// DefaultLibraryDir returns the directory rekordbox keeps its library in for the given OS and home directory.
func DefaultLibraryDir(goos, home string) string {
	switch goos {
	case "windows":
		return filepath.Join(home, "AppData", "Roaming", "Pioneer", "rekordbox")
	case "darwin":
		return filepath.Join(home, "Library", "Pioneer", "rekordbox")
	default:
		return filepath.Join(home, ".Pioneer", "rekordbox")
	}
}

// DetectLibraryPath locates the rekordbox database on this machine.
//
// Returns [ErrLibraryPath] when the default directory for the current OS does not exist.
func DetectLibraryPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	dir := DefaultLibraryDir(getRuntime(), home)
	if _, err := os.Stat(dir); err != nil {
		return "", fmt.Errorf("%w: %s", ErrLibraryPath, dir)
	}

	return ResolveLibraryPath(dir)
}

// ResolveLibraryPath expands a leading ~ and, when path names a directory, points it at the database file inside.
func ResolveLibraryPath(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: empty path", ErrLibraryPath)
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		path = filepath.Join(home, path[2:])
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrLibraryPath, path)
	}

	if info.IsDir() {
		return filepath.Join(path, DatabaseFilename), nil
	}

	return path, nil
}
