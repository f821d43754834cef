// Package paths locates the state directory and the files kept in it.
package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// StateDirName is the per-project state directory, relative to the root.
const StateDirName = ".sockroute"

// StateDirEnvVar overrides the state directory when set.
const StateDirEnvVar = "SOCKROUTE_STATE_DIR"

// StateDir returns the state directory for root.
func StateDir(root string) string {
	if dir := os.Getenv(StateDirEnvVar); dir != "" {
		return dir
	}
	return filepath.Join(root, StateDirName)
}

// EnsureStateDir creates the state directory and its logs subdirectory.
func EnsureStateDir(root string) (string, error) {
	dir := StateDir(root)
	if err := os.MkdirAll(LogsDir(root), 0o755); err != nil {
		return "", fmt.Errorf("failed to create state directory: %w", err)
	}
	return dir, nil
}

// ConfigPath returns <state>/config.json.
func ConfigPath(root string) string {
	return filepath.Join(StateDir(root), "config.json")
}

// LogsDir returns <state>/logs.
func LogsDir(root string) string {
	return filepath.Join(StateDir(root), "logs")
}

// LogPath returns <state>/logs/<name>.log.
func LogPath(root, name string) string {
	return filepath.Join(LogsDir(root), name+".log")
}

// ChatDBPath returns <state>/chat.db.
func ChatDBPath(root string) string {
	return filepath.Join(StateDir(root), "chat.db")
}

// CanonicalizePath converts an absolute path to one relative to base
// - Resolves symlinks to real paths
// - Converts backslashes to forward slashes
func CanonicalizePath(absolutePath string, base string) (string, error) {
	resolved, err := filepath.EvalSymlinks(absolutePath)
	if err != nil {
		// If the file doesn't exist yet, use the path as-is
		if os.IsNotExist(err) {
			resolved = absolutePath
		} else {
			return "", err
		}
	}

	baseResolved, err := filepath.EvalSymlinks(base)
	if err != nil {
		if os.IsNotExist(err) {
			baseResolved = base
		} else {
			return "", err
		}
	}

	rel, err := filepath.Rel(baseResolved, resolved)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// IsWithin reports whether path lies inside base once symlinks are resolved.
func IsWithin(path string, base string) bool {
	canonical, err := CanonicalizePath(path, base)
	if err != nil {
		return false
	}
	return canonical != ".." && !strings.HasPrefix(canonical, "../")
}
