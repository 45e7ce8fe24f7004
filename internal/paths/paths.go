// Package paths normalizes filesystem paths to docs-root-relative,
// forward-slash form so findings and index links compare equal across
// platforms.
package paths

import (
	"os"
	"path/filepath"
	"strings"
)

// Canonicalize converts an absolute path to a root-relative canonical path
// - Resolves symlinks to real paths
// - Makes path relative to the docs root
// - Converts backslashes to forward slashes
func Canonicalize(absolutePath string, root string) (string, error) {
	// Resolve symlinks
	resolved, err := filepath.EvalSymlinks(absolutePath)
	if err != nil {
		// If the file doesn't exist yet, use the path as-is
		if os.IsNotExist(err) {
			resolved = absolutePath
		} else {
			return "", err
		}
	}

	rootResolved, err := filepath.EvalSymlinks(root)
	if err != nil {
		if os.IsNotExist(err) {
			rootResolved = root
		} else {
			return "", err
		}
	}

	relativePath, err := filepath.Rel(rootResolved, resolved)
	if err != nil {
		return "", err
	}

	return filepath.ToSlash(relativePath), nil
}

// IsWithinRoot checks if a path is within the docs root
func IsWithinRoot(path string, root string) bool {
	canonical, err := Canonicalize(path, root)
	if err != nil {
		return false
	}

	return !strings.HasPrefix(canonical, "..")
}

// Normalize converts backslashes to forward slashes in an already
// relative path
func Normalize(path string) string {
	return filepath.ToSlash(path)
}

// JoinRoot joins a docs root with a canonical path using the OS separator
func JoinRoot(root string, canonicalPath string) string {
	normalized := strings.ReplaceAll(canonicalPath, "\\", "/")
	parts := strings.Split(normalized, "/")
	return filepath.Join(append([]string{root}, parts...)...)
}
