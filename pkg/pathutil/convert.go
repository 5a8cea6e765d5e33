// Package pathutil provides utilities for converting between absolute and relative paths.
//
// The traversal engine uses absolute paths internally for consistency and to avoid
// ambiguity. Record output uses root-relative, forward-slash paths for readability
// and portability. This package provides the conversion layer between the internal
// (absolute) and external (relative) representations.
package pathutil

import (
	"path/filepath"
	"strings"
)

// ToRelative converts an absolute path to relative based on a root directory.
// Falls back to the original path if conversion fails or path is already relative.
func ToRelative(absPath, rootDir string) string {
	if absPath == "" || rootDir == "" {
		return absPath
	}

	if !filepath.IsAbs(absPath) {
		return absPath
	}

	absPath = filepath.Clean(absPath)
	rootDir = filepath.Clean(rootDir)

	relPath, err := filepath.Rel(rootDir, absPath)
	if err != nil {
		return absPath
	}

	// Paths outside the root read clearer in absolute form
	if strings.HasPrefix(relPath, "..") {
		return absPath
	}

	return relPath
}

// ParentRelative returns the parent directory of path relative to root in
// forward-slash form, or "" when the file sits directly under root or the
// parent cannot be expressed relative to root.
func ParentRelative(root, path string) string {
	parent := filepath.Dir(path)
	rel, err := filepath.Rel(root, parent)
	if err != nil {
		return ""
	}
	rel = strings.TrimSpace(rel)
	if rel == "." || rel == "" || strings.HasPrefix(rel, "..") {
		return ""
	}
	return filepath.ToSlash(rel)
}
