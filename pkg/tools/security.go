package tools

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

// normalizeAllowedDirs returns a sorted, deduplicated list of absolute directories.
func normalizeAllowedDirs(allowedDirs []string) []string {
	normalized := make([]string, 0, len(allowedDirs))
	seen := map[string]struct{}{}
	for _, dir := range allowedDirs {
		dir = strings.TrimSpace(dir)
		if dir == "" {
			continue
		}
		abs, err := filepath.Abs(dir)
		if err != nil {
			continue
		}
		abs = filepath.Clean(abs)
		if _, ok := seen[abs]; ok {
			continue
		}
		seen[abs] = struct{}{}
		normalized = append(normalized, abs)
	}
	slices.Sort(normalized)
	return normalized
}

// validatePathWithAllowedDirs ensures a path is within one of the allowed
// directories and returns its absolute form. If allowedDirs is empty, any path
// is permitted.
func validatePathWithAllowedDirs(path string, allowedDirs []string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("path cannot be empty")
	}

	absPath, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("invalid path: %w", err)
	}

	roots := normalizeAllowedDirs(allowedDirs)
	if len(roots) == 0 {
		return absPath, nil
	}

	for _, root := range roots {
		rel, err := filepath.Rel(root, absPath)
		if err != nil {
			continue
		}
		if rel == "." || (!strings.HasPrefix(rel, ".."+string(filepath.Separator)) && rel != "..") {
			return absPath, nil
		}
	}

	return "", fmt.Errorf("path outside allowed directories: %s (allowed: %s)", absPath, strings.Join(roots, ", "))
}
