// Package utils contains general helper functions used across the cunw tool.
package utils

import (
	"path/filepath"
	"strings"
)

// RelativePathOrSelf calculates the slash-separated relative path from root to
// fullPath. Returns the cleaned fullPath if relative calculation fails.
// Returns "." if fullPath and root resolve to the same directory.
func RelativePathOrSelf(fullPath, root string) string {
	cleanPath := filepath.Clean(fullPath)
	absoluteRoot, absoluteRootError := filepath.Abs(root)
	if absoluteRootError != nil {
		return cleanPath
	}
	cleanAbsoluteRoot := filepath.Clean(absoluteRoot)

	if cleanPath == cleanAbsoluteRoot {
		return "."
	}

	relativePath, relativeError := filepath.Rel(cleanAbsoluteRoot, cleanPath)
	if relativeError != nil {
		return cleanPath
	}
	return filepath.ToSlash(relativePath)
}

// NormalizeRelativePattern converts a user-supplied glob pattern into the
// anchored slash-separated form used for matching relative paths. A leading
// "./" never appears in the reported relative paths, so it is stripped here to
// keep matching identical whether the traversal root was given as ".", "./",
// or an absolute path.
func NormalizeRelativePattern(pattern string) string {
	normalizedPattern := strings.ReplaceAll(strings.TrimSpace(pattern), "\\", "/")
	for strings.HasPrefix(normalizedPattern, "./") {
		normalizedPattern = strings.TrimPrefix(normalizedPattern, "./")
	}
	return normalizedPattern
}

// JoinRelative joins a slash-separated parent path with a child name,
// treating "." as the empty prefix.
func JoinRelative(parentRelativePath, childName string) string {
	if parentRelativePath == "" || parentRelativePath == "." {
		return childName
	}
	return parentRelativePath + "/" + childName
}

// DeduplicatePatterns removes duplicate patterns from a slice while preserving
// order. The first occurrence of each unique pattern is kept.
func DeduplicatePatterns(patterns []string) []string {
	encounteredPatterns := make(map[string]struct{})
	result := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		if _, exists := encounteredPatterns[pattern]; !exists {
			encounteredPatterns[pattern] = struct{}{}
			result = append(result, pattern)
		}
	}
	return result
}
