package indexer

import "strings"

// NormalizePath canonicalizes a file system path for comparison: backslashes
// become forward slashes and the whole path is lowercased. The result is used
// as a reconciliation key and for folder-prefix membership, never for I/O.
func NormalizePath(path string) string {
	return strings.ToLower(strings.ReplaceAll(path, "\\", "/"))
}

// InFolders reports whether path lives under any of the given folders, using
// normalized prefix matching.
func InFolders(path string, folders []string) bool {
	normalized := NormalizePath(path)
	for _, folder := range folders {
		if strings.HasPrefix(normalized, NormalizePath(folder)) {
			return true
		}
	}
	return false
}
