package indexer

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// FileEntry is one raw directory entry produced by a folder scan.
type FileEntry struct {
	Name         string
	Path         string // absolute, slash-normalized
	Size         int64
	LastModified int64 // unix milliseconds
}

// FolderScanner walks one root folder and returns its file entries.
// Subdirectory listing failures are returned alongside the entries that could
// be read; they never abort the walk.
type FolderScanner interface {
	Scan(ctx context.Context, root string) ([]FileEntry, []error)
}

type osScanner struct{}

// NewFolderScanner returns a scanner backed by the local file system.
func NewFolderScanner() FolderScanner {
	return &osScanner{}
}

// Scan lists root and all nested subdirectories using an explicit work stack,
// so arbitrarily deep trees cannot exhaust the call stack and cancellation is
// checked between directory listings.
func (s *osScanner) Scan(ctx context.Context, root string) ([]FileEntry, []error) {
	var (
		files []FileEntry
		errs  []error
	)

	root = strings.ReplaceAll(root, "\\", "/")
	// A trailing slash on the root would leak "//" into every entry path and
	// split the reconcile keys for the same files.
	for len(root) > 1 && strings.HasSuffix(root, "/") {
		root = root[:len(root)-1]
	}

	stack := []string{root}
	for len(stack) > 0 {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			return files, errs
		}

		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := os.ReadDir(dir)
		if err != nil {
			errs = append(errs, fmt.Errorf("list %s: %w", dir, err))
			continue
		}

		for _, entry := range entries {
			path := dir + "/" + entry.Name()
			if entry.IsDir() {
				stack = append(stack, path)
				continue
			}

			info, err := entry.Info()
			if err != nil {
				errs = append(errs, fmt.Errorf("stat %s: %w", path, err))
				continue
			}

			files = append(files, FileEntry{
				Name:         entry.Name(),
				Path:         path,
				Size:         info.Size(),
				LastModified: info.ModTime().UnixMilli(),
			})
		}
	}

	return files, errs
}
