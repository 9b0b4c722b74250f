package indexer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// DefaultExtensions are the document types picked up by a directory scan.
var DefaultExtensions = []string{".txt", ".md", ".markdown"}

// ScannedFile is an eligible document found during a directory scan.
type ScannedFile struct {
	RelPath string // Relative path from the scan root, forward slashes (e.g. "guides/setup.md")
	Folder  string // RelPath without the filename, "" for root-level files
	AbsPath string
}

// ScanDirectory walks root recursively and returns the regular files whose
// lowercase extension is in exts (DefaultExtensions when empty), in lexical order.
// Hidden directories are skipped.
func ScanDirectory(ctx context.Context, root string, exts []string) ([]ScannedFile, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve directory %s: %w", root, err)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("failed to access directory %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", root)
	}

	if len(exts) == 0 {
		exts = DefaultExtensions
	}
	eligible := make(map[string]bool, len(exts))
	for _, ext := range exts {
		ext = strings.ToLower(ext)
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		eligible[ext] = true
	}

	var files []ScannedFile
	err = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("failed to access path %s: %w", path, err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		if info.IsDir() {
			if path != root && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !info.Mode().IsRegular() || !eligible[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		relPath, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("failed to compute relative path for %s: %w", path, err)
		}
		relPath = filepath.ToSlash(relPath)

		folder := filepath.ToSlash(filepath.Dir(relPath))
		if folder == "." {
			folder = ""
		}

		files = append(files, ScannedFile{
			RelPath: relPath,
			Folder:  folder,
			AbsPath: path,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan directory %s: %w", root, err)
	}

	return files, nil
}
