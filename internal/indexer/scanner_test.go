package indexer

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeTree(t *testing.T, root string, files ...string) {
	t.Helper()
	for _, rel := range files {
		full := filepath.Join(root, rel)
		if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
			t.Fatalf("Failed to create dir: %v", err)
		}
		if err := os.WriteFile(full, []byte("content"), 0644); err != nil {
			t.Fatalf("Failed to create file: %v", err)
		}
	}
}

func TestScanDirectory(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root,
		"zeta.txt",
		"alpha.md",
		"guides/setup.MARKDOWN",
		"guides/deep/notes.txt",
		"image.png",
		"report.pdf",
		".git/config.txt",
		"guides/.cache/skip.md",
	)

	files, err := ScanDirectory(context.Background(), root, nil)
	if err != nil {
		t.Fatalf("ScanDirectory() error = %v", err)
	}

	want := []ScannedFile{
		{RelPath: "alpha.md", Folder: ""},
		{RelPath: "guides/deep/notes.txt", Folder: "guides/deep"},
		{RelPath: "guides/setup.MARKDOWN", Folder: "guides"},
		{RelPath: "zeta.txt", Folder: ""},
	}
	if len(files) != len(want) {
		t.Fatalf("ScanDirectory() found %d files, want %d: %+v", len(files), len(want), files)
	}
	for i, w := range want {
		if files[i].RelPath != w.RelPath || files[i].Folder != w.Folder {
			t.Errorf("files[%d] = %+v, want %s in %q", i, files[i], w.RelPath, w.Folder)
		}
		if files[i].AbsPath != filepath.Join(root, filepath.FromSlash(w.RelPath)) {
			t.Errorf("files[%d].AbsPath = %q", i, files[i].AbsPath)
		}
	}
}

func TestScanDirectory_CustomExtensions(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a.txt", "b.md", "c.rst")

	files, err := ScanDirectory(context.Background(), root, []string{"RST", ".txt"})
	if err != nil {
		t.Fatalf("ScanDirectory() error = %v", err)
	}
	if len(files) != 2 || files[0].RelPath != "a.txt" || files[1].RelPath != "c.rst" {
		t.Errorf("ScanDirectory() = %+v, want a.txt and c.rst", files)
	}
}

func TestScanDirectory_Errors(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "file.txt")

	tests := []struct {
		name string
		path string
	}{
		{"missing directory", filepath.Join(root, "missing")},
		{"file instead of directory", filepath.Join(root, "file.txt")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ScanDirectory(context.Background(), tt.path, nil); err == nil {
				t.Error("ScanDirectory() expected error, got nil")
			}
		})
	}
}

func TestScanDirectory_Canceled(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, "a.txt")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ScanDirectory(ctx, root, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("ScanDirectory() error = %v, want context.Canceled", err)
	}
}
