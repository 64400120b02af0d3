package fs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/layrfelipe/hotmart-challenge/internal/domain"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestWalker(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b.md"), "# b")
	writeFile(t, filepath.Join(root, "docs", "a.txt"), "a")
	writeFile(t, filepath.Join(root, "docs", "img.png"), "x")
	writeFile(t, filepath.Join(root, ".rag", "notes.txt"), "skip")
	writeFile(t, filepath.Join(root, "empty.txt"), "")

	w := NewWalker([]string{"**/*.txt", "**/*.md"}, []string{"**/.rag/**"})
	files, err := w.Walk(root)
	if err != nil {
		t.Fatal(err)
	}

	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %d: %+v", len(files), files)
	}
	if filepath.Base(files[0].Path) != "b.md" || filepath.Base(files[1].Path) != "a.txt" {
		t.Errorf("unexpected files %s, %s", files[0].Path, files[1].Path)
	}
	if files[1].Size != 1 {
		t.Errorf("expected size 1, got %d", files[1].Size)
	}
}

func TestFileSourceText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hotmart.txt")
	writeFile(t, path, "A Hotmart é uma plataforma.")

	src := NewFileSource(path)
	text, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if text != "A Hotmart é uma plataforma." {
		t.Errorf("got %q", text)
	}
	if src.Name() != path {
		t.Errorf("Name() = %q", src.Name())
	}
}

func TestFileSourceMissing(t *testing.T) {
	_, err := NewFileSource(filepath.Join(t.TempDir(), "missing.txt")).Fetch(context.Background())

	var fe *domain.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FetchError, got %v", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("cause should be preserved, got %v", err)
	}
}

func TestFileSourceInvalidPDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.pdf")
	writeFile(t, path, "not a pdf")

	_, err := NewFileSource(path).Fetch(context.Background())
	var fe *domain.FetchError
	if !errors.As(err, &fe) {
		t.Errorf("expected FetchError, got %v", err)
	}
}

func TestReadDocumentRejectsBinary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bin.txt")
	writeFile(t, path, string([]byte{0xff, 0xfe, 0x00}))

	if _, err := ReadDocument(path); err == nil {
		t.Error("expected invalid UTF-8 error")
	}
}
