package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCappedFileWriterAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	w, err := newCappedFileWriter(path, 1)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer w.Close()

	for i := 0; i < 3; i++ {
		if _, err := w.Write([]byte("line\n")); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if got := strings.Count(string(b), "line\n"); got != 3 {
		t.Fatalf("lines = %d, want 3", got)
	}
}

func TestCappedFileWriterTruncatesAtCap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	w, err := newCappedFileWriter(path, 1)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer w.Close()
	// force the cap far below 1MB to exercise truncation
	w.maxBytes = 32

	big := strings.Repeat("x", 24) + "\n"
	if _, err := w.Write([]byte(big)); err != nil {
		t.Fatalf("first write: %v", err)
	}
	if _, err := w.Write([]byte(big)); err != nil {
		t.Fatalf("second write: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(b) != len(big) {
		t.Fatalf("file size = %d, want %d after truncation", len(b), len(big))
	}
}
