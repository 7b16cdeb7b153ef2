package storage

import (
	"context"
	"io"
	"path/filepath"
	"testing"
)

func newTestLocal(t *testing.T) *Local {
	t.Helper()
	l, err := NewLocal(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocal: %v", err)
	}
	return l
}

func writeFile(t *testing.T, l *Local, path, content string) {
	t.Helper()
	w, err := l.Write(context.Background(), path)
	if err != nil {
		t.Fatalf("Write %q: %v", path, err)
	}
	if _, err := w.Write([]byte(content)); err != nil {
		t.Fatalf("write %q: %v", path, err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close %q: %v", path, err)
	}
}

func TestLocalRoundTrip(t *testing.T) {
	ctx := context.Background()
	l := newTestLocal(t)

	writeFile(t, l, "sub/dir/file.txt", "hello")

	r, err := l.Read(ctx, "sub/dir/file.txt")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	data, err := io.ReadAll(r)
	r.Close()
	if err != nil || string(data) != "hello" {
		t.Fatalf("content = %q, %v", data, err)
	}

	exists, err := l.Exists(ctx, "sub/dir/file.txt")
	if err != nil || !exists {
		t.Fatalf("Exists = %v, %v", exists, err)
	}
	if exists, _ := l.Exists(ctx, "nope"); exists {
		t.Fatal("Exists reported a missing file")
	}
}

func TestLocalDeleteIdempotent(t *testing.T) {
	ctx := context.Background()
	l := newTestLocal(t)

	writeFile(t, l, "f.txt", "x")
	if err := l.Delete(ctx, "f.txt"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := l.Delete(ctx, "f.txt"); err != nil {
		t.Fatalf("Delete missing: %v", err)
	}
}

func TestLocalClearExtension(t *testing.T) {
	ctx := context.Background()
	l := newTestLocal(t)

	writeFile(t, l, "a.wav", "x")
	writeFile(t, l, "b.wav", "x")
	writeFile(t, l, "keep.txt", "x")
	// Files in subdirectories are untouched.
	writeFile(t, l, "sessions/c.wav", "x")

	n, err := l.ClearExtension(ctx, ".wav")
	if err != nil {
		t.Fatalf("ClearExtension: %v", err)
	}
	if n != 2 {
		t.Fatalf("removed %d files, want 2", n)
	}
	for path, want := range map[string]bool{
		"a.wav":          false,
		"b.wav":          false,
		"keep.txt":       true,
		"sessions/c.wav": true,
	} {
		if got, _ := l.Exists(ctx, path); got != want {
			t.Fatalf("%s exists = %v, want %v", path, got, want)
		}
	}
}

func TestLocalAbs(t *testing.T) {
	l := newTestLocal(t)
	abs := l.Abs("sub/f.wav")
	if !filepath.IsAbs(abs) {
		t.Fatalf("Abs returned relative path %q", abs)
	}
	if filepath.Base(abs) != "f.wav" {
		t.Fatalf("Abs = %q", abs)
	}
}
