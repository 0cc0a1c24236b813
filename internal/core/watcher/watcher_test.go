package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewWatcher_RejectsNilCallback(t *testing.T) {
	w, err := NewWatcher(Options{Debounce: 100 * time.Millisecond}, nil)
	if err == nil {
		t.Fatal("expected error for nil callback")
	}
	if !errors.Is(err, os.ErrInvalid) {
		t.Fatalf("expected os.ErrInvalid, got %v", err)
	}
	if w != nil {
		t.Fatal("expected nil watcher when callback is invalid")
	}
}

func TestNewWatcher_RejectsBadGlob(t *testing.T) {
	if _, err := NewWatcher(Options{ExcludeDirs: []string{"[bin"}}, func([]string) {}); err == nil {
		t.Fatal("expected error for invalid exclude glob")
	}
}

func TestWatcher(t *testing.T) {
	tmpDir := t.TempDir()
	output := filepath.Join(tmpDir, "context.txt")

	changedFiles := make(chan []string, 8)
	w, err := NewWatcher(Options{
		Debounce:    100 * time.Millisecond,
		ExcludeDirs: []string{"obj"},
		Extensions:  []string{".cs", "txt"},
		Ignore: func(path string, isDir bool) bool {
			return path == output
		},
	}, func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := os.MkdirAll(filepath.Join(tmpDir, "obj"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	testFile := filepath.Join(tmpDir, "App.cs")
	if err := os.WriteFile(testFile, []byte("namespace App { }"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case paths := <-changedFiles:
		found := false
		for _, p := range paths {
			if p == testFile {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("Expected to find %s in changed files %v", testFile, paths)
		}
	case <-time.After(2 * time.Second):
		t.Error("Timed out waiting for file change event")
	}

	// Filtered: wrong extension, the ignored output file, and an excluded dir.
	_ = os.WriteFile(filepath.Join(tmpDir, "notes.md"), []byte("x"), 0o644)
	_ = os.WriteFile(output, []byte("generated"), 0o644)
	_ = os.WriteFile(filepath.Join(tmpDir, "obj", "Gen.cs"), []byte("x"), 0o644)

	select {
	case paths := <-changedFiles:
		t.Errorf("Filtered files triggered event: %v", paths)
	case <-time.After(500 * time.Millisecond):
		// Expected
	}

	// New directory should be recursively watched after create.
	subdir := filepath.Join(tmpDir, "newdir")
	if err := os.MkdirAll(subdir, 0o755); err != nil {
		t.Fatal(err)
	}
	subFile := filepath.Join(subdir, "Nested.cs")
	if err := os.WriteFile(subFile, []byte("namespace Nested { }"), 0o644); err != nil {
		t.Fatal(err)
	}

	foundNested := false
	timeout := time.After(2 * time.Second)
	for !foundNested {
		select {
		case paths := <-changedFiles:
			for _, p := range paths {
				if p == subFile {
					foundNested = true
					break
				}
			}
		case <-timeout:
			t.Fatal("timed out waiting for nested file event in newly created directory")
		}
	}
}

func TestWatcher_RenameTriggersChange(t *testing.T) {
	tmpDir := t.TempDir()

	changedFiles := make(chan []string, 8)
	w, err := NewWatcher(Options{Debounce: 100 * time.Millisecond}, func(paths []string) {
		changedFiles <- paths
	})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	if err := w.Watch([]string{tmpDir}); err != nil {
		t.Fatal(err)
	}

	oldPath := filepath.Join(tmpDir, "Old.cs")
	newPath := filepath.Join(tmpDir, "New.cs")
	if err := os.WriteFile(oldPath, []byte("namespace A { }"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.Rename(oldPath, newPath); err != nil {
		t.Fatal(err)
	}

	timeout := time.After(2 * time.Second)
	for {
		select {
		case paths := <-changedFiles:
			for _, p := range paths {
				if p == oldPath || p == newPath {
					return
				}
			}
		case <-timeout:
			t.Fatalf("timed out waiting for rename event, old=%s new=%s", oldPath, newPath)
		}
	}
}

func TestWatcher_ExtensionFilters(t *testing.T) {
	w, err := NewWatcher(Options{Extensions: []string{"CS", " .md "}}, func([]string) {})
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	cases := map[string]bool{
		"src/App.cs":    false,
		"src/App.CS":    false,
		"README.md":     false,
		"main.py":       true,
		"Makefile":      true,
		"src/App.cs.bk": true,
	}
	for path, excluded := range cases {
		if got := w.shouldExcludeFile(path); got != excluded {
			t.Errorf("shouldExcludeFile(%q) = %v, want %v", path, got, excluded)
		}
	}

	unfiltered, err := NewWatcher(Options{}, func([]string) {})
	if err != nil {
		t.Fatal(err)
	}
	defer unfiltered.Close()
	if unfiltered.shouldExcludeFile("anything.bin") {
		t.Error("expected no extension filter to accept every file")
	}
}
