package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewLookupPathsSystemScope(t *testing.T) {
	lp, err := NewLookupPaths(ScopeSystem, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if lp.PersistentConfig != "/etc/systemd/system" {
		t.Fatalf("got %q", lp.PersistentConfig)
	}
	if len(lp.SearchPath) == 0 || lp.SearchPath[0] != lp.PersistentConfig {
		t.Fatalf("expected persistent config to be highest priority, got %v", lp.SearchPath)
	}
}

func TestNewLookupPathsAppliesRootDir(t *testing.T) {
	root := t.TempDir()
	lp, err := NewLookupPaths(ScopeSystem, root)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := filepath.Join(root, "/etc/systemd/system")
	if lp.PersistentConfig != want {
		t.Fatalf("got %q, want %q", lp.PersistentConfig, want)
	}
	for _, dir := range lp.SearchPath {
		if !strings.HasPrefix(dir, root) {
			t.Fatalf("search_path entry %q does not start with root_dir", dir)
		}
	}
}

func TestSkipRoot(t *testing.T) {
	root := t.TempDir()
	lp, _ := NewLookupPaths(ScopeSystem, root)

	got, err := lp.SkipRoot(filepath.Join(root, "/etc/systemd/system/foo.service"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "/etc/systemd/system/foo.service" {
		t.Fatalf("got %q", got)
	}
}

func TestSkipRootRejectsPathOutsideRoot(t *testing.T) {
	root := t.TempDir()
	lp, _ := NewLookupPaths(ScopeSystem, root)

	if _, err := lp.SkipRoot("/some/other/path"); !IsKind(err, ErrNotUnderRoot) {
		t.Fatalf("expected NotUnderRoot, got %v", err)
	}
}

func TestSkipRootNoopWithoutRootDir(t *testing.T) {
	lp, _ := NewLookupPaths(ScopeSystem, "")
	got, err := lp.SkipRoot("/etc/systemd/system/foo.service")
	if err != nil || got != "/etc/systemd/system/foo.service" {
		t.Fatalf("got %q, %v", got, err)
	}
}

func TestClassifyConfig(t *testing.T) {
	lp, _ := NewLookupPaths(ScopeSystem, "")
	cat, err := lp.Classify(filepath.Join(lp.PersistentConfig, "foo.service"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cat != CategoryConfig {
		t.Fatalf("got %v, want CategoryConfig", cat)
	}
}

func TestClassifyRuntime(t *testing.T) {
	lp, _ := NewLookupPaths(ScopeSystem, "")
	cat, err := lp.Classify(filepath.Join(lp.RuntimeConfig, "foo.service"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cat != CategoryRuntime {
		t.Fatalf("got %v, want CategoryRuntime", cat)
	}
}

func TestProbeSearchPathFindsHitsInDeclaredOrder(t *testing.T) {
	dirA := t.TempDir()
	dirB := t.TempDir()
	os.WriteFile(filepath.Join(dirA, "foo.service"), []byte("x"), 0o644)
	os.WriteFile(filepath.Join(dirB, "foo.service"), []byte("x"), 0o644)

	lp := &LookupPaths{SearchPath: []string{dirA, dirB}}
	hits, err := lp.ProbeSearchPath(context.Background(), "foo.service")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 2 || hits[0] != filepath.Join(dirA, "foo.service") {
		t.Fatalf("got %v", hits)
	}
}

func TestProbeSearchPathNoHits(t *testing.T) {
	dir := t.TempDir()
	lp := &LookupPaths{SearchPath: []string{dir}}
	hits, err := lp.ProbeSearchPath(context.Background(), "missing.service")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("got %v, want no hits", hits)
	}
}
