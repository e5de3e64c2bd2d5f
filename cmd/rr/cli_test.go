package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rr-lang/rr/internal/config"
)

func TestNormalizeOptFlagsTranslatesLegacySpellings(t *testing.T) {
	got := normalizeOptFlags([]string{"run", "-O2", "main.rr", "-o1", "--keep-r"})
	want := []string{"run", "--opt=2", "main.rr", "--opt=1", "--keep-r"}
	if len(got) != len(want) {
		t.Fatalf("length mismatch: got %v want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("arg %d: got %q want %q", i, got[i], want[i])
		}
	}
}

func TestNormalizeOptFlagsLeavesOtherArgsAlone(t *testing.T) {
	got := normalizeOptFlags([]string{"build", "--out-dir", "dist"})
	want := []string{"build", "--out-dir", "dist"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("arg %d: got %q want %q", i, got[i], want[i])
		}
	}
}

func TestOptLevelFlagSetAcceptsBothSpellings(t *testing.T) {
	var level config.OptLevel
	f := &optLevelFlag{level: &level}

	for _, s := range []string{"0", "O0", "o0"} {
		if err := f.Set(s); err != nil {
			t.Fatalf("Set(%q): %v", s, err)
		}
		if level != config.O0 {
			t.Fatalf("Set(%q): expected O0, got %v", s, level)
		}
	}
	for _, s := range []string{"2", "O2", "o2", "O"} {
		if err := f.Set(s); err != nil {
			t.Fatalf("Set(%q): %v", s, err)
		}
		if level != config.O2 {
			t.Fatalf("Set(%q): expected O2, got %v", s, level)
		}
	}
	if err := f.Set("9"); err == nil {
		t.Fatalf("expected an error for an invalid optimization level")
	}
}

func TestResolveRunInputResolvesDirectoryToMainRR(t *testing.T) {
	dir := t.TempDir()
	mainPath := filepath.Join(dir, "main.rr")
	if err := os.WriteFile(mainPath, []byte("fn f() { return 1; }"), 0o644); err != nil {
		t.Fatalf("write main.rr: %v", err)
	}

	got, err := resolveRunInput(dir)
	if err != nil {
		t.Fatalf("resolveRunInput: %v", err)
	}
	if got != mainPath {
		t.Fatalf("got %q, want %q", got, mainPath)
	}
}

func TestResolveRunInputRejectsMissingMainRR(t *testing.T) {
	dir := t.TempDir()
	if _, err := resolveRunInput(dir); err == nil {
		t.Fatalf("expected an error when main.rr is absent")
	}
}

func TestResolveRunInputRejectsNonRRFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(path, []byte("hi"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := resolveRunInput(path); err == nil {
		t.Fatalf("expected an error for a non-.rr file")
	}
}

func TestCollectRRFilesSkipsBuildDirectories(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.rr"), []byte("fn a(){return 1;}"), 0o644); err != nil {
		t.Fatalf("write a.rr: %v", err)
	}
	buildDir := filepath.Join(dir, "build")
	if err := os.MkdirAll(buildDir, 0o755); err != nil {
		t.Fatalf("mkdir build: %v", err)
	}
	if err := os.WriteFile(filepath.Join(buildDir, "stale.rr"), []byte("fn b(){return 1;}"), 0o644); err != nil {
		t.Fatalf("write stale.rr: %v", err)
	}
	sub := filepath.Join(dir, "pkg")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("mkdir pkg: %v", err)
	}
	if err := os.WriteFile(filepath.Join(sub, "b.rr"), []byte("fn b(){return 1;}"), 0o644); err != nil {
		t.Fatalf("write pkg/b.rr: %v", err)
	}

	files, err := collectRRFiles(dir)
	if err != nil {
		t.Fatalf("collectRRFiles: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("expected 2 files, got %d: %v", len(files), files)
	}
	for _, f := range files {
		if filepath.Dir(f) == buildDir {
			t.Fatalf("expected build/ to be skipped, found %s", f)
		}
	}
}

func TestWithExtReplacesExtension(t *testing.T) {
	if got := withExt("pkg/a.rr", ".R"); got != "pkg/a.R" {
		t.Fatalf("got %q", got)
	}
}
