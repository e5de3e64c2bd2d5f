package module

import (
	"os"
	"path/filepath"
	"testing"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestLoaderResolvesRelativeImports(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "util.rr", "fn helper(x) { return x + 1; }")
	mainPath := writeFile(t, dir, "main.rr", `import "./util.rr";
fn main() { return helper(1); }`)

	l := NewLoader()
	mod, err := l.LoadFile(mainPath)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if len(mod.Dependencies) != 1 || mod.Dependencies[0] != "./util.rr" {
		t.Fatalf("expected one dependency './util.rr', got %v", mod.Dependencies)
	}
	if _, ok := mod.Exports["main"]; !ok {
		t.Fatalf("expected 'main' exported, got %v", mod.Exports)
	}

	graph := l.GetDependencyGraph()
	if len(graph) != 2 {
		t.Fatalf("expected 2 modules in graph, got %d: %v", len(graph), graph)
	}

	order, err := l.TopologicalSort()
	if err != nil {
		t.Fatalf("TopologicalSort: %v", err)
	}
	if order[len(order)-1] != mod.Identity {
		t.Fatalf("expected root module last in topological order, got %v", order)
	}
}

func TestLoaderDetectsCycles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.rr", `import "./b.rr";
fn a() { return b(); }`)
	writeFile(t, dir, "b.rr", `import "./a.rr";
fn b() { return a(); }`)

	l := NewLoader()
	_, err := l.LoadFile(filepath.Join(dir, "a.rr"))
	if err == nil {
		t.Fatalf("expected circular dependency error, got nil")
	}
}

func TestLoaderMissingModule(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "main.rr", `import "./missing.rr";
fn main() { return 1; }`)

	l := NewLoader()
	_, err := l.LoadFile(filepath.Join(dir, "main.rr"))
	if err == nil {
		t.Fatalf("expected module-not-found error, got nil")
	}
}
