// Package module implements RR's module graph: loading source files named
// by import paths, parsing them, and assembling the dependency graph the
// pipeline walks before HIR lowering.
package module

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/rr-lang/rr/internal/ast"
	"github.com/rr-lang/rr/internal/errors"
	"github.com/rr-lang/rr/internal/parser"
)

// Module is one parsed RR source file plus its dependency metadata.
type Module struct {
	Identity     string
	FilePath     string
	Program      *ast.Program
	Dependencies []string
	Exports      map[string]*ast.FnDecl
}

// Loader loads modules by import path, caching by canonical identity and
// rejecting import cycles.
type Loader struct {
	cache map[string]*Module
	mu    sync.RWMutex

	searchPaths []string
	currentFile string
	loadStack   []string

	log *logrus.Logger
}

// NewLoader creates a Loader with search paths from RR_PATH plus ".".
func NewLoader() *Loader {
	l := &Loader{
		cache:       make(map[string]*Module),
		searchPaths: getDefaultSearchPaths(),
		log:         logrus.New(),
	}
	l.log.SetOutput(os.Stderr)
	if os.Getenv("RR_VERBOSE_LOG") == "" {
		l.log.SetLevel(logrus.WarnLevel)
	} else {
		l.log.SetLevel(logrus.TraceLevel)
	}
	return l
}

func getDefaultSearchPaths() []string {
	paths := []string{"."}
	if rrPath := os.Getenv("RR_PATH"); rrPath != "" {
		paths = append(paths, strings.Split(rrPath, string(os.PathListSeparator))...)
	}
	return paths
}

// LoadFile loads the module rooted at filePath and its transitive imports.
func (l *Loader) LoadFile(filePath string) (*Module, error) {
	absPath, err := filepath.Abs(filePath)
	if err != nil {
		return nil, fmt.Errorf("invalid file path: %w", err)
	}
	identity := l.deriveModuleIdentity(absPath)

	oldFile := l.currentFile
	l.currentFile = absPath
	defer func() { l.currentFile = oldFile }()

	if mod := l.getCached(identity); mod != nil {
		return mod, nil
	}
	l.log.WithField("module", identity).Trace("loading module")

	mod, err := l.parseModule(identity, absPath)
	if err != nil {
		return nil, err
	}
	if err := l.loadDependencies(mod); err != nil {
		return nil, err
	}
	l.cacheModule(mod)
	return mod, nil
}

// Load resolves importPath relative to the currently loading file and
// loads it (and its dependencies), detecting import cycles.
func (l *Loader) Load(importPath string) (*Module, error) {
	identity := normalizeModulePath(importPath)
	if mod := l.getCached(identity); mod != nil {
		return mod, nil
	}
	if err := l.checkCycle(identity); err != nil {
		return nil, err
	}
	l.pushStack(identity)
	defer l.popStack()

	filePath, err := l.resolvePath(importPath)
	if err != nil {
		return nil, l.moduleNotFoundError(importPath, err)
	}

	oldFile := l.currentFile
	l.currentFile = filePath
	defer func() { l.currentFile = oldFile }()

	l.log.WithField("module", identity).Trace("loading module")
	mod, err := l.parseModule(identity, filePath)
	if err != nil {
		return nil, err
	}
	if err := l.loadDependencies(mod); err != nil {
		return nil, err
	}
	l.cacheModule(mod)
	return mod, nil
}

func (l *Loader) parseModule(identity, filePath string) (*Module, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read module file: %w", err)
	}

	p := parser.New(string(content), filePath)
	program, _ := p.ParseProgram()
	if len(p.Errors()) > 0 {
		return nil, l.parseError(filePath, p.Errors())
	}

	mod := &Module{
		Identity:     identity,
		FilePath:     filePath,
		Program:      program,
		Dependencies: extractDependencies(program),
		Exports:      extractExports(program),
	}
	return mod, nil
}

func (l *Loader) resolvePath(importPath string) (string, error) {
	if strings.HasPrefix(importPath, "./") || strings.HasPrefix(importPath, "../") {
		if l.currentFile == "" {
			return "", fmt.Errorf("relative import '%s' with no current file", importPath)
		}
		dir := filepath.Dir(l.currentFile)
		path := withRRExt(filepath.Join(dir, importPath))
		if _, err := os.Stat(path); err == nil {
			return filepath.Abs(path)
		}
		return "", fmt.Errorf("module not found: %s", path)
	}

	for _, searchPath := range l.searchPaths {
		path := withRRExt(filepath.Join(searchPath, importPath))
		if _, err := os.Stat(path); err == nil {
			return filepath.Abs(path)
		}
	}
	return "", fmt.Errorf("module not found in search paths: %s", importPath)
}

func withRRExt(path string) string {
	if strings.HasSuffix(path, ".rr") {
		return path
	}
	return path + ".rr"
}

func (l *Loader) loadDependencies(mod *Module) error {
	for _, dep := range mod.Dependencies {
		if _, err := l.Load(dep); err != nil {
			return fmt.Errorf("failed to load dependency '%s': %w", dep, err)
		}
	}
	return nil
}

func (l *Loader) getCached(identity string) *Module {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.cache[identity]
}

func (l *Loader) cacheModule(mod *Module) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.cache[mod.Identity] = mod
}

func (l *Loader) checkCycle(identity string) error {
	for i, id := range l.loadStack {
		if id == identity {
			cycle := append(append([]string{}, l.loadStack[i:]...), identity)
			return l.circularDependencyError(cycle)
		}
	}
	return nil
}

func (l *Loader) pushStack(identity string) { l.loadStack = append(l.loadStack, identity) }

func (l *Loader) popStack() {
	if len(l.loadStack) > 0 {
		l.loadStack = l.loadStack[:len(l.loadStack)-1]
	}
}

func normalizeModulePath(path string) string {
	path = strings.TrimSuffix(path, ".rr")
	return strings.ReplaceAll(path, "\\", "/")
}

func (l *Loader) deriveModuleIdentity(filePath string) string {
	identity := strings.TrimSuffix(filepath.Base(filePath), ".rr")
	for _, searchPath := range l.searchPaths {
		if absSearch, err := filepath.Abs(searchPath); err == nil {
			if strings.HasPrefix(filePath, absSearch) {
				rel, _ := filepath.Rel(absSearch, filePath)
				identity = strings.TrimSuffix(rel, ".rr")
				identity = strings.ReplaceAll(identity, string(filepath.Separator), "/")
				break
			}
		}
	}
	return identity
}

func extractDependencies(program *ast.Program) []string {
	var deps []string
	for _, imp := range program.Imports {
		deps = append(deps, imp.Path)
	}
	return deps
}

// extractExports treats every top-level fn declaration as exported; RR
// has no explicit export syntax.
func extractExports(program *ast.Program) map[string]*ast.FnDecl {
	exports := make(map[string]*ast.FnDecl)
	for _, item := range program.Items {
		if fn, ok := item.(*ast.FnDecl); ok {
			exports[fn.Name] = fn
		}
	}
	return exports
}

func (l *Loader) moduleNotFoundError(path string, cause error) error {
	rep := errors.New(errors.SemanticError, "module", fmt.Sprintf("module not found: %s", path), nil).
		WithData(map[string]any{"trace": l.buildResolutionTrace(), "cause": cause.Error()})
	return errors.WrapReport(rep)
}

func (l *Loader) circularDependencyError(cycle []string) error {
	rep := errors.New(errors.SemanticError, "module", "circular module dependency detected", nil).
		WithData(map[string]any{"cycle": cycle})
	return errors.WrapReport(rep)
}

func (l *Loader) parseError(path string, errs []error) error {
	if len(errs) > 0 {
		rep := errors.New(errors.ParseError, "parser", fmt.Sprintf("parse error in %s: %v", path, errs[0]), nil)
		return errors.WrapReport(rep)
	}
	return fmt.Errorf("parse error in %s", path)
}

func (l *Loader) buildResolutionTrace() []string {
	var trace []string
	for i, id := range l.loadStack {
		if i == 0 {
			trace = append(trace, fmt.Sprintf("resolving %s", id))
		} else {
			trace = append(trace, fmt.Sprintf("%s-> import %s", strings.Repeat("  ", i), id))
		}
	}
	return trace
}

// GetDependencyGraph returns the currently cached module dependency graph.
func (l *Loader) GetDependencyGraph() map[string][]string {
	l.mu.RLock()
	defer l.mu.RUnlock()
	graph := make(map[string][]string)
	for id, mod := range l.cache {
		graph[id] = mod.Dependencies
	}
	return graph
}

// TopologicalSort returns loaded module identities in dependency order
// (dependencies before dependents), via Kahn's algorithm.
func (l *Loader) TopologicalSort() ([]string, error) {
	graph := l.GetDependencyGraph()
	reverseGraph := make(map[string][]string)
	inDegree := make(map[string]int)

	for node := range graph {
		if _, ok := reverseGraph[node]; !ok {
			reverseGraph[node] = nil
		}
		inDegree[node] = 0
	}
	for node, deps := range graph {
		for _, dep := range deps {
			reverseGraph[dep] = append(reverseGraph[dep], node)
		}
		inDegree[node] = len(deps)
	}

	var queue []string
	for node, degree := range inDegree {
		if degree == 0 {
			queue = append(queue, node)
		}
	}

	var result []string
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		result = append(result, node)
		for _, dependent := range reverseGraph[node] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
	}
	if len(result) != len(graph) {
		return nil, fmt.Errorf("circular dependency detected")
	}
	return result, nil
}

// DumpModules writes a human-readable summary of every cached module to w.
func (l *Loader) DumpModules(w io.Writer) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	fmt.Fprintf(w, "Loaded Modules:\n")
	for id, mod := range l.cache {
		fmt.Fprintf(w, "  %s:\n", id)
		fmt.Fprintf(w, "    File: %s\n", mod.FilePath)
		fmt.Fprintf(w, "    Dependencies: %v\n", mod.Dependencies)
		fmt.Fprintf(w, "    Exports: %v\n", exportNames(mod))
	}
}

func exportNames(mod *Module) []string {
	names := make([]string, 0, len(mod.Exports))
	for name := range mod.Exports {
		names = append(names, name)
	}
	return names
}
