package module

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Resolver provides path-resolution utilities independent of a live
// Loader — used by the CLI to validate `rr build <dir>` roots and by
// tests that want resolution behavior without a full load.
type Resolver struct {
	projectRoot string
	searchPaths []string
}

// NewResolver creates a Resolver rooted at the nearest go.mod/.git
// ancestor of the working directory, plus RR_PATH search directories.
func NewResolver() *Resolver {
	return &Resolver{
		projectRoot: findProjectRoot(),
		searchPaths: getSearchPaths(),
	}
}

// NormalizePath cleans, absolutizes, and resolves symlinks for path.
func (r *Resolver) NormalizePath(path string) (string, error) {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to expand home directory: %w", err)
		}
		path = filepath.Join(home, path[1:])
	}
	path = filepath.Clean(path)
	if !filepath.IsAbs(path) {
		abs, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("failed to make path absolute: %w", err)
		}
		path = abs
	}
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		if os.IsNotExist(err) {
			return path, nil
		}
		return "", fmt.Errorf("failed to resolve symlinks: %w", err)
	}
	return resolved, nil
}

// ResolveImport resolves importPath (relative or bare) to a file path,
// given the file doing the importing.
func (r *Resolver) ResolveImport(importPath, currentFile string) (string, error) {
	if strings.HasPrefix(importPath, "./") || strings.HasPrefix(importPath, "../") {
		return r.resolveRelativeImport(importPath, currentFile)
	}
	return r.resolveProjectImport(importPath)
}

func (r *Resolver) resolveRelativeImport(importPath, currentFile string) (string, error) {
	if currentFile == "" {
		return "", fmt.Errorf("relative import '%s' requires a current file context", importPath)
	}
	dir := filepath.Dir(currentFile)
	path := withRRExt(filepath.Join(dir, importPath))
	normalized, err := r.NormalizePath(path)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(normalized); err != nil {
		return "", fmt.Errorf("module not found: %s", importPath)
	}
	return normalized, nil
}

func (r *Resolver) resolveProjectImport(importPath string) (string, error) {
	path := withRRExt(filepath.Join(r.projectRoot, importPath))
	if normalized, err := r.NormalizePath(path); err == nil {
		if _, err := os.Stat(normalized); err == nil {
			return normalized, nil
		}
	}
	for _, searchPath := range r.searchPaths {
		path := withRRExt(filepath.Join(searchPath, importPath))
		if normalized, err := r.NormalizePath(path); err == nil {
			if _, err := os.Stat(normalized); err == nil {
				return normalized, nil
			}
		}
	}
	return "", fmt.Errorf("module not found: %s", importPath)
}

// GetModuleIdentity derives a canonical module identity from a file path.
func (r *Resolver) GetModuleIdentity(filePath string) (string, error) {
	normalized, err := r.NormalizePath(filePath)
	if err != nil {
		return "", err
	}
	identity := strings.TrimSuffix(normalized, ".rr")
	if strings.HasPrefix(normalized, r.projectRoot) {
		rel, err := filepath.Rel(r.projectRoot, identity)
		if err == nil {
			return strings.ReplaceAll(rel, string(filepath.Separator), "/"), nil
		}
	}
	return filepath.Base(identity), nil
}

func findProjectRoot() string {
	markers := []string{"go.mod", ".git", "rr.yaml"}
	dir, err := os.Getwd()
	if err != nil {
		return "."
	}
	for {
		for _, marker := range markers {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	pwd, _ := os.Getwd()
	return pwd
}

func getSearchPaths() []string {
	var paths []string
	if rrPath := os.Getenv("RR_PATH"); rrPath != "" {
		for _, p := range strings.Split(rrPath, string(os.PathListSeparator)) {
			if p != "" {
				paths = append(paths, p)
			}
		}
	}
	paths = append(paths, findProjectRoot())
	return paths
}
