// Package importresolver implements the ImportLookup(path) -> {
// symbolTable, docString } contract as an external collaborator
// surface: a synchronous, pre-loaded-module table lookup by canonical
// path. Grounded on internal/module/resolver.go's path-normalization
// and project-root-marker-file idiom, retargeted from resolving
// source files on disk to resolving canonical module paths against a
// table populated ahead of time by the driver (the evaluator never
// performs I/O itself).
package importresolver

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/typeeval/core/internal/types"
)

// Result is one ImportLookup hit.
type Result struct {
	SymbolTable *types.SymbolTable
	DocString   string
}

// Resolver holds the canonical-path table a driver populates as it
// loads modules, plus the project-root/search-path machinery used to
// canonicalize a raw import path before consulting that table.
type Resolver struct {
	projectRoot string
	searchPaths []string

	modules map[string]*Result
}

// New builds a Resolver, locating the project root the same way
// internal/module/resolver.go's findProjectRoot does: walk upward from
// the working directory looking for a marker file.
func New() *Resolver {
	return &Resolver{
		projectRoot: findProjectRoot(),
		searchPaths: searchPathsFromEnv(),
		modules:     make(map[string]*Result),
	}
}

// Register makes path resolvable by ImportLookup, called by the
// driver once it has parsed and bound a module's symbol table.
func (r *Resolver) Register(path string, table *types.SymbolTable, docString string) {
	r.modules[r.Canonicalize(path, "")] = &Result{SymbolTable: table, DocString: docString}
}

// ImportLookup implements the evaluator's external collaborator
// contract: synchronous, returns ok=false for a path never
// registered (reported by the caller as an unresolved-import
// diagnostic, not an error from this package).
func (r *Resolver) ImportLookup(path string) (Result, bool) {
	res, ok := r.modules[r.Canonicalize(path, "")]
	if !ok {
		return Result{}, false
	}
	return *res, true
}

// Canonicalize normalizes an import path the way
// internal/module/resolver.go's ResolveImport dispatch does — relative
// paths resolved against currentFile's directory, everything else
// flattened to forward-slash separators relative to the project root —
// without touching the filesystem, since resolution here is a pure
// string operation over paths the driver already loaded.
func (r *Resolver) Canonicalize(path, currentFile string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	path = strings.TrimSuffix(path, ".py")
	path = strings.TrimSuffix(path, ".pyi")

	switch {
	case strings.HasPrefix(path, "./") || strings.HasPrefix(path, "../"):
		if currentFile == "" {
			return path
		}
		dir := filepath.ToSlash(filepath.Dir(currentFile))
		joined := filepath.ToSlash(filepath.Join(dir, path))
		return r.relativeToRoot(joined)
	default:
		return path
	}
}

func (r *Resolver) relativeToRoot(absOrRelPath string) string {
	rootSlash := filepath.ToSlash(r.projectRoot)
	if strings.HasPrefix(absOrRelPath, rootSlash) {
		rel := strings.TrimPrefix(absOrRelPath, rootSlash)
		return strings.TrimPrefix(rel, "/")
	}
	return absOrRelPath
}

// SearchPaths returns the additional directories a higher-level driver
// should scan for module files, mirroring
// internal/module/resolver.go's getSearchPaths environment-variable
// convention (an evaluator-agnostic knob; the evaluator core itself
// never touches the filesystem).
func (r *Resolver) SearchPaths() []string { return r.searchPaths }

// ProjectRoot returns the discovered project root.
func (r *Resolver) ProjectRoot() string { return r.projectRoot }

func findProjectRoot() string {
	markers := []string{"go.mod", ".git", "pyproject.toml", "setup.py"}
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

func searchPathsFromEnv() []string {
	var paths []string
	if raw := os.Getenv("TYPEEVAL_PATH"); raw != "" {
		for _, p := range strings.Split(raw, string(os.PathListSeparator)) {
			if p != "" {
				paths = append(paths, p)
			}
		}
	}
	return paths
}
