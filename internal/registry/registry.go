// Package registry implements the shared, file-path-keyed store of parsed
// ASTs that `include` resolves against. It enforces the two-phase
// compile-then-generate barrier: every compile() call across every worker
// must finish before any generate() call starts reading it, so the map
// itself needs no per-read locking discipline beyond what concurrent
// compiles require.
package registry

import (
	"sync"

	"github.com/tplpp/tplpp/internal/ast"
	"github.com/tplpp/tplpp/internal/source"
)

// Entry pairs a parsed file with the buffer its tokens and AST positions
// borrow from, since diagnostics raised against an included file need that
// buffer's source line text.
type Entry struct {
	File *ast.File
	Buf  *source.Buffer
}

// Registry is the process-wide `{file_path -> Entry}` map, safe for
// concurrent Put calls during the compile phase and concurrent Get calls
// during the generate phase.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{entries: make(map[string]Entry)}
}

// Put records the successfully compiled file at path. Called only during
// the compile phase.
func (r *Registry) Put(path string, file *ast.File, buf *source.Buffer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[path] = Entry{File: file, Buf: buf}
}

// Get looks up path, returning ok=false if it was never compiled
// successfully (a header that failed to parse, or one never passed on the
// command line). Safe to call only after every compile() has returned.
func (r *Registry) Get(path string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[path]
	return e, ok
}
