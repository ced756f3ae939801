package tooldef

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// Loader loads tool definitions from one source file. Implementations wrap
// whatever compile/transpile mechanism produces runnable tool code; the
// registry only sees the result. A failed load of one file must not affect
// sibling files.
type Loader interface {
	// Extensions returns the file name suffixes this loader accepts,
	// including the dot.
	Extensions() []string
	// Load reads one file and returns the definitions it exports.
	Load(ctx context.Context, file string) ([]Definition, error)
}

// LoadFailure records one file that failed to load or validate.
type LoadFailure struct {
	File string
	Err  error
}

// LoadReport summarizes a batch load: which tools registered and which files
// failed. Failures never abort the batch.
type LoadReport struct {
	Loaded   []string
	Failures []LoadFailure
}

type entry struct {
	def    Definition
	source string
}

// Registry is a name-keyed store of tool definitions. Re-registration under
// the same name overwrites; directories loaded later override earlier ones.
// Safe for concurrent use.
type Registry struct {
	mu     sync.RWMutex
	defs   map[string]entry
	dirMod map[string]time.Time
	loader Loader
	logger *slog.Logger
}

// NewRegistry creates an empty registry. loader may be nil if Load is never
// used; logger may be nil for a default logger.
func NewRegistry(loader Loader, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		defs:   make(map[string]entry),
		dirMod: make(map[string]time.Time),
		loader: loader,
		logger: logger,
	}
}

// Register validates def and stores it keyed by name, overwriting any prior
// entry. source records where the definition came from (a file path, or ""
// for static registration).
func (r *Registry) Register(def Definition, source string) error {
	if err := def.Validate(); err != nil {
		return fmt.Errorf("invalid tool definition %q: %w", def.Name, err)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs[def.Name] = entry{def: def, source: source}
	return nil
}

// Get returns the definition registered under name.
func (r *Registry) Get(name string) (Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.defs[name]
	return e.def, ok
}

// Source returns the source path the named tool was loaded from.
func (r *Registry) Source(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.defs[name]
	return e.source, ok
}

// List returns all definitions sorted by name.
func (r *Registry) List() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]Definition, 0, len(r.defs))
	for _, e := range r.defs {
		defs = append(defs, e.def)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Remove deletes the named tool.
func (r *Registry) Remove(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.defs, name)
}

// Clear empties the registry and forgets directory staleness state.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.defs = make(map[string]entry)
	r.dirMod = make(map[string]time.Time)
}

// Load scans each directory in order and registers every definition the
// loader produces. Directories are independent failure domains: per-file
// failures are collected, never thrown, and a later directory's tool of the
// same name overrides an earlier one because directories are processed
// strictly in order.
func (r *Registry) Load(ctx context.Context, dirs []string) (*LoadReport, error) {
	if r.loader == nil {
		return nil, fmt.Errorf("registry has no loader configured")
	}
	report := &LoadReport{}
	for _, dir := range dirs {
		if err := r.loadDir(ctx, dir, report); err != nil {
			// A missing or unreadable directory is a failure of that
			// directory only.
			report.Failures = append(report.Failures, LoadFailure{File: dir, Err: err})
		}
	}
	return report, nil
}

// LoadIfStale re-scans dir only if its modification time advanced since the
// last successful scan, avoiding recompiles on every request.
func (r *Registry) LoadIfStale(ctx context.Context, dir string) (*LoadReport, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", dir, err)
	}
	r.mu.RLock()
	last, seen := r.dirMod[dir]
	r.mu.RUnlock()
	if seen && !info.ModTime().After(last) {
		return &LoadReport{}, nil
	}

	report := &LoadReport{}
	if err := r.loadDir(ctx, dir, report); err != nil {
		return nil, err
	}
	r.mu.Lock()
	r.dirMod[dir] = info.ModTime()
	r.mu.Unlock()
	return report, nil
}

func (r *Registry) loadDir(ctx context.Context, dir string, report *LoadReport) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("read dir %s: %w", dir, err)
	}
	for _, de := range entries {
		if de.IsDir() || !r.accepts(de.Name()) {
			continue
		}
		file := filepath.Join(dir, de.Name())
		defs, err := r.loader.Load(ctx, file)
		if err != nil {
			report.Failures = append(report.Failures, LoadFailure{File: file, Err: err})
			continue
		}
		for _, def := range defs {
			if err := r.Register(def, file); err != nil {
				report.Failures = append(report.Failures, LoadFailure{File: file, Err: err})
				continue
			}
			report.Loaded = append(report.Loaded, def.Name)
			r.logger.Debug("tool loaded", slog.String("name", def.Name), slog.String("file", file))
		}
	}
	return nil
}

func (r *Registry) accepts(name string) bool {
	for _, ext := range r.loader.Extensions() {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}
