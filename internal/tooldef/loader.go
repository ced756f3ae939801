package tooldef

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// CachedLoader wraps a Loader with a staleness cache keyed by a hash of the
// absolute path and file-modification time, so repeated loads of an unchanged
// file skip the (potentially slow) underlying compile step. Loads of the same
// file are not deduplicated while in flight; the inner loader must tolerate
// concurrent calls.
type CachedLoader struct {
	inner Loader

	mu    sync.Mutex
	cache map[string][]Definition
}

// NewCachedLoader wraps inner with mtime-keyed caching.
func NewCachedLoader(inner Loader) *CachedLoader {
	return &CachedLoader{
		inner: inner,
		cache: make(map[string][]Definition),
	}
}

// Extensions defers to the inner loader.
func (l *CachedLoader) Extensions() []string {
	return l.inner.Extensions()
}

// Load returns cached definitions when the file is unchanged, otherwise
// delegates to the inner loader and caches the result.
func (l *CachedLoader) Load(ctx context.Context, file string) ([]Definition, error) {
	key, err := cacheKey(file)
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	defs, ok := l.cache[key]
	l.mu.Unlock()
	if ok {
		return defs, nil
	}

	defs, err = l.inner.Load(ctx, file)
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.cache[key] = defs
	l.mu.Unlock()
	return defs, nil
}

func cacheKey(file string) (string, error) {
	abs, err := filepath.Abs(file)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", file, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", abs, err)
	}
	sum := sha256.Sum256(fmt.Appendf(nil, "%s|%d", abs, info.ModTime().UnixNano()))
	return hex.EncodeToString(sum[:]), nil
}

// manifest is the on-disk shape a ManifestLoader reads: a single definition or
// an array of them.
type manifest struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// ExecResolver binds a tool name to its executable implementation. The
// manifest format carries only the declaration; the code behind it comes from
// whatever dynamic-loading mechanism the embedding application uses.
type ExecResolver func(name string) ExecuteFunc

// ManifestLoader loads .json tool manifests and binds their execute functions
// through an ExecResolver.
type ManifestLoader struct {
	Resolve ExecResolver
}

// Extensions returns the manifest file suffix.
func (l *ManifestLoader) Extensions() []string {
	return []string{".json"}
}

// Load parses one manifest file. A file may hold a single manifest object or
// an array; each candidate is validated independently and the first invalid
// one fails the whole file (the registry isolates the failure to this file).
func (l *ManifestLoader) Load(ctx context.Context, file string) ([]Definition, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", file, err)
	}

	var manifests []manifest
	if err := json.Unmarshal(data, &manifests); err != nil {
		var single manifest
		if err := json.Unmarshal(data, &single); err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		manifests = []manifest{single}
	}

	var defs []Definition
	for _, m := range manifests {
		var exec ExecuteFunc
		if l.Resolve != nil {
			exec = l.Resolve(m.Name)
		}
		if exec == nil {
			return nil, fmt.Errorf("%s: no executable implementation for tool %q", file, m.Name)
		}
		def, err := New(m.Name, m.Description, m.Parameters, exec)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", file, err)
		}
		defs = append(defs, def)
	}
	return defs, nil
}
