// Package capability describes what each backend's models can do: native
// function calling, image input, prompt caching, and context limits. The
// built-in tables ship embedded as YAML, one file per backend, and can be
// overridden at runtime for models the tables don't know yet.
package capability

import (
	"embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed config/*.yaml
var configFS embed.FS

// Model describes one model's capabilities.
type Model struct {
	SupportsNativeTools bool   `yaml:"supports_native_tools"`
	DefaultToolProtocol string `yaml:"default_tool_protocol"`
	SupportsImages      bool   `yaml:"supports_images"`
	SupportsPromptCache bool   `yaml:"supports_prompt_cache"`
	MaxTokens           int    `yaml:"max_tokens"`
	ContextWindow       int    `yaml:"context_window"`
}

type backendFile struct {
	Backend  string           `yaml:"backend"`
	Defaults Model            `yaml:"defaults"`
	Models   map[string]Model `yaml:"models"`
}

type backendEntry struct {
	defaults Model
	models   map[string]Model
}

// Registry answers capability lookups. Safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	backends map[string]backendEntry
}

// NewRegistry loads the embedded capability tables.
func NewRegistry() (*Registry, error) {
	entries, err := configFS.ReadDir("config")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded capability config: %w", err)
	}
	r := &Registry{backends: make(map[string]backendEntry)}
	for _, entry := range entries {
		data, err := configFS.ReadFile("config/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", entry.Name(), err)
		}
		var bf backendFile
		if err := yaml.Unmarshal(data, &bf); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", entry.Name(), err)
		}
		if bf.Backend == "" {
			return nil, fmt.Errorf("%s: missing backend name", entry.Name())
		}
		if bf.Models == nil {
			bf.Models = make(map[string]Model)
		}
		r.backends[bf.Backend] = backendEntry{defaults: bf.Defaults, models: bf.Models}
	}
	return r, nil
}

// Lookup returns the capabilities of model on backend. Resolution order:
// exact model id, then the longest matching id prefix from the table, then
// the backend defaults. Unknown backends report false.
func (r *Registry) Lookup(backend, model string) (Model, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.backends[backend]
	if !ok {
		return Model{}, false
	}
	if m, ok := entry.models[model]; ok {
		return m, true
	}

	// Longest prefix wins so "claude-3-5" beats "claude-3" for
	// claude-3-5-sonnet ids.
	keys := make([]string, 0, len(entry.models))
	for k := range entry.models {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return len(keys[i]) > len(keys[j]) })
	for _, k := range keys {
		if strings.HasPrefix(model, k) {
			return entry.models[k], true
		}
	}
	return entry.defaults, true
}

// Register installs or overrides a model's capabilities at runtime. The
// backend is created with zero defaults if it was unknown.
func (r *Registry) Register(backend, model string, m Model) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entry, ok := r.backends[backend]
	if !ok {
		entry = backendEntry{models: make(map[string]Model)}
	}
	entry.models[model] = m
	r.backends[backend] = entry
}

// Backends returns the known backend names, sorted.
func (r *Registry) Backends() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
