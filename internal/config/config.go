// Package config loads runtime configuration from environment variables
// (CHATWIRE_ prefix) layered over an optional YAML file. Environment wins.
package config

import (
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// envPrefix namespaces the process environment. Double underscore separates
// nesting levels so single underscores survive in key names:
// CHATWIRE_BACKEND__TOOL_PROTOCOL maps to backend.tool_protocol.
const envPrefix = "CHATWIRE_"

type Config struct {
	Backend BackendConfig `koanf:"backend"`
	Tools   ToolsConfig   `koanf:"tools"`
	State   StateConfig   `koanf:"state"`
}

type BackendConfig struct {
	// Name selects the encoder family: openai, anthropic, bedrock,
	// mistral, or deepseek.
	Name  string `koanf:"name"`
	Model string `koanf:"model"`
	// ToolProtocol is the operator preference: "native", "text", or empty
	// to defer to the model default.
	ToolProtocol string `koanf:"tool_protocol"`
	SystemPrompt string `koanf:"system_prompt"`
	CacheHints   bool   `koanf:"cache_hints"`
	MergeResults bool   `koanf:"merge_results"`
}

type ToolsConfig struct {
	// Dirs are scanned in order for tool manifests; later directories
	// override earlier ones on name collision.
	Dirs []string `koanf:"dirs"`
}

type StateConfig struct {
	// Path is the SQLite file holding per-task protocol locks.
	Path string `koanf:"path"`
}

// Load reads configuration from path (skipped when empty) and the
// environment, applies defaults, and unmarshals.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, envPrefix)), "__", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	if !k.Exists("backend.name") {
		k.Set("backend.name", "openai")
	}
	if !k.Exists("state.path") {
		k.Set("state.path", "chatwire.db")
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
