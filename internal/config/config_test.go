package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Backend.Name != "openai" {
		t.Errorf("backend.name = %q, want openai", cfg.Backend.Name)
	}
	if cfg.State.Path != "chatwire.db" {
		t.Errorf("state.path = %q", cfg.State.Path)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("CHATWIRE_BACKEND__NAME", "mistral")
	t.Setenv("CHATWIRE_BACKEND__TOOL_PROTOCOL", "text")
	t.Setenv("CHATWIRE_STATE__PATH", "/tmp/locks.db")

	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Backend.Name != "mistral" {
		t.Errorf("backend.name = %q, want mistral", cfg.Backend.Name)
	}
	if cfg.Backend.ToolProtocol != "text" {
		t.Errorf("backend.tool_protocol = %q, want text", cfg.Backend.ToolProtocol)
	}
	if cfg.State.Path != "/tmp/locks.db" {
		t.Errorf("state.path = %q", cfg.State.Path)
	}
}

func TestLoadFromFileEnvWins(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chatwire.yaml")
	content := []byte("backend:\n  name: anthropic\n  model: claude-sonnet\n  cache_hints: true\ntools:\n  dirs:\n    - ./tools\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CHATWIRE_BACKEND__MODEL", "claude-opus")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Backend.Name != "anthropic" {
		t.Errorf("backend.name = %q", cfg.Backend.Name)
	}
	if cfg.Backend.Model != "claude-opus" {
		t.Errorf("environment must override file, got model %q", cfg.Backend.Model)
	}
	if !cfg.Backend.CacheHints {
		t.Error("cache_hints not read from file")
	}
	if len(cfg.Tools.Dirs) != 1 || cfg.Tools.Dirs[0] != "./tools" {
		t.Errorf("tools.dirs = %v", cfg.Tools.Dirs)
	}
}

func TestLoadMissingFileErrors(t *testing.T) {
	if _, err := Load("/nonexistent/chatwire.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}
