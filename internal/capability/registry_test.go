package capability

import "testing"

func TestLookupExactModel(t *testing.T) {
	r, err := NewRegistry()
	if err != nil {
		t.Fatal(err)
	}
	m, ok := r.Lookup("openai", "gpt-4o")
	if !ok {
		t.Fatal("gpt-4o not found")
	}
	if !m.SupportsNativeTools || m.DefaultToolProtocol != "native" {
		t.Errorf("capabilities = %+v", m)
	}
}

func TestLookupLongestPrefix(t *testing.T) {
	r, err := NewRegistry()
	if err != nil {
		t.Fatal(err)
	}
	m, ok := r.Lookup("anthropic", "claude-3-5-sonnet-20241022")
	if !ok {
		t.Fatal("versioned id should resolve through its prefix")
	}
	if !m.SupportsPromptCache {
		t.Errorf("capabilities = %+v", m)
	}

	haiku, _ := r.Lookup("anthropic", "claude-3-5-haiku-20241022")
	if haiku.SupportsImages {
		t.Error("haiku prefix row should win over the broader claude-3 rows")
	}
}

func TestLookupFallsBackToDefaults(t *testing.T) {
	r, err := NewRegistry()
	if err != nil {
		t.Fatal(err)
	}
	m, ok := r.Lookup("mistral", "some-future-model")
	if !ok {
		t.Fatal("known backend must resolve via defaults")
	}
	if !m.SupportsNativeTools || m.ContextWindow != 128000 {
		t.Errorf("defaults = %+v", m)
	}
}

func TestLookupUnknownBackend(t *testing.T) {
	r, err := NewRegistry()
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := r.Lookup("cohere", "command-r"); ok {
		t.Error("unknown backend must report false")
	}
}

func TestLookupModelWithoutNativeTools(t *testing.T) {
	r, err := NewRegistry()
	if err != nil {
		t.Fatal(err)
	}
	m, ok := r.Lookup("deepseek", "deepseek-reasoner")
	if !ok {
		t.Fatal("deepseek-reasoner not found")
	}
	if m.SupportsNativeTools {
		t.Error("deepseek-reasoner must not report native tool support")
	}
	if m.DefaultToolProtocol != "text" {
		t.Errorf("default protocol = %q", m.DefaultToolProtocol)
	}
}

func TestRegisterOverride(t *testing.T) {
	r, err := NewRegistry()
	if err != nil {
		t.Fatal(err)
	}
	r.Register("openai", "gpt-4o", Model{SupportsNativeTools: false, DefaultToolProtocol: "text"})
	m, _ := r.Lookup("openai", "gpt-4o")
	if m.SupportsNativeTools {
		t.Error("runtime override not applied")
	}

	r.Register("newvendor", "model-x", Model{SupportsNativeTools: true})
	if _, ok := r.Lookup("newvendor", "model-x"); !ok {
		t.Error("registering a new backend must make it resolvable")
	}
}

func TestBackendsSorted(t *testing.T) {
	r, err := NewRegistry()
	if err != nil {
		t.Fatal(err)
	}
	got := r.Backends()
	want := []string{"anthropic", "bedrock", "deepseek", "mistral", "openai"}
	if len(got) != len(want) {
		t.Fatalf("backends = %v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("backends = %v, want %v", got, want)
		}
	}
}
