package tokens

import (
	"testing"

	"github.com/aperrin/chatwire/internal/tooldef"
	"github.com/aperrin/chatwire/internal/transcript"
)

func TestCountText(t *testing.T) {
	c := NewCounter()
	n, err := c.CountText("gpt-4o", "hello world")
	if err != nil {
		t.Fatal(err)
	}
	if n <= 0 {
		t.Errorf("count = %d, want > 0", n)
	}
}

func TestCountTextEmptyString(t *testing.T) {
	c := NewCounter()
	n, err := c.CountText("gpt-4o", "")
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("count = %d, want 0", n)
	}
}

func TestCountTranscript(t *testing.T) {
	c := NewCounter()
	turns := []transcript.Turn{
		{Role: transcript.RoleUser, Segments: []transcript.Segment{transcript.TextSegment("What's the weather?")}},
		{Role: transcript.RoleAssistant, Segments: []transcript.Segment{
			transcript.ToolUseSegment("call_1", "get_weather", map[string]any{"city": "Paris"}),
		}},
		{Role: transcript.RoleUser, Segments: []transcript.Segment{
			transcript.ToolResultSegment("call_1", "18C, sunny", false),
		}},
	}
	tools := []tooldef.FunctionSpec{{
		Name:        "get_weather",
		Description: "Look up current weather",
		Parameters:  map[string]any{"type": "object"},
	}}

	full, err := c.CountTranscript("gpt-4o", "Be brief.", turns, tools)
	if err != nil {
		t.Fatal(err)
	}
	bare, err := c.CountTranscript("gpt-4o", "", nil, nil)
	if err != nil {
		t.Fatal(err)
	}
	if full <= bare {
		t.Errorf("full transcript (%d) should outweigh empty one (%d)", full, bare)
	}
}

func TestCountTranscriptUnknownModelEstimates(t *testing.T) {
	c := NewCounter()
	turns := []transcript.Turn{
		{Role: transcript.RoleUser, Segments: []transcript.Segment{transcript.TextSegment("hi")}},
	}
	n, err := c.CountTranscript("mistral-large-latest", "", turns, nil)
	if err != nil {
		t.Fatalf("unknown models must fall back to an estimate: %v", err)
	}
	if n <= 0 {
		t.Errorf("count = %d, want > 0", n)
	}
}

func TestCodecCacheReuse(t *testing.T) {
	c := NewCounter()
	if _, err := c.CountText("some-unknown-model", "abc"); err != nil {
		t.Fatal(err)
	}
	c.mu.RLock()
	cached := len(c.codecCache)
	c.mu.RUnlock()
	if cached != 1 {
		t.Errorf("cache size = %d, want 1", cached)
	}
}
