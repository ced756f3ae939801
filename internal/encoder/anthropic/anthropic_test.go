package anthropic

import (
	"encoding/json"
	"strings"
	"testing"

	api "github.com/aperrin/chatwire/internal/api/anthropic"
	"github.com/aperrin/chatwire/internal/encoder"
	"github.com/aperrin/chatwire/internal/protocol"
	"github.com/aperrin/chatwire/internal/tooldef"
	"github.com/aperrin/chatwire/internal/transcript"
)

func decode(t *testing.T, raw json.RawMessage) api.MessagesRequest {
	t.Helper()
	var req api.MessagesRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		t.Fatalf("decoding request: %v", err)
	}
	return req
}

func TestEncodeToolBlocks(t *testing.T) {
	turns := []transcript.Turn{
		{Role: transcript.RoleUser, Segments: []transcript.Segment{transcript.TextSegment("Weather?")}},
		{Role: transcript.RoleAssistant, Segments: []transcript.Segment{
			transcript.TextSegment("One moment."),
			transcript.ToolUseSegment("toolu_1", "get_weather", map[string]any{"city": "Paris"}),
		}},
		{Role: transcript.RoleUser, Segments: []transcript.Segment{
			transcript.ToolResultSegment("toolu_1", "18C", false),
		}},
	}
	raw, err := New().Encode(turns, encoder.Options{
		ModelID:      "claude-sonnet",
		SystemPrompt: "Be brief.",
		Tools:        []tooldef.FunctionSpec{{Name: "get_weather", Parameters: map[string]any{"type": "object"}}},
	})
	if err != nil {
		t.Fatal(err)
	}
	req := decode(t, raw)
	if len(req.System) != 1 || req.System[0].Text != "Be brief." {
		t.Errorf("system = %+v", req.System)
	}
	if len(req.Messages) != 3 {
		t.Fatalf("got %d messages, want 3", len(req.Messages))
	}
	asst := req.Messages[1]
	if asst.Content[0].Type != "text" || asst.Content[1].Type != "tool_use" {
		t.Errorf("assistant blocks = %+v", asst.Content)
	}
	use := asst.Content[1]
	if use.ID != "toolu_1" || use.Name != "get_weather" {
		t.Errorf("tool_use = %+v", use)
	}
	result := req.Messages[2].Content[0]
	if result.Type != "tool_result" || result.ToolUseID != "toolu_1" || result.Content.Text != "18C" {
		t.Errorf("tool_result = %+v", result)
	}
	if len(req.Tools) != 1 || req.Tools[0].Name != "get_weather" {
		t.Errorf("tools = %+v", req.Tools)
	}
}

func TestEncodeResultsOpenTheUserMessage(t *testing.T) {
	turns := []transcript.Turn{
		{Role: transcript.RoleUser, Segments: []transcript.Segment{
			transcript.TextSegment("also this"),
			transcript.ToolResultSegment("toolu_1", "done", false),
		}},
	}
	raw, err := New().Encode(turns, encoder.Options{})
	if err != nil {
		t.Fatal(err)
	}
	req := decode(t, raw)
	blocks := req.Messages[0].Content
	if blocks[0].Type != "tool_result" {
		t.Errorf("first block = %q, tool results must open the message", blocks[0].Type)
	}
	if blocks[1].Type != "text" || blocks[1].Text != "also this" {
		t.Errorf("second block = %+v", blocks[1])
	}
}

func TestEncodeThinkingBlock(t *testing.T) {
	turns := []transcript.Turn{
		{Role: transcript.RoleAssistant, Segments: []transcript.Segment{
			transcript.ReasoningSegment("considering options", "sig-abc"),
			transcript.TextSegment("Answer."),
		}},
	}
	raw, err := New().Encode(turns, encoder.Options{})
	if err != nil {
		t.Fatal(err)
	}
	req := decode(t, raw)
	think := req.Messages[0].Content[0]
	if think.Type != "thinking" || think.Thinking != "considering options" || think.Signature != "sig-abc" {
		t.Errorf("thinking block = %+v", think)
	}
}

func TestEncodeCacheHints(t *testing.T) {
	turns := []transcript.Turn{
		{Role: transcript.RoleUser, Segments: []transcript.Segment{transcript.TextSegment("first")}},
		{Role: transcript.RoleAssistant, Segments: []transcript.Segment{transcript.TextSegment("a")}},
		{Role: transcript.RoleUser, Segments: []transcript.Segment{transcript.TextSegment("second")}},
		{Role: transcript.RoleAssistant, Segments: []transcript.Segment{transcript.TextSegment("b")}},
		{Role: transcript.RoleUser, Segments: []transcript.Segment{transcript.TextSegment("third")}},
	}
	raw, err := New().Encode(turns, encoder.Options{SystemPrompt: "sys", CacheHints: true})
	if err != nil {
		t.Fatal(err)
	}
	req := decode(t, raw)
	if req.System[0].CacheControl == nil || req.System[0].CacheControl.Type != "ephemeral" {
		t.Error("system tail must carry cache_control")
	}
	marked := func(i int) bool {
		blocks := req.Messages[i].Content
		return blocks[len(blocks)-1].CacheControl != nil
	}
	// Messages: user(first) asst user(second) asst user(third); the last two
	// user messages get the marker.
	if marked(0) {
		t.Error("oldest user message must not be marked")
	}
	if !marked(2) || !marked(4) {
		t.Error("last two user messages must be marked")
	}
	if marked(1) || marked(3) {
		t.Error("assistant messages must not be marked")
	}
}

func TestEncodeNoCacheHintsByDefault(t *testing.T) {
	turns := []transcript.Turn{
		{Role: transcript.RoleUser, Segments: []transcript.Segment{transcript.TextSegment("hi")}},
	}
	raw, err := New().Encode(turns, encoder.Options{SystemPrompt: "sys"})
	if err != nil {
		t.Fatal(err)
	}
	req := decode(t, raw)
	if req.System[0].CacheControl != nil {
		t.Error("cache_control emitted without opt-in")
	}
	if req.Messages[0].Content[0].CacheControl != nil {
		t.Error("cache_control emitted without opt-in")
	}
}

func TestEncodeResultWithNestedImage(t *testing.T) {
	turns := []transcript.Turn{
		{Role: transcript.RoleUser, Segments: []transcript.Segment{
			transcript.ToolResultParts("toolu_1",
				transcript.ResultPart{Type: transcript.SegmentText, Text: "captured"},
				transcript.ResultPart{Type: transcript.SegmentImage, MediaType: "image/jpg", Data: "aGk="},
			),
		}},
	}
	raw, err := New().Encode(turns, encoder.Options{})
	if err != nil {
		t.Fatal(err)
	}
	req := decode(t, raw)
	result := req.Messages[0].Content[0]
	if len(result.Content.Parts) != 2 {
		t.Fatalf("got %d nested blocks, want 2", len(result.Content.Parts))
	}
	img := result.Content.Parts[1]
	if img.Type != "image" || img.Source == nil || img.Source.MediaType != "image/jpeg" || img.Source.Data != "aGk=" {
		t.Errorf("nested image = %+v", img)
	}
}

func TestEncodeTextEmulatedProtocol(t *testing.T) {
	turns := []transcript.Turn{
		{Role: transcript.RoleAssistant, Segments: []transcript.Segment{
			transcript.ToolUseSegment("", "lookup", nil),
		}},
	}
	raw, err := New().Encode(turns, encoder.Options{
		Protocol: protocol.TextEmulated,
		Tools:    []tooldef.FunctionSpec{{Name: "lookup"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	req := decode(t, raw)
	if req.Tools != nil {
		t.Error("text-emulated requests must not offer structured tools")
	}
	block := req.Messages[0].Content[0]
	if block.Type != "text" || !strings.Contains(block.Text, "<tool_call>") {
		t.Errorf("block = %+v", block)
	}
}

func TestEncodeMergeTrailingText(t *testing.T) {
	turns := []transcript.Turn{
		{Role: transcript.RoleUser, Segments: []transcript.Segment{
			transcript.ToolResultSegment("toolu_1", "output", false),
			transcript.TextSegment("extra note"),
		}},
	}
	raw, err := New().Encode(turns, encoder.Options{MergeTrailingText: true})
	if err != nil {
		t.Fatal(err)
	}
	req := decode(t, raw)
	blocks := req.Messages[0].Content
	if len(blocks) != 1 {
		t.Fatalf("got %d blocks, want 1", len(blocks))
	}
	if blocks[0].Content.Text != "output\n\nextra note" {
		t.Errorf("merged result = %q", blocks[0].Content.Text)
	}
}
