package deepseek

import (
	"encoding/json"
	"testing"

	api "github.com/aperrin/chatwire/internal/api/openai"
	"github.com/aperrin/chatwire/internal/encoder"
	"github.com/aperrin/chatwire/internal/tooldef"
	"github.com/aperrin/chatwire/internal/transcript"
)

func decode(t *testing.T, raw json.RawMessage) api.ChatCompletionRequest {
	t.Helper()
	var req api.ChatCompletionRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		t.Fatalf("decoding request: %v", err)
	}
	return req
}

func TestEncodeMergesConsecutiveSameRole(t *testing.T) {
	turns := []transcript.Turn{
		{Role: transcript.RoleUser, Segments: []transcript.Segment{transcript.TextSegment("Hello")}},
		{Role: transcript.RoleUser, Segments: []transcript.Segment{transcript.TextSegment("How are you?")}},
	}
	raw, err := New().Encode(turns, encoder.Options{ModelID: "deepseek-chat"})
	if err != nil {
		t.Fatal(err)
	}
	req := decode(t, raw)
	if len(req.Messages) != 1 {
		t.Fatalf("got %d messages, want 1", len(req.Messages))
	}
	if req.Messages[0].Content.Text != "Hello\nHow are you?" {
		t.Errorf("merged content = %q", req.Messages[0].Content.Text)
	}
}

func TestEncodeNeverMergesToolCallTurns(t *testing.T) {
	turns := []transcript.Turn{
		{Role: transcript.RoleAssistant, Segments: []transcript.Segment{transcript.TextSegment("Thinking.")}},
		{Role: transcript.RoleAssistant, Segments: []transcript.Segment{
			transcript.ToolUseSegment("call_1", "lookup", nil),
		}},
	}
	raw, err := New().Encode(turns, encoder.Options{
		Tools: []tooldef.FunctionSpec{{Name: "lookup"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	req := decode(t, raw)
	if len(req.Messages) != 2 {
		t.Fatalf("got %d messages, want 2", len(req.Messages))
	}
	if len(req.Messages[1].ToolCalls) != 1 {
		t.Errorf("tool call lost in merge: %+v", req.Messages[1])
	}
}

func TestEncodeToolMessagesStaySeparate(t *testing.T) {
	turns := []transcript.Turn{
		{Role: transcript.RoleAssistant, Segments: []transcript.Segment{
			transcript.ToolUseSegment("call_1", "a", nil),
			transcript.ToolUseSegment("call_2", "b", nil),
		}},
		{Role: transcript.RoleUser, Segments: []transcript.Segment{
			transcript.ToolResultSegment("call_1", "one", false),
			transcript.ToolResultSegment("call_2", "two", false),
		}},
	}
	raw, err := New().Encode(turns, encoder.Options{
		Tools: []tooldef.FunctionSpec{{Name: "a"}, {Name: "b"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	req := decode(t, raw)
	if len(req.Messages) != 3 {
		t.Fatalf("got %d messages, want 3", len(req.Messages))
	}
	if req.Messages[1].ToolCallID != "call_1" || req.Messages[2].ToolCallID != "call_2" {
		t.Errorf("tool messages merged or reordered: %+v", req.Messages[1:])
	}
}

func TestEncodeDropsReasoningDetails(t *testing.T) {
	turns := []transcript.Turn{
		{Role: transcript.RoleAssistant, Segments: []transcript.Segment{
			transcript.ReasoningDetailSegment(transcript.ReasoningDetail{
				Kind: "encrypted", Format: "openai-responses", Data: "opaque",
			}),
			transcript.TextSegment("answer"),
		}},
	}
	raw, err := New().Encode(turns, encoder.Options{})
	if err != nil {
		t.Fatal(err)
	}
	req := decode(t, raw)
	if req.Messages[0].ReasoningDetails != nil {
		t.Errorf("reasoning details must not be echoed: %+v", req.Messages[0].ReasoningDetails)
	}
}

func TestEncodeKeepsReasoningContent(t *testing.T) {
	turns := []transcript.Turn{
		{Role: transcript.RoleAssistant, Segments: []transcript.Segment{
			transcript.ReasoningSegment("step by step", ""),
			transcript.TextSegment("answer"),
		}},
	}
	raw, err := New().Encode(turns, encoder.Options{})
	if err != nil {
		t.Fatal(err)
	}
	req := decode(t, raw)
	if req.Messages[0].ReasoningContent != "step by step" {
		t.Errorf("reasoning_content = %q", req.Messages[0].ReasoningContent)
	}
}
