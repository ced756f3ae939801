package encoder

import "github.com/aperrin/chatwire/internal/transcript"

// Text-emulated ("XML") tool protocol: a fixed tag convention for backends
// without structured function calling, or when the protocol resolver decided
// the model should not receive structured tools. The tags are part of the
// wire contract with the parsing side; change them and old transcripts stop
// round-tripping.

// FormatToolCall serializes a tool invocation as tagged plain text.
func FormatToolCall(name string, input map[string]any) string {
	return "<tool_call>\n" +
		"<tool_name>" + name + "</tool_name>\n" +
		"<arguments>\n" + MarshalInput(input) + "\n</arguments>\n" +
		"</tool_call>"
}

// FormatToolResult serializes a tool result as tagged plain text. Images in
// the result body are represented by their placeholder; text-emulated results
// cannot carry binary content.
func FormatToolResult(rc transcript.ResultContent, isError bool) string {
	status := "ok"
	if isError {
		status = "error"
	}
	text, _ := FlattenResult(rc)
	return "<tool_result>\n" +
		"<status>" + status + "</status>\n" +
		"<output>\n" + text + "\n</output>\n" +
		"</tool_result>"
}

// LowerTextEmulated rewrites a turn's tool segments into text segments using
// the tag convention, leaving everything else in place. Used by encoders when
// the resolved protocol is text-emulated. Returns a new segment slice; the
// input turn is not modified.
func LowerTextEmulated(t transcript.Turn) []transcript.Segment {
	segs := make([]transcript.Segment, 0, len(t.Segments))
	for _, s := range t.Segments {
		switch s.Type {
		case transcript.SegmentToolUse:
			segs = append(segs, transcript.TextSegment(FormatToolCall(s.Name, s.Input)))
		case transcript.SegmentToolResult:
			segs = append(segs, transcript.TextSegment(FormatToolResult(s.Content, s.IsError)))
		default:
			segs = append(segs, s)
		}
	}
	return segs
}
