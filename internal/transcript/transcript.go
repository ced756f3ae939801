// Package transcript defines the canonical in-memory representation of a
// conversation: an ordered sequence of turns, each a role plus a list of typed
// content segments. Encoders, the reconciler, and the protocol resolver all
// operate on these values. Callers treat turns and segments as immutable and
// produce new slices on change.
package transcript

import "encoding/json"

// Role identifies the owner of a turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// SegmentType tags the content variant carried by a Segment.
type SegmentType string

const (
	SegmentText            SegmentType = "text"
	SegmentImage           SegmentType = "image"
	SegmentToolUse         SegmentType = "tool_use"
	SegmentToolResult      SegmentType = "tool_result"
	SegmentReasoning       SegmentType = "reasoning"
	SegmentReasoningDetail SegmentType = "reasoning_detail"
)

// Segment is one typed piece of content inside a turn.
type Segment struct {
	Type SegmentType `json:"type"`

	// For text and reasoning segments.
	Text string `json:"text,omitempty"`

	// For image segments (base64 payload, opaque).
	MediaType string `json:"media_type,omitempty"`
	Data      string `json:"data,omitempty"`

	// For tool_use segments. ID is minted when the assistant emits the
	// call and must be unique within the turn. Text-emulated calls parsed
	// out of plain text carry an empty ID.
	ID    string         `json:"id,omitempty"`
	Name  string         `json:"name,omitempty"`
	Input map[string]any `json:"input,omitempty"`

	// For tool_result segments. ToolUseID references a tool_use ID from
	// the immediately preceding assistant turn in a well-formed transcript.
	ToolUseID string        `json:"tool_use_id,omitempty"`
	Content   ResultContent `json:"content,omitempty"`
	IsError   bool          `json:"is_error,omitempty"`

	// For reasoning segments: an opaque continuation token some backends
	// require to be echoed back verbatim on the next call.
	Signature string `json:"signature,omitempty"`

	// For reasoning_detail segments.
	Detail *ReasoningDetail `json:"detail,omitempty"`
}

// ReasoningDetail is a backend-native reasoning artifact passed through mostly
// unchanged. Kind is "summary" or "encrypted"; Format is the backend tag that
// drives the id-stripping quirk on encode.
type ReasoningDetail struct {
	Kind    string `json:"kind"`
	Format  string `json:"format"`
	Summary string `json:"summary,omitempty"`
	Data    string `json:"data,omitempty"`
	ID      string `json:"id,omitempty"`
	Index   int    `json:"index"`
}

// ResultPart is one element of a multi-part tool result.
type ResultPart struct {
	Type      SegmentType `json:"type"` // text or image
	Text      string      `json:"text,omitempty"`
	MediaType string      `json:"media_type,omitempty"`
	Data      string      `json:"data,omitempty"`
}

// ResultContent is a tool result body: a plain string or an ordered sequence
// of text/image parts.
type ResultContent struct {
	Text  string
	Parts []ResultPart
}

// IsSimpleText returns true if the content is just plain text.
func (rc ResultContent) IsSimpleText() bool {
	return len(rc.Parts) == 0
}

// String returns the text content, concatenating text parts if multi-part.
func (rc ResultContent) String() string {
	if rc.IsSimpleText() {
		return rc.Text
	}
	var result string
	for _, p := range rc.Parts {
		if p.Type == SegmentText {
			result += p.Text
		}
	}
	return result
}

// Images returns the image parts of a multi-part result, in order.
func (rc ResultContent) Images() []ResultPart {
	var imgs []ResultPart
	for _, p := range rc.Parts {
		if p.Type == SegmentImage {
			imgs = append(imgs, p)
		}
	}
	return imgs
}

// MarshalJSON implements json.Marshaler.
func (rc ResultContent) MarshalJSON() ([]byte, error) {
	if rc.IsSimpleText() {
		return json.Marshal(rc.Text)
	}
	return json.Marshal(rc.Parts)
}

// UnmarshalJSON implements json.Unmarshaler.
func (rc *ResultContent) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		rc.Text = str
		rc.Parts = nil
		return nil
	}
	var parts []ResultPart
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	rc.Parts = parts
	rc.Text = ""
	return nil
}

// Turn is one message-like unit in a conversation.
type Turn struct {
	Role     Role      `json:"role"`
	Segments []Segment `json:"content"`
}

// turnJSON mirrors Turn but lets content be a bare string, a normalization
// many producers apply when a turn holds exactly one text segment.
type turnJSON struct {
	Role    Role            `json:"role"`
	Content json.RawMessage `json:"content"`
}

// UnmarshalJSON accepts both list-structured and collapsed string content.
func (t *Turn) UnmarshalJSON(data []byte) error {
	var raw turnJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	t.Role = raw.Role
	t.Segments = nil
	if len(raw.Content) == 0 {
		return nil
	}
	var str string
	if err := json.Unmarshal(raw.Content, &str); err == nil {
		t.Segments = []Segment{TextSegment(str)}
		return nil
	}
	return json.Unmarshal(raw.Content, &t.Segments)
}

// Text returns the concatenated text of all text segments in the turn.
func (t Turn) Text() string {
	var result string
	for _, s := range t.Segments {
		if s.Type == SegmentText {
			result += s.Text
		}
	}
	return result
}

// HasToolUse reports whether the turn carries at least one tool invocation.
func (t Turn) HasToolUse() bool {
	for _, s := range t.Segments {
		if s.Type == SegmentToolUse {
			return true
		}
	}
	return false
}

// ToolUses returns the tool invocation segments of the turn, in order.
func (t Turn) ToolUses() []Segment {
	var uses []Segment
	for _, s := range t.Segments {
		if s.Type == SegmentToolUse {
			uses = append(uses, s)
		}
	}
	return uses
}

// ToolResults returns the tool result segments of the turn, in order.
func (t Turn) ToolResults() []Segment {
	var results []Segment
	for _, s := range t.Segments {
		if s.Type == SegmentToolResult {
			results = append(results, s)
		}
	}
	return results
}

// LastIndex returns the index of the last turn matching pred, or -1.
func LastIndex(turns []Turn, pred func(Turn) bool) int {
	for i := len(turns) - 1; i >= 0; i-- {
		if pred(turns[i]) {
			return i
		}
	}
	return -1
}

// CountSegments counts segments of the given type across all turns.
func CountSegments(turns []Turn, typ SegmentType) int {
	n := 0
	for _, t := range turns {
		for _, s := range t.Segments {
			if s.Type == typ {
				n++
			}
		}
	}
	return n
}

// TextSegment creates a text segment.
func TextSegment(text string) Segment {
	return Segment{Type: SegmentText, Text: text}
}

// ImageSegment creates an image segment from a base64 payload.
func ImageSegment(mediaType, data string) Segment {
	return Segment{Type: SegmentImage, MediaType: mediaType, Data: data}
}

// ToolUseSegment creates a tool invocation segment.
func ToolUseSegment(id, name string, input map[string]any) Segment {
	return Segment{Type: SegmentToolUse, ID: id, Name: name, Input: input}
}

// ToolResultSegment creates a tool result segment with plain text content.
func ToolResultSegment(toolUseID, content string, isError bool) Segment {
	return Segment{
		Type:      SegmentToolResult,
		ToolUseID: toolUseID,
		Content:   ResultContent{Text: content},
		IsError:   isError,
	}
}

// ToolResultParts creates a tool result segment with multi-part content.
func ToolResultParts(toolUseID string, parts ...ResultPart) Segment {
	return Segment{
		Type:      SegmentToolResult,
		ToolUseID: toolUseID,
		Content:   ResultContent{Parts: parts},
	}
}

// ReasoningSegment creates a reasoning segment.
func ReasoningSegment(text, signature string) Segment {
	return Segment{Type: SegmentReasoning, Text: text, Signature: signature}
}

// ReasoningDetailSegment wraps a backend-native reasoning artifact.
func ReasoningDetailSegment(d ReasoningDetail) Segment {
	return Segment{Type: SegmentReasoningDetail, Detail: &d}
}
