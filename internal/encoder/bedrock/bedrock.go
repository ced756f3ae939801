// Package bedrock encodes canonical transcripts into Bedrock Converse
// requests. Converse rejects toolUse/toolResult blocks in the history unless
// a tool config rides along, so a native-protocol transcript with no tools
// configured is lowered to the text-emulated form instead of failing the call.
package bedrock

import (
	"encoding/json"

	api "github.com/aperrin/chatwire/internal/api/bedrock"
	"github.com/aperrin/chatwire/internal/encoder"
	"github.com/aperrin/chatwire/internal/protocol"
	"github.com/aperrin/chatwire/internal/transcript"
)

// Encoder emits Bedrock Converse wire messages.
type Encoder struct{}

var _ encoder.Encoder = (*Encoder)(nil)

// New returns a Bedrock encoder.
func New() *Encoder { return &Encoder{} }

// Name implements encoder.Encoder.
func (e *Encoder) Name() string { return string(encoder.BackendBedrock) }

// Encode implements encoder.Encoder.
func (e *Encoder) Encode(turns []transcript.Turn, opts encoder.Options) (json.RawMessage, error) {
	textMode := opts.Protocol == protocol.TextEmulated
	if !textMode && len(opts.Tools) == 0 && hasToolSegments(turns) {
		textMode = true
	}
	req := api.ConverseInput{ModelID: opts.ModelID}
	if opts.SystemPrompt != "" {
		req.System = []api.SystemBlock{{Text: opts.SystemPrompt}}
	}
	norm := opts.IDNormalizer()
	for _, t := range turns {
		if textMode {
			t = transcript.Turn{Role: t.Role, Segments: encoder.LowerTextEmulated(t)}
		}
		msg := api.Message{Role: string(t.Role), Content: blocks(t, opts, norm)}
		if len(msg.Content) == 0 {
			continue
		}
		req.Messages = append(req.Messages, msg)
	}
	if !textMode && len(opts.Tools) > 0 {
		cfg := &api.ToolConfig{}
		for _, spec := range opts.Tools {
			cfg.Tools = append(cfg.Tools, api.Tool{ToolSpec: api.ToolSpec{
				Name:        spec.Name,
				Description: spec.Description,
				InputSchema: api.InputSchema{JSON: spec.Parameters},
			}})
		}
		req.ToolConfig = cfg
	}
	return json.Marshal(req)
}

func hasToolSegments(turns []transcript.Turn) bool {
	for _, t := range turns {
		for _, s := range t.Segments {
			if s.Type == transcript.SegmentToolUse || s.Type == transcript.SegmentToolResult {
				return true
			}
		}
	}
	return false
}

func blocks(t transcript.Turn, opts encoder.Options, norm encoder.NormalizeID) []api.ContentBlock {
	segs := t.Segments
	if t.Role == transcript.RoleUser {
		results, rest := encoder.SplitUserTurn(t)
		if opts.MergeTrailingText && len(results) > 0 && len(rest) > 0 && !encoder.HasImage(rest) {
			if extra := encoder.JoinText(rest); extra != "" {
				last := results[len(results)-1]
				last.Content = appendResultText(last.Content, extra)
				results[len(results)-1] = last
			}
			rest = nil
		}
		segs = append(results, rest...)
	}
	var out []api.ContentBlock
	for _, s := range segs {
		switch s.Type {
		case transcript.SegmentText:
			out = append(out, api.ContentBlock{Text: s.Text})
		case transcript.SegmentImage:
			out = append(out, imageContent(s.MediaType, s.Data))
		case transcript.SegmentToolUse:
			input := s.Input
			if input == nil {
				input = map[string]any{}
			}
			out = append(out, api.ContentBlock{ToolUse: &api.ToolUseBlock{
				ToolUseID: norm(s.ID),
				Name:      s.Name,
				Input:     input,
			}})
		case transcript.SegmentToolResult:
			out = append(out, api.ContentBlock{ToolResult: toolResult(s, norm)})
		case transcript.SegmentReasoning, transcript.SegmentReasoningDetail:
			// Converse has no replayable reasoning slot on this shape.
		default:
			out = append(out, api.ContentBlock{Text: encoder.UnsupportedPlaceholder})
		}
	}
	return out
}

func toolResult(s transcript.Segment, norm encoder.NormalizeID) *api.ToolResultBlock {
	block := &api.ToolResultBlock{ToolUseID: norm(s.ToolUseID)}
	if s.IsError {
		block.Status = "error"
	}
	if s.Content.IsSimpleText() {
		block.Content = []api.ToolResultContent{{Text: s.Content.Text}}
		return block
	}
	for _, p := range s.Content.Parts {
		switch p.Type {
		case transcript.SegmentText:
			block.Content = append(block.Content, api.ToolResultContent{Text: p.Text})
		case transcript.SegmentImage:
			c := imageContent(p.MediaType, p.Data)
			block.Content = append(block.Content, api.ToolResultContent{Text: c.Text, Image: c.Image})
		default:
			block.Content = append(block.Content, api.ToolResultContent{Text: encoder.UnsupportedPlaceholder})
		}
	}
	return block
}

// imageContent decodes the base64 payload into raw bytes. A payload that does
// not decode degrades to a placeholder text block rather than failing the
// whole encode.
func imageContent(mediaType, data string) api.ContentBlock {
	raw, err := encoder.DecodeImage(data)
	if err != nil {
		return api.ContentBlock{Text: encoder.UnsupportedPlaceholder}
	}
	return api.ContentBlock{Image: &api.ImageBlock{
		Format: encoder.ImageFormat(mediaType),
		Source: api.ImageSource{Bytes: raw},
	}}
}

func appendResultText(rc transcript.ResultContent, extra string) transcript.ResultContent {
	if rc.IsSimpleText() {
		text := rc.Text
		if text != "" {
			text += "\n\n"
		}
		return transcript.ResultContent{Text: text + extra}
	}
	parts := make([]transcript.ResultPart, len(rc.Parts), len(rc.Parts)+1)
	copy(parts, rc.Parts)
	parts = append(parts, transcript.ResultPart{Type: transcript.SegmentText, Text: extra})
	return transcript.ResultContent{Parts: parts}
}
