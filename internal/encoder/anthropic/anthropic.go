// Package anthropic encodes canonical transcripts into Anthropic Messages API
// requests. Tool results live inside the user message as typed blocks and may
// nest images directly, so nothing gets deferred to follow-up messages here.
package anthropic

import (
	"encoding/json"

	api "github.com/aperrin/chatwire/internal/api/anthropic"
	"github.com/aperrin/chatwire/internal/encoder"
	"github.com/aperrin/chatwire/internal/protocol"
	"github.com/aperrin/chatwire/internal/transcript"
)

// cacheableUserTurns is how many trailing user messages receive a
// prompt-cache marker on their final block.
const cacheableUserTurns = 2

// Encoder emits Anthropic Messages API wire messages.
type Encoder struct{}

var _ encoder.Encoder = (*Encoder)(nil)

// New returns an Anthropic encoder.
func New() *Encoder { return &Encoder{} }

// Name implements encoder.Encoder.
func (e *Encoder) Name() string { return string(encoder.BackendAnthropic) }

// Encode implements encoder.Encoder.
func (e *Encoder) Encode(turns []transcript.Turn, opts encoder.Options) (json.RawMessage, error) {
	req := api.MessagesRequest{Model: opts.ModelID}
	if opts.SystemPrompt != "" {
		req.System = []api.SystemBlock{{Type: "text", Text: opts.SystemPrompt}}
	}
	norm := opts.IDNormalizer()
	for _, t := range turns {
		if opts.Protocol == protocol.TextEmulated {
			t = transcript.Turn{Role: t.Role, Segments: encoder.LowerTextEmulated(t)}
		}
		msg := api.Message{Role: string(t.Role), Content: blocks(t, opts, norm)}
		if len(msg.Content) == 0 {
			continue
		}
		req.Messages = append(req.Messages, msg)
	}
	if opts.Protocol != protocol.TextEmulated {
		for _, spec := range opts.Tools {
			req.Tools = append(req.Tools, api.Tool{
				Name:        spec.Name,
				Description: spec.Description,
				InputSchema: spec.Parameters,
			})
		}
	}
	if opts.CacheHints {
		applyCacheHints(&req)
	}
	return json.Marshal(req)
}

// blocks lowers a turn's segments into content blocks. Tool results are
// emitted first: the API requires them to open the user message that answers
// a tool-use turn.
func blocks(t transcript.Turn, opts encoder.Options, norm encoder.NormalizeID) []api.ContentBlock {
	segs := t.Segments
	if t.Role == transcript.RoleUser {
		results, rest := encoder.SplitUserTurn(t)
		if opts.MergeTrailingText && len(results) > 0 && len(rest) > 0 && !encoder.HasImage(rest) {
			if extra := encoder.JoinText(rest); extra != "" {
				last := &results[len(results)-1]
				merged := *last
				merged.Content = appendResultText(last.Content, extra)
				results[len(results)-1] = merged
			}
			rest = nil
		}
		segs = append(results, rest...)
	}
	var out []api.ContentBlock
	for _, s := range segs {
		switch s.Type {
		case transcript.SegmentText:
			out = append(out, api.ContentBlock{Type: "text", Text: s.Text})
		case transcript.SegmentImage:
			out = append(out, imageBlock(s.MediaType, s.Data))
		case transcript.SegmentToolUse:
			input := s.Input
			if input == nil {
				input = map[string]any{}
			}
			out = append(out, api.ContentBlock{
				Type:  "tool_use",
				ID:    norm(s.ID),
				Name:  s.Name,
				Input: input,
			})
		case transcript.SegmentToolResult:
			out = append(out, api.ContentBlock{
				Type:      "tool_result",
				ToolUseID: norm(s.ToolUseID),
				Content:   resultContent(s.Content),
				IsError:   s.IsError,
			})
		case transcript.SegmentReasoning:
			out = append(out, api.ContentBlock{
				Type:      "thinking",
				Thinking:  s.Text,
				Signature: s.Signature,
			})
		case transcript.SegmentReasoningDetail:
			// Another backend's reasoning artifact; nothing to echo here.
		default:
			out = append(out, api.ContentBlock{Type: "text", Text: encoder.UnsupportedPlaceholder})
		}
	}
	return out
}

func resultContent(rc transcript.ResultContent) *api.ResultContent {
	if rc.IsSimpleText() {
		return &api.ResultContent{Text: rc.Text}
	}
	var parts []api.ContentBlock
	for _, p := range rc.Parts {
		switch p.Type {
		case transcript.SegmentText:
			parts = append(parts, api.ContentBlock{Type: "text", Text: p.Text})
		case transcript.SegmentImage:
			parts = append(parts, imageBlock(p.MediaType, p.Data))
		default:
			parts = append(parts, api.ContentBlock{Type: "text", Text: encoder.UnsupportedPlaceholder})
		}
	}
	return &api.ResultContent{Parts: parts}
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

func imageBlock(mediaType, data string) api.ContentBlock {
	return api.ContentBlock{
		Type: "image",
		Source: &api.ImageSource{
			Type:      "base64",
			MediaType: encoder.NormalizeMediaType(mediaType),
			Data:      data,
		},
	}
}

// applyCacheHints marks the stable prefix for prompt caching: the tail of the
// system prompt and the final block of the last two user messages.
func applyCacheHints(req *api.MessagesRequest) {
	ephemeral := &api.CacheControl{Type: "ephemeral"}
	if n := len(req.System); n > 0 {
		req.System[n-1].CacheControl = ephemeral
	}
	marked := 0
	for i := len(req.Messages) - 1; i >= 0 && marked < cacheableUserTurns; i-- {
		msg := &req.Messages[i]
		if msg.Role != string(transcript.RoleUser) || len(msg.Content) == 0 {
			continue
		}
		msg.Content[len(msg.Content)-1].CacheControl = ephemeral
		marked++
	}
}
