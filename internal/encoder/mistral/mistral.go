// Package mistral encodes canonical transcripts into Mistral chat-completions
// requests. The API hard-rejects tool-call ids that are not exactly nine
// alphanumeric characters, so id normalization is always on here: callers get
// the fixed-alphabet normalizer by default and any override must keep the
// constraint.
package mistral

import (
	"encoding/json"

	api "github.com/aperrin/chatwire/internal/api/mistral"
	"github.com/aperrin/chatwire/internal/encoder"
	"github.com/aperrin/chatwire/internal/protocol"
	"github.com/aperrin/chatwire/internal/transcript"
)

// Encoder emits Mistral chat-completions wire messages.
type Encoder struct{}

var _ encoder.Encoder = (*Encoder)(nil)

// New returns a Mistral encoder.
func New() *Encoder { return &Encoder{} }

// Name implements encoder.Encoder.
func (e *Encoder) Name() string { return string(encoder.BackendMistral) }

// Encode implements encoder.Encoder.
func (e *Encoder) Encode(turns []transcript.Turn, opts encoder.Options) (json.RawMessage, error) {
	norm := opts.NormalizeID
	if norm == nil {
		norm = encoder.FixedAlnum(encoder.MistralToolIDLength, encoder.MistralIDPad)
	}
	req := api.ChatRequest{Model: opts.ModelID}
	if opts.SystemPrompt != "" {
		req.Messages = append(req.Messages, api.Message{
			Role:    "system",
			Content: api.Content{Text: opts.SystemPrompt},
		})
	}
	for _, t := range turns {
		if opts.Protocol == protocol.TextEmulated {
			t = transcript.Turn{Role: t.Role, Segments: encoder.LowerTextEmulated(t)}
		}
		if t.Role == transcript.RoleAssistant {
			req.Messages = append(req.Messages, assistantMessage(t, norm))
			continue
		}
		req.Messages = append(req.Messages, userMessages(t, opts, norm)...)
	}
	if opts.Protocol != protocol.TextEmulated {
		for _, spec := range opts.Tools {
			req.Tools = append(req.Tools, api.Tool{
				Type: "function",
				Function: api.FunctionTool{
					Name:        spec.Name,
					Description: spec.Description,
					Parameters:  spec.Parameters,
				},
			})
		}
	}
	return json.Marshal(req)
}

func assistantMessage(t transcript.Turn, norm encoder.NormalizeID) api.Message {
	msg := api.Message{Role: "assistant"}
	var text string
	for _, s := range t.Segments {
		switch s.Type {
		case transcript.SegmentText:
			if text != "" {
				text += "\n"
			}
			text += s.Text
		case transcript.SegmentToolUse:
			msg.ToolCalls = append(msg.ToolCalls, api.ToolCall{
				ID:   norm(s.ID),
				Type: "function",
				Function: api.FunctionCall{
					Name:      s.Name,
					Arguments: encoder.MarshalInput(s.Input),
				},
			})
		case transcript.SegmentReasoning, transcript.SegmentReasoningDetail:
			// Not representable on this shape.
		default:
			if text != "" {
				text += "\n"
			}
			text += encoder.UnsupportedPlaceholder
		}
	}
	msg.Content = api.Content{Text: text}
	return msg
}

func userMessages(t transcript.Turn, opts encoder.Options, norm encoder.NormalizeID) []api.Message {
	results, rest := encoder.SplitUserTurn(t)
	var (
		msgs     []api.Message
		deferred []transcript.ResultPart
	)
	for _, r := range results {
		text, images := encoder.FlattenResult(r.Content)
		deferred = append(deferred, images...)
		msgs = append(msgs, api.Message{
			Role:       "tool",
			ToolCallID: norm(r.ToolUseID),
			Content:    api.Content{Text: text},
		})
	}
	if opts.MergeTrailingText && len(msgs) > 0 && len(rest) > 0 && !encoder.HasImage(rest) {
		last := &msgs[len(msgs)-1]
		if extra := encoder.JoinText(rest); extra != "" {
			if last.Content.Text != "" {
				last.Content.Text += "\n\n"
			}
			last.Content.Text += extra
		}
		rest = nil
	}
	if len(deferred) > 0 {
		var chunks []api.ContentChunk
		for _, img := range deferred {
			chunks = append(chunks, imageChunk(img.MediaType, img.Data))
		}
		msgs = append(msgs, api.Message{Role: "user", Content: api.Content{Chunks: chunks}})
	}
	if len(rest) > 0 {
		msgs = append(msgs, userMessage(rest))
	}
	return msgs
}

func userMessage(segs []transcript.Segment) api.Message {
	if !encoder.HasImage(segs) {
		return api.Message{Role: "user", Content: api.Content{Text: encoder.JoinText(segs)}}
	}
	var chunks []api.ContentChunk
	for _, s := range segs {
		switch s.Type {
		case transcript.SegmentText:
			chunks = append(chunks, api.ContentChunk{Type: "text", Text: s.Text})
		case transcript.SegmentImage:
			chunks = append(chunks, imageChunk(s.MediaType, s.Data))
		default:
			chunks = append(chunks, api.ContentChunk{Type: "text", Text: encoder.UnsupportedPlaceholder})
		}
	}
	return api.Message{Role: "user", Content: api.Content{Chunks: chunks}}
}

func imageChunk(mediaType, data string) api.ContentChunk {
	return api.ContentChunk{Type: "image_url", ImageURL: encoder.DataURI(mediaType, data)}
}
