// Package openai encodes canonical transcripts into OpenAI chat-completions
// requests.
package openai

import (
	"encoding/json"

	api "github.com/aperrin/chatwire/internal/api/openai"
	"github.com/aperrin/chatwire/internal/encoder"
	"github.com/aperrin/chatwire/internal/protocol"
	"github.com/aperrin/chatwire/internal/transcript"
)

// Encoder emits OpenAI chat-completions wire messages.
type Encoder struct{}

var _ encoder.Encoder = (*Encoder)(nil)

// New returns an OpenAI encoder.
func New() *Encoder { return &Encoder{} }

// Name implements encoder.Encoder.
func (e *Encoder) Name() string { return string(encoder.BackendOpenAI) }

// Encode implements encoder.Encoder.
func (e *Encoder) Encode(turns []transcript.Turn, opts encoder.Options) (json.RawMessage, error) {
	req := api.ChatCompletionRequest{
		Model:    opts.ModelID,
		Messages: Messages(turns, opts),
	}
	if opts.Protocol != protocol.TextEmulated {
		req.Tools = Tools(opts)
	}
	return json.Marshal(req)
}

// Messages lowers the transcript into chat messages. Exported so backends
// sharing this wire shape can build on it and post-process.
func Messages(turns []transcript.Turn, opts encoder.Options) []api.ChatMessage {
	var msgs []api.ChatMessage
	if opts.SystemPrompt != "" {
		msgs = append(msgs, api.ChatMessage{
			Role:    "system",
			Content: api.Content{Text: opts.SystemPrompt},
		})
	}
	norm := opts.IDNormalizer()
	for _, t := range turns {
		if opts.Protocol == protocol.TextEmulated {
			t = transcript.Turn{Role: t.Role, Segments: encoder.LowerTextEmulated(t)}
		}
		if t.Role == transcript.RoleAssistant {
			msgs = append(msgs, assistantMessage(t, norm))
			continue
		}
		msgs = append(msgs, userMessages(t, opts, norm)...)
	}
	return msgs
}

// Tools maps the offered tool specs onto the function-tool wire shape.
func Tools(opts encoder.Options) []api.Tool {
	var tools []api.Tool
	for _, spec := range opts.Tools {
		tools = append(tools, api.Tool{
			Type: "function",
			Function: api.FunctionTool{
				Name:        spec.Name,
				Description: spec.Description,
				Parameters:  spec.Parameters,
			},
		})
	}
	return tools
}

func assistantMessage(t transcript.Turn, norm encoder.NormalizeID) api.ChatMessage {
	msg := api.ChatMessage{Role: "assistant"}
	var text string
	appendText := func(s string) {
		if text != "" {
			text += "\n"
		}
		text += s
	}
	for _, s := range t.Segments {
		switch s.Type {
		case transcript.SegmentText:
			appendText(s.Text)
		case transcript.SegmentToolUse:
			msg.ToolCalls = append(msg.ToolCalls, api.ToolCall{
				ID:   norm(s.ID),
				Type: "function",
				Function: api.FunctionCall{
					Name:      s.Name,
					Arguments: encoder.MarshalInput(s.Input),
				},
			})
		case transcript.SegmentReasoning:
			msg.ReasoningContent = s.Text
		case transcript.SegmentReasoningDetail:
			d := *s.Detail
			rd := api.ReasoningDetail{
				Kind:    d.Kind,
				Format:  d.Format,
				Summary: d.Summary,
				Data:    d.Data,
				ID:      d.ID,
				Index:   d.Index,
			}
			if encoder.StripReasoningID(d.Format) {
				rd.ID = ""
			}
			msg.ReasoningDetails = append(msg.ReasoningDetails, rd)
		default:
			appendText(encoder.UnsupportedPlaceholder)
		}
	}
	msg.Content = api.Content{Text: text}
	return msg
}

// userMessages lowers a user turn: each tool result becomes a role "tool"
// message, result-embedded images are re-emitted as a follow-up user message,
// and remaining segments form a final user message. With MergeTrailingText
// set, image-free trailing text folds into the last tool message instead.
func userMessages(t transcript.Turn, opts encoder.Options, norm encoder.NormalizeID) []api.ChatMessage {
	results, rest := encoder.SplitUserTurn(t)
	var (
		msgs     []api.ChatMessage
		deferred []transcript.ResultPart
	)
	for _, r := range results {
		text, images := encoder.FlattenResult(r.Content)
		deferred = append(deferred, images...)
		msgs = append(msgs, api.ChatMessage{
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
		var parts []api.ContentPart
		for _, img := range deferred {
			parts = append(parts, imagePart(img.MediaType, img.Data))
		}
		msgs = append(msgs, api.ChatMessage{Role: "user", Content: api.Content{Parts: parts}})
	}
	if len(rest) > 0 {
		msgs = append(msgs, userMessage(rest))
	}
	return msgs
}

func userMessage(segs []transcript.Segment) api.ChatMessage {
	if !encoder.HasImage(segs) {
		return api.ChatMessage{Role: "user", Content: api.Content{Text: encoder.JoinText(segs)}}
	}
	var parts []api.ContentPart
	for _, s := range segs {
		switch s.Type {
		case transcript.SegmentText:
			parts = append(parts, api.ContentPart{Type: "text", Text: s.Text})
		case transcript.SegmentImage:
			parts = append(parts, imagePart(s.MediaType, s.Data))
		default:
			parts = append(parts, api.ContentPart{Type: "text", Text: encoder.UnsupportedPlaceholder})
		}
	}
	return api.ChatMessage{Role: "user", Content: api.Content{Parts: parts}}
}

func imagePart(mediaType, data string) api.ContentPart {
	return api.ContentPart{
		Type:     "image_url",
		ImageURL: &api.ImageURL{URL: encoder.DataURI(mediaType, data)},
	}
}
