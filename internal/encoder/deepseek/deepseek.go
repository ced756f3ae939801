// Package deepseek encodes canonical transcripts for DeepSeek-style backends.
// The wire shape is the OpenAI chat-completions one, with two deviations: the
// API rejects consecutive same-role messages, so adjacent plain-text messages
// of one role are merged, and reasoning artifacts from other backends are not
// echoed back.
package deepseek

import (
	"encoding/json"

	api "github.com/aperrin/chatwire/internal/api/openai"
	"github.com/aperrin/chatwire/internal/encoder"
	openaienc "github.com/aperrin/chatwire/internal/encoder/openai"
	"github.com/aperrin/chatwire/internal/protocol"
	"github.com/aperrin/chatwire/internal/transcript"
)

// Encoder emits DeepSeek wire messages.
type Encoder struct{}

var _ encoder.Encoder = (*Encoder)(nil)

// New returns a DeepSeek encoder.
func New() *Encoder { return &Encoder{} }

// Name implements encoder.Encoder.
func (e *Encoder) Name() string { return string(encoder.BackendDeepSeek) }

// Encode implements encoder.Encoder.
func (e *Encoder) Encode(turns []transcript.Turn, opts encoder.Options) (json.RawMessage, error) {
	msgs := openaienc.Messages(turns, opts)
	for i := range msgs {
		msgs[i].ReasoningDetails = nil
	}
	req := api.ChatCompletionRequest{
		Model:    opts.ModelID,
		Messages: mergeConsecutive(msgs),
	}
	if opts.Protocol != protocol.TextEmulated {
		req.Tools = openaienc.Tools(opts)
	}
	return json.Marshal(req)
}

// mergeConsecutive joins adjacent same-role plain-text messages with a
// newline. Messages carrying tool calls, tool results, or content parts are
// never merge candidates on either side.
func mergeConsecutive(msgs []api.ChatMessage) []api.ChatMessage {
	var out []api.ChatMessage
	for _, m := range msgs {
		if len(out) > 0 {
			last := &out[len(out)-1]
			if mergeable(*last) && mergeable(m) && last.Role == m.Role {
				if last.Content.Text != "" && m.Content.Text != "" {
					last.Content.Text += "\n"
				}
				last.Content.Text += m.Content.Text
				continue
			}
		}
		out = append(out, m)
	}
	return out
}

func mergeable(m api.ChatMessage) bool {
	return m.Role != "tool" &&
		len(m.ToolCalls) == 0 &&
		m.ToolCallID == "" &&
		m.ReasoningContent == "" &&
		m.Content.IsSimpleText()
}
