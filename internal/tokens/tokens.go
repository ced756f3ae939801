// Package tokens estimates token usage for canonical transcripts using
// tiktoken encodings. Counts for OpenAI-family models are exact; other
// backends get an estimate with the closest encoding, which is good enough
// for budget checks before a request goes out.
package tokens

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/tiktoken-go/tokenizer"

	"github.com/aperrin/chatwire/internal/tooldef"
	"github.com/aperrin/chatwire/internal/transcript"
)

// Per-message overhead for chat-shaped requests: 3 tokens of message framing
// plus 1 for the role, with 3 more at the end priming the assistant reply.
const (
	tokensPerMessage = 3
	tokensPerRole    = 1
	assistantPriming = 3
	toolUseOverhead  = 3
	toolDefOverhead  = 7
)

// Counter caches tokenizer codecs by encoding and counts transcript tokens.
// Safe for concurrent use.
type Counter struct {
	mu         sync.RWMutex
	codecCache map[tokenizer.Encoding]tokenizer.Codec
}

// NewCounter creates a token counter.
func NewCounter() *Counter {
	return &Counter{codecCache: make(map[tokenizer.Encoding]tokenizer.Codec)}
}

func (c *Counter) getCodec(model string) (tokenizer.Codec, error) {
	if codec, err := tokenizer.ForModel(tokenizer.Model(strings.ToLower(model))); err == nil {
		return codec, nil
	}

	encoding := modelEncoding(model)

	c.mu.RLock()
	if cached, ok := c.codecCache[encoding]; ok {
		c.mu.RUnlock()
		return cached, nil
	}
	c.mu.RUnlock()

	codec, err := tokenizer.Get(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to get tokenizer encoding: %w", err)
	}

	c.mu.Lock()
	c.codecCache[encoding] = codec
	c.mu.Unlock()
	return codec, nil
}

// modelEncoding maps a model name to its fallback encoding. Newer OpenAI
// models use o200k_base; GPT-4/3.5 use cl100k_base; everything unknown
// (Anthropic, Mistral, DeepSeek model ids included) estimates with o200k_base.
func modelEncoding(model string) tokenizer.Encoding {
	model = strings.ToLower(model)
	switch {
	case strings.HasPrefix(model, "gpt-4o"),
		strings.HasPrefix(model, "gpt-4.1"),
		strings.HasPrefix(model, "gpt-5"),
		strings.HasPrefix(model, "o1"),
		strings.HasPrefix(model, "o3"),
		strings.HasPrefix(model, "o4"):
		return tokenizer.O200kBase
	case strings.HasPrefix(model, "gpt-4"), strings.HasPrefix(model, "gpt-3.5"):
		return tokenizer.Cl100kBase
	default:
		return tokenizer.O200kBase
	}
}

// CountText counts tokens in a plain string.
func (c *Counter) CountText(model, text string) (int, error) {
	codec, err := c.getCodec(model)
	if err != nil {
		return 0, err
	}
	ids, _, err := codec.Encode(text)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// CountTranscript estimates the input token footprint of a transcript plus
// the offered tool definitions and system prompt.
func (c *Counter) CountTranscript(model, system string, turns []transcript.Turn, tools []tooldef.FunctionSpec) (int, error) {
	codec, err := c.getCodec(model)
	if err != nil {
		return 0, err
	}
	count := func(s string) int {
		ids, _, _ := codec.Encode(s)
		return len(ids)
	}

	total := 0
	if system != "" {
		total += tokensPerMessage + tokensPerRole + count(system)
	}
	for _, t := range turns {
		total += tokensPerMessage + tokensPerRole
		for _, s := range t.Segments {
			switch s.Type {
			case transcript.SegmentText, transcript.SegmentReasoning:
				total += count(s.Text)
			case transcript.SegmentToolUse:
				total += count(s.Name) + toolUseOverhead
				if s.Input != nil {
					args, _ := json.Marshal(s.Input)
					total += count(string(args))
				}
			case transcript.SegmentToolResult:
				total += count(s.Content.String()) + 2
			}
		}
	}
	for _, tool := range tools {
		total += count(tool.Name) + count(tool.Description) + toolDefOverhead
		if tool.Parameters != nil {
			params, _ := json.Marshal(tool.Parameters)
			total += count(string(params))
		}
	}
	return total + assistantPriming, nil
}
