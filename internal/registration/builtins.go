// Package registration assembles the built-in backend encoders explicitly.
// No init-based side effects: callers wire the map where they need it.
package registration

import (
	"github.com/aperrin/chatwire/internal/encoder"
	"github.com/aperrin/chatwire/internal/encoder/anthropic"
	"github.com/aperrin/chatwire/internal/encoder/bedrock"
	"github.com/aperrin/chatwire/internal/encoder/deepseek"
	"github.com/aperrin/chatwire/internal/encoder/mistral"
	"github.com/aperrin/chatwire/internal/encoder/openai"
)

// Encoders returns the built-in encoders keyed by backend.
func Encoders() map[encoder.Backend]encoder.Encoder {
	return map[encoder.Backend]encoder.Encoder{
		encoder.BackendOpenAI:    openai.New(),
		encoder.BackendAnthropic: anthropic.New(),
		encoder.BackendBedrock:   bedrock.New(),
		encoder.BackendMistral:   mistral.New(),
		encoder.BackendDeepSeek:  deepseek.New(),
	}
}
