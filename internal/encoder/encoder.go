// Package encoder holds the pieces shared by every per-backend transcript
// encoder: the dispatch surface, tool-call id normalization, the text-emulated
// tool protocol, image lowering, and the backend quirk tables. Each backend
// family lives in its own subpackage and is a pure function from canonical
// transcript plus options to backend wire messages.
package encoder

import (
	"encoding/json"

	"github.com/aperrin/chatwire/internal/protocol"
	"github.com/aperrin/chatwire/internal/tooldef"
	"github.com/aperrin/chatwire/internal/transcript"
)

// Backend identifies a backend encoder family. The set is closed: adding a
// backend means adding a subpackage and a quirk-table row, not a plugin.
type Backend string

const (
	BackendOpenAI    Backend = "openai"
	BackendAnthropic Backend = "anthropic"
	BackendBedrock   Backend = "bedrock"
	BackendMistral   Backend = "mistral"
	BackendDeepSeek  Backend = "deepseek"
)

// Options carries per-request encoding parameters. The zero value encodes
// with the native protocol, identity id normalization, and no system prompt.
type Options struct {
	// Protocol selects native or text-emulated tool-call lowering.
	Protocol protocol.Protocol
	// SystemPrompt is prepended in the backend's system position.
	SystemPrompt string
	// Tools are offered to the backend when the protocol is native.
	Tools []tooldef.FunctionSpec
	// NormalizeID rewrites tool-call identifiers for id-constrained
	// backends. Nil means identity. Must be deterministic so an
	// invocation id and its paired result id still match afterwards.
	NormalizeID NormalizeID
	// MergeTrailingText folds plain text that follows tool results in a
	// user turn into the last result's content instead of emitting a
	// separate turn. Skipped when the trailing content includes an image.
	MergeTrailingText bool
	// CacheHints attaches prompt-cache markers to stable prefixes on
	// backends that support them.
	CacheHints bool
	// ModelID is the active model, used where the wire format needs it.
	ModelID string
}

// IDNormalizer returns the configured normalization function, or identity.
func (o Options) IDNormalizer() NormalizeID {
	if o.NormalizeID == nil {
		return Identity
	}
	return o.NormalizeID
}

// Encoder converts a canonical transcript into one backend's wire messages,
// returned as marshaled JSON. Implementations never mutate the input turns.
type Encoder interface {
	Name() string
	Encode(turns []transcript.Turn, opts Options) (json.RawMessage, error)
}

// Placeholder texts. Encoders degrade instead of corrupting the transcript:
// content that cannot be represented is substituted with a clearly-marked
// placeholder.
const (
	// ImagePlaceholder replaces an image inside a tool-result string; the
	// image itself is re-emitted as a trailing user message when the
	// backend supports images.
	ImagePlaceholder = "[Image: attached in the following message]"
	// UnsupportedPlaceholder stands in for a segment type the target wire
	// format has no representation for.
	UnsupportedPlaceholder = "[Unsupported content block]"
)

// FlattenResult lowers a tool-result body to a single string, substituting
// ImagePlaceholder for embedded images, and returns the images separately for
// re-emission. Missing text lowers to the empty string.
func FlattenResult(rc transcript.ResultContent) (string, []transcript.ResultPart) {
	if rc.IsSimpleText() {
		return rc.Text, nil
	}
	var (
		text   string
		images []transcript.ResultPart
	)
	for _, p := range rc.Parts {
		switch p.Type {
		case transcript.SegmentText:
			if text != "" {
				text += "\n"
			}
			text += p.Text
		case transcript.SegmentImage:
			if text != "" {
				text += "\n"
			}
			text += ImagePlaceholder
			images = append(images, p)
		default:
			if text != "" {
				text += "\n"
			}
			text += UnsupportedPlaceholder
		}
	}
	return text, images
}

// SplitUserTurn partitions a user turn into its tool results and the trailing
// non-result segments, preserving order within each group.
func SplitUserTurn(t transcript.Turn) (results, rest []transcript.Segment) {
	for _, s := range t.Segments {
		if s.Type == transcript.SegmentToolResult {
			results = append(results, s)
		} else {
			rest = append(rest, s)
		}
	}
	return results, rest
}

// HasImage reports whether any segment in segs is an image.
func HasImage(segs []transcript.Segment) bool {
	for _, s := range segs {
		if s.Type == transcript.SegmentImage {
			return true
		}
	}
	return false
}

// JoinText concatenates the text of all text segments with newlines.
func JoinText(segs []transcript.Segment) string {
	var out string
	for _, s := range segs {
		if s.Type != transcript.SegmentText {
			continue
		}
		if out != "" {
			out += "\n"
		}
		out += s.Text
	}
	return out
}

// MarshalInput stringifies a tool invocation's input for backends that take
// arguments as a JSON string. A missing input lowers to an empty object.
func MarshalInput(input map[string]any) string {
	if input == nil {
		return "{}"
	}
	data, err := json.Marshal(input)
	if err != nil {
		return "{}"
	}
	return string(data)
}
