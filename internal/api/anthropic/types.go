// Package anthropic defines the Anthropic Messages API wire types the encoder
// emits.
package anthropic

import "encoding/json"

// MessagesRequest is the outbound request envelope.
type MessagesRequest struct {
	Model    string        `json:"model"`
	System   []SystemBlock `json:"system,omitempty"`
	Messages []Message     `json:"messages"`
	Tools    []Tool        `json:"tools,omitempty"`
}

// SystemBlock is one block of the structured system prompt.
type SystemBlock struct {
	Type         string        `json:"type"` // "text"
	Text         string        `json:"text"`
	CacheControl *CacheControl `json:"cache_control,omitempty"`
}

// CacheControl marks a block as a prompt-cache breakpoint.
type CacheControl struct {
	Type string `json:"type"` // "ephemeral"
}

// Message represents one conversation message.
type Message struct {
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content"`
}

// ContentBlock is one typed block of message content. Exactly one payload
// group is populated, selected by Type.
type ContentBlock struct {
	Type string `json:"type"`

	// type == "text"
	Text string `json:"text,omitempty"`

	// type == "image"
	Source *ImageSource `json:"source,omitempty"`

	// type == "tool_use"
	ID    string `json:"id,omitempty"`
	Name  string `json:"name,omitempty"`
	Input any    `json:"input,omitempty"`

	// type == "tool_result"
	ToolUseID string         `json:"tool_use_id,omitempty"`
	Content   *ResultContent `json:"content,omitempty"`
	IsError   bool           `json:"is_error,omitempty"`

	// type == "thinking"
	Thinking  string `json:"thinking,omitempty"`
	Signature string `json:"signature,omitempty"`

	CacheControl *CacheControl `json:"cache_control,omitempty"`
}

// ImageSource is a base64-embedded image.
type ImageSource struct {
	Type      string `json:"type"` // "base64"
	MediaType string `json:"media_type"`
	Data      string `json:"data"`
}

// ResultContent is a tool-result body: a plain string or nested blocks. Empty
// parts marshal as a bare string.
type ResultContent struct {
	Text  string
	Parts []ContentBlock
}

// MarshalJSON implements json.Marshaler.
func (c ResultContent) MarshalJSON() ([]byte, error) {
	if len(c.Parts) == 0 {
		return json.Marshal(c.Text)
	}
	return json.Marshal(c.Parts)
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *ResultContent) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		c.Text = str
		c.Parts = nil
		return nil
	}
	var parts []ContentBlock
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	c.Parts = parts
	c.Text = ""
	return nil
}

// Tool declares a callable tool.
type Tool struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	InputSchema any    `json:"input_schema"`
}
