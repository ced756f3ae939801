// Package openai defines the OpenAI chat-completions wire types the encoder
// emits. DeepSeek-style backends reuse these shapes.
package openai

import "encoding/json"

// ChatCompletionRequest is the outbound request envelope.
type ChatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []ChatMessage `json:"messages"`
	Tools    []Tool        `json:"tools,omitempty"`
}

// ChatMessage represents one chat message.
type ChatMessage struct {
	Role       string     `json:"role"`
	Content    Content    `json:"content"`
	Name       string     `json:"name,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`

	// Reasoning pass-through for models exposing it on this API shape.
	ReasoningContent string            `json:"reasoning_content,omitempty"`
	ReasoningDetails []ReasoningDetail `json:"reasoning_details,omitempty"`
}

// Content is a message body: a plain string, or content parts for multimodal
// messages. A body holding no parts marshals as a bare string.
type Content struct {
	Text  string
	Parts []ContentPart
}

// IsSimpleText returns true if the content is just plain text.
func (c Content) IsSimpleText() bool {
	return len(c.Parts) == 0
}

// MarshalJSON implements json.Marshaler.
func (c Content) MarshalJSON() ([]byte, error) {
	if c.IsSimpleText() {
		return json.Marshal(c.Text)
	}
	return json.Marshal(c.Parts)
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Content) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		c.Text = str
		c.Parts = nil
		return nil
	}
	var parts []ContentPart
	if err := json.Unmarshal(data, &parts); err != nil {
		return err
	}
	c.Parts = parts
	c.Text = ""
	return nil
}

// ContentPart is one element of a multimodal message body.
type ContentPart struct {
	Type     string    `json:"type"` // "text" or "image_url"
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL references an image by URL or data URI.
type ImageURL struct {
	URL string `json:"url"`
}

// ToolCall is a structured function call emitted by the assistant.
type ToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"` // "function"
	Function FunctionCall `json:"function"`
}

// FunctionCall carries the call target and JSON-stringified arguments.
type FunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Tool declares a callable function.
type Tool struct {
	Type     string       `json:"type"` // "function"
	Function FunctionTool `json:"function"`
}

// FunctionTool is the function declaration inside a Tool.
type FunctionTool struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Parameters  any    `json:"parameters"`
}

// ReasoningDetail is a backend-native reasoning artifact echoed back on later
// requests. ID is dropped before encoding for formats whose backend keeps no
// server-side reasoning state.
type ReasoningDetail struct {
	Kind    string `json:"type"`
	Format  string `json:"format"`
	Summary string `json:"summary,omitempty"`
	Data    string `json:"data,omitempty"`
	ID      string `json:"id,omitempty"`
	Index   int    `json:"index"`
}
