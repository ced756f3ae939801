// Package mistral defines the Mistral chat-completions wire types the encoder
// emits. The shape is OpenAI-adjacent but the tool-call id alphabet and length
// constraints differ, so the types stay separate.
package mistral

import "encoding/json"

// ChatRequest is the outbound request envelope.
type ChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Tools    []Tool    `json:"tools,omitempty"`
}

// Message represents one chat message.
type Message struct {
	Role       string     `json:"role"`
	Content    Content    `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Name       string     `json:"name,omitempty"`
}

// Content is a message body: a plain string, or chunks for multimodal
// messages. A body holding no chunks marshals as a bare string.
type Content struct {
	Text   string
	Chunks []ContentChunk
}

// MarshalJSON implements json.Marshaler.
func (c Content) MarshalJSON() ([]byte, error) {
	if len(c.Chunks) == 0 {
		return json.Marshal(c.Text)
	}
	return json.Marshal(c.Chunks)
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Content) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		c.Text = str
		c.Chunks = nil
		return nil
	}
	var chunks []ContentChunk
	if err := json.Unmarshal(data, &chunks); err != nil {
		return err
	}
	c.Chunks = chunks
	c.Text = ""
	return nil
}

// ContentChunk is one element of a multimodal message body.
type ContentChunk struct {
	Type     string `json:"type"` // "text" or "image_url"
	Text     string `json:"text,omitempty"`
	ImageURL string `json:"image_url,omitempty"`
}

// ToolCall is a structured function call emitted by the assistant. IDs must be
// exactly nine alphanumeric characters.
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
