// Package bedrock defines the Bedrock Converse API wire types the encoder
// emits. Images travel as raw bytes plus a short format name; encoding/json
// base64-encodes the byte slices on marshal, which is the shape the Converse
// JSON surface expects.
package bedrock

// ConverseInput is the outbound request envelope.
type ConverseInput struct {
	ModelID    string        `json:"modelId"`
	System     []SystemBlock `json:"system,omitempty"`
	Messages   []Message     `json:"messages"`
	ToolConfig *ToolConfig   `json:"toolConfig,omitempty"`
}

// SystemBlock is one block of the system prompt.
type SystemBlock struct {
	Text string `json:"text"`
}

// Message represents one conversation message.
type Message struct {
	Role    string         `json:"role"`
	Content []ContentBlock `json:"content"`
}

// ContentBlock is one typed block of message content. Exactly one field is
// populated.
type ContentBlock struct {
	Text       string           `json:"text,omitempty"`
	Image      *ImageBlock      `json:"image,omitempty"`
	ToolUse    *ToolUseBlock    `json:"toolUse,omitempty"`
	ToolResult *ToolResultBlock `json:"toolResult,omitempty"`
}

// ImageBlock embeds an image as raw bytes.
type ImageBlock struct {
	Format string      `json:"format"` // "png", "jpeg", "gif", "webp"
	Source ImageSource `json:"source"`
}

// ImageSource carries the decoded image bytes.
type ImageSource struct {
	Bytes []byte `json:"bytes"`
}

// ToolUseBlock is a structured tool invocation.
type ToolUseBlock struct {
	ToolUseID string `json:"toolUseId"`
	Name      string `json:"name"`
	Input     any    `json:"input"`
}

// ToolResultBlock is a structured tool outcome.
type ToolResultBlock struct {
	ToolUseID string              `json:"toolUseId"`
	Content   []ToolResultContent `json:"content"`
	Status    string              `json:"status,omitempty"` // "success" or "error"
}

// ToolResultContent is one block of a tool outcome body.
type ToolResultContent struct {
	Text  string      `json:"text,omitempty"`
	Image *ImageBlock `json:"image,omitempty"`
}

// ToolConfig declares the tools available to the model. Converse rejects
// toolUse/toolResult blocks in the history unless a tool config accompanies
// them.
type ToolConfig struct {
	Tools []Tool `json:"tools"`
}

// Tool wraps one tool specification.
type Tool struct {
	ToolSpec ToolSpec `json:"toolSpec"`
}

// ToolSpec declares a callable tool.
type ToolSpec struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	InputSchema InputSchema `json:"inputSchema"`
}

// InputSchema wraps the JSON schema of a tool's parameters.
type InputSchema struct {
	JSON any `json:"json"`
}
