// Package claude maps Anthropic Messages requests/responses onto the
// internal Gemini-shape envelope, symmetric to internal/mapper/openai but
// with Anthropic vocabulary.
package claude

import "encoding/json"

// Message is one Anthropic Messages turn. Content may be a plain string or
// an array of content blocks.
type Message struct {
	Role    string          `json:"role"`
	Content json.RawMessage `json:"content"`
}

// Tool is an Anthropic tool definition.
type Tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	InputSchema map[string]any `json:"input_schema,omitempty"`
}

// Thinking is the Anthropic extended-thinking request block.
type Thinking struct {
	Type         string `json:"type"`
	BudgetTokens int    `json:"budget_tokens,omitempty"`
}

// Metadata carries the Claude-only session override field read by the
// session fingerprinter.
type Metadata struct {
	UserID string `json:"user_id,omitempty"`
}

// MessagesRequest is the /v1/messages request body.
type MessagesRequest struct {
	Model         string          `json:"model"`
	System        json.RawMessage `json:"system,omitempty"`
	Messages      []Message       `json:"messages"`
	MaxTokens     int             `json:"max_tokens,omitempty"`
	Temperature   *float64        `json:"temperature,omitempty"`
	TopP          *float64        `json:"top_p,omitempty"`
	TopK          *int            `json:"top_k,omitempty"`
	StopSequences []string        `json:"stop_sequences,omitempty"`
	Stream        bool            `json:"stream,omitempty"`
	Tools         []Tool          `json:"tools,omitempty"`
	Thinking      *Thinking       `json:"thinking,omitempty"`
	Metadata      *Metadata       `json:"metadata,omitempty"`
}

// ContentBlock is one element of MessagesResponse.Content.
type ContentBlock struct {
	Type     string          `json:"type"`
	Text     string          `json:"text,omitempty"`
	ID       string          `json:"id,omitempty"`
	Name     string          `json:"name,omitempty"`
	Input    json.RawMessage `json:"input,omitempty"`
	Thinking string          `json:"thinking,omitempty"`
}

// Usage mirrors Anthropic's usage object.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// MessagesResponse is the /v1/messages non-streaming response body.
type MessagesResponse struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Role       string         `json:"role"`
	Model      string         `json:"model"`
	Content    []ContentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
	Usage      Usage          `json:"usage"`
}

// CountTokensRequest is the /v1/messages/count_tokens request body — it
// shares the same message/system/tools shape as MessagesRequest.
type CountTokensRequest struct {
	Model    string          `json:"model"`
	System   json.RawMessage `json:"system,omitempty"`
	Messages []Message       `json:"messages"`
	Tools    []Tool          `json:"tools,omitempty"`
}

// CountTokensResponse is the /v1/messages/count_tokens response body.
type CountTokensResponse struct {
	InputTokens int `json:"input_tokens"`
}
