// Package openai maps OpenAI-compatible ChatCompletion requests/responses
// onto the internal Gemini-shape envelope.
package openai

import "encoding/json"

// ChatMessage is one OpenAI chat message. Content may be a plain string or
// an array of content blocks; Content stays raw JSON and the request mapper
// inspects it with gjson.
type ChatMessage struct {
	Role       string          `json:"role"`
	Name       string          `json:"name,omitempty"`
	Content    json.RawMessage `json:"content,omitempty"`
	ToolCalls  []ToolCall      `json:"tool_calls,omitempty"`
	ToolCallID string          `json:"tool_call_id,omitempty"`
	Reasoning  string          `json:"reasoning,omitempty"`
}

// ToolCall is an OpenAI tool_calls entry.
type ToolCall struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Function struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function"`
}

// ContentBlock is one element of an array-form message content.
type ContentBlock struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	ImageURL *struct {
		URL string `json:"url"`
	} `json:"image_url,omitempty"`
}

// ResponseFormat carries response_format.type ("json_object", "text", ...).
type ResponseFormat struct {
	Type string `json:"type"`
}

// ThinkingRequest is the client-side opt-in shape some OpenAI-compatible
// clients use to request Gemini-style thinking.
type ThinkingRequest struct {
	Type         string `json:"type"`
	BudgetTokens int    `json:"budget_tokens"`
}

// FunctionSpec is the function-calling tool payload.
type FunctionSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// ChatCompletionRequest is the OpenAI /v1/chat/completions request body.
// Tools is kept as raw JSON because a tool entry may be {"type":"function",
// "function":{...}} or a bare function spec with assorted root-level noise
// keys (format/strict/additionalProperties/type/external_web_access) that
// must be stripped — easier done with gjson than a struct.
type ChatCompletionRequest struct {
	Model          string           `json:"model"`
	Messages       []ChatMessage    `json:"messages"`
	Stream         bool             `json:"stream"`
	Temperature    *float64         `json:"temperature,omitempty"`
	TopP           *float64         `json:"top_p,omitempty"`
	MaxTokens      *int             `json:"max_tokens,omitempty"`
	N              *int             `json:"n,omitempty"`
	Stop           json.RawMessage  `json:"stop,omitempty"`
	ResponseFormat *ResponseFormat  `json:"response_format,omitempty"`
	Tools          json.RawMessage  `json:"tools,omitempty"`
	Instructions   string           `json:"instructions,omitempty"`
	Thinking       *ThinkingRequest `json:"thinking,omitempty"`

	// Image generation parameters (OpenAI-compatible subset reused by
	// /v1/chat/completions when a client routes image-gen through chat).
	Size      string `json:"size,omitempty"`
	ImageSize string `json:"image_size,omitempty"`
}

// ChatCompletionChoice is one entry of the response choices array.
type ChatCompletionChoice struct {
	Index        int         `json:"index"`
	Message      ChatMessage `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

// Usage mirrors OpenAI's usage object.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatCompletionResponse is the OpenAI /v1/chat/completions response body.
type ChatCompletionResponse struct {
	ID      string                  `json:"id"`
	Object  string                  `json:"object"`
	Created int64                   `json:"created"`
	Model   string                  `json:"model"`
	Choices []ChatCompletionChoice  `json:"choices"`
	Usage   *Usage                  `json:"usage,omitempty"`
}
