package openai

import (
	"encoding/json"
	"testing"

	"github.com/nghyane/llm-gw/internal/ir"
)

func rawJSON(t *testing.T, v any) json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return b
}

func TestBuildInnerRequestSystemAndRoles(t *testing.T) {
	req := &ChatCompletionRequest{
		Model: "gpt-4",
		Messages: []ChatMessage{
			{Role: "system", Content: rawJSON(t, "be nice")},
			{Role: "user", Content: rawJSON(t, "hello")},
			{Role: "assistant", Content: rawJSON(t, "hi there")},
		},
	}

	inner, err := BuildInnerRequest(req, "gemini-2.5-flash", Options{})
	if err != nil {
		t.Fatalf("BuildInnerRequest: %v", err)
	}

	if inner.SystemInstruction == nil || inner.SystemInstruction.Parts[0].Text != "be nice" {
		t.Fatalf("expected systemInstruction 'be nice', got %+v", inner.SystemInstruction)
	}
	if len(inner.Contents) != 2 {
		t.Fatalf("expected 2 contents after role mapping, got %d: %+v", len(inner.Contents), inner.Contents)
	}
	if inner.Contents[0].Role != ir.RoleUser || inner.Contents[1].Role != ir.RoleModel {
		t.Fatalf("expected user then model role, got %v then %v", inner.Contents[0].Role, inner.Contents[1].Role)
	}
}

func TestBuildInnerRequestMergesConsecutiveSameRole(t *testing.T) {
	req := &ChatCompletionRequest{
		Model: "gpt-4",
		Messages: []ChatMessage{
			{Role: "user", Content: rawJSON(t, "part one ")},
			{Role: "tool", ToolCallID: "call_1", Name: "lookup", Content: rawJSON(t, "ignored, tool turns map to user")},
		},
	}
	inner, err := BuildInnerRequest(req, "gemini-2.5-flash", Options{})
	if err != nil {
		t.Fatalf("BuildInnerRequest: %v", err)
	}
	if len(inner.Contents) != 1 {
		t.Fatalf("expected tool message merged into the preceding user turn, got %d entries", len(inner.Contents))
	}
}

func TestBuildInnerRequestToolCallsAndResponses(t *testing.T) {
	toolCall := ToolCall{ID: "call_abc", Type: "function"}
	toolCall.Function.Name = "get_weather"
	toolCall.Function.Arguments = `{"city":"Paris"}`

	req := &ChatCompletionRequest{
		Model: "gpt-4",
		Messages: []ChatMessage{
			{Role: "user", Content: rawJSON(t, "weather?")},
			{Role: "assistant", ToolCalls: []ToolCall{toolCall}},
			{Role: "tool", ToolCallID: "call_abc", Content: rawJSON(t, "18C and sunny")},
		},
	}

	inner, err := BuildInnerRequest(req, "gemini-2.5-flash", Options{})
	if err != nil {
		t.Fatalf("BuildInnerRequest: %v", err)
	}

	foundCall, foundResponse := false, false
	for _, c := range inner.Contents {
		for _, p := range c.Parts {
			if p.Kind == ir.PartFunctionCall && p.FunctionCall.Name == "get_weather" {
				foundCall = true
			}
			if p.Kind == ir.PartFunctionResponse && p.FunctionResponse.Name == "get_weather" {
				foundResponse = true
			}
		}
	}
	if !foundCall {
		t.Fatalf("expected a functionCall part recovered from tool_calls, contents=%+v", inner.Contents)
	}
	if !foundResponse {
		t.Fatalf("expected a functionResponse part with name recovered from the pre-scan map, contents=%+v", inner.Contents)
	}
}

func TestBuildInnerRequestThinkingEnabledForGemini3Pro(t *testing.T) {
	req := &ChatCompletionRequest{
		Model:    "gpt-4",
		Messages: []ChatMessage{{Role: "user", Content: rawJSON(t, "hi")}},
	}
	inner, err := BuildInnerRequest(req, "gemini-3-pro-high", Options{})
	if err != nil {
		t.Fatalf("BuildInnerRequest: %v", err)
	}
	tc := inner.GenerationConfig.ThinkingConfig
	if tc == nil || !tc.IncludeThoughts {
		t.Fatalf("expected thinking enabled for gemini-3-pro-high, got %+v", tc)
	}
	if inner.GenerationConfig.MaxOutputTokens == nil || *inner.GenerationConfig.MaxOutputTokens <= tc.ThinkingBudget {
		t.Fatalf("expected maxOutputTokens to exceed thinkingBudget, got %+v over budget %d",
			inner.GenerationConfig.MaxOutputTokens, tc.ThinkingBudget)
	}
}

func TestBuildInnerRequestThinkingDisabledForClaudeMapped(t *testing.T) {
	req := &ChatCompletionRequest{
		Model:    "claude-sonnet-4-5",
		Messages: []ChatMessage{{Role: "user", Content: rawJSON(t, "hi")}},
	}
	inner, err := BuildInnerRequest(req, "gemini-2.5-flash", Options{})
	if err != nil {
		t.Fatalf("BuildInnerRequest: %v", err)
	}
	_ = req
	if inner.GenerationConfig.ThinkingConfig != nil {
		t.Fatalf("expected no thinkingConfig for a non-thinking physical model, got %+v", inner.GenerationConfig.ThinkingConfig)
	}
}

func TestBuildInnerRequestToolSchemaNormalization(t *testing.T) {
	tools := rawJSON(t, []map[string]any{
		{
			"type": "function",
			"function": map[string]any{
				"name": "search",
				"parameters": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"q": map[string]any{"type": "string"},
					},
				},
			},
		},
	})
	req := &ChatCompletionRequest{
		Model:    "gpt-4",
		Messages: []ChatMessage{{Role: "user", Content: rawJSON(t, "hi")}},
		Tools:    tools,
	}
	inner, err := BuildInnerRequest(req, "gemini-2.5-flash", Options{})
	if err != nil {
		t.Fatalf("BuildInnerRequest: %v", err)
	}
	if len(inner.Tools) != 1 || len(inner.Tools[0].FunctionDeclarations) != 1 {
		t.Fatalf("expected one wrapped tool with one declaration, got %+v", inner.Tools)
	}
	decl := inner.Tools[0].FunctionDeclarations[0]
	if decl.Parameters["type"] != "OBJECT" {
		t.Fatalf("expected uppercased root type OBJECT, got %v", decl.Parameters["type"])
	}
	props := decl.Parameters["properties"].(map[string]any)
	inner1 := props["q"].(map[string]any)
	if inner1["type"] != "STRING" {
		t.Fatalf("expected nested type uppercased to STRING, got %v", inner1["type"])
	}
}

func TestDetectImageGen(t *testing.T) {
	if !DetectImageGen(&ChatCompletionRequest{Size: "1024x1024"}, "gemini-2.5-flash") {
		t.Fatalf("expected size field to trigger image-gen detection")
	}
	if !DetectImageGen(&ChatCompletionRequest{}, "gemini-3-pro-image") {
		t.Fatalf("expected model name containing 'image' to trigger detection")
	}
	if DetectImageGen(&ChatCompletionRequest{}, "gemini-2.5-flash") {
		t.Fatalf("expected no image-gen detection for a plain chat model")
	}
}

func TestFromReplyBuildsChatCompletion(t *testing.T) {
	reply := &ir.Reply{
		Candidates: []ir.Candidate{
			{
				Content:      ir.Content{Role: ir.RoleModel, Parts: []ir.Part{ir.TextPart("Hi "), ir.TextPart("there.")}},
				FinishReason: "STOP",
			},
		},
		UsageMetadata: &ir.UsageMetadata{PromptTokenCount: 5, CandidatesTokenCount: 3, TotalTokenCount: 8},
	}

	resp := FromReply(reply, "gpt-4", 1700000000)
	if resp.Object != "chat.completion" {
		t.Fatalf("expected object chat.completion, got %s", resp.Object)
	}
	if len(resp.Choices) != 1 {
		t.Fatalf("expected one choice, got %d", len(resp.Choices))
	}
	var content string
	if err := json.Unmarshal(resp.Choices[0].Message.Content, &content); err != nil {
		t.Fatalf("unmarshal content: %v", err)
	}
	if content != "Hi there." {
		t.Fatalf("expected concatenated text 'Hi there.', got %q", content)
	}
	if resp.Choices[0].FinishReason != "stop" {
		t.Fatalf("expected finish_reason stop, got %s", resp.Choices[0].FinishReason)
	}
	if resp.Usage == nil || resp.Usage.TotalTokens != 8 {
		t.Fatalf("expected usage carried over from usageMetadata, got %+v", resp.Usage)
	}
}

func TestFromReplyEmptyCandidates(t *testing.T) {
	resp := FromReply(&ir.Reply{}, "gpt-4", 0)
	if len(resp.Choices) != 1 || resp.Choices[0].FinishReason != "stop" {
		t.Fatalf("expected a single stop choice for an empty reply, got %+v", resp.Choices)
	}
}
