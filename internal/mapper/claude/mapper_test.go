package claude

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
	req := &MessagesRequest{
		Model:  "claude-sonnet-4-5",
		System: rawJSON(t, "be nice"),
		Messages: []Message{
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
	if len(inner.Contents) != 2 || inner.Contents[0].Role != ir.RoleUser || inner.Contents[1].Role != ir.RoleModel {
		t.Fatalf("expected user then model roles, got %+v", inner.Contents)
	}
}

func TestBuildInnerRequestStripsCacheControlAndMergesToolResult(t *testing.T) {
	req := &MessagesRequest{
		Model: "claude-sonnet-4-5",
		Messages: []Message{
			{Role: "user", Content: rawJSON(t, []map[string]any{
				{"type": "text", "text": "what's the weather", "cache_control": map[string]any{"type": "ephemeral"}},
			})},
			{Role: "assistant", Content: rawJSON(t, []map[string]any{
				{"type": "tool_use", "id": "toolu_1", "name": "get_weather", "input": map[string]any{"city": "Paris"}},
			})},
			{Role: "user", Content: rawJSON(t, []map[string]any{
				{"type": "tool_result", "tool_use_id": "toolu_1", "content": "18C and sunny"},
			})},
		},
	}
	inner, err := BuildInnerRequest(req, "gemini-2.5-flash", Options{})
	if err != nil {
		t.Fatalf("BuildInnerRequest: %v", err)
	}

	foundCall, foundResponse := false, false
	for _, c := range inner.Contents {
		for _, p := range c.Parts {
			if p.Kind == ir.PartFunctionCall {
				foundCall = true
			}
			if p.Kind == ir.PartFunctionResponse && p.FunctionResponse.Name == "toolu_1" {
				foundResponse = true
			}
			if p.Kind == ir.PartText && p.Text == "" {
				t.Fatalf("cache_control should never leak into the mapped text part")
			}
		}
	}
	if !foundCall || !foundResponse {
		t.Fatalf("expected both a functionCall and functionResponse part, contents=%+v", inner.Contents)
	}
}

func TestBuildInnerRequestThinkingCapAt24576(t *testing.T) {
	req := &MessagesRequest{
		Model:     "claude-sonnet-4-5-thinking",
		MaxTokens: 4096,
		Thinking:  &Thinking{Type: "enabled", BudgetTokens: 32768},
		Messages:  []Message{{Role: "user", Content: rawJSON(t, "hi")}},
	}
	// physicalModel here stands for the already-resolved physical model
	// (claude-sonnet-4-5-thinking resolves to gemini-3-pro-high, whose
	// registry max is 32768 — the mapper must still cap chat-mode thinking
	// at the flat 24576 ceiling/).
	inner, err := BuildInnerRequest(req, "gemini-3-pro-high", Options{})
	if err != nil {
		t.Fatalf("BuildInnerRequest: %v", err)
	}
	tc := inner.GenerationConfig.ThinkingConfig
	if tc == nil {
		t.Fatalf("expected thinkingConfig to be set")
	}
	if tc.ThinkingBudget != 24576 {
		t.Fatalf("expected thinkingBudget capped at 24576, got %d", tc.ThinkingBudget)
	}
	if *inner.GenerationConfig.MaxOutputTokens < 24576+8192 {
		t.Fatalf("expected maxOutputTokens >= 24576+8192, got %d", *inner.GenerationConfig.MaxOutputTokens)
	}
}

func TestFromReplyInjectsToolCallIDForClaudeModel(t *testing.T) {
	reply := &ir.Reply{
		Candidates: []ir.Candidate{
			{
				Content: ir.Content{Role: ir.RoleModel, Parts: []ir.Part{
					ir.FunctionCallPart(ir.FunctionCall{Name: "get_weather", Args: []byte(`{"city":"Paris"}`)}),
					ir.FunctionCallPart(ir.FunctionCall{Name: "get_weather", Args: []byte(`{"city":"Rome"}`)}),
				}},
				FinishReason: "STOP",
			},
		},
	}
	resp := FromReply(reply, "claude-sonnet-4-5", "claude-sonnet-4-5")
	if len(resp.Content) != 2 {
		t.Fatalf("expected 2 tool_use blocks, got %d", len(resp.Content))
	}
	if resp.Content[0].ID != "call_get_weather_0" || resp.Content[1].ID != "call_get_weather_1" {
		t.Fatalf("expected per-name zero-based counters, got %q and %q", resp.Content[0].ID, resp.Content[1].ID)
	}
}

func TestFromReplyLeavesIDsAloneForNonClaudePhysicalModel(t *testing.T) {
	reply := &ir.Reply{
		Candidates: []ir.Candidate{
			{Content: ir.Content{Role: ir.RoleModel, Parts: []ir.Part{
				ir.FunctionCallPart(ir.FunctionCall{Name: "get_weather"}),
			}}},
		},
	}
	resp := FromReply(reply, "claude-sonnet-4-5", "gemini-2.5-flash")
	if resp.Content[0].ID != "" {
		t.Fatalf("expected no id injection for a non-claude physical model, got %q", resp.Content[0].ID)
	}
}

func TestFromReplyDefaultsStopReason(t *testing.T) {
	reply := &ir.Reply{Candidates: []ir.Candidate{
		{Content: ir.Content{Role: ir.RoleModel, Parts: []ir.Part{ir.TextPart("hi")}}, FinishReason: "STOP"},
	}}
	resp := FromReply(reply, "claude-sonnet-4-5", "claude-sonnet-4-5")
	if resp.StopReason != "end_turn" {
		t.Fatalf("expected stop_reason end_turn, got %s", resp.StopReason)
	}
	if resp.Type != "message" || resp.Role != "assistant" {
		t.Fatalf("unexpected envelope fields: %+v", resp)
	}
	if len(resp.ID) != len("msg_")+24 {
		t.Fatalf("expected msg_<24hex> id, got %q", resp.ID)
	}
}

func TestCountTokensEstimatesPositive(t *testing.T) {
	body := rawJSON(t, map[string]any{
		"model": "claude-sonnet-4-5",
		"messages": []map[string]any{
			{"role": "user", "content": "How many tokens is this sentence roughly?"},
		},
	})
	n := CountTokens("claude-sonnet-4-5", body)
	if n <= 0 {
		t.Fatalf("expected a positive token estimate, got %d", n)
	}
}
