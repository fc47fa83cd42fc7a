package openai

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"github.com/nghyane/llm-gw/internal/ir"
)

// FromReply builds the OpenAI chat.completion object from a collected
// internal reply "Response": single choices[0].message.content
// from concatenated text parts, finish_reason "stop" on upstream STOP,
// usage derived from usageMetadata when present, fresh response id.
func FromReply(reply *ir.Reply, clientModel string, created int64) *ChatCompletionResponse {
	resp := &ChatCompletionResponse{
		ID:      "chatcmpl-" + uuid.NewString(),
		Object:  "chat.completion",
		Created: created,
		Model:   clientModel,
	}

	if reply == nil || len(reply.Candidates) == 0 {
		resp.Choices = []ChatCompletionChoice{{
			Index:        0,
			Message:      ChatMessage{Role: "assistant"},
			FinishReason: "stop",
		}}
		return resp
	}

	for i, cand := range reply.Candidates {
		text, reasoning, toolCalls := splitCandidateParts(cand.Content)
		msg := ChatMessage{Role: "assistant"}
		if text != "" {
			encoded, _ := json.Marshal(text)
			msg.Content = encoded
		}
		if reasoning != "" {
			msg.Reasoning = reasoning
		}
		msg.ToolCalls = toolCalls

		resp.Choices = append(resp.Choices, ChatCompletionChoice{
			Index:        i,
			Message:      msg,
			FinishReason: mapFinishReason(cand.FinishReason),
		})
	}

	if reply.UsageMetadata != nil {
		resp.Usage = &Usage{
			PromptTokens:     reply.UsageMetadata.PromptTokenCount,
			CompletionTokens: reply.UsageMetadata.CandidatesTokenCount,
			TotalTokens:      reply.UsageMetadata.TotalTokenCount,
		}
	}

	return resp
}

func mapFinishReason(upstream string) string {
	switch upstream {
	case "STOP", "":
		return "stop"
	case "MAX_TOKENS":
		return "length"
	case "SAFETY", "RECITATION":
		return "content_filter"
	default:
		if upstream != "" {
			return "stop"
		}
		return ""
	}
}

func splitCandidateParts(content ir.Content) (text, reasoning string, toolCalls []ToolCall) {
	var textBuilder, reasoningBuilder strings.Builder
	for _, p := range content.Parts {
		switch {
		case p.Kind == ir.PartText && p.Thought:
			reasoningBuilder.WriteString(p.Text)
		case p.Kind == ir.PartText:
			textBuilder.WriteString(p.Text)
		case p.Kind == ir.PartFunctionCall && p.FunctionCall != nil:
			id := p.FunctionCall.ID
			if id == "" {
				id = "call_" + p.FunctionCall.Name + "_" + uuid.NewString()[:8]
			}
			tc := ToolCall{ID: id, Type: "function"}
			tc.Function.Name = p.FunctionCall.Name
			tc.Function.Arguments = string(p.FunctionCall.Args)
			toolCalls = append(toolCalls, tc)
		}
	}
	return textBuilder.String(), reasoningBuilder.String(), toolCalls
}
