package claude

import (
	"crypto/rand"
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/nghyane/llm-gw/internal/ir"
)

// FromReply builds the Anthropic Messages non-streaming response from a
// collected internal reply: one content array of text, thinking and
// tool_use blocks, fresh msg_<24hex> id, stop_reason mapped from the
// upstream finishReason ("end_turn" unless MAX_TOKENS, SAFETY or
// RECITATION), usage carried over.
//
// physicalModel drives the call_<name>_<n> id-injection rule: when it
// contains "claude" and an upstream functionCall lacks an id, one is
// synthesized as call_<name>_<n> with n a zero-based per-name counter
// within the candidate.
func FromReply(reply *ir.Reply, clientModel, physicalModel string) *MessagesResponse {
	resp := &MessagesResponse{
		ID:         "msg_" + randomHex(24),
		Type:       "message",
		Role:       "assistant",
		Model:      clientModel,
		StopReason: "end_turn",
	}

	if reply == nil || len(reply.Candidates) == 0 {
		resp.Content = []ContentBlock{{Type: "text", Text: ""}}
		return resp
	}

	cand := reply.Candidates[0]
	resp.Content = contentBlocksFromParts(cand.Content.Parts, physicalModel)
	resp.StopReason = mapStopReason(cand.FinishReason)

	if reply.UsageMetadata != nil {
		resp.Usage = Usage{
			InputTokens:  reply.UsageMetadata.PromptTokenCount,
			OutputTokens: reply.UsageMetadata.CandidatesTokenCount,
		}
	}

	return resp
}

func mapStopReason(upstream string) string {
	switch upstream {
	case "MAX_TOKENS":
		return "max_tokens"
	case "SAFETY", "RECITATION":
		return "stop_sequence"
	default:
		return "end_turn"
	}
}

func contentBlocksFromParts(parts []ir.Part, physicalModel string) []ContentBlock {
	injectIDs := strings.Contains(strings.ToLower(physicalModel), "claude")
	nameCounters := map[string]int{}

	var blocks []ContentBlock
	for _, p := range parts {
		switch {
		case p.Kind == ir.PartText && p.Thought:
			blocks = append(blocks, ContentBlock{Type: "thinking", Thinking: p.Text})
		case p.Kind == ir.PartText:
			blocks = append(blocks, ContentBlock{Type: "text", Text: p.Text})
		case p.Kind == ir.PartFunctionCall && p.FunctionCall != nil:
			id := p.FunctionCall.ID
			if id == "" && injectIDs {
				n := nameCounters[p.FunctionCall.Name]
				nameCounters[p.FunctionCall.Name] = n + 1
				id = "call_" + p.FunctionCall.Name + "_" + strconv.Itoa(n)
			}
			blocks = append(blocks, ContentBlock{
				Type:  "tool_use",
				ID:    id,
				Name:  p.FunctionCall.Name,
				Input: p.FunctionCall.Args,
			})
		}
	}
	if len(blocks) == 0 {
		blocks = append(blocks, ContentBlock{Type: "text", Text: ""})
	}
	return blocks
}

func randomHex(n int) string {
	b := make([]byte, n/2)
	if _, err := rand.Read(b); err != nil {
		return strings.Repeat("0", n)
	}
	return hex.EncodeToString(b)
}
