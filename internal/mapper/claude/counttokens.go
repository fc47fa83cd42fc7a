package claude

import "github.com/nghyane/llm-gw/internal/util"

// CountTokens returns an estimated prompt-token count for the
// /v1/messages/count_tokens route. Precision is explicitly non-contractual
// ("return an integer estimate; precision is not contractual").
func CountTokens(model string, body []byte) int {
	return util.EstimateClaudeMessagesTokens(model, body)
}
