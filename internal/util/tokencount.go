package util

import (
	"strings"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tiktoken-go/tokenizer"
)

// ImageTokenCostEstimate is the fixed token cost approximation for an
// inline image, used when estimating usage for protocols/models where
// upstream doesn't report usageMetadata ( Non-goals: token counting is
// estimated, never a production-grade tokenizer).
const ImageTokenCostEstimate = 255

var (
	tiktokenCacheMu sync.RWMutex
	tiktokenCache   = map[tokenizer.Encoding]tokenizer.Codec{}
)

func codecFor(encoding tokenizer.Encoding) (tokenizer.Codec, error) {
	tiktokenCacheMu.RLock()
	if c, ok := tiktokenCache[encoding]; ok {
		tiktokenCacheMu.RUnlock()
		return c, nil
	}
	tiktokenCacheMu.RUnlock()

	tiktokenCacheMu.Lock()
	defer tiktokenCacheMu.Unlock()
	if c, ok := tiktokenCache[encoding]; ok {
		return c, nil
	}
	c, err := tokenizer.Get(encoding)
	if err != nil {
		return nil, err
	}
	tiktokenCache[encoding] = c
	return c, nil
}

func encodingForModel(model string) tokenizer.Encoding {
	lower := strings.ToLower(model)
	switch {
	case strings.Contains(lower, "claude"), strings.Contains(lower, "gemini"):
		return tokenizer.O200kBase
	case strings.Contains(lower, "gpt-4"), strings.Contains(lower, "gpt-3.5"):
		return tokenizer.Cl100kBase
	default:
		return tokenizer.O200kBase
	}
}

// EstimateTokens counts an approximate token total for a blob of text under
// the encoding appropriate to model. Used for Claude's count_tokens
// endpoint; the request log's output-token fallback uses
// internal/logging's own estimator instead.
func EstimateTokens(model, text string) int {
	if text == "" {
		return 0
	}
	enc, err := codecFor(encodingForModel(model))
	if err != nil {
		// Fallback heuristic: ~4 bytes/token, never block the request on a
		// tokenizer load failure.
		return (len(text) + 3) / 4
	}
	ids, _, err := enc.Encode(text)
	if err != nil {
		return (len(text) + 3) / 4
	}
	return len(ids)
}

// EstimateClaudeMessagesTokens walks a raw Anthropic Messages body and
// returns an estimated prompt-token count for /v1/messages/count_tokens.
// Precision is explicitly non-contractual.
func EstimateClaudeMessagesTokens(model string, body []byte) int {
	root := gjson.ParseBytes(body)
	total := 0

	if sys := root.Get("system"); sys.Exists() {
		if sys.IsArray() {
			sys.ForEach(func(_, block gjson.Result) bool {
				total += EstimateTokens(model, block.Get("text").String())
				return true
			})
		} else {
			total += EstimateTokens(model, sys.String())
		}
	}

	root.Get("messages").ForEach(func(_, msg gjson.Result) bool {
		total += 4 // role + framing overhead, matching tiktoken's per-message overhead convention
		content := msg.Get("content")
		if content.Type == gjson.String {
			total += EstimateTokens(model, content.String())
			return true
		}
		content.ForEach(func(_, block gjson.Result) bool {
			switch block.Get("type").String() {
			case "text":
				total += EstimateTokens(model, block.Get("text").String())
			case "image":
				total += ImageTokenCostEstimate
			case "tool_use":
				total += EstimateTokens(model, block.Get("input").Raw)
			case "tool_result":
				total += EstimateTokens(model, block.Get("content").String())
			}
			return true
		})
		return true
	})

	if tools := root.Get("tools"); tools.Exists() {
		total += EstimateTokens(model, tools.Raw) + 10
	}

	return total
}
