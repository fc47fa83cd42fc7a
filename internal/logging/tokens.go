package logging

import (
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

var (
	codecOnce sync.Once
	codec     tokenizer.Codec
)

// EstimateTokens gives a best-effort token count for a piece of text using
// the same cl100k_base encoding the teacher's tokenizer_tiktoken.go reaches
// for, without needing that file's ir.UnifiedChatRequest shape — RequestLog
// only ever needs a flat estimate, not a per-message breakdown.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	codecOnce.Do(func() {
		c, err := tokenizer.Get(tokenizer.Cl100kBase)
		if err == nil {
			codec = c
		}
	})
	if codec == nil {
		return len(text) / 4
	}
	ids, _, err := codec.Encode(text)
	if err != nil {
		return len(text) / 4
	}
	return len(ids)
}
