// Package util holds small cross-mapper helpers: thinking-budget
// normalization against registry metadata, and token-count
// estimation for count_tokens.
package util

import (
	"strings"

	"github.com/nghyane/llm-gw/internal/registry"
)

// Overhead/cap constants: when maxOutputTokens does not already exceed the
// thinking budget it is raised to budget plus this overhead, and models
// unknown to the registry fall back to a flat 24576 budget cap.
const (
	DefaultThinkingOverheadText  = 32768
	DefaultThinkingOverheadImage = 2048
	MinOverheadText              = 8192
	MinOverheadImage             = 1024
	FlatThinkingBudgetCap        = 24576
)

// ModelSupportsThinking reports whether the given model has Thinking capability
// according to the model registry metadata (provider-agnostic).
func ModelSupportsThinking(model string) bool {
	if model == "" {
		return false
	}
	if info := registry.GetGlobalRegistry().GetModelInfo(model); info != nil {
		return info.Thinking != nil
	}
	return false
}

// ShouldEnableThinking implements the thinking-capability detection rule: the
// physical model looks like a thinking-capable Gemini model and isn't a
// mapped Claude model, or the client explicitly asked for thinking.
func ShouldEnableThinking(physicalModel string, clientRequestedThinking bool) bool {
	if clientRequestedThinking {
		return true
	}
	lower := strings.ToLower(physicalModel)
	if strings.Contains(lower, "claude") {
		return false
	}
	if !strings.Contains(lower, "gemini") {
		return false
	}
	return strings.Contains(lower, "-thinking") ||
		strings.Contains(lower, "gemini-2.0-pro") ||
		strings.Contains(lower, "gemini-3-pro")
}

// NormalizeThinkingBudget clamps the requested thinking budget to the
// supported range for the specified model using registry metadata; falls
// back to the flat 24576 cap when the model carries no registry thinking
// range.
func NormalizeThinkingBudget(model string, budget int) int {
	if found, min, max, zeroAllowed, dynamicAllowed := thinkingRangeFromRegistry(model); found {
		if budget == -1 {
			if dynamicAllowed {
				return -1
			}
			mid := (min + max) / 2
			if mid <= 0 && zeroAllowed {
				return 0
			}
			if mid <= 0 {
				return min
			}
			return mid
		}
		if budget == 0 {
			if zeroAllowed {
				return 0
			}
			return min
		}
		if budget < min {
			return min
		}
		if budget > max {
			return max
		}
		return budget
	}

	if budget <= 0 || budget > FlatThinkingBudgetCap {
		return FlatThinkingBudgetCap
	}
	return budget
}

// NormalizeChatThinkingBudget applies the flat budget rule for non-image-gen
// requests: the client's value, or FlatThinkingBudgetCap when absent,
// capped at FlatThinkingBudgetCap regardless of the resolved model's
// registry thinking range (unlike NormalizeThinkingBudget, which is
// registry-aware and used for the image-gen arm).
func NormalizeChatThinkingBudget(requested int) int {
	if requested <= 0 || requested > FlatThinkingBudgetCap {
		return FlatThinkingBudgetCap
	}
	return requested
}

// OverheadFor returns the maxOutputTokens overhead and floor for the given
// request kind (32768/8192 text, 2048/1024 image-gen).
func OverheadFor(isImageGen bool) (overhead, minimum int) {
	if isImageGen {
		return DefaultThinkingOverheadImage, MinOverheadImage
	}
	return DefaultThinkingOverheadText, MinOverheadText
}

// EnsureMaxOutputTokensAboveBudget raises maxOutputTokens so it strictly
// exceeds the thinking budget, padding by the per-kind overhead (floored at
// the per-kind minimum) whenever the current value doesn't clear the
// budget.
func EnsureMaxOutputTokensAboveBudget(maxOutputTokens, thinkingBudget int, isImageGen bool) int {
	overhead, minimum := OverheadFor(isImageGen)
	if overhead < minimum {
		overhead = minimum
	}
	if maxOutputTokens > thinkingBudget {
		return maxOutputTokens
	}
	return thinkingBudget + overhead
}

// thinkingRangeFromRegistry attempts to read thinking ranges from the model registry.
func thinkingRangeFromRegistry(model string) (found bool, min int, max int, zeroAllowed bool, dynamicAllowed bool) {
	if model == "" {
		return false, 0, 0, false, false
	}
	lower := strings.ToLower(model)
	info := registry.GetGlobalRegistry().GetModelInfo(lower)
	if info == nil {
		info = registry.GetGlobalRegistry().GetModelInfo(model)
	}
	if info == nil || info.Thinking == nil {
		return false, 0, 0, false, false
	}
	return true, info.Thinking.Min, info.Thinking.Max, info.Thinking.ZeroAllowed, info.Thinking.DynamicAllowed
}
