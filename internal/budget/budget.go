// Package budget sizes prompts for chat models using a character-based
// token estimate.
package budget

import (
	"math"
	"strings"
)

// CharsPerToken is the heuristic used by every estimate here.
const CharsPerToken = 4

// EstimateTokens returns the estimated token count of s, rounding up.
func EstimateTokens(s string) int {
	if len(s) == 0 {
		return 0
	}
	return int(math.Ceil(float64(len(s)) / CharsPerToken))
}

// EstimatePromptTokens sums the estimates of every message.
func EstimatePromptTokens(messages ...string) int {
	total := 0
	for _, m := range messages {
		total += EstimateTokens(m)
	}
	return total
}

// ModelContextTokens returns an estimated context window for modelName.
// Unknown models get a conservative 8192.
func ModelContextTokens(modelName string) int {
	name := strings.ToLower(strings.TrimSpace(modelName))
	if v, ok := knownModelMax[name]; ok {
		return v
	}
	for _, s := range sizeSuffixes {
		if strings.HasSuffix(name, s.suffix) {
			return s.tokens
		}
	}
	if strings.Contains(name, "-mini") {
		return 128_000
	}
	return 8192
}

// HeadroomTokens is the larger of 5% of the model context and 512 tokens,
// covering tokenizer drift and message framing.
func HeadroomTokens(modelName string) int {
	dyn := int(math.Ceil(float64(ModelContextTokens(modelName)) * 0.05))
	if dyn < 512 {
		return 512
	}
	return dyn
}

// Remaining returns the input tokens left for modelName after reserving
// output tokens, headroom and the prompt itself. Never negative.
func Remaining(modelName string, reservedForOutput, promptTokens int) int {
	if reservedForOutput < 0 {
		reservedForOutput = 0
	}
	left := ModelContextTokens(modelName) - HeadroomTokens(modelName) - reservedForOutput - promptTokens
	if left < 0 {
		return 0
	}
	return left
}

// Clip shortens text to roughly maxTokens, cutting at the last line break
// inside the budget when there is one. It reports whether text was cut.
func Clip(text string, maxTokens int) (string, bool) {
	if maxTokens <= 0 {
		return "", text != ""
	}
	limit := maxTokens * CharsPerToken
	if len(text) <= limit {
		return text, false
	}
	cut := text[:limit]
	if i := strings.LastIndexByte(cut, '\n'); i > 0 {
		cut = cut[:i]
	}
	// Avoid splitting a multi-byte rune.
	for len(cut) > 0 && !isRuneStart(text[len(cut)]) {
		cut = cut[:len(cut)-1]
	}
	return cut, true
}

func isRuneStart(b byte) bool { return b&0xC0 != 0x80 }

var knownModelMax = map[string]int{
	"gpt-4o":             128_000,
	"gpt-4o-mini":        128_000,
	"gpt-4-turbo":        128_000,
	"gpt-3.5-turbo":      16_384,
	"llama-3":            8_192,
	"llama-3.1":          128_000,
	"openai/gpt-oss-20b": 4_096,
	"gpt-oss-20b":        4_096,
}

var sizeSuffixes = []struct {
	suffix string
	tokens int
}{
	{"1m", 1_000_000},
	{"512k", 512_000},
	{"200k", 200_000},
	{"128k", 128_000},
	{"32k", 32_768},
}
