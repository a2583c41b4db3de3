package classify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/hyperifyio/fencerun/internal/budget"
	"github.com/hyperifyio/fencerun/internal/cache"
	"github.com/hyperifyio/fencerun/internal/llm"
)

// LLM asks a chat model for the label. It is an alternative to NaiveBayes
// when no trained artifacts are available. The answer is returned as-is after
// trimming; callers validate it against their label set.
type LLM struct {
	Client llm.Client
	Model  string
	// Labels are offered to the model as the only valid answers.
	Labels []string
	Cache  *cache.Store
	// MaxSnippetTokens caps how much of a snippet is sent. Zero means
	// whatever fits the model context.
	MaxSnippetTokens int
}

// reservedOutputTokens leaves room for a one-word answer.
const reservedOutputTokens = 16

const llmSystemMessage = "You identify the programming language of a code snippet. Answer with exactly one label from the allowed list, in lower case, with no punctuation and no explanation."

// Classify implements Classifier.
func (c *LLM) Classify(ctx context.Context, text string) (string, error) {
	if c.Client == nil || c.Model == "" {
		return "", errors.New("llm classifier not configured")
	}
	header := "Allowed labels: " + strings.Join(c.Labels, ", ") + "\n\nSnippet:\n"
	room := budget.Remaining(c.Model, reservedOutputTokens, budget.EstimatePromptTokens(llmSystemMessage, header))
	if c.MaxSnippetTokens > 0 && c.MaxSnippetTokens < room {
		room = c.MaxSnippetTokens
	}
	if room == 0 {
		return "", fmt.Errorf("classifier prompt does not fit the context of %s", c.Model)
	}
	body, _ := budget.Clip(text, room)
	user := header + body
	key := cache.KeyFrom("classify", c.Model, llmSystemMessage, user)
	if c.Cache != nil {
		if raw, ok, _ := c.Cache.Get(ctx, key); ok {
			return string(raw), nil
		}
	}
	resp, err := c.Client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: llmSystemMessage},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
		Temperature: 0,
		N:           1,
	})
	if err != nil {
		return "", fmt.Errorf("classifier call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("classifier call: no choices")
	}
	label := cleanLabel(resp.Choices[0].Message.Content)
	if c.Cache != nil && label != "" {
		_ = c.Cache.Save(ctx, key, []byte(label))
	}
	return label, nil
}

// cleanLabel strips quoting and punctuation models like to add.
func cleanLabel(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "`'\".,;: \n\t")
	return strings.ToLower(s)
}
