// Package paraphrase provides story.Paraphraser implementations.
package paraphrase

import (
	"context"
	"strings"

	"storyboard/internal/services"
	"storyboard/internal/services/llm"
)

const systemPrompt = `You rewrite one sentence of a story for narration.
Keep the meaning, tense and point of view. Keep it to a single sentence of similar length.
Do not add commentary.
Respond with JSON only: {"text": "<rewritten sentence>"}`

// Identity returns text unchanged.
type Identity struct{}

// Paraphrase implements story.Paraphraser.
func (Identity) Paraphrase(_ context.Context, text string) (string, error) {
	return text, nil
}

// Completer sends one chat completion that must answer with JSON.
type Completer interface {
	CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// LLM paraphrases through a chat completion endpoint.
type LLM struct {
	client Completer
}

// NewLLM constructs an LLM paraphraser.
func NewLLM(client Completer) *LLM {
	return &LLM{client: client}
}

type response struct {
	Text string `json:"text"`
}

// Paraphrase implements story.Paraphraser.
func (p *LLM) Paraphrase(ctx context.Context, text string) (string, error) {
	if p == nil || p.client == nil {
		return "", services.Wrap(services.ErrConfiguration, "paraphrase", "init", "llm client not configured", nil)
	}
	content, err := p.client.CompleteJSON(ctx, systemPrompt, text)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "paraphrase", "complete", "", err)
	}
	var resp response
	if err := llm.DecodeLLMJSON(content, &resp); err != nil {
		return "", services.Wrap(services.ErrValidation, "paraphrase", "decode", "", err)
	}
	return strings.TrimSpace(resp.Text), nil
}
