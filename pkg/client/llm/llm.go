// Package llm wraps an OpenAI-compatible chat completion endpoint. Gemini
// exposes such an endpoint, so the same client covers both providers.
package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

type Client struct {
	api   *openai.Client
	model string
}

// New returns a configured client, or nil when no API key is set so callers
// can treat AI refinement as disabled.
func New(cfg Config) *Client {
	if cfg.APIKey == "" {
		return nil
	}
	apiCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		apiCfg.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	return &Client{api: openai.NewClientWithConfig(apiCfg), model: model}
}

// Complete sends one system+user exchange and returns the first choice.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: user},
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}
