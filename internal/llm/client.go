// Package llm answers free-form queries through any OpenAI-compatible chat
// completions endpoint, configured per command.
package llm

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/aj98-official/Nova/internal/config"
)

// Client holds the provider connection and prompt for one LLM-backed
// command.
type Client struct {
	api          *openai.Client
	providerName string
	model        string
	systemPrompt string
}

// New builds a Client from a command's LLM configuration. The api_url is
// the provider's base URL (e.g. "https://api.openai.com/v1"); the standard
// chat completions path is appended by the underlying client.
func New(cfg config.LLMCommandConfig) *Client {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	clientConfig.BaseURL = strings.TrimRight(cfg.APIURL, "/")
	return &Client{
		api:          openai.NewClientWithConfig(clientConfig),
		providerName: cfg.ProviderName,
		model:        cfg.ModelName,
		systemPrompt: cfg.SystemPrompt,
	}
}

// ProviderName returns the configured provider's display name.
func (c *Client) ProviderName() string { return c.providerName }

// Model returns the configured model name.
func (c *Client) Model() string { return c.model }

// Ask sends the query with the command's system prompt and returns the
// model's reply.
func (c *Client) Ask(ctx context.Context, query string) (string, error) {
	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: c.systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: query},
		},
	})
	if err != nil {
		return "", fmt.Errorf("llm request failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llm returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
