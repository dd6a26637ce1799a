// Package openai implements port.GenerativeBackend with the OpenAI Chat
// Completions API.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	goopenai "github.com/sashabaranov/go-openai"

	"fleetdocs/internal/config"
	"fleetdocs/internal/extractor"
	"fleetdocs/internal/port"
)

const (
	providerName = "openai"
	defaultModel = goopenai.GPT4o
)

// Backend implements port.GenerativeBackend using go-openai.
type Backend struct {
	client *goopenai.Client
	model  string
}

// Register adds the openai provider to the extractor registry.
func Register() {
	extractor.RegisterProvider(providerName, func(cfg *config.ProviderConfig) (port.GenerativeBackend, error) {
		if err := extractor.RequireKey(cfg); err != nil {
			return nil, err
		}
		return NewBackend(cfg), nil
	})
}

// NewBackend creates an OpenAI backend. A configured endpoint replaces the
// API base URL, which also serves OpenAI-compatible gateways.
func NewBackend(cfg *config.ProviderConfig) *Backend {
	clientCfg := goopenai.DefaultConfig(cfg.Key())
	if cfg.Endpoint != "" {
		clientCfg.BaseURL = cfg.Endpoint
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout()}

	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	return &Backend{
		client: goopenai.NewClientWithConfig(clientCfg),
		model:  model,
	}
}

func (b *Backend) Generate(ctx context.Context, input port.GenerateInput) (*port.GenerateOutput, error) {
	req := goopenai.ChatCompletionRequest{
		Model: b.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: input.Prompt},
		},
		Temperature: 0,
	}
	if input.JSON {
		req.ResponseFormat = &goopenai.ChatCompletionResponseFormat{Type: goopenai.ChatCompletionResponseFormatTypeJSONObject}
	}

	resp, err := b.client.CreateChatCompletion(ctx, req)
	if err != nil {
		var apiErr *goopenai.APIError
		if errors.As(err, &apiErr) && apiErr.HTTPStatusCode == http.StatusTooManyRequests {
			return nil, extractor.NewRateLimitError(providerName, err, 0)
		}
		return nil, fmt.Errorf("calling openai API: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("empty response from API: no choices")
	}
	if resp.Choices[0].FinishReason == goopenai.FinishReasonLength {
		return nil, fmt.Errorf("output truncated (finish_reason: length): response exceeded output token limit")
	}

	return &port.GenerateOutput{
		Text:      resp.Choices[0].Message.Content,
		ModelUsed: resp.Model,
		Provider:  providerName,
	}, nil
}
