// Package claude implements port.GenerativeBackend with the Anthropic
// Messages API.
package claude

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"fleetdocs/internal/config"
	"fleetdocs/internal/extractor"
	"fleetdocs/internal/port"
)

const (
	providerName = "claude"
	apiURL       = "https://api.anthropic.com/v1/messages"
	apiVersion   = "2023-06-01"
	defaultModel = "claude-sonnet-4-20250514"
)

// Backend implements port.GenerativeBackend using the Anthropic Messages API.
type Backend struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// Register adds the claude provider to the extractor registry.
func Register() {
	extractor.RegisterProvider(providerName, func(cfg *config.ProviderConfig) (port.GenerativeBackend, error) {
		if err := extractor.RequireKey(cfg); err != nil {
			return nil, err
		}
		return NewBackend(cfg), nil
	})
}

// NewBackend creates a Claude backend.
func NewBackend(cfg *config.ProviderConfig) *Backend {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = apiURL
	}
	return newBackend(cfg, endpoint)
}

// NewBackendWithEndpoint creates a backend pointing at a custom API endpoint (for testing).
func NewBackendWithEndpoint(cfg *config.ProviderConfig, endpoint string) *Backend {
	return newBackend(cfg, endpoint)
}

func newBackend(cfg *config.ProviderConfig, endpoint string) *Backend {
	model := cfg.Model
	if model == "" {
		model = defaultModel
	}
	return &Backend{
		apiKey:   cfg.Key(),
		model:    model,
		endpoint: endpoint,
		client:   &http.Client{Timeout: cfg.Timeout()},
	}
}

func (b *Backend) Generate(ctx context.Context, input port.GenerateInput) (*port.GenerateOutput, error) {
	reqBody := map[string]interface{}{
		"model":       b.model,
		"max_tokens":  4096,
		"temperature": 0,
		"messages": []map[string]interface{}{
			{
				"role":    "user",
				"content": input.Prompt,
			},
		},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", b.apiKey)
	req.Header.Set("anthropic-version", apiVersion)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling anthropic API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		baseErr := fmt.Errorf("anthropic API error (status %d): %s", resp.StatusCode, extractor.Truncate(string(respBody), 500))
		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := extractor.ParseRetryAfterHeader(resp.Header.Get("Retry-After"))
			return nil, extractor.NewRateLimitError(providerName, baseErr, retryAfter)
		}
		return nil, baseErr
	}

	return parseResponse(respBody, b.model)
}

// apiResponse models the Anthropic Messages API response.
type apiResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

func parseResponse(body []byte, model string) (*port.GenerateOutput, error) {
	var resp apiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshaling response: %w", err)
	}

	if len(resp.Content) == 0 {
		return nil, fmt.Errorf("empty response from API")
	}
	if resp.StopReason == "max_tokens" {
		return nil, fmt.Errorf("output truncated (stop_reason: max_tokens): response exceeded output token limit")
	}

	var text string
	for _, c := range resp.Content {
		if c.Type == "text" {
			text += c.Text
		}
	}

	return &port.GenerateOutput{
		Text:      text,
		ModelUsed: model,
		Provider:  providerName,
	}, nil
}
