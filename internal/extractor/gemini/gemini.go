// Package gemini implements port.GenerativeBackend with Google's Gemini API.
package gemini

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
	providerName = "gemini"
	apiBaseURL   = "https://generativelanguage.googleapis.com/v1beta/models"
	defaultModel = "gemini-2.0-flash"
)

// Backend implements port.GenerativeBackend using the Gemini REST API.
type Backend struct {
	apiKey   string
	model    string
	endpoint string
	client   *http.Client
}

// Register adds the gemini provider to the extractor registry.
func Register() {
	extractor.RegisterProvider(providerName, func(cfg *config.ProviderConfig) (port.GenerativeBackend, error) {
		if err := extractor.RequireKey(cfg); err != nil {
			return nil, err
		}
		return NewBackend(cfg), nil
	})
}

// NewBackend creates a Gemini backend.
func NewBackend(cfg *config.ProviderConfig) *Backend {
	return newBackend(cfg, cfg.Endpoint)
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
	if endpoint == "" {
		endpoint = fmt.Sprintf("%s/%s:generateContent", apiBaseURL, model)
	}
	return &Backend{
		apiKey:   cfg.Key(),
		model:    model,
		endpoint: endpoint,
		client:   &http.Client{Timeout: cfg.Timeout()},
	}
}

func (b *Backend) Generate(ctx context.Context, input port.GenerateInput) (*port.GenerateOutput, error) {
	genConfig := map[string]interface{}{
		"temperature":     0,
		"maxOutputTokens": 4096,
	}
	if input.JSON {
		genConfig["responseMimeType"] = "application/json"
	}
	reqBody := map[string]interface{}{
		"contents": []map[string]interface{}{
			{
				"role": "user",
				"parts": []map[string]interface{}{
					{"text": input.Prompt},
				},
			},
		},
		"generationConfig": genConfig,
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
	req.Header.Set("x-goog-api-key", b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling gemini API: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		baseErr := fmt.Errorf("gemini API error (status %d): %s", resp.StatusCode, extractor.Truncate(string(respBody), 500))
		if resp.StatusCode == http.StatusTooManyRequests {
			retryAfter := extractor.ParseRetryAfterHeader(resp.Header.Get("Retry-After"))
			return nil, extractor.NewRateLimitError(providerName, baseErr, retryAfter)
		}
		return nil, baseErr
	}

	return parseResponse(respBody, b.model)
}

// geminiResponse models the Gemini API response.
type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

func parseResponse(body []byte, model string) (*port.GenerateOutput, error) {
	var resp geminiResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("unmarshaling response: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("empty response from API: no candidates")
	}
	if len(resp.Candidates[0].Content.Parts) == 0 {
		return nil, fmt.Errorf("empty response from API: no parts (finish reason %q)", resp.Candidates[0].FinishReason)
	}

	var text string
	for _, p := range resp.Candidates[0].Content.Parts {
		text += p.Text
	}

	return &port.GenerateOutput{
		Text:      text,
		ModelUsed: model,
		Provider:  providerName,
	}, nil
}
