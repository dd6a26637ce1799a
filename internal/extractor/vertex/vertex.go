// Package vertex implements port.GenerativeBackend with Gemini models served
// from Vertex AI.
package vertex

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/vertexai/genai"

	"fleetdocs/internal/config"
	"fleetdocs/internal/domain"
	"fleetdocs/internal/extractor"
	"fleetdocs/internal/port"
)

const (
	providerName = "vertex"
	defaultModel = "gemini-2.0-flash"
)

// Backend implements port.GenerativeBackend using the Vertex AI genai client.
type Backend struct {
	client *genai.Client
	model  *genai.GenerativeModel
	name   string
}

// Register adds the vertex provider to the extractor registry. Vertex
// authenticates with application default credentials, so no API key is needed.
func Register() {
	extractor.RegisterProvider(providerName, func(cfg *config.ProviderConfig) (port.GenerativeBackend, error) {
		return NewBackend(context.Background(), cfg)
	})
}

// NewBackend creates a Vertex backend. Close releases the client.
func NewBackend(ctx context.Context, cfg *config.ProviderConfig) (*Backend, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("%w: vertex project id is required", domain.ErrAIConfigMissing)
	}
	location := cfg.Location
	if location == "" {
		location = "us-central1"
	}

	client, err := genai.NewClient(ctx, cfg.ProjectID, location)
	if err != nil {
		return nil, fmt.Errorf("genai.NewClient: %w", err)
	}

	name := cfg.Model
	if name == "" {
		name = defaultModel
	}
	model := client.GenerativeModel(name)
	model.GenerationConfig = genai.GenerationConfig{
		Temperature: genai.Ptr[float32](0.0),
	}

	return &Backend{client: client, model: model, name: name}, nil
}

func (b *Backend) Generate(ctx context.Context, input port.GenerateInput) (*port.GenerateOutput, error) {
	model := *b.model
	if input.JSON {
		model.GenerationConfig.ResponseMIMEType = "application/json"
	}

	resp, err := model.GenerateContent(ctx, genai.Text(input.Prompt))
	if err != nil {
		return nil, fmt.Errorf("calling vertex AI: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("empty response from API: no candidates")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			text.WriteString(string(t))
		}
	}

	return &port.GenerateOutput{
		Text:      text.String(),
		ModelUsed: b.name,
		Provider:  providerName,
	}, nil
}

// Close releases the underlying client.
func (b *Backend) Close() error {
	return b.client.Close()
}
