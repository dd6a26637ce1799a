package port

import "context"

// GenerateInput is a single prompt sent to a generative AI provider.
type GenerateInput struct {
	Prompt string
	// JSON asks the provider for a JSON-only response where supported.
	JSON bool
}

// GenerateOutput is the provider's raw text reply.
type GenerateOutput struct {
	Text      string
	ModelUsed string
	Provider  string
}

// GenerativeBackend abstracts a generative AI text completion provider.
type GenerativeBackend interface {
	Generate(ctx context.Context, input GenerateInput) (*GenerateOutput, error)
}
