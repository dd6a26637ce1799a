package extractor

import (
	"context"
	"fmt"
	"log"
	"strings"

	"fleetdocs/internal/domain"
	"fleetdocs/internal/port"
)

// Extraction is a successful field extraction.
type Extraction struct {
	Fields        *domain.FieldMap
	UnparsedDates []string
	ModelUsed     string
	Provider      string
}

// FieldExtractor asks a generative backend for a category's fields and
// normalizes the reply.
type FieldExtractor struct {
	backend port.GenerativeBackend
}

// NewFieldExtractor creates a FieldExtractor over the given backend.
func NewFieldExtractor(backend port.GenerativeBackend) *FieldExtractor {
	return &FieldExtractor{backend: backend}
}

// Extract returns the schema's fields found in summary. Any backend or parse
// failure is returned as an error wrapping domain.ErrExtractionFailed and no
// fields.
func (e *FieldExtractor) Extract(ctx context.Context, summary string, schema domain.Schema) (*Extraction, error) {
	if strings.TrimSpace(summary) == "" {
		return nil, fmt.Errorf("%w: no text to extract from", domain.ErrExtractionFailed)
	}

	out, err := e.backend.Generate(ctx, port.GenerateInput{
		Prompt: BuildFieldPrompt(schema, summary),
		JSON:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrExtractionFailed, err)
	}

	fields, err := ParseFieldMap(schema, out.Text)
	if err != nil {
		log.Printf("extractor.FieldExtractor.Extract: %s reply for %s could not be parsed: %v", out.Provider, schema.Category, err)
		return nil, fmt.Errorf("%w: %w", domain.ErrExtractionFailed, err)
	}

	unparsed, err := Normalize(schema, fields)
	if err != nil {
		return nil, fmt.Errorf("%w: normalizing: %w", domain.ErrExtractionFailed, err)
	}

	return &Extraction{
		Fields:        fields,
		UnparsedDates: unparsed,
		ModelUsed:     out.ModelUsed,
		Provider:      out.Provider,
	}, nil
}
