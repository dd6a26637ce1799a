package pipeline

import (
	"fmt"

	"fleetdocs/internal/domain"
	"fleetdocs/internal/port"
)

// Set holds one pipeline per document category.
type Set struct {
	pipelines map[domain.Category]*Pipeline
}

// NewSet builds a pipeline for every known category over shared backends.
func NewSet(ocr port.DocumentAnalyzer, gen port.GenerativeBackend, cfg Config) *Set {
	s := &Set{pipelines: make(map[domain.Category]*Pipeline)}
	for _, c := range domain.Categories() {
		schema, err := domain.SchemaFor(c)
		if err != nil {
			continue
		}
		s.pipelines[c] = New(schema, ocr, gen, cfg)
	}
	return s
}

// For returns the pipeline for category c.
func (s *Set) For(c domain.Category) (*Pipeline, error) {
	p, ok := s.pipelines[c]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownCategory, c)
	}
	return p, nil
}
