package analyzer

import (
	"context"
	"fmt"

	"fleetdocs/internal/analyzer/docai"
	"fleetdocs/internal/analyzer/pdftext"
	"fleetdocs/internal/config"
	"fleetdocs/internal/domain"
	"fleetdocs/internal/port"
)

// NewBackend builds the configured OCR backend.
func NewBackend(ctx context.Context, cfg *config.AnalyzerConfig) (port.DocumentAnalyzer, error) {
	switch cfg.Backend {
	case "docai":
		return docai.New(ctx, cfg)
	case "pdftext":
		return pdftext.New(), nil
	case "":
		return nil, fmt.Errorf("%w: no analyzer backend set", domain.ErrAIConfigMissing)
	default:
		return nil, fmt.Errorf("%w: unknown analyzer backend %q", domain.ErrAIConfigMissing, cfg.Backend)
	}
}
