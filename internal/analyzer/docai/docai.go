// Package docai implements port.DocumentAnalyzer with a Google Document AI
// OCR processor.
package docai

import (
	"context"
	"fmt"
	"os"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/googleapis/gax-go/v2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"

	"fleetdocs/internal/config"
	"fleetdocs/internal/domain"
	"fleetdocs/internal/port"
)

const (
	backendName = "docai"
	scope       = "https://www.googleapis.com/auth/cloud-platform"
)

// ProcessorClient is the subset of *documentai.DocumentProcessorClient the
// analyzer uses.
type ProcessorClient interface {
	ProcessDocument(ctx context.Context, req *documentaipb.ProcessRequest, opts ...gax.CallOption) (*documentaipb.ProcessResponse, error)
	Close() error
}

// Analyzer sends documents to a Document AI OCR processor.
type Analyzer struct {
	client    ProcessorClient
	processor string
	timeout   time.Duration
}

// New creates an Analyzer on the regional Document AI endpoint. It
// authenticates with cfg.CredentialsFile when set, or with application
// default credentials otherwise.
func New(ctx context.Context, cfg *config.AnalyzerConfig) (*Analyzer, error) {
	if cfg.ProjectID == "" || cfg.ProcessorID == "" {
		return nil, fmt.Errorf("%w: document ai project and processor are required", domain.ErrAIConfigMissing)
	}

	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("%s-documentai.googleapis.com:443", location(cfg))
	}
	opts := []option.ClientOption{option.WithEndpoint(endpoint)}

	if cfg.CredentialsFile != "" {
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("reading document ai credentials: %w", err)
		}
		creds, err := google.CredentialsFromJSON(ctx, data, scope)
		if err != nil {
			return nil, fmt.Errorf("parsing document ai credentials: %w", err)
		}
		opts = append(opts, option.WithCredentials(creds))
	}

	client, err := documentai.NewDocumentProcessorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating document ai client: %w", err)
	}
	return NewWithClient(cfg, client), nil
}

// NewWithClient creates an Analyzer over an existing processor client.
func NewWithClient(cfg *config.AnalyzerConfig, client ProcessorClient) *Analyzer {
	timeout := time.Duration(cfg.TimeoutSecs) * time.Second
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &Analyzer{
		client:    client,
		processor: ProcessorName(cfg),
		timeout:   timeout,
	}
}

// ProcessorName returns the full resource name of the configured processor.
func ProcessorName(cfg *config.AnalyzerConfig) string {
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s", cfg.ProjectID, location(cfg), cfg.ProcessorID)
}

func location(cfg *config.AnalyzerConfig) string {
	if cfg.Location == "" {
		return "us"
	}
	return cfg.Location
}

// Close releases the underlying client.
func (a *Analyzer) Close() error {
	return a.client.Close()
}

func (a *Analyzer) Analyze(ctx context.Context, input port.AnalyzeInput) (*port.AnalyzeOutput, error) {
	mimeType := input.ContentType
	if mimeType == "" {
		mimeType = domain.PDFContentType
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	resp, err := a.client.ProcessDocument(ctx, &documentaipb.ProcessRequest{
		Name: a.processor,
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:     input.FileBytes,
				MimeType:    mimeType,
				DisplayName: input.FileName,
			},
		},
		SkipHumanReview: true,
	})
	if err != nil {
		return nil, fmt.Errorf("document ai process %s: %w", input.FileName, err)
	}

	doc := resp.GetDocument()
	pages := doc.GetPages()
	var confidence float64
	for _, p := range pages {
		confidence += float64(p.GetLayout().GetConfidence())
	}
	if len(pages) > 0 {
		confidence /= float64(len(pages))
	}

	return &port.AnalyzeOutput{
		Text:       doc.GetText(),
		Confidence: confidence,
		Pages:      len(pages),
		Backend:    backendName,
	}, nil
}
