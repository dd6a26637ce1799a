package port

import "context"

// AnalyzeInput carries one PDF (or PDF chunk) to an OCR / Document AI backend.
type AnalyzeInput struct {
	FileBytes   []byte
	FileName    string
	ContentType string
}

// AnalyzeOutput is the textual content recognised by the backend.
type AnalyzeOutput struct {
	Text       string
	Confidence float64
	Pages      int
	Backend    string
}

// DocumentAnalyzer abstracts OCR / Document AI text extraction.
type DocumentAnalyzer interface {
	Analyze(ctx context.Context, input AnalyzeInput) (*AnalyzeOutput, error)
}
