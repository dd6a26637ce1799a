// Package pdftext implements port.DocumentAnalyzer by reading the PDF's own
// text layer. It needs no credentials and is used for local runs and for
// born-digital documents.
package pdftext

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"fleetdocs/internal/port"
)

const backendName = "pdftext"

// Analyzer extracts embedded text page by page.
type Analyzer struct{}

// New creates a text-layer analyzer.
func New() *Analyzer {
	return &Analyzer{}
}

// Analyze returns the concatenated page text. Confidence is the share of
// pages that carried any text, so scanned pages lower it.
func (a *Analyzer) Analyze(ctx context.Context, input port.AnalyzeInput) (out *port.AnalyzeOutput, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reading pdf text layer: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(input.FileBytes), int64(len(input.FileBytes)))
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}

	numPages := r.NumPage()
	var b strings.Builder
	withText := 0
	for i := 1; i <= numPages; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil || strings.TrimSpace(text) == "" {
			continue
		}
		withText++
		b.WriteString(text)
		b.WriteString("\n")
	}

	var confidence float64
	if numPages > 0 {
		confidence = float64(withText) / float64(numPages)
	}
	return &port.AnalyzeOutput{
		Text:       b.String(),
		Confidence: confidence,
		Pages:      numPages,
		Backend:    backendName,
	}, nil
}
