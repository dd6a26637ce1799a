// Package analyzer runs OCR / Document AI over PDF chunks.
package analyzer

import (
	"context"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"fleetdocs/internal/domain"
	"fleetdocs/internal/port"
)

const (
	// ErrEmptySummary is recorded when a backend returns no usable text.
	ErrEmptySummary = "empty summary"
	// ErrNoResult is recorded when a backend returns neither output nor error.
	ErrNoResult = "backend returned no result"
)

// ChunkAnalyzer turns one PageChunk into a ChunkAnalysisResult.
type ChunkAnalyzer struct {
	backend port.DocumentAnalyzer
}

// NewChunkAnalyzer creates a ChunkAnalyzer over the given backend.
func NewChunkAnalyzer(backend port.DocumentAnalyzer) *ChunkAnalyzer {
	return &ChunkAnalyzer{backend: backend}
}

// Analyze sends the chunk to the backend. Failures never propagate as
// errors; they are captured in the result with Success=false.
func (a *ChunkAnalyzer) Analyze(ctx context.Context, chunk domain.PageChunk, fileName string) domain.ChunkAnalysisResult {
	res := domain.ChunkAnalysisResult{
		Sequence: chunk.Sequence,
		Pages:    chunk.Pages,
	}

	out, err := a.backend.Analyze(ctx, port.AnalyzeInput{
		FileBytes:   chunk.Bytes,
		FileName:    ChunkFileName(fileName, chunk.Pages),
		ContentType: domain.PDFContentType,
	})
	if err != nil {
		log.Printf("analyzer.ChunkAnalyzer.Analyze: chunk %d (pages %s) of %s failed: %v",
			chunk.Sequence, chunk.Pages, fileName, err)
		res.Error = err.Error()
		return res
	}
	if out == nil {
		log.Printf("analyzer.ChunkAnalyzer.Analyze: chunk %d (pages %s) of %s: backend returned no result",
			chunk.Sequence, chunk.Pages, fileName)
		res.Error = ErrNoResult
		return res
	}

	text := strings.TrimSpace(out.Text)
	if text == "" {
		log.Printf("analyzer.ChunkAnalyzer.Analyze: chunk %d (pages %s) of %s returned no text",
			chunk.Sequence, chunk.Pages, fileName)
		res.Error = ErrEmptySummary
		return res
	}

	res.Success = true
	res.Summary = text
	res.Confidence = out.Confidence
	return res
}

// ChunkFileName names a chunk after its parent file and page range,
// e.g. "survey_pages_13-24.pdf".
func ChunkFileName(fileName string, pages domain.PageRange) string {
	base := strings.TrimSuffix(filepath.Base(fileName), filepath.Ext(fileName))
	if base == "" || base == "." {
		base = "document"
	}
	return fmt.Sprintf("%s_pages_%s.pdf", base, pages)
}
