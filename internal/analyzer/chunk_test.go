package analyzer_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"fleetdocs/internal/analyzer"
	"fleetdocs/internal/domain"
	"fleetdocs/internal/port"
	"fleetdocs/mocks"
)

func testChunk() domain.PageChunk {
	return domain.PageChunk{
		Sequence: 2,
		Pages:    domain.PageRange{Start: 13, End: 24},
		Bytes:    []byte("%PDF-1.4 chunk"),
	}
}

func TestChunkAnalyzer_Success(t *testing.T) {
	backend := new(mocks.MockDocumentAnalyzer)
	backend.On("Analyze", mock.Anything, mock.MatchedBy(func(in port.AnalyzeInput) bool {
		return in.FileName == "survey_pages_13-24.pdf" && in.ContentType == "application/pdf"
	})).Return(&port.AnalyzeOutput{Text: "  Annual survey of hull  ", Confidence: 0.93}, nil)

	res := analyzer.NewChunkAnalyzer(backend).Analyze(context.Background(), testChunk(), "survey.pdf")

	assert.True(t, res.Success)
	assert.Equal(t, "Annual survey of hull", res.Summary)
	assert.Equal(t, 0.93, res.Confidence)
	assert.Equal(t, 2, res.Sequence)
	assert.Equal(t, domain.PageRange{Start: 13, End: 24}, res.Pages)
	assert.Empty(t, res.Error)
	backend.AssertExpectations(t)
}

func TestChunkAnalyzer_BackendErrorIsCaptured(t *testing.T) {
	backend := new(mocks.MockDocumentAnalyzer)
	backend.On("Analyze", mock.Anything, mock.Anything).Return(nil, errors.New("quota exceeded"))

	res := analyzer.NewChunkAnalyzer(backend).Analyze(context.Background(), testChunk(), "survey.pdf")

	assert.False(t, res.Success)
	assert.Equal(t, "quota exceeded", res.Error)
	assert.Empty(t, res.Summary)
}

func TestChunkAnalyzer_NilOutputIsCaptured(t *testing.T) {
	backend := new(mocks.MockDocumentAnalyzer)
	backend.On("Analyze", mock.Anything, mock.Anything).Return(nil, nil)

	res := analyzer.NewChunkAnalyzer(backend).Analyze(context.Background(), testChunk(), "survey.pdf")

	assert.False(t, res.Success)
	assert.Equal(t, analyzer.ErrNoResult, res.Error)
	assert.Empty(t, res.Summary)
}

func TestChunkAnalyzer_WhitespaceSummaryFails(t *testing.T) {
	backend := new(mocks.MockDocumentAnalyzer)
	backend.On("Analyze", mock.Anything, mock.Anything).Return(&port.AnalyzeOutput{Text: " \n\t ", Confidence: 0.9}, nil)

	res := analyzer.NewChunkAnalyzer(backend).Analyze(context.Background(), testChunk(), "survey.pdf")

	assert.False(t, res.Success)
	assert.Equal(t, analyzer.ErrEmptySummary, res.Error)
}

func TestChunkFileName(t *testing.T) {
	assert.Equal(t, "cert_pages_1-12.pdf", analyzer.ChunkFileName("cert.pdf", domain.PageRange{Start: 1, End: 12}))
	assert.Equal(t, "cert_pages_5.pdf", analyzer.ChunkFileName("/tmp/cert.PDF", domain.PageRange{Start: 5, End: 5}))
	assert.Equal(t, "document_pages_1-2.pdf", analyzer.ChunkFileName("", domain.PageRange{Start: 1, End: 2}))
}
