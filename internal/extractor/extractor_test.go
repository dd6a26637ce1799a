package extractor_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"fleetdocs/internal/domain"
	"fleetdocs/internal/extractor"
	"fleetdocs/internal/port"
	"fleetdocs/mocks"
)

func TestFieldExtractor_Extract(t *testing.T) {
	schema, _ := domain.SchemaFor(domain.CategoryTestReport)
	backend := new(mocks.MockGenerativeBackend)
	backend.On("Generate", mock.Anything, mock.MatchedBy(func(in port.GenerateInput) bool {
		return in.JSON && strings.Contains(in.Prompt, "test_report_no") && strings.Contains(in.Prompt, "LIFEBOAT LOAD TEST")
	})).Return(&port.GenerateOutput{
		Text: "```json\n{\"test_report_name\":\"Lifeboat load test\",\"issued_by\":\"Bureau Veritas\"," +
			"\"issued_date\":\"5th May 2024\",\"valid_date\":\"next drydock\"}\n```",
		ModelUsed: "gemini-2.0-flash",
		Provider:  "gemini",
	}, nil)

	ext, err := extractor.NewFieldExtractor(backend).Extract(context.Background(), "LIFEBOAT LOAD TEST ...", schema)

	require.NoError(t, err)
	assert.Equal(t, "Lifeboat load test", ext.Fields.Get("test_report_name"))
	assert.Equal(t, "BV", ext.Fields.Get("issued_by"))
	assert.Equal(t, "05/05/2024", ext.Fields.Get("issued_date"))
	assert.Equal(t, "next drydock", ext.Fields.Get("valid_date"))
	assert.Equal(t, []string{"valid_date"}, ext.UnparsedDates)
	assert.Equal(t, "gemini", ext.Provider)
	backend.AssertExpectations(t)
}

func TestFieldExtractor_BackendError(t *testing.T) {
	schema, _ := domain.SchemaFor(domain.CategoryTestReport)
	backend := new(mocks.MockGenerativeBackend)
	backend.On("Generate", mock.Anything, mock.Anything).Return(nil, errors.New("boom"))

	ext, err := extractor.NewFieldExtractor(backend).Extract(context.Background(), "text", schema)

	assert.Nil(t, ext)
	assert.True(t, errors.Is(err, domain.ErrExtractionFailed))
	assert.Contains(t, err.Error(), "boom")
}

func TestFieldExtractor_UnparseableReply(t *testing.T) {
	schema, _ := domain.SchemaFor(domain.CategoryTestReport)
	backend := new(mocks.MockGenerativeBackend)
	backend.On("Generate", mock.Anything, mock.Anything).Return(&port.GenerateOutput{Text: "Sorry, I cannot help."}, nil)

	ext, err := extractor.NewFieldExtractor(backend).Extract(context.Background(), "text", schema)

	assert.Nil(t, ext)
	assert.True(t, errors.Is(err, domain.ErrExtractionFailed))
}

func TestFieldExtractor_EmptySummarySkipsBackend(t *testing.T) {
	schema, _ := domain.SchemaFor(domain.CategoryTestReport)
	backend := new(mocks.MockGenerativeBackend)

	_, err := extractor.NewFieldExtractor(backend).Extract(context.Background(), "   ", schema)

	assert.True(t, errors.Is(err, domain.ErrExtractionFailed))
	backend.AssertNotCalled(t, "Generate", mock.Anything, mock.Anything)
}

func TestBuildFieldPrompt_ListsEveryField(t *testing.T) {
	schema, _ := domain.SchemaFor(domain.CategoryAuditReport)
	prompt := extractor.BuildFieldPrompt(schema, "AUDIT TEXT")

	for _, name := range schema.FieldNames() {
		assert.Contains(t, prompt, "- "+name+":")
	}
	assert.Contains(t, prompt, "DD/MM/YYYY")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(prompt), "AUDIT TEXT"))
}
