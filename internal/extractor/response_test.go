package extractor_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetdocs/internal/domain"
	"fleetdocs/internal/extractor"
)

func TestStripCodeFences(t *testing.T) {
	tests := map[string]string{
		"```json\n{\"a\":\"1\"}\n```":                 `{"a":"1"}`,
		"```\n{\"a\":\"1\"}\n```":                     `{"a":"1"}`,
		"Here you go:\n```JSON\n{\"a\":\"1\"}```\nBye": `{"a":"1"}`,
		"  {\"a\":\"1\"}  ":                           `{"a":"1"}`,
		"Sure! {\"a\":\"1\"} Hope this helps":         `{"a":"1"}`,
	}
	for in, want := range tests {
		assert.Equal(t, want, extractor.StripCodeFences(in), in)
	}
}

func TestParseFieldMap(t *testing.T) {
	schema, err := domain.SchemaFor(domain.CategoryDrawingManual)
	require.NoError(t, err)

	raw := "```json\n" + `{
		"document_name": "General Arrangement Plan",
		"Document_No": 1042,
		"approved_by": "N/A",
		"approved_date": null,
		"unexpected": "ignored"
	}` + "\n```"

	fm, err := extractor.ParseFieldMap(schema, raw)
	require.NoError(t, err)

	assert.Equal(t, schema.FieldNames(), fm.Names())
	assert.Equal(t, "General Arrangement Plan", fm.Get("document_name"))
	assert.Equal(t, "1042", fm.Get("document_no"))
	assert.Equal(t, "", fm.Get("approved_by"))
	assert.Equal(t, "", fm.Get("approved_date"))
	assert.Equal(t, "", fm.Get("note"))
	assert.False(t, fm.Has("unexpected"))
}

func TestParseFieldMap_UnwrapsDataEnvelope(t *testing.T) {
	schema, _ := domain.SchemaFor(domain.CategoryApprovalDocument)

	fm, err := extractor.ParseFieldMap(schema, `{"data":{"approval_document_no":"AP-7"},"confidence_scores":{}}`)
	require.NoError(t, err)
	assert.Equal(t, "AP-7", fm.Get("approval_document_no"))
}

func TestParseFieldMap_Invalid(t *testing.T) {
	schema, _ := domain.SchemaFor(domain.CategoryCertificate)

	for _, raw := range []string{"", "I could not find any fields.", "```json\n{\"cert_name\": \n```"} {
		fm, err := extractor.ParseFieldMap(schema, raw)
		assert.Error(t, err, raw)
		assert.Nil(t, fm)
	}
}
