package pipeline_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetdocs/internal/domain"
	"fleetdocs/internal/pipeline"
)

func TestValidateDocument(t *testing.T) {
	pdf := []byte("%PDF-1.7 body")
	tests := []struct {
		name   string
		doc    domain.RawDocument
		max    int64
		bypass bool
		code   string
	}{
		{name: "valid", doc: domain.RawDocument{Bytes: pdf, FileName: "cert.PDF"}},
		{name: "empty", doc: domain.RawDocument{FileName: "cert.pdf"}, code: domain.CodeEmptyFile},
		{name: "empty with bypass", doc: domain.RawDocument{FileName: "cert.pdf"}, bypass: true, code: domain.CodeEmptyFile},
		{name: "too large", doc: domain.RawDocument{Bytes: pdf, FileName: "cert.pdf"}, max: 4, code: domain.CodeFileTooLarge},
		{name: "too large with bypass", doc: domain.RawDocument{Bytes: pdf, FileName: "cert.pdf"}, max: 4, bypass: true, code: domain.CodeFileTooLarge},
		{name: "wrong extension", doc: domain.RawDocument{Bytes: pdf, FileName: "cert.docx"}, code: domain.CodeUnsupportedFile},
		{name: "wrong magic", doc: domain.RawDocument{Bytes: []byte("PK\x03\x04"), FileName: "cert.pdf"}, code: domain.CodeUnsupportedFile},
		{name: "bypass skips type checks", doc: domain.RawDocument{Bytes: []byte("PK"), FileName: "cert.docx"}, bypass: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := pipeline.ValidateDocument(tt.doc, tt.max, tt.bypass)
			if tt.code == "" {
				assert.NoError(t, err)
				return
			}
			var vErr *domain.ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tt.code, vErr.Code)
		})
	}
}

func TestInput_Document(t *testing.T) {
	in := pipeline.Input{Bytes: []byte("x"), FileName: "a.pdf", ContentType: "application/pdf", ShipID: "IMO9321483"}
	assert.Equal(t, domain.RawDocument{Bytes: []byte("x"), FileName: "a.pdf", ContentType: "application/pdf"}, in.Document())
}
