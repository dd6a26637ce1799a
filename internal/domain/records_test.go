package domain_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleetdocs/internal/domain"
)

func TestSchemaFor_EveryCategoryHasRecord(t *testing.T) {
	for _, c := range domain.Categories() {
		schema, err := domain.SchemaFor(c)
		require.NoError(t, err, c)
		assert.Contains(t, schema.FieldNames(), schema.PrimaryField, c)

		rec, err := domain.NewRecord(c)
		require.NoError(t, err)
		assert.Equal(t, c, rec.Category())

		// The typed record must expose every date and issuer field the
		// schema declares.
		fm := schema.NewFieldMap()
		for _, name := range schema.FieldNames() {
			fm.Set(name, name+"-value")
		}
		decoded, err := domain.DecodeRecord(c, fm)
		require.NoError(t, err)

		var dates []string
		if dh, ok := decoded.(domain.DateHolder); ok {
			for _, p := range dh.DateFields() {
				dates = append(dates, *p)
			}
		}
		for _, name := range schema.FieldsOfKind(domain.FieldDate) {
			assert.Contains(t, dates, name+"-value", "%s.%s", c, name)
		}

		var issuers []string
		if ih, ok := decoded.(domain.IssuerHolder); ok {
			for _, p := range ih.IssuerFields() {
				issuers = append(issuers, *p)
			}
		}
		for _, name := range schema.FieldsOfKind(domain.FieldIssuer) {
			assert.Contains(t, issuers, name+"-value", "%s.%s", c, name)
		}
	}
}

func TestSchemaFor_Unknown(t *testing.T) {
	_, err := domain.SchemaFor("crew_passport")
	assert.True(t, errors.Is(err, domain.ErrUnknownCategory))

	_, err = domain.ParseCategory("crew_passport")
	assert.True(t, errors.Is(err, domain.ErrUnknownCategory))
}

func TestApplyRecord_WritesBackIntoFieldMap(t *testing.T) {
	schema, err := domain.SchemaFor(domain.CategoryCertificate)
	require.NoError(t, err)
	fm := schema.NewFieldMap()
	fm.Set("cert_name", "Safety Management Certificate")

	rec, err := domain.DecodeRecord(domain.CategoryCertificate, fm)
	require.NoError(t, err)
	cert := rec.(*domain.CertificateFields)
	cert.IssuedBy = "PMA"

	require.NoError(t, domain.ApplyRecord(cert, fm))
	assert.Equal(t, "PMA", fm.Get("issued_by"))
	assert.Equal(t, "Safety Management Certificate", fm.Get("cert_name"))
	assert.Equal(t, schema.FieldNames(), fm.Names())
}

func TestValidationError_MatchesInvalidInputAndCause(t *testing.T) {
	err := domain.NewValidationError(domain.CodeFileTooLarge, domain.ErrFileTooLarge, "file is %d bytes", 10)

	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
	assert.True(t, errors.Is(err, domain.ErrFileTooLarge))
	assert.Contains(t, err.Error(), "FILE_TOO_LARGE")
}

func TestNewAnalysisRecord(t *testing.T) {
	fm := domain.NewFieldMap("cert_name")
	fm.Set("cert_name", "IOPP")
	res := &domain.AnalysisResult{
		Category:         domain.CategoryCertificate,
		ShipID:           "ship-1",
		FileName:         "iopp.pdf",
		Fields:           fm,
		ProcessingMethod: domain.ProcessingSingleChunk,
		SplitInfo:        domain.SplitInfo{TotalPages: 3, TotalChunks: 1},
	}

	rec, err := domain.NewAnalysisRecord(res, domain.RecordStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, domain.UploadStatusPending, rec.UploadStatus)
	assert.JSONEq(t, `[]`, string(rec.Notes))

	back, err := rec.FieldMap()
	require.NoError(t, err)
	assert.Equal(t, "IOPP", back.Get("cert_name"))
}
