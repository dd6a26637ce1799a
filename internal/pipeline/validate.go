package pipeline

import (
	"bytes"
	"path/filepath"
	"strings"

	"fleetdocs/internal/domain"
)

var pdfMagic = []byte("%PDF")

// Document returns the uploaded file carried by in.
func (in Input) Document() domain.RawDocument {
	return domain.RawDocument{Bytes: in.Bytes, FileName: in.FileName, ContentType: in.ContentType}
}

// ValidateDocument rejects a document before any backend is called. A
// maxBytes of zero disables the size check. Bypass skips the extension and
// magic checks but never the empty and size checks.
func ValidateDocument(doc domain.RawDocument, maxBytes int64, bypass bool) error {
	if len(doc.Bytes) == 0 {
		return domain.NewValidationError(domain.CodeEmptyFile, domain.ErrEmptyFile, "file %q is empty", doc.FileName)
	}
	if maxBytes > 0 && int64(len(doc.Bytes)) > maxBytes {
		return domain.NewValidationError(domain.CodeFileTooLarge, domain.ErrFileTooLarge,
			"file is %d bytes, limit is %d MB", len(doc.Bytes), maxBytes>>20)
	}
	if bypass {
		return nil
	}
	if !strings.EqualFold(filepath.Ext(doc.FileName), ".pdf") {
		return domain.NewValidationError(domain.CodeUnsupportedFile, domain.ErrUnsupportedFile,
			"only .pdf files are accepted, got %q", doc.FileName)
	}
	if !bytes.HasPrefix(doc.Bytes, pdfMagic) {
		return domain.NewValidationError(domain.CodeUnsupportedFile, domain.ErrUnsupportedFile,
			"file %q is not a PDF", doc.FileName)
	}
	return nil
}
