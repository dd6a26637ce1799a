package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidDocument   = errors.New("document could not be parsed as a PDF")
	ErrUnsupportedFile   = errors.New("unsupported file type")
	ErrFileTooLarge      = errors.New("file exceeds maximum allowed size")
	ErrEmptyFile         = errors.New("file is empty")
	ErrUnknownCategory   = errors.New("unknown document category")
	ErrAllChunksFailed   = errors.New("all chunks failed analysis")
	ErrAIConfigMissing   = errors.New("AI backend is not configured")
	ErrUploadQueueFull   = errors.New("upload queue is full")
	ErrUploadQueueClosed = errors.New("upload queue is closed")
	ErrUploadFailed      = errors.New("file upload to storage failed")
	ErrExtractionFailed  = errors.New("field extraction failed")
	ErrStorageNotEnabled = errors.New("object storage is not configured")
	ErrExportEmpty       = errors.New("no records to export")
)

// Validation error codes returned to callers.
const (
	CodeEmptyFile       = "EMPTY_FILE"
	CodeFileTooLarge    = "FILE_TOO_LARGE"
	CodeUnsupportedFile = "UNSUPPORTED_FILE_TYPE"
	CodeInvalidDocument = "INVALID_DOCUMENT"
)

// ValidationError is returned when an uploaded document is rejected before
// any analysis work starts. It matches ErrInvalidInput and its Cause.
type ValidationError struct {
	Code    string
	Message string
	Cause   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// NewValidationError builds a ValidationError for the given cause.
func NewValidationError(code string, cause error, format string, args ...any) *ValidationError {
	return &ValidationError{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// AllChunksFailedError signals that no chunk produced a usable summary. The
// partial result carries split info and per-chunk errors so the caller can
// offer manual entry.
type AllChunksFailedError struct {
	Result *AnalysisResult
}

func (e *AllChunksFailedError) Error() string {
	if e.Result == nil {
		return ErrAllChunksFailed.Error()
	}
	return fmt.Sprintf("%s: %d of %d chunks failed for %s",
		ErrAllChunksFailed, e.Result.SplitInfo.FailedChunks, e.Result.SplitInfo.ProcessedChunks, e.Result.FileName)
}

func (e *AllChunksFailedError) Unwrap() error {
	return ErrAllChunksFailed
}
