package domain

// Category identifies the kind of ship document being analysed.
type Category string

const (
	CategoryCertificate      Category = "certificate"
	CategoryTestReport       Category = "test_report"
	CategorySurveyReport     Category = "survey_report"
	CategoryDrawingManual    Category = "drawing_manual"
	CategoryApprovalDocument Category = "approval_document"
	CategoryAuditReport      Category = "audit_report"
)

// ProcessingMethod records which path the pipeline took for a document.
type ProcessingMethod string

const (
	ProcessingSingleChunk      ProcessingMethod = "single-chunk"
	ProcessingMergedFromChunks ProcessingMethod = "merged-from-chunks"
	ProcessingAllChunksFailed  ProcessingMethod = "all-chunks-failed"
)

// RecordStatus is the outcome stored with an analysis record.
type RecordStatus string

const (
	RecordStatusCompleted           RecordStatus = "completed"
	RecordStatusManualEntryRequired RecordStatus = "manual_entry_required"
)

// UploadStatus tracks the deferred upload of the original file.
type UploadStatus string

const (
	UploadStatusPending  UploadStatus = "pending"
	UploadStatusUploaded UploadStatus = "uploaded"
	UploadStatusFailed   UploadStatus = "failed"
	UploadStatusSkipped  UploadStatus = "skipped"
)

// PDFContentType is the only MIME type the analysis pipeline accepts.
const PDFContentType = "application/pdf"
