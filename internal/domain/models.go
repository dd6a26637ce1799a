package domain

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RawDocument is an uploaded file as received from the caller.
type RawDocument struct {
	Bytes       []byte
	FileName    string
	ContentType string
}

// PageRange is an inclusive 1-based page interval.
type PageRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Pages returns the number of pages covered.
func (r PageRange) Pages() int {
	return r.End - r.Start + 1
}

func (r PageRange) String() string {
	if r.Start == r.End {
		return fmt.Sprintf("%d", r.Start)
	}
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// PageChunk is a contiguous slice of a document materialized as its own PDF.
type PageChunk struct {
	Sequence int
	Pages    PageRange
	Bytes    []byte
}

// ChunkAnalysisResult is the outcome of analysing one chunk. A failed chunk
// carries Error and an empty Summary.
type ChunkAnalysisResult struct {
	Sequence   int       `json:"sequence"`
	Pages      PageRange `json:"pages"`
	Success    bool      `json:"success"`
	Summary    string    `json:"-"`
	Confidence float64   `json:"confidence"`
	Error      string    `json:"error,omitempty"`
}

// SplitInfo describes how a document was chunked and how the chunks fared.
type SplitInfo struct {
	WasSplit          bool        `json:"was_split"`
	TotalPages        int         `json:"total_pages"`
	TotalChunks       int         `json:"total_chunks"`
	ProcessedChunks   int         `json:"processed_chunks"`
	SkippedChunks     int         `json:"skipped_chunks"`
	SkippedPageRanges []PageRange `json:"skipped_page_ranges,omitempty"`
	SuccessfulChunks  int         `json:"successful_chunks"`
	FailedChunks      int         `json:"failed_chunks"`
	PartialSuccess    bool        `json:"partial_success"`
	WasLimited        bool        `json:"was_limited"`
	MaxChunkLimit     int         `json:"max_chunk_limit"`
}

// AnalysisResult is the final output of a pipeline run.
type AnalysisResult struct {
	Category         Category              `json:"category"`
	ShipID           string                `json:"ship_id,omitempty"`
	FileName         string                `json:"file_name"`
	ContentType      string                `json:"content_type"`
	Fields           *FieldMap             `json:"fields"`
	Summary          string                `json:"summary"`
	Confidence       float64               `json:"confidence"`
	ProcessingMethod ProcessingMethod      `json:"processing_method"`
	SplitInfo        SplitInfo             `json:"split_info"`
	FieldProvenance  map[string]string     `json:"field_provenance,omitempty"`
	UnparsedDates    []string              `json:"unparsed_dates,omitempty"`
	Notes            []string              `json:"notes,omitempty"`
	Chunks           []ChunkAnalysisResult `json:"chunks,omitempty"`

	// FilePayload is the base64 encoded original file, kept for the
	// deferred upload and never serialized.
	FilePayload string `json:"-"`
}

// AnalysisRecord is the persisted form of an analysis result.
type AnalysisRecord struct {
	ID               uuid.UUID        `db:"id" json:"id" firestore:"-"`
	ShipID           string           `db:"ship_id" json:"ship_id" firestore:"shipId"`
	Category         Category         `db:"category" json:"category" firestore:"category"`
	FileName         string           `db:"file_name" json:"file_name" firestore:"fileName"`
	ContentType      string           `db:"content_type" json:"content_type" firestore:"contentType"`
	Status           RecordStatus     `db:"status" json:"status" firestore:"status"`
	Fields           json.RawMessage  `db:"fields" json:"fields" swaggertype:"object" firestore:"fields"`
	Summary          string           `db:"summary" json:"summary" firestore:"summary"`
	Confidence       float64          `db:"confidence" json:"confidence" firestore:"confidence"`
	ProcessingMethod ProcessingMethod `db:"processing_method" json:"processing_method" firestore:"processingMethod"`
	SplitInfo        json.RawMessage  `db:"split_info" json:"split_info" swaggertype:"object" firestore:"splitInfo"`
	Notes            json.RawMessage  `db:"notes" json:"notes" swaggertype:"array,string" firestore:"notes"`
	StorageKey       string           `db:"storage_key" json:"storage_key,omitempty" firestore:"storageKey"`
	UploadStatus     UploadStatus     `db:"upload_status" json:"upload_status" firestore:"uploadStatus"`
	UploadError      string           `db:"upload_error" json:"upload_error,omitempty" firestore:"uploadError"`
	CreatedAt        time.Time        `db:"created_at" json:"created_at" firestore:"createdAt"`
	UpdatedAt        time.Time        `db:"updated_at" json:"updated_at" firestore:"updatedAt"`
}

// NewAnalysisRecord converts a pipeline result into a record ready to store.
func NewAnalysisRecord(res *AnalysisResult, status RecordStatus) (*AnalysisRecord, error) {
	fields, err := json.Marshal(res.Fields)
	if err != nil {
		return nil, fmt.Errorf("encoding fields: %w", err)
	}
	split, err := json.Marshal(res.SplitInfo)
	if err != nil {
		return nil, fmt.Errorf("encoding split info: %w", err)
	}
	notes := res.Notes
	if notes == nil {
		notes = []string{}
	}
	notesJSON, err := json.Marshal(notes)
	if err != nil {
		return nil, fmt.Errorf("encoding notes: %w", err)
	}
	return &AnalysisRecord{
		ID:               uuid.New(),
		ShipID:           res.ShipID,
		Category:         res.Category,
		FileName:         res.FileName,
		ContentType:      res.ContentType,
		Status:           status,
		Fields:           fields,
		Summary:          res.Summary,
		Confidence:       res.Confidence,
		ProcessingMethod: res.ProcessingMethod,
		SplitInfo:        split,
		Notes:            notesJSON,
		UploadStatus:     UploadStatusPending,
	}, nil
}

// FieldMap decodes the stored fields. A record without fields yields an
// empty map.
func (r *AnalysisRecord) FieldMap() (*FieldMap, error) {
	fm := NewFieldMap()
	if len(r.Fields) == 0 || string(r.Fields) == "null" {
		return fm, nil
	}
	if err := json.Unmarshal(r.Fields, fm); err != nil {
		return nil, fmt.Errorf("decoding record fields: %w", err)
	}
	return fm, nil
}
