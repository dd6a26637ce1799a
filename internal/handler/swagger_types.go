package handler

import (
	"fleetdocs/internal/domain"
)

// Swagger type definitions for API documentation.

// Response wraps a success response.
type Response struct {
	Success bool        `json:"success" example:"true"`
	Data    interface{} `json:"data,omitempty"`
	Meta    *PagMeta    `json:"meta,omitempty"`
}

// ErrorResponseBody wraps an error response.
type ErrorResponseBody struct {
	Success bool      `json:"success" example:"false"`
	Error   *APIError `json:"error"`
}

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status string `json:"status" example:"ok"`
	Error  string `json:"error,omitempty" example:"record store not reachable"`
}

// AnalysisResponse is returned by the analyze endpoint.
type AnalysisResponse struct {
	Record *domain.AnalysisRecord `json:"record"`
	Result *domain.AnalysisResult `json:"result"`
}

// AllChunksFailedResponse carries the stored record when no chunk could be
// analysed.
type AllChunksFailedResponse struct {
	Success bool              `json:"success" example:"false"`
	Data    *AnalysisResponse `json:"data"`
	Error   *APIError         `json:"error"`
}

// FileURLResponse holds a presigned download URL.
type FileURLResponse struct {
	DownloadURL string `json:"download_url" example:"https://fleet-docs.s3.amazonaws.com/ships/...?X-Amz-Signature=..."`
}

// CategoryResponse describes one document category and its fields.
type CategoryResponse struct {
	Category     domain.Category    `json:"category" example:"certificate"`
	Label        string             `json:"label" example:"Ship Certificate"`
	PrimaryField string             `json:"primary_field" example:"cert_name"`
	Fields       []domain.FieldSpec `json:"fields"`
}
