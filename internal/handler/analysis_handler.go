package handler

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"fleetdocs/internal/domain"
	"fleetdocs/internal/export"
	"fleetdocs/internal/service"
)

// AnalysisHandler handles ship document analysis endpoints.
type AnalysisHandler struct {
	analysisService service.AnalysisService
	maxUploadBytes  int64
}

// NewAnalysisHandler creates a new AnalysisHandler. Uploads are read up to
// one byte past maxUploadBytes so the pipeline can reject oversized files.
func NewAnalysisHandler(analysisService service.AnalysisService, maxUploadBytes int64) *AnalysisHandler {
	return &AnalysisHandler{analysisService: analysisService, maxUploadBytes: maxUploadBytes}
}

// Analyze handles POST /api/v1/ships/:ship_id/documents/:category/analyze
// @Summary Analyse a ship document
// @Description Upload a PDF, analyse it chunk by chunk and extract the category's fields.
// @Description Returns 422 with the stored record when every chunk failed.
// @Tags analysis
// @Accept multipart/form-data
// @Produce json
// @Param ship_id path string true "Ship ID"
// @Param category path string true "Document category" Enums(certificate, test_report, survey_report, drawing_manual, approval_document, audit_report)
// @Param file formData file true "PDF document"
// @Param bypass_validation formData bool false "Skip extension and magic-byte checks"
// @Success 201 {object} Response{data=AnalysisResponse}
// @Failure 400 {object} ErrorResponseBody
// @Failure 404 {object} ErrorResponseBody
// @Failure 413 {object} ErrorResponseBody
// @Failure 422 {object} AllChunksFailedResponse
// @Failure 503 {object} ErrorResponseBody
// @Router /ships/{ship_id}/documents/{category}/analyze [post]
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	category, err := domain.ParseCategory(c.Param("category"))
	if err != nil {
		HandleError(c, err)
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		RespondError(c, http.StatusBadRequest, "MISSING_FILE", "file is required in multipart form")
		return
	}

	bypass := false
	if raw := c.PostForm("bypass_validation"); raw != "" {
		bypass, err = strconv.ParseBool(raw)
		if err != nil {
			RespondError(c, http.StatusBadRequest, "INVALID_INPUT", "bypass_validation must be a boolean")
			return
		}
	}

	file, err := fh.Open()
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_FILE", "could not read uploaded file")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxUploadBytes+1))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_FILE", "could not read uploaded file")
		return
	}

	out, err := h.analysisService.Analyze(c.Request.Context(), &service.AnalyzeInput{
		ShipID:           c.Param("ship_id"),
		Category:         category,
		FileName:         fh.Filename,
		ContentType:      fh.Header.Get("Content-Type"),
		FileBytes:        data,
		BypassValidation: bypass,
	})
	if err != nil {
		if errors.Is(err, domain.ErrAllChunksFailed) && out != nil {
			_, code, msg := MapDomainError(err)
			c.JSON(http.StatusUnprocessableEntity, APIResponse{
				Success: false,
				Data:    AnalysisResponse{Record: out.Record, Result: out.Result},
				Error:   &APIError{Code: code, Message: msg},
			})
			return
		}
		HandleError(c, err)
		return
	}

	RespondCreated(c, AnalysisResponse{Record: out.Record, Result: out.Result})
}

// ListRecords handles GET /api/v1/ships/:ship_id/records
// @Summary List analysis records for a ship
// @Tags analysis
// @Produce json
// @Param ship_id path string true "Ship ID"
// @Param offset query int false "Offset" default(0)
// @Param limit query int false "Limit" default(20)
// @Success 200 {object} Response{data=[]domain.AnalysisRecord,meta=PagMeta}
// @Failure 400 {object} ErrorResponseBody
// @Router /ships/{ship_id}/records [get]
func (h *AnalysisHandler) ListRecords(c *gin.Context) {
	offset, limit := parsePagination(c)

	records, total, err := h.analysisService.ListRecords(c.Request.Context(), c.Param("ship_id"), offset, limit)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondPaginated(c, records, PagMeta{Total: total, Offset: offset, Limit: limit})
}

// GetRecord handles GET /api/v1/records/:id
// @Summary Get an analysis record
// @Tags analysis
// @Produce json
// @Param id path string true "Record ID"
// @Success 200 {object} Response{data=domain.AnalysisRecord}
// @Failure 400 {object} ErrorResponseBody
// @Failure 404 {object} ErrorResponseBody
// @Router /records/{id} [get]
func (h *AnalysisHandler) GetRecord(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid record ID")
		return
	}

	rec, err := h.analysisService.GetRecord(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, rec)
}

// GetFileURL handles GET /api/v1/records/:id/file-url
// @Summary Get a download URL for the original document
// @Tags analysis
// @Produce json
// @Param id path string true "Record ID"
// @Success 200 {object} Response{data=FileURLResponse}
// @Failure 400 {object} ErrorResponseBody
// @Failure 404 {object} ErrorResponseBody
// @Failure 501 {object} ErrorResponseBody
// @Router /records/{id}/file-url [get]
func (h *AnalysisHandler) GetFileURL(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondError(c, http.StatusBadRequest, "INVALID_ID", "invalid record ID")
		return
	}

	url, err := h.analysisService.GetFileURL(c.Request.Context(), id)
	if err != nil {
		HandleError(c, err)
		return
	}

	RespondOK(c, FileURLResponse{DownloadURL: url})
}

// Export handles GET /api/v1/ships/:ship_id/records/export
// @Summary Export a ship's document register
// @Description Builds a spreadsheet with one section per document category.
// @Tags analysis
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Produce text/csv
// @Param ship_id path string true "Ship ID"
// @Param format query string false "Export format" Enums(xlsx, csv) default(xlsx)
// @Success 200 {file} binary
// @Failure 400 {object} ErrorResponseBody
// @Failure 404 {object} ErrorResponseBody
// @Router /ships/{ship_id}/records/export [get]
func (h *AnalysisHandler) Export(c *gin.Context) {
	format, err := export.ParseFormat(c.Query("format"))
	if err != nil {
		HandleError(c, err)
		return
	}

	shipID := c.Param("ship_id")
	var buf bytes.Buffer
	if err := h.analysisService.ExportRecords(c.Request.Context(), shipID, format, &buf); err != nil {
		HandleError(c, err)
		return
	}

	filename := export.BuildFilename(shipID, format, time.Now())
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, format.ContentType(), buf.Bytes())
}

// Categories handles GET /api/v1/categories
// @Summary List document categories and their fields
// @Tags analysis
// @Produce json
// @Success 200 {object} Response{data=[]CategoryResponse}
// @Router /categories [get]
func (h *AnalysisHandler) Categories(c *gin.Context) {
	cats := domain.Categories()
	resp := make([]CategoryResponse, 0, len(cats))
	for _, cat := range cats {
		schema, err := domain.SchemaFor(cat)
		if err != nil {
			HandleError(c, err)
			return
		}
		resp = append(resp, CategoryResponse{
			Category:     schema.Category,
			Label:        schema.Label,
			PrimaryField: schema.PrimaryField,
			Fields:       schema.Fields,
		})
	}
	RespondOK(c, resp)
}
