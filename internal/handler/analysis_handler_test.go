package handler_test

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"fleetdocs/internal/domain"
	"fleetdocs/internal/export"
	"fleetdocs/internal/handler"
	"fleetdocs/internal/service"
	"fleetdocs/mocks"
)

const testMaxUpload = 1 << 20

func init() {
	gin.SetMode(gin.TestMode)
}

func multipartBody(t *testing.T, filename string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if filename != "" {
		part, err := writer.CreateFormFile("file", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	require.NoError(t, writer.Close())
	return body, writer.FormDataContentType()
}

func analyzeContext(t *testing.T, w *httptest.ResponseRecorder, category string, body io.Reader, contentType string) *gin.Context {
	t.Helper()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodPost, "/api/v1/ships/imo-9321483/documents/"+category+"/analyze", body)
	if contentType != "" {
		c.Request.Header.Set("Content-Type", contentType)
	}
	c.Params = gin.Params{{Key: "ship_id", Value: "imo-9321483"}, {Key: "category", Value: category}}
	return c
}

func TestAnalysisHandler_Analyze_Success(t *testing.T) {
	mockSvc := new(mocks.MockAnalysisService)
	h := handler.NewAnalysisHandler(mockSvc, testMaxUpload)

	rec := &domain.AnalysisRecord{ID: uuid.New(), ShipID: "imo-9321483", Category: domain.CategoryCertificate, Status: domain.RecordStatusCompleted}
	res := &domain.AnalysisResult{Category: domain.CategoryCertificate, FileName: "iopp.pdf", ProcessingMethod: domain.ProcessingSingleChunk}

	mockSvc.On("Analyze", mock.Anything, mock.MatchedBy(func(in *service.AnalyzeInput) bool {
		return in.ShipID == "imo-9321483" &&
			in.Category == domain.CategoryCertificate &&
			in.FileName == "iopp.pdf" &&
			string(in.FileBytes) == "%PDF-1.4 test" &&
			!in.BypassValidation
	})).Return(&service.AnalyzeOutput{Record: rec, Result: res}, nil)

	body, ct := multipartBody(t, "iopp.pdf", []byte("%PDF-1.4 test"), nil)
	w := httptest.NewRecorder()
	c := analyzeContext(t, w, "certificate", body, ct)

	h.Analyze(c)

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	mockSvc.AssertExpectations(t)
}

func TestAnalysisHandler_Analyze_BypassFlag(t *testing.T) {
	mockSvc := new(mocks.MockAnalysisService)
	h := handler.NewAnalysisHandler(mockSvc, testMaxUpload)

	mockSvc.On("Analyze", mock.Anything, mock.MatchedBy(func(in *service.AnalyzeInput) bool {
		return in.BypassValidation
	})).Return(&service.AnalyzeOutput{Record: &domain.AnalysisRecord{}, Result: &domain.AnalysisResult{}}, nil)

	body, ct := multipartBody(t, "scan.bin", []byte("%PDF-1.4"), map[string]string{"bypass_validation": "true"})
	w := httptest.NewRecorder()
	c := analyzeContext(t, w, "test_report", body, ct)

	h.Analyze(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	mockSvc.AssertExpectations(t)
}

func TestAnalysisHandler_Analyze_UnknownCategory(t *testing.T) {
	mockSvc := new(mocks.MockAnalysisService)
	h := handler.NewAnalysisHandler(mockSvc, testMaxUpload)

	body, ct := multipartBody(t, "a.pdf", []byte("%PDF"), nil)
	w := httptest.NewRecorder()
	c := analyzeContext(t, w, "crew_list", body, ct)

	h.Analyze(c)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "UNKNOWN_CATEGORY")
	mockSvc.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything)
}

func TestAnalysisHandler_Analyze_NoFile(t *testing.T) {
	mockSvc := new(mocks.MockAnalysisService)
	h := handler.NewAnalysisHandler(mockSvc, testMaxUpload)

	w := httptest.NewRecorder()
	c := analyzeContext(t, w, "certificate", http.NoBody, "")

	h.Analyze(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "MISSING_FILE")
}

func TestAnalysisHandler_Analyze_InvalidBypassValue(t *testing.T) {
	mockSvc := new(mocks.MockAnalysisService)
	h := handler.NewAnalysisHandler(mockSvc, testMaxUpload)

	body, ct := multipartBody(t, "a.pdf", []byte("%PDF"), map[string]string{"bypass_validation": "maybe"})
	w := httptest.NewRecorder()
	c := analyzeContext(t, w, "certificate", body, ct)

	h.Analyze(c)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	mockSvc.AssertNotCalled(t, "Analyze", mock.Anything, mock.Anything)
}

func TestAnalysisHandler_Analyze_ValidationErrors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{
			name:       "unsupported type",
			err:        domain.NewValidationError(domain.CodeUnsupportedFile, domain.ErrUnsupportedFile, "file is not a PDF"),
			wantStatus: http.StatusBadRequest,
			wantCode:   domain.CodeUnsupportedFile,
		},
		{
			name:       "too large",
			err:        domain.NewValidationError(domain.CodeFileTooLarge, domain.ErrFileTooLarge, "file exceeds %d MB", 50),
			wantStatus: http.StatusRequestEntityTooLarge,
			wantCode:   domain.CodeFileTooLarge,
		},
		{
			name:       "ai not configured",
			err:        domain.ErrAIConfigMissing,
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   "AI_NOT_CONFIGURED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := new(mocks.MockAnalysisService)
			h := handler.NewAnalysisHandler(mockSvc, testMaxUpload)
			mockSvc.On("Analyze", mock.Anything, mock.Anything).Return(nil, tt.err)

			body, ct := multipartBody(t, "a.pdf", []byte("%PDF"), nil)
			w := httptest.NewRecorder()
			c := analyzeContext(t, w, "certificate", body, ct)

			h.Analyze(c)

			assert.Equal(t, tt.wantStatus, w.Code)
			var resp handler.APIResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.False(t, resp.Success)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.wantCode, resp.Error.Code)
		})
	}
}

func TestAnalysisHandler_Analyze_AllChunksFailed(t *testing.T) {
	mockSvc := new(mocks.MockAnalysisService)
	h := handler.NewAnalysisHandler(mockSvc, testMaxUpload)

	res := &domain.AnalysisResult{FileName: "big.pdf", ProcessingMethod: domain.ProcessingAllChunksFailed}
	out := &service.AnalyzeOutput{
		Record: &domain.AnalysisRecord{ID: uuid.New(), Status: domain.RecordStatusManualEntryRequired},
		Result: res,
	}
	mockSvc.On("Analyze", mock.Anything, mock.Anything).
		Return(out, &domain.AllChunksFailedError{Result: res})

	body, ct := multipartBody(t, "big.pdf", []byte("%PDF"), nil)
	w := httptest.NewRecorder()
	c := analyzeContext(t, w, "survey_report", body, ct)

	h.Analyze(c)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp struct {
		Success bool                     `json:"success"`
		Data    handler.AnalysisResponse `json:"data"`
		Error   handler.APIError         `json:"error"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "ALL_CHUNKS_FAILED", resp.Error.Code)
	require.NotNil(t, resp.Data.Record)
	assert.Equal(t, domain.RecordStatusManualEntryRequired, resp.Data.Record.Status)
}

func TestAnalysisHandler_ListRecords_Success(t *testing.T) {
	mockSvc := new(mocks.MockAnalysisService)
	h := handler.NewAnalysisHandler(mockSvc, testMaxUpload)

	records := []domain.AnalysisRecord{{ID: uuid.New(), ShipID: "imo-9321483"}}
	mockSvc.On("ListRecords", mock.Anything, "imo-9321483", 0, 20).Return(records, 1, nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/ships/imo-9321483/records?offset=0&limit=500", http.NoBody)
	c.Params = gin.Params{{Key: "ship_id", Value: "imo-9321483"}}

	h.ListRecords(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp handler.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Meta)
	assert.Equal(t, 1, resp.Meta.Total)
	assert.Equal(t, 20, resp.Meta.Limit)
	mockSvc.AssertExpectations(t)
}

func TestAnalysisHandler_GetRecord(t *testing.T) {
	id := uuid.New()

	t.Run("found", func(t *testing.T) {
		mockSvc := new(mocks.MockAnalysisService)
		h := handler.NewAnalysisHandler(mockSvc, testMaxUpload)
		mockSvc.On("GetRecord", mock.Anything, id).Return(&domain.AnalysisRecord{ID: id}, nil)

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/records/"+id.String(), http.NoBody)
		c.Params = gin.Params{{Key: "id", Value: id.String()}}

		h.GetRecord(c)

		assert.Equal(t, http.StatusOK, w.Code)
		mockSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		mockSvc := new(mocks.MockAnalysisService)
		h := handler.NewAnalysisHandler(mockSvc, testMaxUpload)
		mockSvc.On("GetRecord", mock.Anything, id).Return(nil, domain.ErrNotFound)

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/records/"+id.String(), http.NoBody)
		c.Params = gin.Params{{Key: "id", Value: id.String()}}

		h.GetRecord(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		mockSvc := new(mocks.MockAnalysisService)
		h := handler.NewAnalysisHandler(mockSvc, testMaxUpload)

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/records/nope", http.NoBody)
		c.Params = gin.Params{{Key: "id", Value: "nope"}}

		h.GetRecord(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_ID")
	})
}

func TestAnalysisHandler_GetFileURL(t *testing.T) {
	id := uuid.New()

	t.Run("presigned", func(t *testing.T) {
		mockSvc := new(mocks.MockAnalysisService)
		h := handler.NewAnalysisHandler(mockSvc, testMaxUpload)
		mockSvc.On("GetFileURL", mock.Anything, id).Return("https://bucket.example.com/signed", nil)

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/records/"+id.String()+"/file-url", http.NoBody)
		c.Params = gin.Params{{Key: "id", Value: id.String()}}

		h.GetFileURL(c)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "https://bucket.example.com/signed")
	})

	t.Run("storage disabled", func(t *testing.T) {
		mockSvc := new(mocks.MockAnalysisService)
		h := handler.NewAnalysisHandler(mockSvc, testMaxUpload)
		mockSvc.On("GetFileURL", mock.Anything, id).Return("", domain.ErrStorageNotEnabled)

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/records/"+id.String()+"/file-url", http.NoBody)
		c.Params = gin.Params{{Key: "id", Value: id.String()}}

		h.GetFileURL(c)

		assert.Equal(t, http.StatusNotImplemented, w.Code)
		assert.Contains(t, w.Body.String(), "STORAGE_NOT_ENABLED")
	})
}

func TestAnalysisHandler_Export_CSV(t *testing.T) {
	mockSvc := new(mocks.MockAnalysisService)
	h := handler.NewAnalysisHandler(mockSvc, testMaxUpload)

	mockSvc.On("ExportRecords", mock.Anything, "imo-9321483", export.FormatCSV, mock.Anything).
		Run(func(args mock.Arguments) {
			w := args.Get(3).(io.Writer)
			_, _ = w.Write([]byte("Ship Certificate\n"))
		}).
		Return(nil)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/ships/imo-9321483/records/export?format=csv", http.NoBody)
	c.Params = gin.Params{{Key: "ship_id", Value: "imo-9321483"}}

	h.Export(c)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
	assert.Contains(t, w.Header().Get("Content-Disposition"), `attachment; filename="imo-9321483_documents_`)
	assert.Equal(t, "Ship Certificate\n", w.Body.String())
	mockSvc.AssertExpectations(t)
}

func TestAnalysisHandler_Export_Errors(t *testing.T) {
	t.Run("bad format", func(t *testing.T) {
		mockSvc := new(mocks.MockAnalysisService)
		h := handler.NewAnalysisHandler(mockSvc, testMaxUpload)

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/ships/s1/records/export?format=pdf", http.NoBody)
		c.Params = gin.Params{{Key: "ship_id", Value: "s1"}}

		h.Export(c)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		mockSvc.AssertNotCalled(t, "ExportRecords", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("no records", func(t *testing.T) {
		mockSvc := new(mocks.MockAnalysisService)
		h := handler.NewAnalysisHandler(mockSvc, testMaxUpload)
		mockSvc.On("ExportRecords", mock.Anything, "s1", export.FormatXLSX, mock.Anything).Return(domain.ErrExportEmpty)

		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/ships/s1/records/export", http.NoBody)
		c.Params = gin.Params{{Key: "ship_id", Value: "s1"}}

		h.Export(c)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "NO_RECORDS")
	})
}

func TestAnalysisHandler_Categories(t *testing.T) {
	h := handler.NewAnalysisHandler(new(mocks.MockAnalysisService), testMaxUpload)

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest(http.MethodGet, "/api/v1/categories", http.NoBody)

	h.Categories(c)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool                       `json:"success"`
		Data    []handler.CategoryResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data, len(domain.Categories()))
	assert.Equal(t, domain.CategoryCertificate, resp.Data[0].Category)
	assert.Equal(t, "cert_name", resp.Data[0].PrimaryField)
	assert.NotEmpty(t, resp.Data[0].Fields)
}

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{domain.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{domain.ErrInvalidInput, http.StatusBadRequest, "INVALID_INPUT"},
		{domain.ErrUnknownCategory, http.StatusNotFound, "UNKNOWN_CATEGORY"},
		{domain.ErrExportEmpty, http.StatusNotFound, "NO_RECORDS"},
		{domain.ErrStorageNotEnabled, http.StatusNotImplemented, "STORAGE_NOT_ENABLED"},
		{&domain.AllChunksFailedError{}, http.StatusUnprocessableEntity, "ALL_CHUNKS_FAILED"},
		{domain.NewValidationError(domain.CodeEmptyFile, domain.ErrEmptyFile, "file is empty"), http.StatusBadRequest, domain.CodeEmptyFile},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		status, code, _ := handler.MapDomainError(tt.err)
		assert.Equal(t, tt.status, status, tt.err.Error())
		assert.Equal(t, tt.code, code, tt.err.Error())
	}
}
