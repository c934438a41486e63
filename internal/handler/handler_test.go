package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leratech/maweni-results/internal/dto"
	"github.com/leratech/maweni-results/internal/middleware"
	"github.com/leratech/maweni-results/internal/models"
	"github.com/leratech/maweni-results/internal/service"
	appErrors "github.com/leratech/maweni-results/pkg/errors"
	"github.com/leratech/maweni-results/pkg/export"
)

type resultsServiceMock struct {
	options   *models.FilterOptions
	hit       bool
	cohort    *service.Cohort
	analysis  *dto.AnalysisResponse
	err       error
	filters   models.ExportFilters
	refreshed bool
}

func (m *resultsServiceMock) FilterOptions(ctx context.Context) (*models.FilterOptions, bool, error) {
	return m.options, m.hit, m.err
}

func (m *resultsServiceMock) RefreshFilterOptions(ctx context.Context) error {
	m.refreshed = true
	return nil
}

func (m *resultsServiceMock) Cohort(ctx context.Context, filters models.ExportFilters) (*service.Cohort, error) {
	m.filters = filters
	return m.cohort, m.err
}

func (m *resultsServiceMock) Analysis(ctx context.Context, filters models.ExportFilters) (*dto.AnalysisResponse, error) {
	m.filters = filters
	return m.analysis, m.err
}

type documentServiceMock struct {
	doc       *export.Document
	err       error
	admission string
}

func (m *documentServiceMock) Workbook(ctx context.Context, filters models.ExportFilters) (*export.Document, error) {
	return m.doc, m.err
}

func (m *documentServiceMock) BroadsheetCSV(ctx context.Context, filters models.ExportFilters) (*export.Document, error) {
	return m.doc, m.err
}

func (m *documentServiceMock) StudentPDF(ctx context.Context, filters models.ExportFilters, admissionNumber string) (*export.Document, error) {
	m.admission = admissionNumber
	return m.doc, m.err
}

func (m *documentServiceMock) StudentHTML(ctx context.Context, filters models.ExportFilters, admissionNumber string) (*export.Document, error) {
	m.admission = admissionNumber
	return m.doc, m.err
}

type exportJobServiceMock struct {
	createResp  *dto.ExportJobResponse
	createErr   error
	statusResp  *dto.ExportJobStatusResponse
	statusErr   error
	download    *service.ExportDownload
	downloadErr error
	actor       string
	request     dto.BulkExportRequest
}

func (m *exportJobServiceMock) CreateJob(ctx context.Context, req dto.BulkExportRequest, actorID string) (*dto.ExportJobResponse, error) {
	m.actor = actorID
	m.request = req
	return m.createResp, m.createErr
}

func (m *exportJobServiceMock) GetStatus(ctx context.Context, id string) (*dto.ExportJobStatusResponse, error) {
	return m.statusResp, m.statusErr
}

func (m *exportJobServiceMock) Cancel(ctx context.Context, id, actorID string, role models.UserRole) (*dto.ExportJobStatusResponse, error) {
	m.actor = actorID
	return m.statusResp, m.statusErr
}

func (m *exportJobServiceMock) ResolveDownload(ctx context.Context, token string) (*service.ExportDownload, error) {
	return m.download, m.downloadErr
}

func newGinContext(method, path string, body []byte) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	return c, w
}

func TestResultsHandlerFilterOptionsReportsCacheHit(t *testing.T) {
	h := NewResultsHandler(&resultsServiceMock{options: &models.FilterOptions{}, hit: true})
	c, w := newGinContext(http.MethodGet, "/results/filter-options", nil)

	h.FilterOptions(c)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Meta map[string]interface{} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, true, body.Meta["cache_hit"])
}

func TestResultsHandlerFilterOptionsRefresh(t *testing.T) {
	mock := &resultsServiceMock{options: &models.FilterOptions{}}
	h := NewResultsHandler(mock)
	c, w := newGinContext(http.MethodGet, "/results/filter-options?refresh=true", nil)

	h.FilterOptions(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, mock.refreshed)
}

func TestResultsHandlerCohortBindsQuery(t *testing.T) {
	mock := &resultsServiceMock{cohort: &service.Cohort{ClassName: "Form 3"}}
	h := NewResultsHandler(mock)
	c, w := newGinContext(http.MethodGet, "/results?termId=t1&classId=c3&streamId=s1", nil)

	h.Cohort(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.ExportFilters{TermID: "t1", ClassID: "c3", StreamID: "s1"}, mock.filters)
}

func TestResultsHandlerMapsErrors(t *testing.T) {
	h := NewResultsHandler(&resultsServiceMock{err: appErrors.Clone(appErrors.ErrBackend, "GET /results/submitted: HTTP 500")})
	c, w := newGinContext(http.MethodGet, "/results/analysis?termId=t1&classId=c3", nil)

	h.Analysis(c)
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Contains(t, w.Body.String(), "BACKEND_UNAVAILABLE")
}

func TestReportHandlerStudentPDF(t *testing.T) {
	mock := &documentServiceMock{doc: &export.Document{Filename: "Academic_Report_001_Jane_Doe.pdf", ContentType: export.ContentTypePDF, Data: []byte("%PDF-1.3")}}
	h := NewReportHandler(mock)
	c, w := newGinContext(http.MethodGet, "/reports/students/001/pdf?termId=t1&classId=c3", nil)
	c.Params = gin.Params{{Key: "admissionNumber", Value: "001"}}

	h.StudentPDF(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "001", mock.admission)
	assert.Equal(t, export.ContentTypePDF, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "Academic_Report_001_Jane_Doe.pdf")
	assert.Equal(t, "%PDF-1.3", w.Body.String())
}

func TestReportHandlerValidationError(t *testing.T) {
	h := NewReportHandler(&documentServiceMock{err: appErrors.Clone(appErrors.ErrValidation, "Please select term and class")})
	c, w := newGinContext(http.MethodGet, "/reports/results.xlsx", nil)

	h.Workbook(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Please select term and class")
}

func TestExportJobHandlerCreateBulk(t *testing.T) {
	mock := &exportJobServiceMock{createResp: &dto.ExportJobResponse{ID: "job-1", Status: models.ExportStatusQueued}}
	h := NewExportJobHandler(mock)

	payload, _ := json.Marshal(dto.BulkExportRequest{TermID: "t1", ClassID: "c3", Format: models.FormatHTML})
	c, w := newGinContext(http.MethodPost, "/reports/bulk", payload)
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "dos-1", Role: models.RoleDOS})

	h.CreateBulk(c)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "dos-1", mock.actor)
	assert.Equal(t, models.FormatHTML, mock.request.Format)
}

func TestExportJobHandlerCreateBulkRequiresClaims(t *testing.T) {
	h := NewExportJobHandler(&exportJobServiceMock{})
	c, w := newGinContext(http.MethodPost, "/reports/bulk", []byte(`{}`))

	h.CreateBulk(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestExportJobHandlerStatusAndCancel(t *testing.T) {
	mock := &exportJobServiceMock{statusResp: &dto.ExportJobStatusResponse{ID: "job-1", Status: models.ExportStatusProcessing, Current: 2, Total: 5, Progress: 40}}
	h := NewExportJobHandler(mock)

	c, w := newGinContext(http.MethodGet, "/reports/jobs/job-1", nil)
	c.Params = gin.Params{{Key: "id", Value: "job-1"}}
	h.Status(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"progress":40`)

	mock.statusErr = appErrors.Clone(appErrors.ErrConflict, "export job already finished")
	c, w = newGinContext(http.MethodPost, "/reports/jobs/job-1/cancel", nil)
	c.Params = gin.Params{{Key: "id", Value: "job-1"}}
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "dos-1", Role: models.RoleDOS})
	h.Cancel(c)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestExportJobHandlerDownload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.zip")
	require.NoError(t, os.WriteFile(path, []byte("PK"), 0o600))
	file, err := os.Open(path)
	require.NoError(t, err)

	mock := &exportJobServiceMock{download: &service.ExportDownload{File: file, Filename: "MAWENI_Reports_Form 3_all_streams_2024.zip", ExpiresAt: time.Now().Add(time.Hour)}}
	h := NewExportJobHandler(mock)
	c, w := newGinContext(http.MethodGet, "/export/token", nil)
	c.Params = gin.Params{{Key: "token", Value: "token"}}

	h.Download(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, export.ContentTypeZIP, w.Header().Get("Content-Type"))
	assert.Equal(t, "PK", w.Body.String())
}

func TestExportJobHandlerDownloadForbidden(t *testing.T) {
	h := NewExportJobHandler(&exportJobServiceMock{downloadErr: appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")})
	c, w := newGinContext(http.MethodGet, "/export/bad", nil)
	c.Params = gin.Params{{Key: "token", Value: "bad"}}

	h.Download(c)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

type pingerStub struct{ err error }

func (p pingerStub) Ping(ctx context.Context) error { return p.err }

func TestMetricsHandlerReady(t *testing.T) {
	h := NewMetricsHandler(nil, map[string]Pinger{"redis": pingerStub{}})
	c, w := newGinContext(http.MethodGet, "/ready", nil)
	h.Ready(c)
	assert.Equal(t, http.StatusOK, w.Code)

	h = NewMetricsHandler(nil, map[string]Pinger{"redis": pingerStub{err: context.DeadlineExceeded}})
	c, w = newGinContext(http.MethodGet, "/ready", nil)
	h.Ready(c)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Contains(t, w.Body.String(), "redis")
}
