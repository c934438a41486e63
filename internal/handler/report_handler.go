package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/leratech/maweni-results/internal/models"
	"github.com/leratech/maweni-results/pkg/export"
	"github.com/leratech/maweni-results/pkg/response"
)

type documentService interface {
	Workbook(ctx context.Context, filters models.ExportFilters) (*export.Document, error)
	BroadsheetCSV(ctx context.Context, filters models.ExportFilters) (*export.Document, error)
	StudentPDF(ctx context.Context, filters models.ExportFilters, admissionNumber string) (*export.Document, error)
	StudentHTML(ctx context.Context, filters models.ExportFilters, admissionNumber string) (*export.Document, error)
}

// ReportHandler streams generated documents.
type ReportHandler struct {
	documents documentService
}

// NewReportHandler constructs handler.
func NewReportHandler(documents documentService) *ReportHandler {
	return &ReportHandler{documents: documents}
}

// Workbook godoc
// @Summary Class results workbook
// @Tags Reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param termId query string true "Term ID"
// @Param classId query string true "Class ID"
// @Param streamId query string false "Stream ID"
// @Success 200 {file} file
// @Router /reports/results.xlsx [get]
func (h *ReportHandler) Workbook(c *gin.Context) {
	h.serve(c, func(ctx context.Context, filters models.ExportFilters) (*export.Document, error) {
		return h.documents.Workbook(ctx, filters)
	})
}

// CSV godoc
// @Summary Class results as CSV
// @Tags Reports
// @Produce text/csv
// @Param termId query string true "Term ID"
// @Param classId query string true "Class ID"
// @Success 200 {file} file
// @Router /reports/results.csv [get]
func (h *ReportHandler) CSV(c *gin.Context) {
	h.serve(c, func(ctx context.Context, filters models.ExportFilters) (*export.Document, error) {
		return h.documents.BroadsheetCSV(ctx, filters)
	})
}

// StudentPDF godoc
// @Summary One student's report card as PDF
// @Tags Reports
// @Produce application/pdf
// @Param admissionNumber path string true "Admission number"
// @Param termId query string true "Term ID"
// @Param classId query string true "Class ID"
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Router /reports/students/{admissionNumber}/pdf [get]
func (h *ReportHandler) StudentPDF(c *gin.Context) {
	h.serve(c, func(ctx context.Context, filters models.ExportFilters) (*export.Document, error) {
		return h.documents.StudentPDF(ctx, filters, c.Param("admissionNumber"))
	})
}

// StudentHTML godoc
// @Summary One student's report card as printable HTML
// @Tags Reports
// @Produce text/html
// @Param admissionNumber path string true "Admission number"
// @Param termId query string true "Term ID"
// @Param classId query string true "Class ID"
// @Success 200 {file} file
// @Router /reports/students/{admissionNumber}/html [get]
func (h *ReportHandler) StudentHTML(c *gin.Context) {
	h.serve(c, func(ctx context.Context, filters models.ExportFilters) (*export.Document, error) {
		return h.documents.StudentHTML(ctx, filters, c.Param("admissionNumber"))
	})
}

func (h *ReportHandler) serve(c *gin.Context, build func(context.Context, models.ExportFilters) (*export.Document, error)) {
	filters, err := bindFilters(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	doc, err := build(c.Request.Context(), filters)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, doc.Filename, doc.ContentType, doc.Data)
}
