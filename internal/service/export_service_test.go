package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/leratech/maweni-results/internal/models"
	appErrors "github.com/leratech/maweni-results/pkg/errors"
	"github.com/leratech/maweni-results/pkg/export"
)

type cohortStub struct {
	cohort *Cohort
	err    error
	calls  int
}

func (c *cohortStub) Cohort(ctx context.Context, filters models.ExportFilters) (*Cohort, error) {
	c.calls++
	if c.err != nil {
		return nil, c.err
	}
	cohort := *c.cohort
	cohort.Filters = filters
	return &cohort, nil
}

func testCohort() *Cohort {
	return &Cohort{
		Term:       models.Term{TermID: "t1", TermName: "Term 1", AcademicYear: "2024"},
		ClassName:  "Form 3",
		StreamName: "East",
		MaxTotal:   1100,
		Students:   bulkCohort(),
	}
}

func newTestExportService(loader cohortLoader) *ExportService {
	return NewExportService(loader, newTestBulkExporter(), nil, zap.NewNop(), ExportConfig{})
}

var testFilters = models.ExportFilters{TermID: "t1", ClassID: "c3", StreamID: "s1"}

func TestExportServiceWorkbook(t *testing.T) {
	svc := newTestExportService(&cohortStub{cohort: testCohort()})

	doc, err := svc.Workbook(context.Background(), testFilters)
	require.NoError(t, err)
	assert.Equal(t, export.ContentTypeXLSX, doc.ContentType)
	assert.True(t, strings.HasSuffix(doc.Filename, ".xlsx"))
	assert.Equal(t, "MAWENI_Results_Form 3_East_2024.xlsx", doc.Filename)

	book, err := excelize.OpenReader(bytes.NewReader(doc.Data))
	require.NoError(t, err)
	defer book.Close()
	assert.NotEmpty(t, book.GetSheetList())
}

func TestExportServiceBroadsheetCSV(t *testing.T) {
	svc := newTestExportService(&cohortStub{cohort: testCohort()})

	doc, err := svc.BroadsheetCSV(context.Background(), testFilters)
	require.NoError(t, err)
	assert.Equal(t, export.ContentTypeCSV, doc.ContentType)
	assert.True(t, strings.HasSuffix(doc.Filename, ".csv"))
	assert.Contains(t, string(doc.Data), "Jane Doe")
}

func TestExportServiceStudentReports(t *testing.T) {
	svc := newTestExportService(&cohortStub{cohort: testCohort()})

	pdf, err := svc.StudentPDF(context.Background(), testFilters, "001")
	require.NoError(t, err)
	assert.Equal(t, "Academic_Report_001_Jane_Doe.pdf", pdf.Filename)
	assert.True(t, bytes.HasPrefix(pdf.Data, []byte("%PDF-")))

	html, err := svc.StudentHTML(context.Background(), testFilters, "001")
	require.NoError(t, err)
	assert.Equal(t, export.ContentTypeHTML, html.ContentType)
	assert.Contains(t, string(html.Data), "Jane Doe")
}

func TestExportServiceStudentErrors(t *testing.T) {
	svc := newTestExportService(&cohortStub{cohort: testCohort()})

	_, err := svc.StudentPDF(context.Background(), testFilters, "999")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))

	_, err = svc.StudentPDF(context.Background(), testFilters, "003")
	assert.True(t, errors.Is(err, appErrors.ErrGeneration))
}

func TestExportServicePropagatesCohortErrors(t *testing.T) {
	loader := &cohortStub{err: appErrors.Clone(appErrors.ErrValidation, "Please select term and class")}
	svc := newTestExportService(loader)

	_, err := svc.Workbook(context.Background(), models.ExportFilters{})
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.Equal(t, 1, loader.calls)
}
