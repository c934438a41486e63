package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/leratech/maweni-results/internal/models"
	appErrors "github.com/leratech/maweni-results/pkg/errors"
	"github.com/leratech/maweni-results/pkg/export"
)

type cohortLoader interface {
	Cohort(ctx context.Context, filters models.ExportFilters) (*Cohort, error)
}

type workbookBuilder interface {
	Build(cohort []models.StudentResult, opts export.WorkbookOptions) ([]byte, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type reportRenderer interface {
	LoadLogo(ctx context.Context) []byte
	ReportCard(student models.StudentResult, cohortSize int, maxTotal float64, logo []byte) export.ReportCard
	Render(card export.ReportCard, format models.DocumentFormat) (*export.Document, error)
}

// ExportConfig tunes single-document exports.
type ExportConfig struct {
	FilePrefix string
}

// ExportService produces class broadsheets and individual report cards on
// request.
type ExportService struct {
	results  cohortLoader
	reports  reportRenderer
	workbook workbookBuilder
	csv      csvRenderer
	metrics  documentMetrics
	logger   *zap.Logger
	cfg      ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(results cohortLoader, reports reportRenderer, metrics *MetricsService, logger *zap.Logger, cfg ExportConfig) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.FilePrefix == "" {
		cfg.FilePrefix = export.DefaultFilePrefix
	}
	return &ExportService{
		results:  results,
		reports:  reports,
		workbook: export.NewWorkbookBuilder(),
		csv:      export.NewCSVExporter(),
		metrics:  metrics,
		logger:   logger,
		cfg:      cfg,
	}
}

// Workbook builds the class results workbook.
func (s *ExportService) Workbook(ctx context.Context, filters models.ExportFilters) (*export.Document, error) {
	cohort, err := s.results.Cohort(ctx, filters)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	data, err := s.workbook.Build(cohort.Students, export.WorkbookOptions{MaxTotal: cohort.MaxTotal})
	s.metrics.RecordDocument("xlsx", err == nil, time.Since(start))
	if err != nil {
		return nil, s.generationFailed(err, "workbook", filters)
	}
	return &export.Document{
		Filename:    export.BroadsheetFilename(s.cfg.FilePrefix, cohort.ClassName, cohort.StreamName, cohort.AcademicYear(), "xlsx"),
		ContentType: export.ContentTypeXLSX,
		Data:        data,
	}, nil
}

// BroadsheetCSV builds the class results as CSV.
func (s *ExportService) BroadsheetCSV(ctx context.Context, filters models.ExportFilters) (*export.Document, error) {
	cohort, err := s.results.Cohort(ctx, filters)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	data, err := s.csv.Render(export.BroadsheetDataset(cohort.Students, cohort.MaxTotal))
	s.metrics.RecordDocument("csv", err == nil, time.Since(start))
	if err != nil {
		return nil, s.generationFailed(err, "csv", filters)
	}
	return &export.Document{
		Filename:    export.BroadsheetFilename(s.cfg.FilePrefix, cohort.ClassName, cohort.StreamName, cohort.AcademicYear(), "csv"),
		ContentType: export.ContentTypeCSV,
		Data:        data,
	}, nil
}

// StudentPDF builds one student's PDF report card.
func (s *ExportService) StudentPDF(ctx context.Context, filters models.ExportFilters, admissionNumber string) (*export.Document, error) {
	return s.studentReport(ctx, filters, admissionNumber, models.FormatPDF)
}

// StudentHTML builds one student's HTML report card.
func (s *ExportService) StudentHTML(ctx context.Context, filters models.ExportFilters, admissionNumber string) (*export.Document, error) {
	return s.studentReport(ctx, filters, admissionNumber, models.FormatHTML)
}

func (s *ExportService) studentReport(ctx context.Context, filters models.ExportFilters, admissionNumber string, format models.DocumentFormat) (*export.Document, error) {
	cohort, err := s.results.Cohort(ctx, filters)
	if err != nil {
		return nil, err
	}
	student, ok := cohort.Student(admissionNumber)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("student %s has no submitted results", admissionNumber))
	}
	if err := student.Validate(); err != nil {
		return nil, s.generationFailed(err, string(format), filters)
	}

	card := s.reports.ReportCard(student, len(cohort.Students), cohort.MaxTotal, s.reports.LoadLogo(ctx))
	doc, err := s.reports.Render(card, format)
	if err != nil {
		return nil, s.generationFailed(err, string(format), filters)
	}
	return doc, nil
}

func (s *ExportService) generationFailed(err error, kind string, filters models.ExportFilters) error {
	s.logger.Error("document generation failed",
		zap.String("kind", kind),
		zap.String("term_id", filters.TermID),
		zap.String("class_id", filters.ClassID),
		zap.Error(err),
	)
	return appErrors.Wrap(err, appErrors.ErrGeneration.Code, appErrors.ErrGeneration.Status, fmt.Sprintf("failed to generate %s", kind))
}
