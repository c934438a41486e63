package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/leratech/maweni-results/internal/grading"
	"github.com/leratech/maweni-results/internal/models"
	"github.com/leratech/maweni-results/pkg/export"
)

// ProgressFunc is told which student (1-based) is about to be exported.
type ProgressFunc func(current, total int)

type pdfBuilder interface {
	Build(card export.ReportCard) ([]byte, error)
}

type htmlBuilder interface {
	Build(card export.ReportCard, logoURL string) ([]byte, error)
}

type logoSource interface {
	Load(ctx context.Context, source string) []byte
}

type documentMetrics interface {
	RecordDocument(format string, ok bool, duration time.Duration)
}

// BulkExporterConfig tunes report card generation.
type BulkExporterConfig struct {
	// PacingDelay separates consecutive successful downloads. Zero disables
	// pacing; REPORTS_PACING_DELAY defaults to 300ms.
	PacingDelay     time.Duration
	PDFContinuation bool
	School          export.SchoolInfo
	LogoSource      string
	Now             func() time.Time
}

// BulkOptions describes one batch.
type BulkOptions struct {
	Format models.DocumentFormat
	// CohortSize is printed as the rank denominator; defaults to the
	// number of students in the batch.
	CohortSize int
	MaxTotal   float64
}

// BulkFailure names a student whose report could not be produced.
type BulkFailure struct {
	AdmissionNumber string `json:"admissionNumber"`
	Reason          string `json:"reason"`
}

// BulkResult tallies a batch.
type BulkResult struct {
	Total        int           `json:"total"`
	SuccessCount int           `json:"successCount"`
	ErrorCount   int           `json:"errorCount"`
	Failures     []BulkFailure `json:"failures,omitempty"`
}

// BulkExporter assembles report cards and hands them to a download sink.
type BulkExporter struct {
	pdf     pdfBuilder
	html    htmlBuilder
	logo    logoSource
	metrics documentMetrics
	logger  *zap.Logger
	cfg     BulkExporterConfig
}

// NewBulkExporter constructs a BulkExporter. logo and metrics may be nil.
func NewBulkExporter(cfg BulkExporterConfig, logo *export.LogoLoader, metrics *MetricsService, logger *zap.Logger) *BulkExporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.PacingDelay < 0 {
		cfg.PacingDelay = 0
	}
	if cfg.School.Name == "" {
		cfg.School = export.DefaultSchool
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	b := &BulkExporter{
		pdf:     export.NewReportCardPDF(cfg.PDFContinuation),
		html:    export.NewReportCardHTML(),
		logger:  logger,
		cfg:     cfg,
		metrics: metrics,
	}
	if logo != nil {
		b.logo = logo
	}
	return b
}

// LoadLogo fetches the configured school logo. It returns nil when no logo
// is configured or it cannot be loaded.
func (b *BulkExporter) LoadLogo(ctx context.Context) []byte {
	if b.logo == nil || b.cfg.LogoSource == "" {
		return nil
	}
	return b.logo.Load(ctx, b.cfg.LogoSource)
}

// ReportCard prepares a student's card, falling back to comments derived
// from the student's own performance.
func (b *BulkExporter) ReportCard(student models.StudentResult, cohortSize int, maxTotal float64, logo []byte) export.ReportCard {
	if maxTotal <= 0 {
		maxTotal = grading.DefaultMaxTotal
	}
	total := student.Total()
	overall := student.OverallGrade
	if overall == "" {
		overall = grading.TotalGradeFor(total, maxTotal)
	}

	comments := export.Comments{
		Principal:    student.PrincipalComment,
		ClassTeacher: student.ClassTeacherComment,
	}
	if comments.Principal == "" {
		comments.Principal = grading.DefaultPrincipalComment(grading.Percentage(total, maxTotal))
	}
	if comments.ClassTeacher == "" {
		comments.ClassTeacher = grading.DefaultClassTeacherComment(overall)
	}

	return export.ReportCard{
		Student:     student,
		Subjects:    grading.EnrichSubjects(student.SubjectScores),
		Comments:    comments,
		Logo:        logo,
		CohortSize:  cohortSize,
		MaxTotal:    maxTotal,
		School:      b.cfg.School,
		GeneratedAt: b.cfg.Now(),
	}
}

// Render builds one report document in the requested format.
func (b *BulkExporter) Render(card export.ReportCard, format models.DocumentFormat) (*export.Document, error) {
	start := time.Now()
	var (
		data        []byte
		err         error
		contentType string
	)
	switch format {
	case models.FormatHTML:
		data, err = b.html.Build(card, export.DataURI(card.Logo))
		contentType = export.ContentTypeHTML
	case models.FormatPDF, "":
		format = models.FormatPDF
		data, err = b.pdf.Build(card)
		contentType = export.ContentTypePDF
	default:
		err = fmt.Errorf("unsupported report format %q", format)
	}
	if b.metrics != nil {
		b.metrics.RecordDocument(string(format), err == nil, time.Since(start))
	}
	if err != nil {
		return nil, err
	}
	return &export.Document{
		Filename:    export.ReportFilename(card.Student.AdmissionNumber, card.Student.FullName, string(format)),
		ContentType: contentType,
		Data:        data,
	}, nil
}

// ExportAllIndividual writes one report per student into sink, in cohort
// order and one at a time. A student that fails is counted and skipped.
// When ctx is cancelled the tally so far is returned with ctx.Err().
func (b *BulkExporter) ExportAllIndividual(ctx context.Context, cohort []models.StudentResult, opts BulkOptions, sink export.DownloadSink, progress ProgressFunc) (BulkResult, error) {
	result := BulkResult{Total: len(cohort)}
	if len(cohort) == 0 {
		return result, nil
	}
	cohortSize := opts.CohortSize
	if cohortSize <= 0 {
		cohortSize = len(cohort)
	}
	logo := b.LoadLogo(ctx)

	for i, student := range cohort {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if progress != nil {
			progress(i+1, len(cohort))
		}

		if err := b.exportOne(ctx, student, cohortSize, opts, logo, sink); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return result, ctxErr
			}
			result.ErrorCount++
			result.Failures = append(result.Failures, BulkFailure{AdmissionNumber: student.AdmissionNumber, Reason: err.Error()})
			b.logger.Warn("report export failed",
				zap.String("admission_number", student.AdmissionNumber),
				zap.Error(err),
			)
			continue
		}
		result.SuccessCount++

		if i < len(cohort)-1 {
			if err := b.pace(ctx); err != nil {
				return result, err
			}
		}
	}
	return result, nil
}

func (b *BulkExporter) exportOne(ctx context.Context, student models.StudentResult, cohortSize int, opts BulkOptions, logo []byte, sink export.DownloadSink) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("report generation panicked: %v", r)
		}
	}()
	if err := student.Validate(); err != nil {
		return err
	}
	doc, err := b.Render(b.ReportCard(student, cohortSize, opts.MaxTotal, logo), opts.Format)
	if err != nil {
		return err
	}
	return sink.Download(ctx, doc.Filename, doc.ContentType, doc.Data)
}

func (b *BulkExporter) pace(ctx context.Context) error {
	if b.cfg.PacingDelay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(b.cfg.PacingDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
