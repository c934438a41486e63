package service

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/leratech/maweni-results/internal/dto"
	"github.com/leratech/maweni-results/internal/grading"
	"github.com/leratech/maweni-results/internal/models"
	"github.com/leratech/maweni-results/internal/ranking"
	"github.com/leratech/maweni-results/internal/repository"
	appErrors "github.com/leratech/maweni-results/pkg/errors"
)

const filterOptionsCacheKey = "filter-options"

type referenceSource interface {
	Terms(ctx context.Context) ([]models.Term, error)
	Classes(ctx context.Context) ([]models.Class, error)
	Streams(ctx context.Context) ([]models.Stream, error)
	Subjects(ctx context.Context) ([]models.Subject, error)
}

type resultsSource interface {
	Submitted(ctx context.Context, q repository.SubmittedQuery) ([]models.StudentResult, error)
}

// ResultServiceConfig governs caching and the aggregate ceiling.
type ResultServiceConfig struct {
	FilterOptionsTTL time.Duration
	MaxTotal         float64
	DeriveMaxTotal   bool
}

// Cohort is one fetched class (or stream) of submitted results with the
// labels needed to name its exports.
type Cohort struct {
	Filters    models.ExportFilters   `json:"filters"`
	Term       models.Term            `json:"term"`
	ClassName  string                 `json:"className"`
	StreamName string                 `json:"streamName,omitempty"`
	Students   []models.StudentResult `json:"students"`
	MaxTotal   float64                `json:"maxTotal"`
}

// AcademicYear is the year of the selected term.
func (c *Cohort) AcademicYear() string {
	return c.Term.AcademicYear.String()
}

// RequireStudents rejects a cohort with no submitted results.
func (c *Cohort) RequireStudents() error {
	if len(c.Students) == 0 {
		return appErrors.Clone(appErrors.ErrValidation, "No results to export")
	}
	return nil
}

// Student finds a student by admission number.
func (c *Cohort) Student(admissionNumber string) (models.StudentResult, bool) {
	for _, s := range c.Students {
		if s.AdmissionNumber == admissionNumber {
			return s, true
		}
	}
	return models.StudentResult{}, false
}

// ResultService loads reference data and cohorts from the backend.
type ResultService struct {
	refs      referenceSource
	results   resultsSource
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ResultServiceConfig
}

// NewResultService constructs a ResultService. cache may be nil.
func NewResultService(refs referenceSource, results resultsSource, cache *CacheService, validate *validator.Validate, logger *zap.Logger, cfg ResultServiceConfig) *ResultService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.MaxTotal <= 0 {
		cfg.MaxTotal = grading.DefaultMaxTotal
	}
	return &ResultService{refs: refs, results: results, cache: cache, validator: validate, logger: logger, cfg: cfg}
}

// FilterOptions returns the active terms, classes, streams and subjects.
// The four lists are fetched concurrently; any failure fails the whole
// call. The second return value reports a cache hit.
func (s *ResultService) FilterOptions(ctx context.Context) (*models.FilterOptions, bool, error) {
	var cached models.FilterOptions
	if s.cache.Get(ctx, filterOptionsCacheKey, &cached) {
		return &cached, true, nil
	}

	var raw models.FilterOptions
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		raw.Terms, err = s.refs.Terms(gctx)
		return err
	})
	g.Go(func() (err error) {
		raw.Classes, err = s.refs.Classes(gctx)
		return err
	})
	g.Go(func() (err error) {
		raw.Streams, err = s.refs.Streams(gctx)
		return err
	})
	g.Go(func() (err error) {
		raw.Subjects, err = s.refs.Subjects(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		s.logger.Warn("failed to load filter options", zap.Error(err))
		return nil, false, err
	}

	options := raw.Active()
	s.cache.Set(ctx, filterOptionsCacheKey, options, s.cfg.FilterOptionsTTL)
	return &options, false, nil
}

// RefreshFilterOptions drops the cached reference lists so the next call
// refetches them.
func (s *ResultService) RefreshFilterOptions(ctx context.Context) error {
	return s.cache.Invalidate(ctx, filterOptionsCacheKey)
}

// ValidateFilters rejects a selection without term and class before any
// request is made.
func (s *ResultService) ValidateFilters(filters models.ExportFilters) error {
	if err := s.validator.Struct(filters); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "Please select term and class")
	}
	return nil
}

// Cohort fetches the submitted results selected by filters.
func (s *ResultService) Cohort(ctx context.Context, filters models.ExportFilters) (*Cohort, error) {
	if err := s.ValidateFilters(filters); err != nil {
		return nil, err
	}
	options, _, err := s.FilterOptions(ctx)
	if err != nil {
		return nil, err
	}
	term, ok := options.Term(filters.TermID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Selected term not found")
	}

	students, err := s.results.Submitted(ctx, repository.SubmittedQuery{
		TermID:       filters.TermID,
		ClassID:      filters.ClassID,
		AcademicYear: term.AcademicYear.String(),
		StreamID:     filters.StreamID,
		SubjectID:    filters.SubjectID,
	})
	if err != nil {
		return nil, err
	}

	cohort := &Cohort{
		Filters:    filters,
		Term:       term,
		ClassName:  options.ClassName(filters.ClassID),
		StreamName: options.StreamName(filters.StreamID),
		Students:   students,
	}
	cohort.MaxTotal = s.MaxTotal(students)
	s.logger.Debug("cohort loaded",
		zap.String("term_id", filters.TermID),
		zap.String("class_id", filters.ClassID),
		zap.String("stream_id", filters.StreamID),
		zap.Int("students", len(students)),
	)
	return cohort, nil
}

// MaxTotal is the aggregate ceiling used for percentages and total grades:
// the configured value, or 100 per subject when deriving from the cohort.
func (s *ResultService) MaxTotal(students []models.StudentResult) float64 {
	if s.cfg.DeriveMaxTotal {
		return grading.MaxTotalFor(len(grading.UniqueSubjects(students)))
	}
	return s.cfg.MaxTotal
}

// Analysis computes the graded results table, subject rankings and class
// statistics for a cohort.
func (s *ResultService) Analysis(ctx context.Context, filters models.ExportFilters) (*dto.AnalysisResponse, error) {
	cohort, err := s.Cohort(ctx, filters)
	if err != nil {
		return nil, err
	}
	return Analyse(cohort), nil
}

// Analyse derives the analysis of an already fetched cohort.
func Analyse(cohort *Cohort) *dto.AnalysisResponse {
	students := ranking.SortByClassRank(cohort.Students)
	subjects := grading.UniqueSubjects(students)

	resp := &dto.AnalysisResponse{
		TermName:     cohort.Term.TermName,
		AcademicYear: cohort.AcademicYear(),
		ClassName:    cohort.ClassName,
		StreamName:   cohort.StreamName,
		StudentCount: len(students),
		MaxTotal:     cohort.MaxTotal,
		Subjects:     subjects,
		Rows:         make([]dto.AnalysisRow, 0, len(students)),
		SubjectMeans: make([]dto.SubjectMean, 0, len(subjects)),
		Rankings:     ranking.SubjectRankings(students, subjects),
	}

	for _, student := range students {
		total := student.Total()
		row := dto.AnalysisRow{
			AdmissionNumber: student.AdmissionNumber,
			FullName:        student.FullName,
			StreamName:      student.StreamName,
			Subjects:        make([]dto.SubjectCell, 0, len(subjects)),
			Total:           total,
			Percentage:      ranking.Round2(grading.Percentage(total, cohort.MaxTotal)),
			TotalGrade:      grading.TotalGradeFor(total, cohort.MaxTotal),
			ClassRank:       rankPointer(student.ClassRank),
			StreamRank:      rankPointer(student.StreamRank),
		}
		for _, subject := range subjects {
			score, _ := student.Score(subject)
			grade := grading.GradeFor(score, subject)
			cell := dto.SubjectCell{
				Subject:      subject,
				Abbreviation: grading.Abbreviation(subject),
				Grade:        grade,
				Remarks:      grading.Remarks(grade),
				Severity:     grading.Severity(grade),
				Teacher:      grading.TeacherFor(subject),
			}
			if score.Valid {
				v := score.Value
				cell.Score = &v
			}
			row.Subjects = append(row.Subjects, cell)
		}
		resp.Rows = append(resp.Rows, row)
	}

	for _, subject := range subjects {
		mean := ranking.Round2(ranking.SubjectMean(students, subject))
		resp.SubjectMeans = append(resp.SubjectMeans, dto.SubjectMean{
			Subject:      subject,
			Abbreviation: grading.Abbreviation(subject),
			Mean:         mean,
			Grade:        grading.GradeForValue(mean, subject),
		})
	}

	resp.ClassMean = ranking.Round2(ranking.ClassMean(students))
	resp.ClassMeanGrade = grading.TotalGradeFor(resp.ClassMean, cohort.MaxTotal)
	resp.ClassAverage = ranking.Round2(ranking.ClassAverage(students))
	return resp
}

func rankPointer(rank models.Number) *int {
	v, ok := rank.Rank()
	if !ok {
		return nil
	}
	return &v
}
