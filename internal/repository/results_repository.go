package repository

import (
	"context"
	"net/url"

	"go.uber.org/zap"

	"github.com/leratech/maweni-results/internal/models"
)

// SubmittedQuery selects a cohort of submitted results. AcademicYear comes
// from the selected term.
type SubmittedQuery struct {
	TermID       string
	ClassID      string
	AcademicYear string
	StreamID     string
	SubjectID    string
}

func (q SubmittedQuery) values() url.Values {
	v := url.Values{}
	v.Set("term_id", q.TermID)
	v.Set("class_id", q.ClassID)
	v.Set("academic_year", q.AcademicYear)
	if q.StreamID != "" {
		v.Set("stream_id", q.StreamID)
	}
	if q.SubjectID != "" {
		v.Set("subject_id", q.SubjectID)
	}
	return v
}

// ResultsRepository reads submitted results from the backend.
type ResultsRepository struct {
	client *BackendClient
}

// NewResultsRepository constructs the repository.
func NewResultsRepository(client *BackendClient) *ResultsRepository {
	return &ResultsRepository{client: client}
}

// Submitted returns the cohort matching q.
func (r *ResultsRepository) Submitted(ctx context.Context, q SubmittedQuery) ([]models.StudentResult, error) {
	var results []models.StudentResult
	if err := r.client.GetList(ctx, "/results/submitted", q.values(), &results); err != nil {
		return nil, err
	}
	if results == nil {
		results = []models.StudentResult{}
	}
	for _, student := range results {
		if fields := student.NonNumeric(); len(fields) > 0 {
			r.client.logger.Warn("non-numeric values read as absent",
				zap.String("admission_number", student.AdmissionNumber),
				zap.Strings("fields", fields),
			)
		}
	}
	return results, nil
}
