package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/leratech/maweni-results/internal/models"
	appErrors "github.com/leratech/maweni-results/pkg/errors"
)

// MemoryExportJobRepository keeps jobs in process memory. Jobs are lost on
// restart; it backs deployments without a database.
type MemoryExportJobRepository struct {
	mu   sync.RWMutex
	jobs map[string]models.ExportJob
}

// NewMemoryExportJobRepository constructs an empty store.
func NewMemoryExportJobRepository() *MemoryExportJobRepository {
	return &MemoryExportJobRepository{jobs: make(map[string]models.ExportJob)}
}

func (r *MemoryExportJobRepository) Create(_ context.Context, job *models.ExportJob) error {
	prepareNewJob(job)
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.jobs[job.ID]; exists {
		return appErrors.Clone(appErrors.ErrConflict, "export job already exists")
	}
	r.jobs[job.ID] = *job
	return nil
}

func (r *MemoryExportJobRepository) GetByID(_ context.Context, id string) (*models.ExportJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	job, ok := r.jobs[id]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	return &job, nil
}

func (r *MemoryExportJobRepository) Update(_ context.Context, id string, params UpdateExportJobParams) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	job, ok := r.jobs[id]
	if !ok {
		return appErrors.Clone(appErrors.ErrNotFound, "export job not found")
	}
	if params.Status != nil {
		job.Status = *params.Status
	}
	if params.Current != nil {
		job.Current = *params.Current
	}
	if params.Total != nil {
		job.Total = *params.Total
	}
	if params.SuccessCount != nil {
		job.SuccessCount = *params.SuccessCount
	}
	if params.ErrorCount != nil {
		job.ErrorCount = *params.ErrorCount
	}
	if params.ResultURL != nil {
		url := *params.ResultURL
		job.ResultURL = &url
	}
	if params.ErrorMessage != nil {
		msg := *params.ErrorMessage
		job.ErrorMessage = &msg
	}
	if params.FinishedAt != nil {
		at := *params.FinishedAt
		job.FinishedAt = &at
	}
	r.jobs[id] = job
	return nil
}

func (r *MemoryExportJobRepository) ListQueued(_ context.Context, limit int) ([]models.ExportJob, error) {
	return r.list(limit, 20, func(j models.ExportJob) bool {
		return j.Status == models.ExportStatusQueued
	}, func(j models.ExportJob) time.Time { return j.CreatedAt }), nil
}

func (r *MemoryExportJobRepository) ListFinishedBefore(_ context.Context, cutoff time.Time, limit int) ([]models.ExportJob, error) {
	return r.list(limit, 50, func(j models.ExportJob) bool {
		return j.Status == models.ExportStatusFinished && j.FinishedAt != nil && j.FinishedAt.Before(cutoff)
	}, func(j models.ExportJob) time.Time { return *j.FinishedAt }), nil
}

func (r *MemoryExportJobRepository) list(limit, fallback int, keep func(models.ExportJob) bool, orderBy func(models.ExportJob) time.Time) []models.ExportJob {
	if limit <= 0 {
		limit = fallback
	}
	r.mu.RLock()
	out := make([]models.ExportJob, 0)
	for _, job := range r.jobs {
		if keep(job) {
			out = append(out, job)
		}
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return orderBy(out[i]).Before(orderBy(out[j]))
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
