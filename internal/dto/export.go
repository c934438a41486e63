package dto

import (
	"time"

	"github.com/leratech/maweni-results/internal/models"
)

// BulkExportRequest captures the POST /reports/bulk payload.
type BulkExportRequest struct {
	TermID    string                `json:"termId" validate:"required"`
	ClassID   string                `json:"classId" validate:"required"`
	StreamID  string                `json:"streamId,omitempty"`
	SubjectID string                `json:"subjectId,omitempty"`
	Format    models.DocumentFormat `json:"format" validate:"omitempty,oneof=pdf html"`
}

// Filters returns the cohort selection of the request.
func (r BulkExportRequest) Filters() models.ExportFilters {
	return models.ExportFilters{TermID: r.TermID, ClassID: r.ClassID, StreamID: r.StreamID, SubjectID: r.SubjectID}
}

// ExportJobResponse is returned after a bulk export is queued.
type ExportJobResponse struct {
	ID     string              `json:"id"`
	Kind   models.ExportKind   `json:"kind"`
	Status models.ExportStatus `json:"status"`
}

// ExportJobStatusResponse exposes job progress.
type ExportJobStatusResponse struct {
	ID           string              `json:"id"`
	Kind         models.ExportKind   `json:"kind"`
	Status       models.ExportStatus `json:"status"`
	Current      int                 `json:"current"`
	Total        int                 `json:"total"`
	Progress     int                 `json:"progress"`
	SuccessCount int                 `json:"successCount"`
	ErrorCount   int                 `json:"errorCount"`
	ResultURL    *string             `json:"resultUrl,omitempty"`
	Error        *string             `json:"error,omitempty"`
	CreatedAt    time.Time           `json:"createdAt"`
	FinishedAt   *time.Time          `json:"finishedAt,omitempty"`
}
