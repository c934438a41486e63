package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/leratech/maweni-results/internal/dto"
	"github.com/leratech/maweni-results/internal/models"
	"github.com/leratech/maweni-results/internal/repository"
	appErrors "github.com/leratech/maweni-results/pkg/errors"
	"github.com/leratech/maweni-results/pkg/export"
	"github.com/leratech/maweni-results/pkg/jobs"
	"github.com/leratech/maweni-results/pkg/storage"
)

// ExportJobType is the queue job type of bulk exports.
const ExportJobType = "bulk_export"

// ExportJobStore persists export jobs.
type ExportJobStore interface {
	Create(ctx context.Context, job *models.ExportJob) error
	GetByID(ctx context.Context, id string) (*models.ExportJob, error)
	Update(ctx context.Context, id string, params repository.UpdateExportJobParams) error
	ListQueued(ctx context.Context, limit int) ([]models.ExportJob, error)
	ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ExportJob, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
	Cancel(jobID string) bool
}

type archiveStorage interface {
	Create(filename string) (*storage.PendingFile, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type downloadSigner interface {
	Sign(jobID, relPath string) (string, time.Time, error)
	Verify(token string, allowExpired bool) (*storage.DownloadClaims, error)
}

type jobMetrics interface {
	JobStarted()
	JobFinished(status string)
}

type bulkRunner interface {
	ExportAllIndividual(ctx context.Context, cohort []models.StudentResult, opts BulkOptions, sink export.DownloadSink, progress ProgressFunc) (BulkResult, error)
}

var errNothingExported = errors.New("export produced no reports")

// exportPayload travels with the queued job but is never persisted. It lets
// the worker call the backend as the user who asked for the export.
type exportPayload struct {
	Token string
}

// ExportJobConfig governs download links and archive retention.
type ExportJobConfig struct {
	APIPrefix       string
	ResultTTL       time.Duration
	CleanupInterval time.Duration
}

// ExportDownload is a resolved archive ready to stream.
type ExportDownload struct {
	File      *os.File
	Filename  string
	ExpiresAt time.Time
}

// ExportJobService manages the lifecycle of asynchronous bulk exports.
type ExportJobService struct {
	repo      ExportJobStore
	queue     jobDispatcher
	storage   archiveStorage
	signer    downloadSigner
	validator *validator.Validate
	logger    *zap.Logger
	cfg       ExportJobConfig
}

// NewExportJobService constructs the service.
func NewExportJobService(repo ExportJobStore, queue jobDispatcher, storage archiveStorage, signer downloadSigner, validate *validator.Validate, logger *zap.Logger, cfg ExportJobConfig) *ExportJobService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ExportJobService{
		repo:      repo,
		queue:     queue,
		storage:   storage,
		signer:    signer,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
	}
}

// CreateJob validates the request, persists a QUEUED job and enqueues it.
func (s *ExportJobService) CreateJob(ctx context.Context, req dto.BulkExportRequest, actorID string) (*dto.ExportJobResponse, error) {
	if req.TermID == "" || req.ClassID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "Please select term and class")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "unsupported report format")
	}
	if req.Format == "" {
		req.Format = models.FormatPDF
	}

	job := &models.ExportJob{
		Kind:      req.Format.Kind(),
		Params:    models.ExportJobParams{Filters: req.Filters()},
		Status:    models.ExportStatusQueued,
		CreatedBy: actorID,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create export job")
	}

	payload := exportPayload{Token: repository.BearerToken(ctx)}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: ExportJobType, Payload: payload}); err != nil {
		failed := models.ExportStatusFailed
		msg := "failed to enqueue job"
		now := time.Now().UTC()
		_ = s.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{
			Status:       &failed,
			ErrorMessage: &msg,
			FinishedAt:   &now,
		})
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export job")
	}
	s.logger.Sugar().Infow("export job queued", "job_id", job.ID, "kind", job.Kind, "actor", actorID)
	return &dto.ExportJobResponse{ID: job.ID, Kind: job.Kind, Status: job.Status}, nil
}

// GetStatus returns the job's progress.
func (s *ExportJobService) GetStatus(ctx context.Context, id string) (*dto.ExportJobStatusResponse, error) {
	job, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := &dto.ExportJobStatusResponse{
		ID:           job.ID,
		Kind:         job.Kind,
		Status:       job.Status,
		Current:      job.Current,
		Total:        job.Total,
		Progress:     progressPercent(job),
		SuccessCount: job.SuccessCount,
		ErrorCount:   job.ErrorCount,
		ResultURL:    job.ResultURL,
		CreatedAt:    job.CreatedAt,
		FinishedAt:   job.FinishedAt,
	}
	if job.ErrorMessage != nil && *job.ErrorMessage != "" {
		resp.Error = job.ErrorMessage
	}
	return resp, nil
}

// Cancel stops a queued or running job. Only its creator or an admin may
// cancel it.
func (s *ExportJobService) Cancel(ctx context.Context, id, actorID string, role models.UserRole) (*dto.ExportJobStatusResponse, error) {
	job, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.CreatedBy != actorID && role != models.RoleAdmin {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the requester can cancel this export")
	}
	if job.Status.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("export job already %s", strings.ToLower(string(job.Status))))
	}

	cancelled := models.ExportStatusCancelled
	now := time.Now().UTC()
	msg := "cancelled by " + actorID
	if err := s.repo.Update(ctx, id, repository.UpdateExportJobParams{
		Status:       &cancelled,
		ErrorMessage: &msg,
		FinishedAt:   &now,
	}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel export job")
	}
	running := s.queue.Cancel(id)
	s.logger.Sugar().Infow("export job cancelled", "job_id", id, "actor", actorID, "was_running", running)
	return s.GetStatus(ctx, id)
}

// ResolveDownload validates a signed token and opens the archive it names.
func (s *ExportJobService) ResolveDownload(ctx context.Context, token string) (*ExportDownload, error) {
	claims, err := s.signer.Verify(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	job, err := s.load(ctx, claims.JobID)
	if err != nil {
		return nil, err
	}
	if job.ResultURL == nil || extractToken(*job.ResultURL) != token {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	if job.Status != models.ExportStatusFinished {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "export not ready")
	}
	file, err := s.storage.Open(claims.Path)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "export archive no longer available")
	}
	return &ExportDownload{File: file, Filename: path.Base(claims.Path), ExpiresAt: claims.ExpiresAt}, nil
}

// RecoverPendingJobs re-enqueues jobs left QUEUED by a previous process.
// They run with the service token since the caller's token is gone.
func (s *ExportJobService) RecoverPendingJobs(ctx context.Context) {
	pending, err := s.repo.ListQueued(ctx, 50)
	if err != nil {
		s.logger.Sugar().Warnw("failed to recover queued export jobs", "error", err)
		return
	}
	for _, job := range pending {
		if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: ExportJobType}); err != nil {
			s.logger.Sugar().Warnw("failed to requeue pending export job", "job_id", job.ID, "error", err)
		}
	}
	if len(pending) > 0 {
		s.logger.Sugar().Infow("recovered queued export jobs", "count", len(pending))
	}
}

// StartCleanup periodically deletes archives older than the result TTL.
func (s *ExportJobService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.CleanupExpired(ctx)
			}
		}
	}()
}

// CleanupExpired deletes the archives of jobs finished before the TTL and
// then sweeps any stray files of the same age.
func (s *ExportJobService) CleanupExpired(ctx context.Context) {
	const batch = 100
	cutoff := time.Now().Add(-s.cfg.ResultTTL)
	expired, err := s.repo.ListFinishedBefore(ctx, cutoff, batch)
	if err != nil {
		s.logger.Sugar().Warnw("cleanup list failed", "error", err)
		return
	}
	for _, job := range expired {
		if job.ResultURL == nil {
			continue
		}
		claims, err := s.signer.Verify(extractToken(*job.ResultURL), true)
		if err != nil {
			continue
		}
		if err := s.storage.Delete(claims.Path); err != nil {
			s.logger.Sugar().Warnw("cleanup delete failed", "job_id", job.ID, "error", err)
		}
	}
	if _, err := s.storage.CleanupOlderThan(s.cfg.ResultTTL); err != nil {
		s.logger.Sugar().Warnw("filesystem cleanup failed", "error", err)
	}
}

func (s *ExportJobService) load(ctx context.Context, id string) (*models.ExportJob, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, appErrors.ErrNotFound) {
			return nil, err
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	return job, nil
}

func progressPercent(job *models.ExportJob) int {
	if job.Status == models.ExportStatusFinished {
		return 100
	}
	if job.Total <= 0 {
		return 0
	}
	return job.Current * 100 / job.Total
}

func extractToken(url string) string {
	parts := strings.Split(url, "/")
	return parts[len(parts)-1]
}

// ExportWorkerConfig tunes the bulk export worker.
type ExportWorkerConfig struct {
	APIPrefix  string
	FilePrefix string
	MaxRetries int
}

// ExportWorker runs queued bulk exports into zip archives.
type ExportWorker struct {
	repo    ExportJobStore
	results cohortLoader
	bulk    bulkRunner
	storage archiveStorage
	signer  downloadSigner
	metrics jobMetrics
	logger  *zap.Logger
	cfg     ExportWorkerConfig
}

// NewExportWorker constructs a worker.
func NewExportWorker(repo ExportJobStore, results cohortLoader, bulk bulkRunner, storage archiveStorage, signer downloadSigner, metrics *MetricsService, logger *zap.Logger, cfg ExportWorkerConfig) *ExportWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.FilePrefix == "" {
		cfg.FilePrefix = export.DefaultFilePrefix
	}
	return &ExportWorker{
		repo:    repo,
		results: results,
		bulk:    bulk,
		storage: storage,
		signer:  signer,
		metrics: metrics,
		logger:  logger,
		cfg:     cfg,
	}
}

// Handle processes one queued export job.
func (w *ExportWorker) Handle(ctx context.Context, job jobs.Job) error {
	record, err := w.repo.GetByID(ctx, job.ID)
	if err != nil {
		return err
	}
	if record.Status.Terminal() {
		w.logger.Sugar().Infow("skipping export job", "job_id", job.ID, "status", record.Status)
		return nil
	}
	if payload, ok := job.Payload.(exportPayload); ok && payload.Token != "" {
		ctx = repository.WithBearerToken(ctx, payload.Token)
	}

	processing := models.ExportStatusProcessing
	zero := 0
	if err := w.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{Status: &processing, Current: &zero}); err != nil {
		return err
	}
	w.metrics.JobStarted()

	result, archive, err := w.run(ctx, record)
	switch {
	case err == nil:
		w.finish(ctx, job.ID, result, archive)
		return nil
	case ctx.Err() != nil:
		w.markCancelled(job.ID, result)
		return ctx.Err()
	case permanentFailure(err):
		job.Attempt = w.cfg.MaxRetries
		w.fail(ctx, job, err)
		return nil
	default:
		w.fail(ctx, job, err)
		return err
	}
}

func (w *ExportWorker) run(ctx context.Context, record *models.ExportJob) (BulkResult, string, error) {
	cohort, err := w.results.Cohort(ctx, record.Params.Filters)
	if err != nil {
		return BulkResult{}, "", err
	}
	if err := cohort.RequireStudents(); err != nil {
		return BulkResult{}, "", err
	}
	total := len(cohort.Students)
	if err := w.repo.Update(ctx, record.ID, repository.UpdateExportJobParams{Total: &total}); err != nil {
		return BulkResult{}, "", err
	}

	archive := path.Join(record.ID, export.ArchiveFilename(w.cfg.FilePrefix, cohort.ClassName, cohort.StreamName, cohort.AcademicYear()))
	file, err := w.storage.Create(archive)
	if err != nil {
		return BulkResult{}, "", err
	}
	sink := export.NewZipSink(file)

	progress := func(current, _ int) {
		if err := w.repo.Update(ctx, record.ID, repository.UpdateExportJobParams{Current: &current}); err != nil {
			w.logger.Sugar().Warnw("failed to record export progress", "job_id", record.ID, "error", err)
		}
	}
	opts := BulkOptions{Format: record.Kind.Format(), CohortSize: total, MaxTotal: cohort.MaxTotal}
	result, err := w.bulk.ExportAllIndividual(ctx, cohort.Students, opts, sink, progress)
	if err != nil {
		file.Abort()
		return result, "", err
	}
	if result.SuccessCount == 0 {
		file.Abort()
		return result, "", fmt.Errorf("%w: none of %d reports could be generated", errNothingExported, total)
	}
	if err := sink.Close(); err != nil {
		file.Abort()
		return result, "", err
	}
	return result, archive, nil
}

func (w *ExportWorker) finish(ctx context.Context, jobID string, result BulkResult, archive string) {
	token, _, err := w.signer.Sign(jobID, archive)
	if err != nil {
		w.fail(ctx, jobs.Job{ID: jobID, Attempt: w.cfg.MaxRetries}, err)
		return
	}
	prefix := strings.TrimRight(w.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}
	url := fmt.Sprintf("%s/export/%s", prefix, token)

	finished := models.ExportStatusFinished
	now := time.Now().UTC()
	summary := failureSummary(result)
	if err := w.repo.Update(ctx, jobID, repository.UpdateExportJobParams{
		Status:       &finished,
		Current:      &result.Total,
		SuccessCount: &result.SuccessCount,
		ErrorCount:   &result.ErrorCount,
		ResultURL:    &url,
		ErrorMessage: &summary,
		FinishedAt:   &now,
	}); err != nil {
		w.logger.Sugar().Warnw("failed to mark export job finished", "job_id", jobID, "error", err)
	}
	w.metrics.JobFinished(string(finished))
	w.logger.Sugar().Infow("export job finished", "job_id", jobID, "success", result.SuccessCount, "failed", result.ErrorCount)
}

func (w *ExportWorker) markCancelled(jobID string, result BulkResult) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cancelled := models.ExportStatusCancelled
	now := time.Now().UTC()
	if err := w.repo.Update(ctx, jobID, repository.UpdateExportJobParams{
		Status:       &cancelled,
		SuccessCount: &result.SuccessCount,
		ErrorCount:   &result.ErrorCount,
		FinishedAt:   &now,
	}); err != nil {
		w.logger.Sugar().Warnw("failed to mark export job cancelled", "job_id", jobID, "error", err)
	}
	w.metrics.JobFinished(string(cancelled))
}

func (w *ExportWorker) fail(ctx context.Context, job jobs.Job, cause error) {
	msg := cause.Error()
	if job.Attempt >= w.cfg.MaxRetries {
		failed := models.ExportStatusFailed
		now := time.Now().UTC()
		if err := w.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{
			Status:       &failed,
			ErrorMessage: &msg,
			FinishedAt:   &now,
		}); err != nil {
			w.logger.Sugar().Warnw("failed to mark export job failed", "job_id", job.ID, "error", err)
		}
		w.metrics.JobFinished(string(failed))
		return
	}
	queued := models.ExportStatusQueued
	zero := 0
	if err := w.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{
		Status:       &queued,
		Current:      &zero,
		ErrorMessage: &msg,
	}); err != nil {
		w.logger.Sugar().Warnw("failed to requeue export job", "job_id", job.ID, "error", err)
	}
	w.metrics.JobFinished(string(queued))
}

func permanentFailure(err error) bool {
	return errors.Is(err, errNothingExported) ||
		errors.Is(err, appErrors.ErrValidation) ||
		errors.Is(err, appErrors.ErrNotFound)
}

func failureSummary(result BulkResult) string {
	if result.ErrorCount == 0 {
		return ""
	}
	names := make([]string, 0, len(result.Failures))
	for _, f := range result.Failures {
		names = append(names, f.AdmissionNumber)
	}
	return fmt.Sprintf("%d of %d reports failed: %s", result.ErrorCount, result.Total, strings.Join(names, ", "))
}
