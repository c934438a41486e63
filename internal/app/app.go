// Package app wires configuration into the services shared by the HTTP API
// and the command line tool.
package app

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/leratech/maweni-results/internal/repository"
	"github.com/leratech/maweni-results/internal/service"
	"github.com/leratech/maweni-results/pkg/cache"
	"github.com/leratech/maweni-results/pkg/config"
	"github.com/leratech/maweni-results/pkg/database"
	"github.com/leratech/maweni-results/pkg/export"
	"github.com/leratech/maweni-results/pkg/storage"
)

// Container holds the constructed services.
type Container struct {
	Config    *config.Config
	Logger    *zap.Logger
	Metrics   *service.MetricsService
	Validator *validator.Validate
	Redis     *redis.Client
	DB        *sqlx.DB

	Cache   *repository.CacheRepository
	Results *service.ResultService
	Bulk    *service.BulkExporter
	Exports *service.ExportService
	Signer  *storage.SignedURLSigner

	storage *storage.LocalStorage
}

// New builds the services needed to fetch results and render documents.
// Redis and Postgres are optional and only connected when enabled.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	c := &Container{
		Config:    cfg,
		Logger:    logger,
		Metrics:   service.NewMetricsService(),
		Validator: validator.New(),
	}

	backend := repository.NewBackendClient(cfg.Backend, c.Metrics, logger)

	var cacheSvc *service.CacheService
	if c.Redis = cache.Optional(*cfg, logger); c.Redis != nil {
		c.Cache = repository.NewCacheRepository(c.Redis, logger)
		cacheSvc = service.NewCacheService(c.Cache, c.Metrics, cfg.Cache.FilterOptionsTTL, logger, true)
	}

	c.Results = service.NewResultService(
		repository.NewReferenceRepository(backend),
		repository.NewResultsRepository(backend),
		cacheSvc,
		c.Validator,
		logger,
		service.ResultServiceConfig{
			FilterOptionsTTL: cfg.Cache.FilterOptionsTTL,
			MaxTotal:         cfg.Reports.MaxTotal,
			DeriveMaxTotal:   cfg.Reports.DeriveMaxTotal,
		},
	)

	c.Bulk = service.NewBulkExporter(service.BulkExporterConfig{
		PacingDelay:     cfg.Reports.PacingDelay,
		PDFContinuation: cfg.Reports.PDFContinuation,
		School: export.SchoolInfo{
			Name:       cfg.School.Name,
			Address:    cfg.School.Address,
			Email:      cfg.School.Email,
			SystemName: cfg.School.SystemName,
		},
		LogoSource: cfg.Reports.LogoSource,
	}, export.NewLogoLoader(nil, logger), c.Metrics, logger)

	c.Exports = service.NewExportService(c.Results, c.Bulk, c.Metrics, logger, service.ExportConfig{FilePrefix: cfg.School.ShortName})

	c.Signer = storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)

	if cfg.Database.Enabled {
		db, err := database.NewPostgres(cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("connect job database: %w", err)
		}
		if err := database.EnsureSchema(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		c.DB = db
	}
	return c, nil
}

// ArchiveStorage returns the bulk archive store, creating REPORTS_STORAGE_DIR
// on first use.
func (c *Container) ArchiveStorage() (*storage.LocalStorage, error) {
	if c.storage != nil {
		return c.storage, nil
	}
	store, err := storage.NewLocalStorage(c.Config.Reports.StorageDir)
	if err != nil {
		return nil, err
	}
	c.storage = store
	return store, nil
}

// JobStore returns the Postgres job repository when persistence is enabled
// and an in-memory one otherwise.
func (c *Container) JobStore() service.ExportJobStore {
	if c.DB != nil {
		return repository.NewExportJobRepository(c.DB)
	}
	return repository.NewMemoryExportJobRepository()
}

// Close releases optional connections.
func (c *Container) Close() {
	if c.Cache != nil {
		_ = c.Cache.Close()
	}
	if c.DB != nil {
		_ = c.DB.Close()
	}
}
