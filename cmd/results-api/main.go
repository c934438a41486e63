package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/leratech/maweni-results/api/swagger"
	"github.com/leratech/maweni-results/internal/app"
	"github.com/leratech/maweni-results/internal/handler"
	"github.com/leratech/maweni-results/internal/middleware"
	"github.com/leratech/maweni-results/internal/models"
	"github.com/leratech/maweni-results/internal/service"
	"github.com/leratech/maweni-results/pkg/config"
	"github.com/leratech/maweni-results/pkg/jobs"
	"github.com/leratech/maweni-results/pkg/logger"
	corsmiddleware "github.com/leratech/maweni-results/pkg/middleware/cors"
	reqidmiddleware "github.com/leratech/maweni-results/pkg/middleware/requestid"
)

// @title Maweni Results API
// @version 1.0.0
// @description Results analysis, report cards and bulk exports for St Peters Maweni.
// @BasePath /api/v1
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	container, err := app.New(ctx, cfg, logr)
	if err != nil {
		logr.Fatal("failed to build services", zap.Error(err))
	}
	defer container.Close()

	archives, err := container.ArchiveStorage()
	if err != nil {
		logr.Fatal("failed to prepare export storage", zap.Error(err))
	}
	jobStore := container.JobStore()
	worker := service.NewExportWorker(jobStore, container.Results, container.Bulk, archives, container.Signer, container.Metrics, logr, service.ExportWorkerConfig{
		APIPrefix:  cfg.APIPrefix,
		FilePrefix: cfg.School.ShortName,
		MaxRetries: cfg.Reports.WorkerRetries,
	})
	queue := jobs.NewQueue("bulk-exports", worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Reports.WorkerConcurrency,
		MaxRetries: cfg.Reports.WorkerRetries,
		RetryDelay: 5 * time.Second,
		Logger:     logr,
	})
	queue.Start(ctx)
	defer queue.Stop()

	exportJobs := service.NewExportJobService(jobStore, queue, archives, container.Signer, container.Validator, logr, service.ExportJobConfig{
		APIPrefix:       cfg.APIPrefix,
		ResultTTL:       cfg.Reports.SignedURLTTL,
		CleanupInterval: cfg.Reports.CleanupInterval,
	})
	exportJobs.RecoverPendingJobs(ctx)
	exportJobs.StartCleanup(ctx)

	auth := service.NewAuthService(service.AuthConfig{AccessTokenSecret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer})

	checks := map[string]handler.Pinger{}
	if container.Cache != nil {
		checks["redis"] = container.Cache
	}
	if container.DB != nil {
		checks["postgres"] = handler.PingFunc(container.DB.PingContext)
	}
	metricsHandler := handler.NewMetricsHandler(container.Metrics, checks)
	resultsHandler := handler.NewResultsHandler(container.Results)
	reportHandler := handler.NewReportHandler(container.Exports)
	exportJobHandler := handler.NewExportJobHandler(exportJobs)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(container.Metrics))
	r.Use(middleware.WithResponseMeta())

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.GET("/export/:token", exportJobHandler.Download)

	secured := api.Group("")
	secured.Use(middleware.JWT(auth), middleware.RequireRoles(models.ReportRoles...))
	{
		secured.GET("/results/filter-options", resultsHandler.FilterOptions)
		secured.GET("/results", resultsHandler.Cohort)
		secured.GET("/results/analysis", resultsHandler.Analysis)

		secured.GET("/reports/results.xlsx", reportHandler.Workbook)
		secured.GET("/reports/results.csv", reportHandler.CSV)
		secured.GET("/reports/students/:admissionNumber/pdf", reportHandler.StudentPDF)
		secured.GET("/reports/students/:admissionNumber/html", reportHandler.StudentHTML)

		secured.POST("/reports/bulk", exportJobHandler.CreateBulk)
		secured.GET("/reports/jobs/:id", exportJobHandler.Status)
		secured.POST("/reports/jobs/:id/cancel", exportJobHandler.Cancel)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("graceful shutdown failed", "error", err)
	}
	logr.Info("server stopped")
}
