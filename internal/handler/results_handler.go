package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/leratech/maweni-results/internal/dto"
	"github.com/leratech/maweni-results/internal/middleware"
	"github.com/leratech/maweni-results/internal/models"
	"github.com/leratech/maweni-results/internal/service"
	"github.com/leratech/maweni-results/pkg/response"
)

type resultsService interface {
	FilterOptions(ctx context.Context) (*models.FilterOptions, bool, error)
	RefreshFilterOptions(ctx context.Context) error
	Cohort(ctx context.Context, filters models.ExportFilters) (*service.Cohort, error)
	Analysis(ctx context.Context, filters models.ExportFilters) (*dto.AnalysisResponse, error)
}

// ResultsHandler serves filter options, cohorts and their analysis.
type ResultsHandler struct {
	results resultsService
}

// NewResultsHandler constructs a ResultsHandler.
func NewResultsHandler(results resultsService) *ResultsHandler {
	return &ResultsHandler{results: results}
}

// FilterOptions godoc
// @Summary Terms, classes, streams and subjects for the filter bar
// @Tags Results
// @Produce json
// @Param refresh query bool false "Bypass the cached lists"
// @Success 200 {object} response.Envelope
// @Failure 502 {object} response.Envelope
// @Router /results/filter-options [get]
func (h *ResultsHandler) FilterOptions(c *gin.Context) {
	if c.Query("refresh") == "true" {
		if err := h.results.RefreshFilterOptions(c.Request.Context()); err != nil {
			response.Error(c, err)
			return
		}
	}
	options, hit, err := h.results.FilterOptions(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, options, middleware.ExtractMeta(c))
}

// Cohort godoc
// @Summary Submitted results of a class
// @Tags Results
// @Produce json
// @Param termId query string true "Term ID"
// @Param classId query string true "Class ID"
// @Param streamId query string false "Stream ID"
// @Param subjectId query string false "Subject ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /results [get]
func (h *ResultsHandler) Cohort(c *gin.Context) {
	filters, err := bindFilters(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	cohort, err := h.results.Cohort(c.Request.Context(), filters)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cohort, map[string]interface{}{"count": len(cohort.Students)})
}

// Analysis godoc
// @Summary Graded results table with subject rankings and class means
// @Tags Results
// @Produce json
// @Param termId query string true "Term ID"
// @Param classId query string true "Class ID"
// @Param streamId query string false "Stream ID"
// @Param subjectId query string false "Subject ID"
// @Success 200 {object} response.Envelope
// @Router /results/analysis [get]
func (h *ResultsHandler) Analysis(c *gin.Context) {
	filters, err := bindFilters(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	analysis, err := h.results.Analysis(c.Request.Context(), filters)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, analysis)
}
