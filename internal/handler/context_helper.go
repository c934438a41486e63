package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/leratech/maweni-results/internal/middleware"
	"github.com/leratech/maweni-results/internal/models"
	appErrors "github.com/leratech/maweni-results/pkg/errors"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// bindFilters reads the cohort selection from the query string.
func bindFilters(c *gin.Context) (models.ExportFilters, error) {
	var filters models.ExportFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		return filters, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid filter parameters")
	}
	return filters, nil
}
