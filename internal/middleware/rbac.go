package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/leratech/maweni-results/internal/models"
	appErrors "github.com/leratech/maweni-results/pkg/errors"
	"github.com/leratech/maweni-results/pkg/response"
)

// RequireRoles only lets through users holding one of roles.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		value, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims, ok := value.(*models.JWTClaims)
		if !ok {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "role "+string(claims.Role)+" cannot access results exports"))
			c.Abort()
			return
		}
		c.Next()
	}
}
