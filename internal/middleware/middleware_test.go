package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/leratech/maweni-results/internal/models"
	"github.com/leratech/maweni-results/internal/repository"
	appErrors "github.com/leratech/maweni-results/pkg/errors"
)

type validatorStub struct {
	claims *models.JWTClaims
}

func (v validatorStub) ValidateToken(token string) (*models.JWTClaims, error) {
	if token != "good" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token")
	}
	return v.claims, nil
}

func newRouter(role models.UserRole, seen *string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(JWT(validatorStub{claims: &models.JWTClaims{UserID: "u1", Role: role}}))
	r.Use(RequireRoles(models.ReportRoles...))
	r.GET("/results", func(c *gin.Context) {
		*seen = repository.BearerToken(c.Request.Context())
		c.Status(http.StatusNoContent)
	})
	return r
}

func TestJWTForwardsBearerToken(t *testing.T) {
	var seen string
	r := newRouter(models.RoleDOS, &seen)

	req := httptest.NewRequest(http.MethodGet, "/results", nil)
	req.Header.Set("Authorization", "Bearer good")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "good", seen)
}

func TestJWTRejects(t *testing.T) {
	cases := map[string]string{
		"missing":    "",
		"not bearer": "Basic abc",
		"empty":      "Bearer ",
		"invalid":    "Bearer bad",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			var seen string
			r := newRouter(models.RoleDOS, &seen)
			req := httptest.NewRequest(http.MethodGet, "/results", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Empty(t, seen)
		})
	}
}

func TestRequireRolesForbidsTeachers(t *testing.T) {
	var seen string
	r := newRouter(models.RoleTeacher, &seen)

	req := httptest.NewRequest(http.MethodGet, "/results", nil)
	req.Header.Set("Authorization", "Bearer good")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestExtractMetaCarriesCacheHit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	var meta map[string]interface{}
	r := gin.New()
	r.Use(WithResponseMeta())
	r.GET("/options", func(c *gin.Context) {
		SetCacheHit(c, true)
		meta = ExtractMeta(c)
		c.Status(http.StatusOK)
	})
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/options", nil))

	assert.Equal(t, true, meta["cache_hit"])
	assert.Contains(t, meta, "processing_time_ms")
}
