package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leratech/maweni-results/internal/models"
	appErrors "github.com/leratech/maweni-results/pkg/errors"
)

const testSecret = "shared-secret"

func signToken(t *testing.T, method jwt.SigningMethod, key interface{}, claims *models.JWTClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func dosClaims(expiresIn time.Duration) *models.JWTClaims {
	return &models.JWTClaims{
		UserID: "user-1",
		Role:   models.RoleDOS,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
}

func TestValidateToken(t *testing.T) {
	svc := NewAuthService(AuthConfig{AccessTokenSecret: testSecret})

	claims, err := svc.ValidateToken(signToken(t, jwt.SigningMethodHS256, []byte(testSecret), dosClaims(time.Hour)))
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, models.RoleDOS, claims.Role)
}

func TestValidateTokenRejects(t *testing.T) {
	svc := NewAuthService(AuthConfig{AccessTokenSecret: testSecret})

	noUser := dosClaims(time.Hour)
	noUser.UserID = ""

	cases := map[string]string{
		"expired":      signToken(t, jwt.SigningMethodHS256, []byte(testSecret), dosClaims(-time.Minute)),
		"wrong secret": signToken(t, jwt.SigningMethodHS256, []byte("other"), dosClaims(time.Hour)),
		"wrong method": signToken(t, jwt.SigningMethodHS512, []byte(testSecret), dosClaims(time.Hour)),
		"no user":      signToken(t, jwt.SigningMethodHS256, []byte(testSecret), noUser),
		"garbage":      "not-a-token",
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ValidateToken(token)
			assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
		})
	}
}

func TestValidateTokenUsesSubjectAndIssuer(t *testing.T) {
	svc := NewAuthService(AuthConfig{AccessTokenSecret: testSecret, Issuer: "maweni-backend"})

	claims := dosClaims(time.Hour)
	claims.UserID = ""
	claims.Subject = "user-9"
	claims.Issuer = "maweni-backend"
	got, err := svc.ValidateToken(signToken(t, jwt.SigningMethodHS256, []byte(testSecret), claims))
	require.NoError(t, err)
	assert.Equal(t, "user-9", got.UserID)

	claims.Issuer = "elsewhere"
	_, err = svc.ValidateToken(signToken(t, jwt.SigningMethodHS256, []byte(testSecret), claims))
	assert.Error(t, err)
}
