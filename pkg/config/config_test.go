package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
)

func newTestViper() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	setDefaults(v)
	return v
}

func TestDefaults(t *testing.T) {
	cfg := fromViper(newTestViper())

	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, 30*time.Second, cfg.Backend.Timeout)
	assert.Equal(t, 300*time.Millisecond, cfg.Reports.PacingDelay)
	assert.Equal(t, float64(1100), cfg.Reports.MaxTotal)
	assert.False(t, cfg.Reports.DeriveMaxTotal)
	assert.False(t, cfg.Reports.PDFContinuation)
	assert.Equal(t, "MAWENI", cfg.School.ShortName)
	assert.Equal(t, "ST PETERS MAWENI GIRLS SECONDARY SCHOOL", cfg.School.Name)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("BACKEND_BASE_URL", "https://results.example.test/api/")
	t.Setenv("REPORTS_PACING_DELAY", "1s")
	t.Setenv("REPORTS_MAX_TOTAL", "900")
	t.Setenv("REPORTS_PDF_CONTINUATION", "true")
	t.Setenv("ALLOWED_ORIGINS", "https://a.test, https://b.test ,")

	cfg := fromViper(newTestViper())

	assert.Equal(t, "https://results.example.test/api", cfg.Backend.BaseURL)
	assert.Equal(t, time.Second, cfg.Reports.PacingDelay)
	assert.Equal(t, float64(900), cfg.Reports.MaxTotal)
	assert.True(t, cfg.Reports.PDFContinuation)
	assert.Equal(t, []string{"https://a.test", "https://b.test"}, cfg.CORS.AllowedOrigins)
}

func TestParseDurationFallback(t *testing.T) {
	assert.Equal(t, time.Minute, parseDuration("", time.Minute))
	assert.Equal(t, time.Minute, parseDuration("soon", time.Minute))
	assert.Equal(t, 5*time.Second, parseDuration("5s", time.Minute))
}
