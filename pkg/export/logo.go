package export

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"go.uber.org/zap"
)

const (
	logoMaxSide  = 300
	logoMaxBytes = 5 << 20
)

// LogoLoader fetches the school crest and normalises it to a small JPEG.
type LogoLoader struct {
	client *http.Client
	logger *zap.Logger
}

// NewLogoLoader builds a loader. A nil client uses a 10 second timeout.
func NewLogoLoader(client *http.Client, logger *zap.Logger) *LogoLoader {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogoLoader{client: client, logger: logger}
}

// Load reads the logo from an http(s) URL or local path. Any failure is
// logged and reported as no logo; reports render without one.
func (l *LogoLoader) Load(ctx context.Context, source string) []byte {
	if source == "" {
		return nil
	}
	raw, err := l.read(ctx, source)
	if err != nil {
		l.logger.Warn("logo unavailable", zap.String("source", source), zap.Error(err))
		return nil
	}
	img, err := imaging.Decode(bytes.NewReader(raw), imaging.AutoOrientation(true))
	if err != nil {
		l.logger.Warn("logo could not be decoded", zap.String("source", source), zap.Error(err))
		return nil
	}
	img = imaging.Fit(img, logoMaxSide, logoMaxSide, imaging.Lanczos)

	buf := &bytes.Buffer{}
	if err := imaging.Encode(buf, img, imaging.JPEG, imaging.JPEGQuality(90)); err != nil {
		l.logger.Warn("logo could not be encoded", zap.String("source", source), zap.Error(err))
		return nil
	}
	return buf.Bytes()
}

func (l *LogoLoader) read(ctx context.Context, source string) ([]byte, error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		f, err := os.Open(source)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return io.ReadAll(io.LimitReader(f, logoMaxBytes))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch logo: %s", resp.Status)
	}
	return io.ReadAll(io.LimitReader(resp.Body, logoMaxBytes))
}

// DataURI embeds a JPEG logo for HTML reports.
func DataURI(jpeg []byte) string {
	if len(jpeg) == 0 {
		return ""
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(jpeg)
}
