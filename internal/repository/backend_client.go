package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/leratech/maweni-results/pkg/config"
	appErrors "github.com/leratech/maweni-results/pkg/errors"
	"github.com/leratech/maweni-results/pkg/middleware/requestid"
)

const maxBackendBody = 32 << 20

// RequestObserver records backend call latency.
type RequestObserver interface {
	ObserveBackendRequest(endpoint string, status int, duration time.Duration)
}

type bearerKey struct{}

// WithBearerToken makes calls made with ctx authenticate as the caller
// instead of the configured service token.
func WithBearerToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, bearerKey{}, token)
}

// BearerToken returns the caller token attached with WithBearerToken.
func BearerToken(ctx context.Context) string {
	token, _ := ctx.Value(bearerKey{}).(string)
	return token
}

// BackendClient talks to the school results REST API.
type BackendClient struct {
	baseURL string
	token   string
	client  *http.Client
	metrics RequestObserver
	logger  *zap.Logger
}

// NewBackendClient constructs a client from configuration. metrics may be nil.
func NewBackendClient(cfg config.BackendConfig, metrics RequestObserver, logger *zap.Logger) *BackendClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BackendClient{
		baseURL: cfg.BaseURL,
		token:   cfg.Token,
		client:  &http.Client{Timeout: timeout},
		metrics: metrics,
		logger:  logger,
	}
}

// envelope is the backend's {success, data, message} wrapper.
type envelope struct {
	Success *bool           `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
}

// GetList fetches endpoint and decodes a list payload into dest.
func (c *BackendClient) GetList(ctx context.Context, endpoint string, query url.Values, dest interface{}) error {
	body, err := c.get(ctx, endpoint, query)
	if err != nil {
		return err
	}
	if err := decodeList(body, dest); err != nil {
		return appErrors.Wrap(err, appErrors.ErrBackend.Code, appErrors.ErrBackend.Status, fmt.Sprintf("GET %s: %s", endpoint, backendMessage(err)))
	}
	return nil
}

func (c *BackendClient) get(ctx context.Context, endpoint string, query url.Values) ([]byte, error) {
	target := c.baseURL + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "build backend request")
	}
	req.Header.Set("Accept", "application/json")
	if token := BearerToken(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	} else if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if id := requestid.FromContext(ctx); id != "" {
		req.Header.Set(requestid.HeaderKey, id)
	}

	start := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.observe(endpoint, 0, time.Since(start))
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, appErrors.Wrap(err, appErrors.ErrBackend.Code, appErrors.ErrBackend.Status, fmt.Sprintf("GET %s failed", endpoint))
	}
	defer resp.Body.Close()
	c.observe(endpoint, resp.StatusCode, time.Since(start))

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBackendBody))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrBackend.Code, appErrors.ErrBackend.Status, fmt.Sprintf("read %s response", endpoint))
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := errorMessage(body, resp.StatusCode)
		c.logger.Warn("backend request failed",
			zap.String("endpoint", endpoint),
			zap.Int("status", resp.StatusCode),
			zap.String("message", message),
		)
		return nil, appErrors.Clone(appErrors.ErrBackend, fmt.Sprintf("GET %s: %s", endpoint, message))
	}
	return body, nil
}

func (c *BackendClient) observe(endpoint string, status int, d time.Duration) {
	if c.metrics != nil {
		c.metrics.ObserveBackendRequest(endpoint, status, d)
	}
}

// decodeList accepts either a bare JSON array or an envelope whose data is
// the array.
func decodeList(body []byte, dest interface{}) error {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return fmt.Errorf("empty response body")
	}
	if trimmed[0] == '[' {
		if err := json.Unmarshal(trimmed, dest); err != nil {
			return fmt.Errorf("malformed list: %w", err)
		}
		return nil
	}

	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return fmt.Errorf("malformed response: %w", err)
	}
	if env.Success != nil && !*env.Success {
		return backendRejection(firstText(env.Message, env.Error, "request was not successful"))
	}
	data := bytes.TrimSpace(env.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		data = []byte("[]")
	}
	if data[0] != '[' {
		return fmt.Errorf("response data is not a list")
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("malformed list: %w", err)
	}
	return nil
}

// backendRejection carries the backend's own message for success:false.
type backendRejection string

func (r backendRejection) Error() string { return string(r) }

func backendMessage(err error) string {
	if r, ok := err.(backendRejection); ok {
		return string(r)
	}
	return err.Error()
}

func errorMessage(body []byte, status int) string {
	var env envelope
	if json.Unmarshal(body, &env) == nil {
		if msg := firstText(env.Message, env.Error); msg != "" {
			return msg
		}
	}
	return fmt.Sprintf("HTTP %d", status)
}

func firstText(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
