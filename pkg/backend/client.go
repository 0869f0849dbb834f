package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/matespatagonico/storefront/pkg/config"
	pkgerrors "github.com/matespatagonico/storefront/pkg/errors"
	"github.com/matespatagonico/storefront/pkg/logger"
	"github.com/matespatagonico/storefront/pkg/metrics"
)

const (
	defaultBaseURL            = "http://localhost:8080/api"
	defaultImageBaseURL       = "http://localhost:8080"
	defaultTimeout            = 10 * time.Second
	errorBodyReadLimit  int64 = 4096
	responseReadLimit   int64 = 16 << 20
)

// Client is the typed HTTP client for the storefront REST backend.
// Every call is bounded by the configured timeout.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	imageBaseURL string
	timeout      time.Duration
	metrics      *metrics.BackendMetrics
	logg         *logger.Logger
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the REST base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// WithImageBaseURL overrides the host used to resolve relative image references.
func WithImageBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.imageBaseURL = trimmed
		}
	}
}

// WithTimeout sets the per-request deadline.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

func WithMetrics(m *metrics.BackendMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

func WithLogger(logg *logger.Logger) Option {
	return func(c *Client) {
		c.logg = logg
	}
}

// NewClient builds a backend client from config; options win over config values.
func NewClient(cfg config.BackendConfig, opts ...Option) (*Client, error) {
	client := &Client{
		baseURL:      defaultBaseURL,
		imageBaseURL: defaultImageBaseURL,
		timeout:      defaultTimeout,
	}
	WithBaseURL(cfg.BaseURL)(client)
	WithImageBaseURL(cfg.ImageBaseURL)(client)
	WithTimeout(cfg.Timeout)(client)

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	if client.httpClient == nil {
		client.httpClient = &http.Client{Transport: NewTracingTransport(http.DefaultTransport)}
	}
	if _, err := url.ParseRequestURI(client.baseURL); err != nil {
		return nil, fmt.Errorf("invalid backend base url %q: %w", client.baseURL, err)
	}
	return client, nil
}

type (
	operationKey struct{}
	requestIDKey struct{}
)

// ContextWithRequestID makes backend calls made with ctx forward id in
// X-Request-Id so gateway and backend logs line up.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// NewTracingTransport wraps base so every backend call runs in a client span
// named after its operation and forwards the caller's trace context.
func NewTracingTransport(base http.RoundTripper) http.RoundTripper {
	return otelhttp.NewTransport(base, otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
		if op, ok := r.Context().Value(operationKey{}).(string); ok && op != "" {
			return "backend." + op
		}
		return "backend " + r.Method
	}))
}

// request describes one backend call.
type request struct {
	op     string
	method string
	path   string
	token  string
	body   any

	// raw is sent as-is with contentType instead of a JSON-encoded body.
	raw         io.Reader
	contentType string
}

// do executes the request and decodes a JSON response into out when non-nil.
// Non-2xx responses are converted with pkgerrors.FromStatus; client failures
// with pkgerrors.FromTransport, so a deadline surfaces as CodeTimeout.
func (c *Client) do(ctx context.Context, req request, out any) (err error) {
	if c == nil {
		return pkgerrors.New(pkgerrors.CodeDependency, "storefront backend client not configured")
	}

	started := time.Now()
	defer func() {
		c.metrics.Observe(req.op, time.Since(started), err)
		if err != nil {
			c.logg.Warn(c.logg.WithFields(ctx, map[string]any{
				"backend_op": req.op,
				"method":     req.method,
				"path":       req.path,
				"error":      err.Error(),
			}), "storefront backend call failed")
		}
	}()

	ctx, cancel := context.WithTimeout(context.WithValue(ctx, operationKey{}, req.op), c.timeout)
	defer cancel()

	var body io.Reader
	contentType := "application/json"
	if req.raw != nil {
		body = req.raw
		contentType = req.contentType
	} else if req.body != nil {
		payload, marshalErr := json.Marshal(req.body)
		if marshalErr != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, marshalErr, "marshal "+req.op+" request")
		}
		body = bytes.NewReader(payload)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.buildURL(req.path), body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build "+req.op+" request")
	}
	httpReq.Header.Set("Accept", "application/json")
	if body != nil && contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if id, ok := ctx.Value(requestIDKey{}).(string); ok && id != "" {
		httpReq.Header.Set("X-Request-Id", id)
	}
	if token := strings.TrimSpace(req.token); token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return pkgerrors.FromTransport(err, req.op+" request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		return pkgerrors.FromStatus(resp.StatusCode, msg)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, responseReadLimit))
		return nil
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, responseReadLimit))
	if err != nil {
		return pkgerrors.FromTransport(err, "read "+req.op+" response")
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode "+req.op+" response")
	}
	return nil
}

func (c *Client) buildURL(path string) string {
	if isAbsoluteURL(path) {
		return path
	}
	trimmed := strings.TrimRight(c.baseURL, "/")
	path = strings.TrimLeft(path, "/")
	return fmt.Sprintf("%s/%s", trimmed, path)
}

func isAbsoluteURL(raw string) bool {
	lower := strings.ToLower(strings.TrimSpace(raw))
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}

func idPath(format string, ids ...int64) string {
	args := make([]any, 0, len(ids))
	for _, id := range ids {
		args = append(args, id)
	}
	return fmt.Sprintf(format, args...)
}
