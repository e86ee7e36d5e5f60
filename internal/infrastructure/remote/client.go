// Package remote is the HTTP transport to the Vidro API.
// It performs a single attempt per call; there is no retry or offline queue.
package remote

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/javierleyes/vidro-android/internal/infrastructure/config"
	"github.com/javierleyes/vidro-android/internal/infrastructure/logger"
	"github.com/javierleyes/vidro-android/internal/infrastructure/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RequestIDHeader carries the per-request correlation id
const RequestIDHeader = "X-Request-ID"

// Client is the HTTP client for the Vidro API.
type Client struct {
	httpClient *http.Client
	baseURL    *url.URL
	headers    map[string]string
	limiter    *rate.Limiter
	logger     *zap.Logger
	mu         sync.RWMutex
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the logger used for request logging.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) {
		c.logger = l.Named("remote")
	}
}

// WithLimiter sets a client-side rate limiter, overriding the configured one.
func WithLimiter(l *rate.Limiter) Option {
	return func(c *Client) {
		c.limiter = l
	}
}

// NewClient creates a client for the API described by cfg.
func NewClient(cfg config.APIConfig, opts ...Option) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base URL: %q is not absolute", cfg.BaseURL)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.InsecureTLS, //nolint:gosec // local API uses a self-signed certificate
		},
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
	}

	c := &Client{
		httpClient: &http.Client{Transport: transport, Timeout: cfg.Timeout},
		baseURL:    base,
		headers:    make(map[string]string),
		logger:     zap.NewNop(),
	}

	c.headers["Accept"] = "application/json"
	if cfg.UserAgent != "" {
		c.headers["User-Agent"] = cfg.UserAgent
	}

	if cfg.RateLimitQPS > 0 {
		burst := cfg.RateLimitBurst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitQPS), burst)
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Request represents an HTTP request to be executed.
// Path is relative to the base URL; dynamic segments must already be escaped.
type Request struct {
	Method      string
	Path        string
	QueryParams map[string]string
	Body        any
}

// Response represents a successful (2xx) HTTP response.
type Response struct {
	Op         string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
	RequestID  string
}

// Decode unmarshals the JSON body into v. An empty body leaves v untouched.
func (r *Response) Decode(v any) error {
	if len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return NewBodyError(r, err)
	}
	return nil
}

// Do executes req once. Any failure, including a non-2xx status, is returned as *Error.
func (c *Client) Do(ctx context.Context, req Request) (*Response, error) {
	op := req.Method + " /" + strings.TrimPrefix(req.Path, "/")

	u, err := c.buildURL(req.Path, req.QueryParams)
	if err != nil {
		return nil, &Error{Op: op, Message: fmt.Sprintf("building URL: %v", err), Err: err}
	}

	var bodyReader io.Reader
	if req.Body != nil {
		bodyBytes, err := json.Marshal(req.Body)
		if err != nil {
			return nil, &Error{Op: op, Message: fmt.Sprintf("marshaling request body: %v", err), Err: err}
		}
		bodyReader = bytes.NewReader(bodyBytes)
	}

	ctx, span := telemetry.StartSpan(ctx, "HTTP "+req.Method,
		telemetry.WithSpanKind(trace.SpanKindClient),
		telemetry.WithAttribute("http.request.method", req.Method),
		telemetry.WithAttribute("url.path", u.Path),
	)
	defer span.End()

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			rerr := newTransportError(op, err)
			telemetry.RecordError(span, rerr)
			return nil, rerr
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u.String(), bodyReader)
	if err != nil {
		return nil, &Error{Op: op, Message: fmt.Sprintf("creating HTTP request: %v", err), Err: err}
	}

	requestID := logger.GetRequestID(ctx)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.setHeaders(httpReq, requestID, req.Body != nil)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(httpReq.Header))

	log := logger.L(ctx, c.logger).With(
		zap.String("op", op),
		zap.String("request_id", requestID),
	)

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	duration := time.Since(start)
	if err != nil {
		rerr := newTransportError(op, err)
		telemetry.RecordError(span, rerr)
		log.Warn("request failed", zap.Duration("duration", duration), zap.Error(err))
		return nil, rerr
	}
	defer httpResp.Body.Close()

	telemetry.SetAttribute(span, "http.response.status_code", httpResp.StatusCode)

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		rerr := &Error{
			Op:         op,
			StatusCode: httpResp.StatusCode,
			Message:    fmt.Sprintf("reading response body: %v", err),
			Err:        err,
		}
		telemetry.RecordError(span, rerr)
		return nil, rerr
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		rerr := newStatusError(op, httpResp.StatusCode)
		telemetry.RecordError(span, rerr)
		log.Warn("request rejected",
			zap.Int("status", httpResp.StatusCode),
			zap.Duration("duration", duration),
		)
		return nil, rerr
	}

	log.Debug("request completed",
		zap.Int("status", httpResp.StatusCode),
		zap.Duration("duration", duration),
		zap.Int("body_size", len(body)),
	)

	return &Response{
		Op:         op,
		StatusCode: httpResp.StatusCode,
		Headers:    httpResp.Header,
		Body:       body,
		Duration:   duration,
		RequestID:  requestID,
	}, nil
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, path string, queryParams map[string]string) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, QueryParams: queryParams})
}

// Post performs a POST request.
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body})
}

// Patch performs a PATCH request.
func (c *Client) Patch(ctx context.Context, path string, body any) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodPatch, Path: path, Body: body})
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path})
}

// buildURL resolves path against the base URL, keeping any base path prefix.
func (c *Client) buildURL(path string, queryParams map[string]string) (*url.URL, error) {
	u, err := c.baseURL.Parse(strings.TrimPrefix(path, "/"))
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}

	if len(queryParams) > 0 {
		q := u.Query()
		for k, v := range queryParams {
			q.Set(k, v)
		}
		u.RawQuery = q.Encode()
	}

	return u, nil
}

func (c *Client) setHeaders(req *http.Request, requestID string, hasBody bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(RequestIDHeader, requestID)
}

// SetHeader sets a default header for all requests.
func (c *Client) SetHeader(key, value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.headers[key] = value
}

// BaseURL returns the client's base URL.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}
