package rankdex

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	defaultTimeout = 30 * time.Second
	defaultRetries = 2
)

// Client talks to a rankdex server over HTTP.
type Client struct {
	http *resty.Client
	obs  *observer
}

// New creates a Client for the server at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("rankdex: base URL is required")
	}

	cfg := &clientConfig{
		timeout:    defaultTimeout,
		retryCount: defaultRetries,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	var hc *resty.Client
	if cfg.httpClient != nil {
		hc = resty.NewWithClient(cfg.httpClient)
	} else {
		hc = resty.New()
	}
	hc.SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetTimeout(cfg.timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetRetryCount(cfg.retryCount).
		SetRetryWaitTime(100 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second)
	hc.AddRetryCondition(retryCondition)
	if cfg.apiKey != "" {
		hc.SetHeader("Authorization", "Bearer "+cfg.apiKey)
	}

	return &Client{http: hc, obs: obs}, nil
}

// retryCondition determines if a request should be retried.
func retryCondition(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if r == nil {
		return false
	}
	code := r.StatusCode()
	return code >= 500 || code == http.StatusTooManyRequests || code == http.StatusRequestTimeout
}

// Search runs the first batch of a query.
func (c *Client) Search(ctx context.Context, req SearchRequest) (*Batch, error) {
	var out Batch
	if err := c.do(ctx, "search", http.MethodPost, "/api/v1/search", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Continue fetches the next batch of a continuation chain.
// batchSize <= 0 keeps the server default.
func (c *Client) Continue(ctx context.Context, token string, batchSize int) (*Batch, error) {
	body := struct {
		Token     string `json:"token"`
		BatchSize int    `json:"batch_size,omitempty"`
	}{Token: token}
	if batchSize > 0 {
		body.BatchSize = batchSize
	}

	var out Batch
	if err := c.do(ctx, "continue", http.MethodPost, "/api/v1/search/continue", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Breakers returns circuit breaker state per AI capability.
func (c *Client) Breakers(ctx context.Context) ([]BreakerStatus, error) {
	var out struct {
		Items []BreakerStatus `json:"items"`
	}
	if err := c.do(ctx, "breakers", http.MethodGet, "/api/v1/breakers", nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}

// ResetBreaker force-closes the named capability's breaker.
func (c *Client) ResetBreaker(ctx context.Context, capability string) error {
	path := fmt.Sprintf("/api/v1/breakers/%s/reset", url.PathEscape(capability))
	return c.do(ctx, "reset_breaker", http.MethodPost, path, nil, nil)
}

// Usage returns the embedding usage report for the given period.
// An empty period keeps the server default (month).
func (c *Client) Usage(ctx context.Context, period UsagePeriod) (*UsageReport, error) {
	path := "/api/v1/usage"
	if period != "" {
		path += "?period=" + url.QueryEscape(string(period))
	}

	var out UsageReport
	if err := c.do(ctx, "usage", http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Health checks the health of the server and its dependencies. A degraded
// server answers 503 with the same report shape; that is data, not an error.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	start := time.Now()
	out, err := c.health(ctx)
	c.obs.observe("health", start, err)
	return out, err
}

func (c *Client) health(ctx context.Context) (HealthStatus, error) {
	var out HealthStatus
	resp, err := c.http.R().SetContext(ctx).SetResult(&out).Get("/health")
	if err != nil {
		return HealthStatus{}, fmt.Errorf("rankdex: request failed: %w", err)
	}

	if resp.StatusCode() == http.StatusServiceUnavailable {
		// resty only decodes into the result on 2xx
		if uerr := json.Unmarshal(resp.Body(), &out); uerr != nil {
			return HealthStatus{}, apiErrorFrom(resp)
		}
		return out, nil
	}
	if resp.IsError() {
		return HealthStatus{}, apiErrorFrom(resp)
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, body, result any) error {
	start := time.Now()
	err := c.request(ctx, method, path, body, result)
	c.obs.observe(op, start, err)
	return err
}

func (c *Client) request(ctx context.Context, method, path string, body, result any) error {
	req := c.http.R().SetContext(ctx).SetError(&APIError{})
	if body != nil {
		req.SetBody(body)
	}
	if result != nil {
		req.SetResult(result)
	}

	var resp *resty.Response
	var err error
	switch method {
	case http.MethodGet:
		resp, err = req.Get(path)
	case http.MethodPost:
		resp, err = req.Post(path)
	default:
		return fmt.Errorf("rankdex: unsupported method %s", method)
	}
	if err != nil {
		return fmt.Errorf("rankdex: request failed: %w", err)
	}
	if resp.IsError() {
		return apiErrorFrom(resp)
	}
	return nil
}

// apiErrorFrom builds an *APIError from an error response, falling back to
// the raw body when it is not the standard error shape.
func apiErrorFrom(resp *resty.Response) error {
	if apiErr, ok := resp.Error().(*APIError); ok && apiErr != nil && apiErr.Code != "" {
		apiErr.StatusCode = resp.StatusCode()
		return apiErr
	}
	return &APIError{
		StatusCode: resp.StatusCode(),
		Code:       "internal_error",
		Message:    strings.TrimSpace(resp.String()),
	}
}
