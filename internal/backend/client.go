// Package backend is the HTTP/WebSocket client for the extraction backend
// that owns battles, statistics and video processing.
package backend

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/valyala/fasthttp"
)

// ErrNotConfigured is returned by every call when the backend host is unset.
var ErrNotConfigured = errors.New("backend host not configured")

var (
	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "dashboard_backend_request_duration_seconds",
		Help:    "Duration of requests to the extraction backend",
		Buckets: prometheus.DefBuckets,
	}, []string{"endpoint"})

	requestErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "dashboard_backend_request_errors_total",
		Help: "Backend requests that failed, by endpoint and reason",
	}, []string{"endpoint", "reason"})
)

// APIError is a non-2xx answer from the backend. Message carries the
// backend's own error text so it can be shown to the user as-is.
type APIError struct {
	Status  int
	Body    string
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("backend returned %d", e.Status)
}

func newAPIError(status int, body []byte) *APIError {
	e := &APIError{Status: status, Body: string(body)}

	// FastAPI wraps errors as {"detail": ...}
	var wrapped struct {
		Detail json.RawMessage `json:"detail"`
		Error  string          `json:"error"`
	}
	if err := json.Unmarshal(body, &wrapped); err == nil {
		var detail string
		switch {
		case len(wrapped.Detail) > 0 && json.Unmarshal(wrapped.Detail, &detail) == nil:
			e.Message = detail
		case len(wrapped.Detail) > 0:
			e.Message = string(wrapped.Detail)
		case wrapped.Error != "":
			e.Message = wrapped.Error
		}
	}
	if e.Message == "" && len(body) > 0 && len(body) < 512 {
		e.Message = string(body)
	}
	return e
}

type Config struct {
	Host          string
	WebsocketHost string
	Timeout       time.Duration
}

type Client struct {
	host    string
	wsHost  string
	timeout time.Duration
	client  *fasthttp.Client
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		host:    cfg.Host,
		wsHost:  cfg.WebsocketHost,
		timeout: cfg.Timeout,
		client: &fasthttp.Client{
			MaxConnsPerHost:     100,
			ReadTimeout:         cfg.Timeout,
			WriteTimeout:        cfg.Timeout,
			MaxIdleConnDuration: time.Minute,
		},
	}
}

// Configured reports whether HTTP calls can be made.
func (c *Client) Configured() bool {
	return c.host != ""
}

type result struct {
	status int
	body   []byte
	err    error
}

// roundTrip performs one request. fasthttp has no context support, so the
// call runs in its own goroutine; on cancellation the caller returns at once
// and the goroutine releases the request when the backend answers or times
// out.
func (c *Client) roundTrip(ctx context.Context, method, endpoint string, query url.Values, body []byte) ([]byte, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	uri := c.host + endpoint
	if len(query) > 0 {
		uri += "?" + query.Encode()
	}

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	req.SetRequestURI(uri)
	req.Header.SetMethod(method)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.SetContentType("application/json")
		req.SetBody(body)
	}

	done := make(chan result, 1)
	start := time.Now()
	go func() {
		defer fasthttp.ReleaseRequest(req)
		defer fasthttp.ReleaseResponse(resp)

		if err := c.client.DoDeadline(req, resp, deadline); err != nil {
			done <- result{err: err}
			return
		}
		done <- result{
			status: resp.StatusCode(),
			body:   append([]byte(nil), resp.Body()...),
		}
	}()

	select {
	case <-ctx.Done():
		requestErrors.WithLabelValues(endpoint, "canceled").Inc()
		return nil, ctx.Err()
	case r := <-done:
		requestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
		if r.err != nil {
			requestErrors.WithLabelValues(endpoint, "transport").Inc()
			return nil, fmt.Errorf("%s %s: %w", method, endpoint, r.err)
		}
		if r.status < 200 || r.status > 299 {
			requestErrors.WithLabelValues(endpoint, strconv.Itoa(r.status)).Inc()
			return nil, newAPIError(r.status, r.body)
		}
		return r.body, nil
	}
}

func doRequest[T any](ctx context.Context, c *Client, method, endpoint string, query url.Values, payload interface{}) (T, error) {
	var zero T

	var body []byte
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return zero, fmt.Errorf("encode %s body: %w", endpoint, err)
		}
		body = b
	}

	raw, err := c.roundTrip(ctx, method, endpoint, query, body)
	if err != nil {
		return zero, err
	}

	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		requestErrors.WithLabelValues(endpoint, "decode").Inc()
		return zero, fmt.Errorf("decode %s: %w", endpoint, err)
	}
	return out, nil
}

func get[T any](ctx context.Context, c *Client, endpoint string, query url.Values) (T, error) {
	return doRequest[T](ctx, c, fasthttp.MethodGet, endpoint, query, nil)
}

func post[T any](ctx context.Context, c *Client, endpoint string, payload interface{}) (T, error) {
	return doRequest[T](ctx, c, fasthttp.MethodPost, endpoint, nil, payload)
}
