// Package client is a thin HTTP wrapper for the cache service API.
package client

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/net/http2"
)

// Client issues requests against a cache service base URL.
type Client struct {
	URL        string
	HTTPClient *http.Client
	tracer     trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the default request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.HTTPClient.Timeout = d }
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.HTTPClient = hc
		}
	}
}

// WithHTTP2 switches the transport to HTTP/2 over cleartext (h2c).
func WithHTTP2() Option {
	return func(c *Client) {
		dialer := &net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}
		c.HTTPClient.Transport = &http2.Transport{
			AllowHTTP: true,
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				return dialer.DialContext(ctx, network, addr)
			},
			ReadIdleTimeout: 30 * time.Second,
			PingTimeout:     10 * time.Second,
		}
	}
}

// New creates a cache service client.
func New(url string, opts ...Option) *Client {
	c := &Client{
		URL: strings.TrimRight(url, "/"),
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		tracer: otel.Tracer("cachebench/client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Response carries the outcome of a single request. Elapsed covers the full
// request/response cycle including reading the body.
type Response struct {
	Status  int
	Body    string
	Elapsed time.Duration
}

// CacheConfig describes the target cache resource.
type CacheConfig struct {
	Name       string `json:"name"`
	Type       string `json:"cache_type"`
	Capacity   int    `json:"capacity"`
	TTLSeconds int    `json:"ttl,omitempty"`
}

// CreateCache creates a named cache on the service.
func (c *Client) CreateCache(ctx context.Context, cfg CacheConfig) (*Response, error) {
	return c.doJSON(ctx, http.MethodPost, "/cache/create", cfg)
}

// DeleteCache removes a named cache and all its entries.
func (c *Client) DeleteCache(ctx context.Context, name string) (*Response, error) {
	return c.doJSON(ctx, http.MethodPost, "/cache/delete", map[string]string{"name": name})
}

// Put stores value under key. The value is sent as a raw string body, not JSON.
func (c *Client) Put(ctx context.Context, cache, key, value string) (*Response, error) {
	return c.Do(ctx, http.MethodPut, "/cache/"+cache+"/"+key, strings.NewReader(value), "")
}

// Get retrieves the value stored under key.
func (c *Client) Get(ctx context.Context, cache, key string) (*Response, error) {
	return c.Do(ctx, http.MethodGet, "/cache/"+cache+"/"+key, nil, "")
}

// Delete removes key from the cache.
func (c *Client) Delete(ctx context.Context, cache, key string) (*Response, error) {
	return c.Do(ctx, http.MethodDelete, "/cache/"+cache+"/"+key, nil, "")
}

// Stats fetches service-side statistics for a cache. A transport failure is
// returned as an error; a non-200 status or an unparsable body yields
// (nil, nil) so callers can report the stats as unavailable without failing
// the run.
func (c *Client) Stats(ctx context.Context, cache string) (map[string]any, error) {
	resp, err := c.Do(ctx, http.MethodGet, "/cache/"+cache+"/stats", nil, "")
	if err != nil {
		return nil, err
	}
	if resp.Status != http.StatusOK {
		return nil, nil
	}
	var stats map[string]any
	if err := json.Unmarshal([]byte(resp.Body), &stats); err != nil {
		return nil, nil
	}
	return stats, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload any) (*Response, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal body: %w", err)
	}
	return c.Do(ctx, method, path, bytes.NewReader(b), "application/json")
}

// Do issues a single request and reads the full response body. It performs
// no retries; every failure is surfaced to the caller.
func (c *Client) Do(ctx context.Context, method, path string, body io.Reader, contentType string) (*Response, error) {
	ctx, span := c.tracer.Start(ctx, method+" "+path)
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, method, c.URL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	start := time.Now()
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	elapsed := time.Since(start)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("read response: %w", err)
	}

	span.SetAttributes(
		attribute.Int("http.status_code", resp.StatusCode),
		attribute.String("http.method", method),
	)
	return &Response{Status: resp.StatusCode, Body: string(data), Elapsed: elapsed}, nil
}
