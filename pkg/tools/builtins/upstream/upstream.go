// Package upstream is the shared HTTP plumbing for tools that call paid
// third-party APIs: a rate-limited JSON GET with status accounting.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/rhuss/outings/pkg/debug"
)

// DefaultTimeout applies when a Client is built without an http.Client.
const DefaultTimeout = 10 * time.Second

// maxBody caps how much of an upstream response is decoded.
const maxBody = 8 << 20

// secretParams are query parameters that carry API keys. Their values
// never appear in returned errors.
var secretParams = []string{"key", "appid", "api_key", "apikey", "token"}

// StatusError is returned for non-2xx upstream responses. URL has no query
// string and Body has secret parameter values redacted.
type StatusError struct {
	StatusCode int
	URL        string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream returned HTTP %d: %s", e.StatusCode, e.Body)
}

// Client issues rate-limited GET requests and decodes JSON responses.
type Client struct {
	name     string
	http     *http.Client
	limiter  *rate.Limiter
	requests *prometheus.CounterVec
}

// NewClient creates a Client. rps <= 0 disables rate limiting. A nil
// httpClient gets DefaultTimeout.
func NewClient(name string, httpClient *http.Client, rps float64, burst int) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}
	limiter := rate.NewLimiter(rate.Inf, 0)
	if rps > 0 {
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
	return &Client{
		name:    name,
		http:    httpClient,
		limiter: limiter,
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "outings_upstream_requests_total",
				Help:        "Requests to third-party APIs used by tools",
				ConstLabels: prometheus.Labels{"api": name},
			},
			[]string{"endpoint", "status"},
		),
	}
}

// Collector returns the request counter for registration.
func (c *Client) Collector() prometheus.Collector {
	return c.requests
}

// GetJSON waits for the rate limiter, GETs base with query, and decodes the
// JSON body into out. endpoint labels the request in metrics.
func (c *Client) GetJSON(ctx context.Context, endpoint, base string, query url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		c.requests.WithLabelValues(endpoint, "rate_limited").Inc()
		return fmt.Errorf("%s rate limit: %w", c.name, err)
	}

	u := base
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	debug.Log("tools", "upstream request", "api", c.name, "endpoint", endpoint)

	resp, err := c.http.Do(req)
	if err != nil {
		c.requests.WithLabelValues(endpoint, "error").Inc()
		var uerr *url.Error
		if errors.As(err, &uerr) {
			uerr.URL = base
		}
		return fmt.Errorf("%s request failed: %w", c.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.requests.WithLabelValues(endpoint, "http_error").Inc()
		return &StatusError{StatusCode: resp.StatusCode, URL: base, Body: redact(string(body), query)}
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(out); err != nil {
		c.requests.WithLabelValues(endpoint, "decode_error").Inc()
		return fmt.Errorf("decoding %s response: %w", c.name, err)
	}
	c.requests.WithLabelValues(endpoint, "success").Inc()
	return nil
}

// redact replaces the values of secret query parameters in s.
func redact(s string, query url.Values) string {
	for _, name := range secretParams {
		for _, v := range query[name] {
			if v != "" {
				s = strings.ReplaceAll(s, v, "REDACTED")
			}
		}
	}
	return s
}
