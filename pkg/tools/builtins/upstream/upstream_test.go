package upstream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestGetJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") != "nyc" {
			t.Errorf("q = %q", r.URL.Query().Get("q"))
		}
		_, _ = w.Write([]byte(`{"name":"New York"}`))
	}))
	defer srv.Close()

	c := NewClient("test", srv.Client(), 0, 0)
	var out struct {
		Name string `json:"name"`
	}
	if err := c.GetJSON(context.Background(), "current", srv.URL, url.Values{"q": {"nyc"}}, &out); err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}
	if out.Name != "New York" {
		t.Errorf("name = %q", out.Name)
	}
}

func TestGetJSON_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient("test", srv.Client(), 0, 0)
	err := c.GetJSON(context.Background(), "current", srv.URL, nil, &struct{}{})

	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected StatusError 401, got %v", err)
	}
}

func TestGetJSON_RateLimitHonorsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient("test", srv.Client(), 0.001, 1)
	if err := c.GetJSON(context.Background(), "x", srv.URL, nil, &struct{}{}); err != nil {
		t.Fatalf("first request should pass: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := c.GetJSON(ctx, "x", srv.URL, nil, &struct{}{}); err == nil {
		t.Error("second request should fail waiting for the limiter")
	}
}

func TestGetJSON_ErrorsOmitAPIKey(t *testing.T) {
	const secret = "SECRET-KEY-123"
	query := url.Values{"appid": {secret}, "q": {"Brooklyn"}}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid key "+r.URL.Query().Get("appid"), http.StatusUnauthorized)
	}))
	c := NewClient("test", srv.Client(), 0, 0)

	err := c.GetJSON(context.Background(), "current", srv.URL+"/weather", query, &struct{}{})
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if strings.Contains(err.Error(), secret) || strings.Contains(se.URL, secret) {
		t.Errorf("status error leaks the key: %v (url %s)", err, se.URL)
	}
	if !strings.Contains(se.Body, "REDACTED") {
		t.Errorf("body = %q, want redacted key", se.Body)
	}

	// Connection failures must not echo the request URL's query either.
	srv.Close()
	err = c.GetJSON(context.Background(), "current", srv.URL+"/weather", query, &struct{}{})
	if err == nil {
		t.Fatal("expected a connection error")
	}
	if strings.Contains(err.Error(), secret) {
		t.Errorf("transport error leaks the key: %v", err)
	}
	if !strings.Contains(err.Error(), "/weather") {
		t.Errorf("error should still name the endpoint: %v", err)
	}
}
