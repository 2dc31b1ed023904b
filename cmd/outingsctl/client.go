package main

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

	"github.com/rhuss/outings/pkg/api"
)

// Client calls the outings HTTP API.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient returns a client for baseURL. token, when set, is sent as a
// bearer token.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: 3 * time.Minute},
	}
}

// Chat sends one message.
func (c *Client) Chat(ctx context.Context, req api.ChatRequest) (*api.ChatResponse, error) {
	var out api.ChatResponse
	if err := c.do(ctx, http.MethodPost, "/api/chat", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Reset starts a fresh conversation for the user.
func (c *Client) Reset(ctx context.Context, user string) error {
	return c.do(ctx, http.MethodPost, "/api/chat/reset", api.ResetRequest{UserID: user}, nil)
}

// Preferences returns the user's stored preferences.
func (c *Client) Preferences(ctx context.Context, user string) (*api.Preferences, error) {
	var out api.Preferences
	if err := c.do(ctx, http.MethodGet, "/api/preferences/"+url.PathEscape(user), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdatePreferences merges u into the user's preferences.
func (c *Client) UpdatePreferences(ctx context.Context, user string, u api.PreferencesUpdate) (*api.Preferences, error) {
	var out api.Preferences
	if err := c.do(ctx, http.MethodPut, "/api/preferences/"+url.PathEscape(user), u, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Users lists users with stored preferences.
func (c *Client) Users(ctx context.Context) ([]string, error) {
	var out struct {
		Users []string `json:"users"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/users", nil, &out); err != nil {
		return nil, err
	}
	return out.Users, nil
}

// ListHistory lists saved chats.
func (c *Client) ListHistory(ctx context.Context) ([]api.HistoryListItem, error) {
	var out []api.HistoryListItem
	if err := c.do(ctx, http.MethodGet, "/api/chat-history", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetHistory returns one saved chat.
func (c *Client) GetHistory(ctx context.Context, id string) (*api.HistoryEntry, error) {
	var out api.HistoryEntry
	if err := c.do(ctx, http.MethodGet, "/api/chat-history/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SaveHistory stores a chat transcript.
func (c *Client) SaveHistory(ctx context.Context, save api.HistorySave) (*api.HistoryEntry, error) {
	var out api.HistoryEntry
	if err := c.do(ctx, http.MethodPost, "/api/chat-history", save, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteHistory removes one saved chat.
func (c *Client) DeleteHistory(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/chat-history/"+url.PathEscape(id), nil, nil)
}

// CacheStats describes the activity cache.
func (c *Client) CacheStats(ctx context.Context) (*api.CacheStats, error) {
	var out api.CacheStats
	if err := c.do(ctx, http.MethodGet, "/api/activities/cache", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RefreshCache triggers an activity cache refresh.
func (c *Client) RefreshCache(ctx context.Context) (*api.RefreshResult, error) {
	var out api.RefreshResult
	if err := c.do(ctx, http.MethodPost, "/api/scrape", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// do sends body as JSON and decodes a 2xx response into out. Error bodies
// are decoded into *api.APIError when possible.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		var er api.ErrorResponse
		if json.Unmarshal(data, &er) == nil && er.Error != nil {
			return er.Error
		}
		return fmt.Errorf("%s %s: HTTP %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(data)))
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
