// Package api is the REST client for the diagnosis simulator backend.
//
// Every authenticated call goes through Client.authorized, which applies the
// refresh-once policy: a 401 triggers a single token refresh and a single
// retry; a failed refresh or a second 401 clears the stored credential and
// returns ErrSessionExpired.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/medsim/medsim/internal"
)

// Options configures a Client
type Options struct {
	BaseURL    string
	GamePrefix string
	// Timeout of zero leaves requests unbounded
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Client talks to the backend on behalf of one stored login
type Client struct {
	baseURL    string
	endpoints  Endpoints
	httpClient *http.Client
	tokens     TokenStore
}

// New creates a client. tokens persists the credential between runs.
func New(opts Options, tokens TokenStore) *Client {
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	prefix := opts.GamePrefix
	if prefix == "" {
		prefix = internal.DefaultGamePrefix
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		endpoints:  NewEndpoints(prefix),
		httpClient: hc,
		tokens:     tokens,
	}
}

// NewFromConfig creates a client from the loaded settings
func NewFromConfig(cfg *internal.Config, tokens TokenStore) *Client {
	return New(Options{
		BaseURL:    cfg.APIHost,
		GamePrefix: cfg.GamePrefix,
		Timeout:    cfg.Timeout,
	}, tokens)
}

// BaseURL returns the backend root
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do sends one request. token may be empty for anonymous calls. out may be
// nil when the body is not needed.
func (c *Client) do(ctx context.Context, method, path, token string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal %s %s request failed: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build %s %s request failed: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s request failed: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s %s response failed: %w", method, path, err)
	}
	internal.LogDebug("%s %s -> %d (%s)", method, path, resp.StatusCode, time.Since(start).Round(time.Millisecond))

	if resp.StatusCode >= 300 {
		return &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: string(raw)}
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parse %s %s response failed: %w", method, path, err)
	}
	return nil
}
