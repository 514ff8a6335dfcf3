// Package api is the client for the chat server's JSON/HTTP surface.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// ErrUnauthenticated means the server redirected to its login page or
// answered 401: the configured session cookie is missing or expired.
var ErrUnauthenticated = errors.New("session not authenticated")

// Error is an application-level failure reported by the server
// ({"success": false, "error": "..."} or a non-2xx status).
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("%s (status %d)", e.Message, e.Status)
}

const (
	defaultTimeout = 15 * time.Second
	maxBodySize    = 16 << 20
)

// Options configures a Client.
type Options struct {
	BaseURL       string
	SessionCookie string
	Timeout       time.Duration
	// HTTPClient overrides the transport. Its CheckRedirect is replaced.
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client calls the HTTP API with the session cookie attached.
type Client struct {
	base   *url.URL
	http   *http.Client
	cookie string
	logger *zap.Logger
}

// New builds a client for the server at opts.BaseURL.
func New(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("base url must be http or https, got %q", opts.BaseURL)
	}

	hc := &http.Client{}
	if opts.HTTPClient != nil {
		c := *opts.HTTPClient
		hc = &c
	}
	if opts.Timeout > 0 {
		hc.Timeout = opts.Timeout
	} else if hc.Timeout == 0 {
		hc.Timeout = defaultTimeout
	}
	hc.CheckRedirect = func(*http.Request, []*http.Request) error {
		return http.ErrUseLastResponse
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		base:   base,
		http:   hc,
		cookie: cookieValue(opts.SessionCookie),
		logger: logger,
	}, nil
}

func cookieValue(v string) string {
	v = strings.TrimSpace(v)
	if v == "" || strings.Contains(v, "=") {
		return v
	}
	return "session=" + v
}

// URL resolves an API path against the base URL.
func (c *Client) URL(path string) string {
	return c.base.String() + path
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.URL(path), body)
	if err != nil {
		return nil, err
	}
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// doJSON sends body (if any) as JSON and decodes the response into out (if any).
func (c *Client) doJSON(ctx context.Context, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		rd = bytes.NewReader(data)
	}
	req, err := c.newRequest(ctx, method, path, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	c.logger.Debug("api call",
		zap.String("method", req.Method),
		zap.String("path", req.URL.Path),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if err := checkAuth(resp); err != nil {
		return err
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	return decodeEnvelope(resp.StatusCode, data, out)
}

func checkAuth(resp *http.Response) error {
	if resp.StatusCode == http.StatusUnauthorized ||
		(resp.StatusCode >= 300 && resp.StatusCode < 400) {
		return ErrUnauthenticated
	}
	return nil
}

// envelope is the optional success/error wrapper every JSON answer may carry.
type envelope struct {
	Success *bool  `json:"success"`
	Error   string `json:"error"`
}

func decodeEnvelope(status int, data []byte, out any) error {
	var env envelope
	jsonErr := json.Unmarshal(data, &env)

	if status < 200 || status > 299 {
		msg := env.Error
		if jsonErr != nil || msg == "" {
			msg = http.StatusText(status)
		}
		return &Error{Status: status, Message: msg}
	}
	if jsonErr != nil {
		return fmt.Errorf("decode response: %w", jsonErr)
	}
	if env.Success != nil && !*env.Success {
		msg := env.Error
		if msg == "" {
			msg = "request failed"
		}
		return &Error{Status: status, Message: msg}
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
