// Package api is the base HTTP client for the playground service.
//
// Every endpoint the service exposes wraps its payload in the same JSON
// envelope:
//
//	{"status": "success", "data": {...}}
//	{"status": "error", "message": "what went wrong"}
//
// This package owns decoding that envelope and translating HTTP outcomes
// into the apperror taxonomy. The components above it (session, snippet,
// execute, history) never look at status codes — they classify errors with
// errors.Is and read the payload structs.
//
// CREDENTIAL THREADING:
// The bearer token is NOT a process-global default header. The client holds
// a TokenSource and asks it for the current token on every authenticated
// request. The session manager is the only TokenSource implementation, so a
// request issued after logout reads the cleared token and goes out
// anonymous — there is no stale cached credential to leak.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sakif/playground-cli/internal/apperror"
)

// TokenSource supplies the current bearer token, or "" when the session is
// anonymous. Implementations must reflect logout immediately.
type TokenSource interface {
	Token() string
}

// StaticToken is a fixed-value TokenSource. Useful in tests and for the
// anonymous source (StaticToken("")).
type StaticToken string

func (t StaticToken) Token() string { return string(t) }

// envelope is the wire wrapper every endpoint uses.
type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Client issues requests against one playground service.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	logger  *slog.Logger
}

// New creates a Client for the service at baseURL. tokens may be
// StaticToken("") for a purely anonymous client.
func New(baseURL string, tokens TokenSource, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		tokens:  tokens,
		logger:  logger,
	}
}

// WithHTTPClient swaps the underlying http.Client. Tests use this to inject
// httptest transports or tighter timeouts.
func (c *Client) WithHTTPClient(h *http.Client) *Client {
	c.http = h
	return c
}

// BaseURL returns the configured service root.
func (c *Client) BaseURL() string { return c.baseURL }

// Get issues an authenticated GET and unmarshals the envelope's data field
// into out (which may be nil to discard it).
func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out, true)
}

// Post issues an authenticated POST with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out, true)
}

// Put issues an authenticated PUT with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, body, out, true)
}

// Delete issues an authenticated DELETE.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil, true)
}

// GetPublic issues an unauthenticated GET. Share-token resolution uses this:
// it must not attach a session credential even when one exists.
func (c *Client) GetPublic(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out, false)
}

// PostPublic issues an unauthenticated POST. Anonymous execution from a
// shared view uses this.
func (c *Client) PostPublic(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out, false)
}

// do runs one request/response cycle and maps the outcome onto the
// apperror taxonomy:
//
//	network failure          → ErrTransport (generic, retryable)
//	401                      → ErrAuth (session manager resets on this)
//	404                      → ErrNotFound
//	409                      → ErrConflict
//	other non-2xx            → ErrTransport with the server message if any
//	2xx, status != "success" → ErrTransport with the server message
//	2xx, status == "success" → data unmarshalled into out
func (c *Client) do(ctx context.Context, method, path string, body, out any, authed bool) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("api: encoding %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("api: building %s %s: %w", method, path, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		// Re-read the token on every call — never cache it past logout.
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("request failed",
			slog.String("method", method),
			slog.String("path", path),
			slog.String("error", err.Error()),
		)
		return apperror.Transport("", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperror.Transport("", fmt.Errorf("reading response: %w", err))
	}

	c.logger.Debug("request completed",
		slog.String("method", method),
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)

	// The envelope is best-effort on error paths: a proxy 502 may hand back
	// HTML, in which case env stays zero and we fall through to generic
	// transport errors.
	var env envelope
	_ = json.Unmarshal(raw, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return apperror.Unauthorized(env.Message)
		case http.StatusNotFound:
			msg := env.Message
			if msg == "" {
				msg = "not found"
			}
			return &apperror.AppError{Err: apperror.ErrNotFound, Message: msg}
		case http.StatusConflict:
			return apperror.Conflict(env.Message)
		default:
			return apperror.Transport(env.Message,
				fmt.Errorf("unexpected status %d", resp.StatusCode))
		}
	}

	if env.Status != "success" {
		// Structurally a 2xx, but the service reports failure in-band.
		return apperror.Transport(env.Message, nil)
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("api: decoding %s %s response: %w", method, path, err)
		}
	}
	return nil
}
