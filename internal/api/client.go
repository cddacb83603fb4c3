// Package api is the authenticated call gateway: every outbound
// request to the style-transfer service passes through the Client,
// which attaches the bearer credential when one is held and collapses
// every unauthorized response into the single AuthRequired condition.
// Callers never branch on raw transport status codes.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	apperrors "github.com/artmixer/atelier/internal/errors"
)

// SessionSource supplies the credential state for outbound calls. The
// session manager implements it; tests substitute a mock.
type SessionSource interface {
	IsAuthenticated() bool
	IsAdmin() bool
	TokenSource() oauth2.TokenSource
}

// Options holds the dependencies for creating a Client.
type Options struct {
	// BaseURL is the service root including any path prefix, without a
	// trailing slash.
	BaseURL string
	Timeout time.Duration
	Session SessionSource
	Logger  *slog.Logger
}

// Client issues requests against the remote service. It keeps two
// underlying HTTP clients: one that signs requests through the oauth2
// transport and a bare one for anonymous calls, chosen per request by
// the live session state.
type Client struct {
	base    string
	session SessionSource
	authed  *http.Client
	anon    *http.Client
	logger  *slog.Logger
}

// New creates a Client.
func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("base URL is required")
	}
	if opts.Session == nil {
		return nil, errors.New("session source is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	return &Client{
		base:    strings.TrimRight(opts.BaseURL, "/"),
		session: opts.Session,
		authed: &http.Client{
			Timeout:   opts.Timeout,
			Transport: &oauth2.Transport{Source: opts.Session.TokenSource()},
		},
		anon:   &http.Client{Timeout: opts.Timeout},
		logger: opts.Logger,
	}, nil
}

// Session exposes the session source for callers gating on auth state.
func (c *Client) Session() SessionSource { return c.session }

func (c *Client) httpClient() *http.Client {
	if c.session.IsAuthenticated() {
		return c.authed
	}
	return c.anon
}

// do issues the request and returns the response body for 2xx results.
// Non-2xx and transport outcomes are mapped to the error taxonomy.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return nil, apperrors.Network("build request", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient().Do(req)
	if err != nil {
		// The oauth2 transport surfaces token source errors here; keep
		// the AuthRequired classification when it does.
		if apperrors.IsAuthRequired(err) {
			return nil, apperrors.AuthRequired("")
		}
		return nil, apperrors.Network(fmt.Sprintf("%s %s failed", method, path), err)
	}
	defer resp.Body.Close() //nolint:errcheck // response body close error is not actionable

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperrors.Network("read response body", err)
	}

	c.logger.DebugContext(ctx, "api call",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"request_id", req.Header.Get("X-Request-ID"))

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode <= 299:
		return data, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, apperrors.AuthRequired(detailMessage(data))
	default:
		return nil, apperrors.Server(detailMessage(data))
	}
}

// detailMessage pulls the displayable message out of an error body.
// The service uses {"detail": ...} for auth errors and {"error": ...}
// elsewhere.
func detailMessage(data []byte) string {
	var body struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return ""
	}
	if body.Detail != "" {
		return body.Detail
	}
	return body.Error
}

// GetJSON fetches path and decodes the response into out.
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	data, err := c.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return err
	}
	return decodeInto(data, out)
}

// GetRaw fetches path and returns the raw response bytes. Used for
// expression queries that operate on the untyped JSON.
func (c *Client) GetRaw(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, http.MethodGet, path, nil, "")
}

// PostJSON sends in as a JSON body and decodes the response into out.
// Either may be nil.
func (c *Client) PostJSON(ctx context.Context, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request body: %w", err)
		}
		body = bytes.NewReader(data)
	}
	data, err := c.do(ctx, http.MethodPost, path, body, "application/json")
	if err != nil {
		return err
	}
	return decodeInto(data, out)
}

// PostMultipart sends a prebuilt multipart body and decodes the
// response into out.
func (c *Client) PostMultipart(ctx context.Context, path string, body io.Reader, contentType string, out any) error {
	data, err := c.do(ctx, http.MethodPost, path, body, contentType)
	if err != nil {
		return err
	}
	return decodeInto(data, out)
}

// Delete issues a DELETE against path.
func (c *Client) Delete(ctx context.Context, path string) error {
	_, err := c.do(ctx, http.MethodDelete, path, nil, "")
	return err
}

func decodeInto(data []byte, out any) error {
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return apperrors.Network("decode response", err)
	}
	return nil
}

// Health checks service liveness via GET /health.
func (c *Client) Health(ctx context.Context) (string, error) {
	var body struct {
		Status string `json:"status"`
	}
	if err := c.GetJSON(ctx, "/health", &body); err != nil {
		return "", err
	}
	return body.Status, nil
}
