// Package api is the HTTP client for the goals service. Every call carries a
// bearer token from the injected auth.Session; failures are classified into
// the error kinds of the errors package.
package api

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

	"github.com/julianstephens/goaltrack/internal/auth"
	"github.com/julianstephens/goaltrack/internal/constants"
	apperrors "github.com/julianstephens/goaltrack/internal/errors"
	"github.com/julianstephens/goaltrack/internal/logger"
)

const maxResponseBytes = 4 << 20

// Capabilities lists optional endpoints the remote is known to support.
type Capabilities struct {
	// RangeCompletions means GET /me/completions accepts start/end.
	RangeCompletions bool
	// HabitSuggestions means POST /me/goals/suggestions is available.
	HabitSuggestions bool
}

// Config configures a Client.
type Config struct {
	BaseURL      string
	HTTPClient   *http.Client
	Timeout      time.Duration
	Retry        RetryOptions
	Capabilities Capabilities
}

// Client talks to the goals service.
type Client struct {
	baseURL *url.URL
	http    *http.Client
	session auth.Session
	retry   RetryOptions
	caps    Capabilities
}

// New creates a client. A nil session behaves as signed out.
func New(cfg Config, session auth.Session) (*Client, error) {
	raw := strings.TrimSpace(cfg.BaseURL)
	if raw == "" {
		raw = constants.DefaultAPIBaseURL
	}
	base, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid api base url %q: %w", raw, err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("invalid api base url %q: scheme must be http or https", raw)
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = constants.DefaultHTTPTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	if session == nil {
		session = auth.NoSession{}
	}

	return &Client{
		baseURL: base,
		http:    httpClient,
		session: session,
		retry:   cfg.Retry,
		caps:    cfg.Capabilities,
	}, nil
}

// Capabilities reports the configured optional endpoints.
func (c *Client) Capabilities() Capabilities {
	return c.caps
}

// Session returns the credentials the client authenticates with.
func (c *Client) Session() auth.Session {
	return c.session
}

// KindForStatus classifies a non-2xx HTTP status.
func KindForStatus(status int) apperrors.Kind {
	switch {
	case status == http.StatusNotFound:
		return apperrors.KindNotFound
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return apperrors.KindAuth
	case status == http.StatusRequestTimeout, status == http.StatusTooManyRequests, status >= 500:
		return apperrors.KindNetwork
	default:
		return apperrors.KindConflictOrUnknown
	}
}

// request describes one call against the goals service.
type request struct {
	op       string
	method   string
	path     string
	query    url.Values
	body     any
	out      any
	notFound string
}

// read performs an idempotent request with bounded retry on network errors.
func (c *Client) read(ctx context.Context, r request) error {
	return withRetry(ctx, r.op, func() error { return c.do(ctx, r) }, c.retry)
}

// write performs a mutation. Mutations are never retried.
func (c *Client) write(ctx context.Context, r request) error {
	return c.do(ctx, r)
}

func (c *Client) do(ctx context.Context, r request) error {
	token, err := c.session.Token(ctx)
	if err != nil {
		if apperrors.Is(err, apperrors.KindAuth) {
			return err
		}
		return apperrors.Wrap(apperrors.KindAuth, r.op, err)
	}

	u := *c.baseURL
	u.Path = c.baseURL.Path + r.path
	if len(r.query) > 0 {
		u.RawQuery = r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		data, err := json.Marshal(r.body)
		if err != nil {
			return apperrors.Wrap(apperrors.KindValidation, r.op, fmt.Errorf("failed to encode request: %w", err))
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u.String(), body)
	if err != nil {
		return apperrors.Wrap(apperrors.KindConflictOrUnknown, r.op, fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set(constants.BearerTokenHeader, constants.BearerTokenPrefix+token)
	req.Header.Set("Accept", constants.JSONContentType)
	if body != nil {
		req.Header.Set("Content-Type", constants.JSONContentType)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		logger.Debug("Request failed", "op", r.op, "method", r.method, "path", r.path, "error", err)
		return &apperrors.Error{Kind: apperrors.KindNetwork, Op: r.op, Message: "goals service unreachable", Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return &apperrors.Error{Kind: apperrors.KindNetwork, Op: r.op, Status: resp.StatusCode, Message: "failed to read response", Err: err}
	}

	logger.Debug("Request completed",
		"op", r.op,
		"method", r.method,
		"path", r.path,
		"status", resp.StatusCode,
		"duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := errorMessage(data)
		if resp.StatusCode == http.StatusNotFound && r.notFound != "" {
			msg = r.notFound
		}
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return &apperrors.Error{Kind: KindForStatus(resp.StatusCode), Op: r.op, Status: resp.StatusCode, Message: msg}
	}

	if r.out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, r.out); err != nil {
		return &apperrors.Error{Kind: apperrors.KindConflictOrUnknown, Op: r.op, Status: resp.StatusCode, Message: "unexpected response body", Err: err}
	}
	return nil
}

// errorMessage extracts a human-readable message from an error body.
func errorMessage(data []byte) string {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return ""
	}

	var payload struct {
		Detail  any    `json:"detail"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(data, &payload); err == nil {
		if s, ok := payload.Detail.(string); ok && s != "" {
			return s
		}
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
		if payload.Detail != nil {
			if b, err := json.Marshal(payload.Detail); err == nil {
				return string(b)
			}
		}
		return ""
	}

	msg := string(data)
	if len(msg) > 200 {
		msg = msg[:200]
	}
	return msg
}

// decodeCollection accepts either a bare JSON array or an object wrapping the
// array under key.
func decodeCollection[T any](raw json.RawMessage, key string) ([]T, error) {
	raw = bytes.TrimSpace(raw)
	out := []T{}
	if len(raw) == 0 || string(raw) == "null" {
		return out, nil
	}
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &out); err != nil {
			return nil, err
		}
		return out, nil
	}

	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, err
	}
	inner, ok := wrapped[key]
	if !ok {
		return nil, fmt.Errorf("response has no %q field", key)
	}
	return decodeCollection[T](inner, key)
}

// Ping checks that the goals service answers HTTP at all. It does not
// authenticate.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL.String()+"/", nil)
	if err != nil {
		return apperrors.Wrap(apperrors.KindConflictOrUnknown, "ping", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return &apperrors.Error{Kind: apperrors.KindNetwork, Op: "ping", Message: "goals service unreachable", Err: err}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
	if resp.StatusCode >= 500 {
		return &apperrors.Error{Kind: apperrors.KindNetwork, Op: "ping", Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	}
	return nil
}
