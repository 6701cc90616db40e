// Package gateway issues authenticated calls against the marketplace REST backend.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultTimeout bounds every call that does not configure its own.
	DefaultTimeout = 15 * time.Second

	maxErrorBody = 1 << 20 // 1MB
)

// TokenSource supplies the current bearer token. An empty token means anonymous.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a func to TokenSource.
type TokenFunc func() string

// Token returns f().
func (f TokenFunc) Token() string { return f() }

// Config configures a Gateway.
type Config struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Actions    *Actions
	// Scope prefixes action keys so one Actions registry can serve many clients.
	Scope  string
	Logger *slog.Logger
}

// Request describes one backend call.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any
	Header http.Header
	// Action names the UI action that triggered the call. A newer call with the
	// same action cancels this one.
	Action string
	// Anonymous calls send no bearer token and never trigger session teardown.
	Anonymous bool
}

// UnauthorizedFunc is told which token the backend rejected with a 401.
type UnauthorizedFunc func(ctx context.Context, rejectedToken string)

// Gateway attaches bearer auth to outbound calls and centralises 401 handling.
// It never retries.
type Gateway struct {
	baseURL        string
	timeout        time.Duration
	client         *http.Client
	actions        *Actions
	scope          string
	tokens         TokenSource
	onUnauthorized UnauthorizedFunc
	logger         *slog.Logger
}

// NewHTTPClient returns the pooled client shared by gateways.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 20,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// New creates a Gateway. onUnauthorized runs whenever an authenticated call gets a 401.
func New(cfg Config, tokens TokenSource, onUnauthorized UnauthorizedFunc) *Gateway {
	g := &Gateway{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		timeout:        cfg.Timeout,
		client:         cfg.HTTPClient,
		actions:        cfg.Actions,
		scope:          cfg.Scope,
		tokens:         tokens,
		onUnauthorized: onUnauthorized,
		logger:         cfg.Logger,
	}
	if g.timeout <= 0 {
		g.timeout = DefaultTimeout
	}
	if g.client == nil {
		g.client = NewHTTPClient()
	}
	if g.actions == nil {
		g.actions = NewActions()
	}
	if g.tokens == nil {
		g.tokens = TokenFunc(func() string { return "" })
	}
	if g.logger == nil {
		g.logger = slog.Default()
	}
	return g
}

// Do performs a JSON call and decodes a 2xx body into out (when non-nil).
func (g *Gateway) Do(ctx context.Context, r Request, out any) error {
	var body io.Reader
	if r.Body != nil {
		data, err := json.Marshal(r.Body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	return g.roundTrip(ctx, r, body, contentTypeFor(r.Body), func(resp *http.Response) error {
		if out == nil || resp.StatusCode == http.StatusNoContent {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("decoding response: %w", err)
		}
		return nil
	})
}

// Upload sends file as a multipart form field and decodes the JSON response into out.
func (g *Gateway) Upload(ctx context.Context, path, field, filename string, file io.Reader, out any) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	part, err := mw.CreateFormFile(field, filename)
	if err != nil {
		return fmt.Errorf("creating form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("reading upload: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("closing multipart body: %w", err)
	}

	r := Request{Method: http.MethodPost, Path: path, Action: "upload:" + field}
	return g.roundTrip(ctx, r, &buf, mw.FormDataContentType(), func(resp *http.Response) error {
		if out == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("decoding response: %w", err)
		}
		return nil
	})
}

// Download streams a binary response body into w and returns the server-suggested filename.
func (g *Gateway) Download(ctx context.Context, path string, w io.Writer) (string, error) {
	var filename string
	r := Request{Method: http.MethodGet, Path: path, Action: "download:" + path}
	err := g.roundTrip(ctx, r, nil, "", func(resp *http.Response) error {
		if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil {
			filename = params["filename"]
		}
		if _, err := io.Copy(w, resp.Body); err != nil {
			return fmt.Errorf("reading download: %w", err)
		}
		return nil
	})
	return filename, err
}

// Ping checks that the backend answers at path. Any HTTP response counts as reachable.
func (g *Gateway) Ping(ctx context.Context, path string) error {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+path, nil)
	if err != nil {
		return &ConnectivityError{BaseURL: g.baseURL, Err: err}
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return &ConnectivityError{BaseURL: g.baseURL, Err: err}
	}
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxErrorBody))
	resp.Body.Close()
	return nil
}

func (g *Gateway) roundTrip(ctx context.Context, r Request, body io.Reader, contentType string, handle func(*http.Response) error) error {
	actionKey := ""
	if r.Action != "" {
		actionKey = g.scope + ":" + r.Action
	}
	ctx, release := g.actions.Begin(ctx, actionKey)
	defer release()

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	token := ""
	if !r.Anonymous {
		token = g.tokens.Token()
	}
	req, err := g.newRequest(ctx, r, token, body, contentType)
	if err != nil {
		return err
	}

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		return g.transportError(ctx, err)
	}
	defer resp.Body.Close()

	g.logger.DebugContext(ctx, "backend call",
		"method", req.Method,
		"path", r.Path,
		"status", resp.StatusCode,
		"latency_ms", time.Since(start).Milliseconds(),
		"request_id", req.Header.Get("X-Request-ID"))

	if err := g.check(ctx, r, token, resp); err != nil {
		return err
	}
	if errors.Is(context.Cause(ctx), ErrSuperseded) {
		return ErrSuperseded
	}
	if err := handle(resp); err != nil {
		if ctx.Err() != nil {
			return g.transportError(ctx, err)
		}
		return err
	}
	return nil
}

func (g *Gateway) newRequest(ctx context.Context, r Request, token string, body io.Reader, contentType string) (*http.Request, error) {
	target := g.baseURL + r.Path
	if len(r.Query) > 0 {
		target += "?" + r.Query.Encode()
	}

	method := r.Method
	if method == "" {
		method = http.MethodGet
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, vs := range r.Header {
		req.Header.Del(k)
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	return req, nil
}

// check maps non-2xx responses to errors. A 401 on an authenticated call tears the
// session that sent token down before returning ErrUnauthorized.
func (g *Gateway) check(ctx context.Context, r Request, token string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

	if resp.StatusCode == http.StatusUnauthorized && !r.Anonymous {
		g.logger.InfoContext(ctx, "backend rejected session token", "path", r.Path)
		if g.onUnauthorized != nil {
			g.onUnauthorized(context.WithoutCancel(ctx), token)
		}
		return ErrUnauthorized
	}

	return &RequestError{Status: resp.StatusCode, Message: parseErrorMessage(resp.StatusCode, data)}
}

// transportError classifies a failure to obtain or read a response.
func (g *Gateway) transportError(ctx context.Context, err error) error {
	switch cause := context.Cause(ctx); {
	case errors.Is(cause, ErrSuperseded):
		return ErrSuperseded
	case errors.Is(cause, context.Canceled):
		return context.Canceled
	}
	return &ConnectivityError{BaseURL: g.baseURL, Err: err}
}

func contentTypeFor(body any) string {
	if body == nil {
		return ""
	}
	return "application/json"
}
