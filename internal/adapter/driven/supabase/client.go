// Package supabase implements the auth, entry store and account deletion
// ports against a hosted Supabase project (GoTrue, PostgREST and Edge
// Functions).
package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ericfisherdev/vaultpanel/internal/domain/port/driven"
)

// DefaultTimeout bounds every backend round trip as a safety net; callers do
// not cancel backend operations.
const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of a failed response is read for its message.
const maxErrorBody = 64 << 10

// Client is the shared HTTP transport for the hosted backend. Every request
// carries the project's anon key.
type Client struct {
	baseURL    *url.URL
	anonKey    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a Client for the project at baseURL. A nil httpClient
// selects one with DefaultTimeout.
func NewClient(baseURL, anonKey string, httpClient *http.Client, logger *slog.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parsing backend URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("backend URL %q: scheme must be http or https", baseURL)
	}
	if anonKey == "" {
		return nil, fmt.Errorf("backend anon key is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}

	return &Client{
		baseURL:    u,
		anonKey:    anonKey,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// request describes one backend call.
type request struct {
	method string
	path   string
	query  url.Values
	// bearer authorises the call; the anon key is used when empty.
	bearer string
	header http.Header
	body   any
}

// do sends req and decodes a JSON response into out (when non-nil).
// Non-2xx responses are returned as *driven.BackendError.
func (c *Client) do(ctx context.Context, req request, out any) error {
	u := *c.baseURL
	u.Path = c.baseURL.Path + req.path
	if len(req.query) > 0 {
		u.RawQuery = req.query.Encode()
	}

	var body io.Reader
	if req.body != nil {
		b, err := json.Marshal(req.body)
		if err != nil {
			return fmt.Errorf("marshaling %s %s body: %w", req.method, req.path, err)
		}
		body = bytes.NewReader(b)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, u.String(), body)
	if err != nil {
		return fmt.Errorf("creating %s %s request: %w", req.method, req.path, err)
	}
	for k, vs := range req.header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	bearer := req.bearer
	if bearer == "" {
		bearer = c.anonKey
	}
	httpReq.Header.Set("apikey", c.anonKey)
	httpReq.Header.Set("Authorization", "Bearer "+bearer)
	httpReq.Header.Set("Accept", "application/json")
	if req.body != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("%s %s: %w", req.method, req.path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		be := decodeError(resp)
		c.logger.Debug("backend request failed",
			"method", req.method,
			"path", req.path,
			"status", be.Status,
		)
		return be
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return fmt.Errorf("decoding %s %s response: %w", req.method, req.path, err)
	}
	return nil
}

// errorBody covers the error shapes of GoTrue, PostgREST and Edge Functions.
type errorBody struct {
	Msg              string `json:"msg"`
	Message          string `json:"message"`
	ErrorDescription string `json:"error_description"`
	Error            string `json:"error"`
}

func (b errorBody) message() string {
	for _, m := range []string{b.ErrorDescription, b.Msg, b.Message, b.Error} {
		if m != "" {
			return m
		}
	}
	return ""
}

// decodeError extracts the backend-provided message from a failed response.
// An unreadable body yields a BackendError without a message.
func decodeError(resp *http.Response) *driven.BackendError {
	be := &driven.BackendError{Status: resp.StatusCode}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err != nil || len(raw) == 0 {
		return be
	}

	var eb errorBody
	if err := json.Unmarshal(raw, &eb); err != nil {
		return be
	}
	be.Message = eb.message()
	return be
}
