// Package client talks to a running leaderboard server over HTTP.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/okian/witarcade/internal/domain/model"
	"github.com/okian/witarcade/internal/domain/types"
)

// Errors returned by the client. Validation failures wrap the model errors
// so callers can treat local and remote leaderboards alike.
var (
	ErrUnavailable = errors.New("leaderboard unavailable")
	ErrConflict    = errors.New("submission in progress")
	ErrUnexpected  = errors.New("unexpected response")
)

const (
	defaultTimeout = 10 * time.Second
	maxErrorBody   = 4 << 10
)

// Client is a leaderboard HTTP client.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// New creates a client for baseURL, e.g. http://localhost:3001.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Result describes a POST /api/leaderboard response.
type Result struct {
	ID       string
	Replayed bool
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SubmitScore posts a submission and returns the new entry id.
func (c *Client) SubmitScore(ctx context.Context, sub model.Submission) (string, error) {
	r, err := c.Submit(ctx, "", sub)
	return r.ID, err
}

// Submit posts a submission with an optional idempotency key.
func (c *Client) Submit(ctx context.Context, key string, sub model.Submission) (Result, error) {
	body, err := json.Marshal(sub)
	if err != nil {
		return Result{}, fmt.Errorf("marshal submission: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/leaderboard", bytes.NewReader(body))
	if err != nil {
		return Result{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if key != "" {
		req.Header.Set("Idempotency-Key", key)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		return Result{}, decodeError(resp)
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrUnexpected, err)
	}
	return Result{ID: out.ID, Replayed: resp.Header.Get("Idempotent-Replayed") == "true"}, nil
}

// ListLeaderboard fetches the best entries. limit <= 0 lets the server pick.
func (c *Client) ListLeaderboard(ctx context.Context, limit int) ([]types.Entry, error) {
	u := c.baseURL + "/api/leaderboard"
	if limit > 0 {
		u += "?" + url.Values{"limit": {strconv.Itoa(limit)}}.Encode()
	}
	return c.ListRaw(ctx, u)
}

// ListRaw fetches a leaderboard URL verbatim, for probing odd limit values.
func (c *Client) ListRaw(ctx context.Context, u string) ([]types.Entry, error) {
	if strings.HasPrefix(u, "/") {
		u = c.baseURL + u
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp)
	}
	var out struct {
		Entries []types.Entry `json:"entries"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnexpected, err)
	}
	return out.Entries, nil
}

// Ping checks that the server answers /healthz.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/healthz", http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	var body errorBody
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	_ = json.Unmarshal(raw, &body)

	switch {
	case body.Code == "consent_required":
		return fmt.Errorf("%w: %s", model.ErrConsentRequired, body.Message)
	case body.Code == "invalid_payload":
		return fmt.Errorf("%w: %s", model.ErrInvalidPayload, body.Message)
	case resp.StatusCode == http.StatusConflict:
		return fmt.Errorf("%w: %s", ErrConflict, body.Message)
	case resp.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	default:
		return fmt.Errorf("%w: status %d: %s", ErrUnexpected, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
}
