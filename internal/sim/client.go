package sim

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
	"time"

	"github.com/okian/dojo/internal/adapters/repository"
	"github.com/okian/dojo/internal/domain/session"
	"github.com/okian/dojo/internal/domain/types"
)

// Client talks to the dojo HTTP API.
type Client struct {
	http    *http.Client
	baseURL string
}

// NewClient creates a client with a per-request timeout.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		http:    &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// Health checks GET /healthz.
func (c *Client) Health(ctx context.Context) error {
	if err := c.do(ctx, http.MethodGet, "/healthz", nil, nil, http.StatusOK); err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	return nil
}

// CreateSession opens a session and returns its ID.
func (c *Client) CreateSession(ctx context.Context, req types.CreateSessionRequest) (string, error) {
	var resp types.SessionResponse
	if err := c.do(ctx, http.MethodPost, "/sessions", req, &resp, http.StatusCreated); err != nil {
		return "", err
	}
	return resp.ID, nil
}

// DeleteSession closes a session.
func (c *Client) DeleteSession(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/sessions/"+url.PathEscape(id), nil, nil, http.StatusNoContent)
}

// SubmitFrames posts one batch of frames.
func (c *Client) SubmitFrames(ctx context.Context, id string, frames []types.FrameInput) (types.FramesResponse, error) {
	var resp types.FramesResponse
	err := c.do(ctx, http.MethodPost, "/sessions/"+url.PathEscape(id)+"/frames",
		types.FrameBatch{Frames: frames}, &resp, http.StatusAccepted)
	return resp, err
}

// End closes the session's recording and returns its report.
func (c *Client) End(ctx context.Context, id string) (session.Report, error) {
	var r session.Report
	err := c.do(ctx, http.MethodPost, "/sessions/"+url.PathEscape(id)+"/end", nil, &r, http.StatusOK)
	return r, err
}

type eventsPage struct {
	Events []repository.Record `json:"events"`
	Next   uint64              `json:"next"`
}

// Events returns every retained record after since, following the cursor
// until the log is exhausted.
func (c *Client) Events(ctx context.Context, id string, since uint64) ([]repository.Record, error) {
	var out []repository.Record
	for {
		var page eventsPage
		path := "/sessions/" + url.PathEscape(id) + "/events?since=" + strconv.FormatUint(since, 10)
		if err := c.do(ctx, http.MethodGet, path, nil, &page, http.StatusOK); err != nil {
			return nil, err
		}
		if len(page.Events) == 0 {
			return out, nil
		}
		out = append(out, page.Events...)
		since = page.Next
	}
}

// IsBackpressure reports whether err is a 429 from the service.
func IsBackpressure(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == http.StatusTooManyRequests
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, want int) error {
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rd)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%s %s: read body: %w", method, path, err)
	}
	if resp.StatusCode != want {
		return &StatusError{Method: method, Path: path, Code: resp.StatusCode, Body: string(bytes.TrimSpace(data))}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%s %s: decode: %w", method, path, err)
	}
	return nil
}
