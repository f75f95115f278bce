package playersync

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"reelhouse/models"
	"reelhouse/utils/entities"
)

// APIError is a structured error answer from the progress API.
type APIError struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Message)
}

// IsNotFound reports whether the error is a structured 404. The controller
// treats it as "the remote record vanished" and falls back to create.
func IsNotFound(err error) bool {
	apiErr, ok := errAsAPIError(err)
	return ok && apiErr.Status == http.StatusNotFound
}

func errAsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// ProgressAPI is the remote watch-progress surface the controller writes
// through.
type ProgressAPI interface {
	ListProgress(ctx context.Context) ([]models.WatchProgress, error)
	CreateProgress(ctx context.Context, input models.WatchProgressInput) (models.WatchProgress, error)
	UpdateProgress(ctx context.Context, id string, input models.WatchProgressInput) (models.WatchProgress, error)
}

// ContentAPI resolves a media reference to its catalogue entity, giving the
// controller the loaded entity's identifiers for record matching.
type ContentAPI interface {
	GetMedia(ctx context.Context, ref models.MediaRef) (entities.Entity, error)
}

// Client is the HTTP implementation of ProgressAPI against the Reelhouse
// progress endpoints.
type Client struct {
	baseURL string
	httpc   *http.Client
	session SessionProvider
}

// NewClient creates a progress API client for the given API base URL.
func NewClient(baseURL string, session SessionProvider) *Client {
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: 15 * time.Second},
		session: session,
	}
}

var _ ProgressAPI = (*Client)(nil)

// ListProgress fetches the caller's full progress collection.
func (c *Client) ListProgress(ctx context.Context) ([]models.WatchProgress, error) {
	var out []models.WatchProgress
	if err := c.do(ctx, http.MethodGet, "/watch-progresses", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateProgress writes a new record.
func (c *Client) CreateProgress(ctx context.Context, input models.WatchProgressInput) (models.WatchProgress, error) {
	var out models.WatchProgress
	if err := c.do(ctx, http.MethodPost, "/watch-progresses", input, &out); err != nil {
		return models.WatchProgress{}, err
	}
	return out, nil
}

// UpdateProgress mutates an existing record. A vanished record surfaces as
// a structured 404 recognizable via IsNotFound.
func (c *Client) UpdateProgress(ctx context.Context, id string, input models.WatchProgressInput) (models.WatchProgress, error) {
	var out models.WatchProgress
	if err := c.do(ctx, http.MethodPut, "/watch-progresses/"+url.PathEscape(id), input, &out); err != nil {
		return models.WatchProgress{}, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode payload: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.session != nil {
		if token, ok := c.session.Token(); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var structured struct {
			Status  int    `json:"status"`
			Message string `json:"message"`
		}
		if jsonErr := json.Unmarshal(raw, &structured); jsonErr == nil && structured.Message != "" {
			apiErr.Message = structured.Message
			if structured.Status != 0 {
				apiErr.Status = structured.Status
			}
		}
		return apiErr
	}

	if out == nil || len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
