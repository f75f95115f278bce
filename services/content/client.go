// Package content is the HTTP client for the catalogue API. Responses are
// decoded through the entity normalizer so the caller never sees the
// envelope or relation-wrapper shapes.
package content

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/avast/retry-go/v4"

	"reelhouse/models"
	"reelhouse/utils/entities"
	"reelhouse/utils/ident"
)

var ErrNotFound = errors.New("catalogue entity not found")

// TokenSource supplies the bearer token attached to catalogue requests.
type TokenSource interface {
	Token() (string, bool)
}

// Client fetches catalogue entities.
type Client struct {
	baseURL string
	httpc   *http.Client
	tokens  TokenSource
}

// NewClient creates a catalogue client for the given API base URL, e.g.
// "http://127.0.0.1:8585/api".
func NewClient(baseURL string, tokens TokenSource) *Client {
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: 15 * time.Second},
		tokens:  tokens,
	}
}

// GetMovies fetches one page of the movie collection.
func (c *Client) GetMovies(ctx context.Context, page, pageSize int) ([]entities.Entity, error) {
	return c.getCollection(ctx, "/movies", page, pageSize)
}

// GetSeries fetches one page of the series collection.
func (c *Client) GetSeries(ctx context.Context, page, pageSize int) ([]entities.Entity, error) {
	return c.getCollection(ctx, "/series", page, pageSize)
}

// GetMovieByID fetches a single movie by numeric or document id.
func (c *Client) GetMovieByID(ctx context.Context, id ident.ID) (entities.Entity, error) {
	return c.getOne(ctx, "/movies/"+url.PathEscape(id.String()))
}

// GetEpisodeByID fetches a single episode by numeric or document id.
func (c *Client) GetEpisodeByID(ctx context.Context, id ident.ID) (entities.Entity, error) {
	return c.getOne(ctx, "/episodes/"+url.PathEscape(id.String()))
}

// GetMedia resolves a media reference to its catalogue entity.
func (c *Client) GetMedia(ctx context.Context, ref models.MediaRef) (entities.Entity, error) {
	id := ref.Display
	if id.IsZero() {
		id = ref.Relation
	}
	if ref.Kind == models.KindEpisode {
		return c.GetEpisodeByID(ctx, id)
	}
	return c.GetMovieByID(ctx, id)
}

func (c *Client) getCollection(ctx context.Context, path string, page, pageSize int) ([]entities.Entity, error) {
	q := url.Values{}
	if page > 0 {
		q.Set("page", fmt.Sprint(page))
	}
	if pageSize > 0 {
		q.Set("pageSize", fmt.Sprint(pageSize))
	}
	target := c.baseURL + path
	if encoded := q.Encode(); encoded != "" {
		target += "?" + encoded
	}

	raw, err := c.get(ctx, target)
	if err != nil {
		return nil, err
	}
	return entities.Decode(raw), nil
}

func (c *Client) getOne(ctx context.Context, path string) (entities.Entity, error) {
	raw, err := c.get(ctx, c.baseURL+path)
	if err != nil {
		return nil, err
	}
	all := entities.Decode(raw)
	if len(all) == 0 {
		return nil, ErrNotFound
	}
	return all[0], nil
}

// get performs a GET with a small retry budget. Reads are idempotent, so
// transient transport failures and 5xx answers are retried; 4xx answers are
// not.
func (c *Client) get(ctx context.Context, target string) ([]byte, error) {
	var body []byte

	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			if c.tokens != nil {
				if token, ok := c.tokens.Token(); ok {
					req.Header.Set("Authorization", "Bearer "+token)
				}
			}

			resp, err := c.httpc.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			switch {
			case resp.StatusCode == http.StatusNotFound:
				return retry.Unrecoverable(ErrNotFound)
			case resp.StatusCode >= 500:
				return fmt.Errorf("catalogue returned %d", resp.StatusCode)
			case resp.StatusCode >= 400:
				return retry.Unrecoverable(fmt.Errorf("catalogue returned %d", resp.StatusCode))
			}

			body, err = io.ReadAll(resp.Body)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(200*time.Millisecond),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return nil, err
	}
	return body, nil
}
