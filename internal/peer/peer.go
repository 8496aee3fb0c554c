// Package peer is the HTTP client one service uses to reach the other.
package peer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"lrusvc/internal/config"
	"lrusvc/internal/store"
)

// ErrNotFound is returned when the peer answers 404.
var ErrNotFound = errors.New("peer: not found")

// StatusError is returned for any other non-2xx answer.
type StatusError struct {
	URL    string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("peer %s: status %d: %s", e.URL, e.Status, e.Body)
}

// maxErrorBody caps how much of an error response is kept.
const maxErrorBody = 512

type Client struct {
	peer config.Peer
	http *http.Client
}

// New returns a client for p. A nil hc uses a client with a 10s timeout.
func New(p config.Peer, hc *http.Client) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{peer: p, http: hc}
}

// Post fetches a post from the posts service.
func (c *Client) Post(ctx context.Context, id string) (store.Post, error) {
	var post store.Post
	err := c.getJSON(ctx, "/"+url.PathEscape(id), &post)
	return post, err
}

// Comments fetches the comments of a post from the comments service.
func (c *Client) Comments(ctx context.Context, postID string) ([]store.Comment, error) {
	var comments []store.Comment
	if err := c.getJSON(ctx, "/"+url.PathEscape(postID), &comments); err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []store.Comment{}
	}
	return comments, nil
}

func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	resource := c.peer.URL(path)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resource, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("peer %s: %w", resource, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{URL: resource, Status: resp.StatusCode, Body: string(body)}
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("peer %s: decode: %w", resource, err)
	}
	return nil
}
