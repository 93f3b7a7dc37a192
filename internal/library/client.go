package library

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"manganime/pkg/models"
)

// RemoteStore is the remote half of the library: may be slow or unavailable,
// in which case the device cache carries the session.
type RemoteStore interface {
	FetchAll(ctx context.Context) ([]models.LibraryItem, error)
	Push(ctx context.Context, item models.LibraryItem) error
	Remove(ctx context.Context, contentType, contentID string) error
}

// Client talks to the server's library endpoints with a bearer token.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

// NewClient creates a remote library client.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

type libraryEnvelope struct {
	Success bool                 `json:"success"`
	Error   string               `json:"error"`
	Data    []models.LibraryItem `json:"data"`
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return nil, models.ErrInvalidToken
	}
	if resp.StatusCode >= 400 {
		var envelope libraryEnvelope
		if json.Unmarshal(raw, &envelope) == nil && envelope.Error != "" {
			return nil, fmt.Errorf("remote store: %s", envelope.Error)
		}
		return nil, fmt.Errorf("remote store: status %d", resp.StatusCode)
	}
	return raw, nil
}

// FetchAll retrieves the remote library
func (c *Client) FetchAll(ctx context.Context) ([]models.LibraryItem, error) {
	raw, err := c.do(ctx, http.MethodGet, "/api/v1/users/library", nil)
	if err != nil {
		return nil, err
	}
	var envelope libraryEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("decode library response: %w", err)
	}
	return envelope.Data, nil
}

// Push upserts one item on the remote store
func (c *Client) Push(ctx context.Context, item models.LibraryItem) error {
	_, err := c.do(ctx, http.MethodPut, "/api/v1/users/library", item)
	return err
}

// Remove deletes one item from the remote store
func (c *Client) Remove(ctx context.Context, contentType, contentID string) error {
	path := fmt.Sprintf("/api/v1/users/library/%s/%s",
		url.PathEscape(contentType), url.PathEscape(contentID))
	_, err := c.do(ctx, http.MethodDelete, path, nil)
	return err
}
