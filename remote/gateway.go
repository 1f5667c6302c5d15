// Package remote is the typed channel to the remote store's
// per-collection operations: select-all, insert, partial update,
// delete, and a change-notification subscription. No retry logic
// lives here; failures are reported upward.
package remote

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
)

// ChangeHandler receives decoded change notifications in delivery order.
type ChangeHandler func(collection string, payload []byte)

// Gateway defines the remote operations the synchronization core needs.
type Gateway interface {
	FetchAll(ctx context.Context, collection string) ([]map[string]any, error)
	Insert(ctx context.Context, collection string, record map[string]any) (map[string]any, error)
	Update(ctx context.Context, collection string, id string, updates map[string]any) error
	Delete(ctx context.Context, collection string, id string) error
	Subscribe(ctx context.Context, collection string, handler ChangeHandler) (Subscription, error)
}

// Client talks to the remote store over its REST surface and listens
// for change notifications on one pub/sub channel per collection.
type Client struct {
	baseURL       string
	apiKey        string
	http          *http.Client
	redis         *redis.Client
	channelPrefix string
}

// New creates a Client. The channel prefix is prepended to the
// collection name to form the pub/sub channel, e.g. "changes:tasks".
func New(baseURL, apiKey string, rc *redis.Client, channelPrefix string) *Client {
	if channelPrefix == "" {
		channelPrefix = "changes:"
	}
	return &Client{
		baseURL:       strings.TrimRight(baseURL, "/"),
		apiKey:        apiKey,
		http:          &http.Client{Timeout: 30 * time.Second},
		redis:         rc,
		channelPrefix: channelPrefix,
	}
}

// FetchAll retrieves every record in the collection, in remote shape.
func (c *Client) FetchAll(ctx context.Context, collection string) ([]map[string]any, error) {
	req, err := c.newRequest(ctx, http.MethodGet, collection+"?select=*", nil)
	if err != nil {
		return nil, err
	}
	var records []map[string]any
	if err := c.do(req, &records); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", collection, err)
	}
	return records, nil
}

// Insert creates a record and returns the stored representation,
// including the id the remote store assigned.
func (c *Client) Insert(ctx context.Context, collection string, record map[string]any) (map[string]any, error) {
	body, err := sonic.Marshal([]map[string]any{record})
	if err != nil {
		return nil, err
	}
	req, err := c.newRequest(ctx, http.MethodPost, collection, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Prefer", "return=representation")
	var inserted []map[string]any
	if err := c.do(req, &inserted); err != nil {
		return nil, fmt.Errorf("insert into %s: %w", collection, err)
	}
	if len(inserted) == 0 {
		return nil, fmt.Errorf("insert into %s: empty representation", collection)
	}
	return inserted[0], nil
}

// Update applies a partial update to the record with the given id.
func (c *Client) Update(ctx context.Context, collection, id string, updates map[string]any) error {
	body, err := sonic.Marshal(updates)
	if err != nil {
		return err
	}
	req, err := c.newRequest(ctx, http.MethodPatch, collection+"?id=eq."+url.QueryEscape(id), body)
	if err != nil {
		return err
	}
	if err := c.do(req, nil); err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	return nil
}

// Delete removes the record with the given id.
func (c *Client) Delete(ctx context.Context, collection, id string) error {
	req, err := c.newRequest(ctx, http.MethodDelete, collection+"?id=eq."+url.QueryEscape(id), nil)
	if err != nil {
		return err
	}
	if err := c.do(req, nil); err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body []byte) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/"+path, reader)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("remote store returned %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if out == nil {
		return nil
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	return sonic.Unmarshal(data, out)
}
