// Package onft talks to the external NFT ledger that holds channel ownership
// tokens and published media tokens.
package onft

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"channeld/native/channel"
)

const defaultTimeout = 5 * time.Second

// Client queries token ownership over the ledger's HTTP API. It implements
// channel.OwnershipLedger.
type Client struct {
	baseURL string
	httpc   *http.Client
}

// Option customises the client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) {
		if httpc != nil {
			c.httpc = httpc
		}
	}
}

// NewClient builds a ledger client against baseURL.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type tokenResponse struct {
	Owner string `json:"owner"`
}

// TokenOwner returns the current holder of the token. Missing tokens map to
// channel.ErrOnftNotFound; transport and server failures are returned as-is so
// callers never mistake an outage for an ownership verdict.
func (c *Client) TokenOwner(collectionID, tokenID string) (string, error) {
	return c.TokenOwnerContext(context.Background(), collectionID, tokenID)
}

// TokenOwnerContext is TokenOwner with caller-controlled cancellation.
func (c *Client) TokenOwnerContext(ctx context.Context, collectionID, tokenID string) (string, error) {
	endpoint := fmt.Sprintf("%s/collections/%s/tokens/%s",
		c.baseURL, url.PathEscape(collectionID), url.PathEscape(tokenID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", fmt.Errorf("onft: query %s/%s: %w", collectionID, tokenID, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		return "", fmt.Errorf("%w: %s/%s", channel.ErrOnftNotFound, collectionID, tokenID)
	default:
		return "", fmt.Errorf("onft: query %s/%s: unexpected status %d", collectionID, tokenID, resp.StatusCode)
	}

	var body tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("onft: decode response: %w", err)
	}
	if body.Owner == "" {
		return "", fmt.Errorf("%w: %s/%s", channel.ErrOnftNotFound, collectionID, tokenID)
	}
	return body.Owner, nil
}

var _ channel.OwnershipLedger = (*Client)(nil)
