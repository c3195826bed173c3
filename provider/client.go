// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/boardvec/core"
)

const (
	defaultPageSize      = 100
	defaultPageDelay     = 100 * time.Millisecond
	defaultBatchSize     = 5
	defaultBatchStagger  = 150 * time.Millisecond
	defaultBatchCooldown = 800 * time.Millisecond
)

// Client talks to the content board API. It paginates channel contents
// and fetches per-block detail in rate-limited batches. The delays are
// tuned to stay under the provider's observed throttling thresholds.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
	logger  *slog.Logger
	pool    *ants.Pool

	pageSize      int
	pageDelay     time.Duration
	batchStagger  time.Duration
	batchCooldown time.Duration

	// One-shot channel cache. A sync resolves the collection and then
	// lists its contents back to back; the second call reuses the
	// channel response instead of hitting the endpoint again.
	channelMu   sync.Mutex
	lastSlug    string
	lastChannel *channelResponse
}

// Option configures a Client.
type Option func(*Client) error

// WithAccessToken sets the bearer token used for private collections.
func WithAccessToken(token string) Option {
	return func(c *Client) error {
		c.token = token
		return nil
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) error {
		if client == nil {
			return fmt.Errorf("http client must not be nil")
		}
		c.http = client
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) error {
		if logger == nil {
			logger = slog.Default()
		}
		c.logger = logger
		return nil
	}
}

// WithRateLimits overrides the inter-page delay, intra-batch stagger,
// and inter-batch cool-down. Used by tests to avoid real waits.
func WithRateLimits(pageDelay, batchStagger, batchCooldown time.Duration) Option {
	return func(c *Client) error {
		if pageDelay < 0 || batchStagger < 0 || batchCooldown < 0 {
			return fmt.Errorf("rate limit durations must be non-negative")
		}
		c.pageDelay = pageDelay
		c.batchStagger = batchStagger
		c.batchCooldown = batchCooldown
		return nil
	}
}

// NewClient creates a content board client for the given API base URL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL is required")
	}

	pool, err := ants.NewPool(defaultBatchSize)
	if err != nil {
		return nil, err
	}

	c := &Client{
		baseURL:       baseURL,
		http:          &http.Client{Timeout: 30 * time.Second},
		logger:        slog.Default().With("component", "board-client"),
		pool:          pool,
		pageSize:      defaultPageSize,
		pageDelay:     defaultPageDelay,
		batchStagger:  defaultBatchStagger,
		batchCooldown: defaultBatchCooldown,
	}

	for _, opt := range opts {
		if optErr := opt(c); optErr != nil {
			pool.Release()
			return nil, optErr
		}
	}

	return c, nil
}

// Close releases the detail-fetch worker pool.
func (c *Client) Close() {
	if c.pool != nil {
		c.pool.Release()
	}
}

// FetchCollection resolves a collection by slug.
func (c *Client) FetchCollection(ctx context.Context, slug string) (*core.Collection, error) {
	ch, err := c.fetchChannel(ctx, slug)
	if err != nil {
		return nil, err
	}

	c.channelMu.Lock()
	c.lastSlug = slug
	c.lastChannel = ch
	c.channelMu.Unlock()

	return ch.toCollection(), nil
}

// takeCachedChannel returns and clears the channel response left by the
// most recent FetchCollection call for slug, if any.
func (c *Client) takeCachedChannel(slug string) *channelResponse {
	c.channelMu.Lock()
	defer c.channelMu.Unlock()
	if c.lastSlug != slug || c.lastChannel == nil {
		return nil
	}
	ch := c.lastChannel
	c.lastSlug = ""
	c.lastChannel = nil
	return ch
}

// FetchAllItems retrieves every block in the collection, requesting
// fixed-size pages until the channel's reported length is exhausted.
// Items come back in provider order.
func (c *Client) FetchAllItems(ctx context.Context, slug string) ([]*core.Item, error) {
	ch := c.takeCachedChannel(slug)
	if ch == nil {
		var err error
		ch, err = c.fetchChannel(ctx, slug)
		if err != nil {
			return nil, err
		}
	}

	collectionID := ch.toCollection().StorageID()
	items := make([]*core.Item, 0, ch.Length)

	for page := 1; len(items) < ch.Length; page++ {
		var resp contentsResponse
		url := fmt.Sprintf("%s/channels/%d/contents?page=%d&per=%d", c.baseURL, ch.ID, page, c.pageSize)
		if err := c.getJSON(ctx, url, &resp); err != nil {
			return nil, fmt.Errorf("failed to fetch page %d: %w", page, err)
		}
		if len(resp.Contents) == 0 {
			// Provider length can overcount deleted blocks.
			break
		}

		for i := range resp.Contents {
			items = append(items, resp.Contents[i].toItem(collectionID))
		}

		if len(items) < ch.Length {
			if err := c.sleep(ctx, c.pageDelay); err != nil {
				return nil, err
			}
		}
	}

	c.logger.Info("fetched collection contents", "slug", slug, "items", len(items))
	return items, nil
}

// FetchItemDetails enriches the items matching typeFilter with data
// that only the per-block endpoint carries, notably the canonical
// source URL. Detail fetches run in size-5 batches with staggered
// starts and a cool-down between batches. A failed detail fetch leaves
// the item with its list-response fields and is logged, never retried.
func (c *Client) FetchItemDetails(ctx context.Context, items []*core.Item, typeFilter core.ContentType) ([]*core.Item, error) {
	var matched []*core.Item
	for _, item := range items {
		if item.Type == typeFilter {
			matched = append(matched, item)
		}
	}
	if len(matched) == 0 {
		return nil, nil
	}

	batchSize := c.pool.Cap()
	for start := 0; start < len(matched); start += batchSize {
		if err := ctx.Err(); err != nil {
			return matched, err
		}

		end := start + batchSize
		if end > len(matched) {
			end = len(matched)
		}
		batch := matched[start:end]

		var wg sync.WaitGroup
		for i, item := range batch {
			wg.Add(1)
			delay := time.Duration(i) * c.batchStagger
			item := item
			submitErr := c.pool.Submit(func() {
				defer wg.Done()
				if delay > 0 {
					if err := c.sleep(ctx, delay); err != nil {
						return
					}
				}
				if err := c.fetchDetail(ctx, item); err != nil {
					c.logger.Warn("detail fetch failed, keeping list data",
						"block", item.ExternalID, "err", err)
				}
			})
			if submitErr != nil {
				wg.Done()
				return matched, submitErr
			}
		}
		wg.Wait()

		if end < len(matched) {
			if err := c.sleep(ctx, c.batchCooldown); err != nil {
				return matched, err
			}
		}
	}

	return matched, nil
}

// fetchDetail merges the per-block payload into item in place.
func (c *Client) fetchDetail(ctx context.Context, item *core.Item) error {
	var block blockResponse
	url := fmt.Sprintf("%s/blocks/%d", c.baseURL, item.ExternalID)
	if err := c.getJSON(ctx, url, &block); err != nil {
		return err
	}

	if url := block.sourceURL(); url != "" {
		item.SourceURL = url
	}
	if url := block.imageURL(); url != "" {
		item.ImageURL = url
	}
	if block.Content != "" {
		item.Content = block.Content
	}
	if block.Description != "" {
		item.Description = block.Description
	}
	if item.Title == "" {
		item.Title = block.Title
	}
	return nil
}

func (c *Client) fetchChannel(ctx context.Context, slug string) (*channelResponse, error) {
	if slug == "" {
		return nil, ErrEmptySlug
	}

	var ch channelResponse
	if err := c.getJSON(ctx, c.baseURL+"/channels/"+slug, &ch); err != nil {
		return nil, fmt.Errorf("failed to fetch channel %q: %w", slug, err)
	}
	return &ch, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrNotFound
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrUnauthorized
	case resp.StatusCode >= 500:
		return fmt.Errorf("%w: HTTP %d", ErrUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("HTTP %d from %s: %s", resp.StatusCode, url, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// sleep waits for d or until the context is cancelled.
func (c *Client) sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
