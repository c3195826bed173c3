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

package extract

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
)

// readerTimeout bounds every document extraction call so a stalled
// reader surfaces as a per-item failure instead of a hung sync.
const readerTimeout = 30 * time.Second

// ReaderClient wraps the article reader service that converts an
// arbitrary URL into plain text. When the service is unreachable the
// client can fall back to fetching the page itself and converting the
// HTML to markdown locally, which loses the reader's boilerplate
// stripping but still yields indexable text.
type ReaderClient struct {
	baseURL   string
	token     string
	http      *http.Client
	converter *converter.Converter
}

// NewReaderClient creates a reader service client. token may be empty;
// the document chain retries without it anyway on auth failures.
func NewReaderClient(baseURL, token string) *ReaderClient {
	return &ReaderClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: readerTimeout},
		converter: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
			),
		),
	}
}

// ReadURL asks the reader service to extract the page at target.
// withAuth controls whether the configured token is sent; the degraded
// retry path calls this again with withAuth=false.
func (r *ReaderClient) ReadURL(ctx context.Context, target string, withAuth bool) (string, error) {
	if r.baseURL == "" {
		return "", fmt.Errorf("reader service not configured")
	}

	endpoint := r.baseURL + "/" + url.QueryEscape(target)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", err
	}
	if withAuth && r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := r.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("reader request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("reader returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read reader response: %w", err)
	}
	return string(body), nil
}

// ReadLocal fetches the page directly and converts its HTML to
// markdown. Last resort when the reader service fails both with and
// without auth.
func (r *ReaderClient) ReadLocal(ctx context.Context, target string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "boardvec/1.0")

	resp, err := r.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("page fetch failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("page returned HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read page: %w", err)
	}

	markdown, err := r.converter.ConvertString(string(body), converter.WithDomain(target))
	if err != nil {
		return "", fmt.Errorf("html conversion failed: %w", err)
	}
	return markdown, nil
}
