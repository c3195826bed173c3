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
	"log/slog"
	"strings"

	"github.com/poiesic/boardvec/ai"
	"github.com/poiesic/boardvec/core"
)

// Extractor routes items to type-specific extraction strategies. All
// external clients are injected at construction so configuration is
// validated once at startup, not lazily on first use.
type Extractor struct {
	reader   *ReaderClient
	video    *VideoClient
	analyzer ai.ImageAnalyzer
	logger   *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) error {
		if logger == nil {
			logger = slog.Default()
		}
		e.logger = logger
		return nil
	}
}

// WithVideoClient replaces the video client. Tests use this to point
// at local servers.
func WithVideoClient(client *VideoClient) Option {
	return func(e *Extractor) error {
		if client == nil {
			return fmt.Errorf("video client must not be nil")
		}
		e.video = client
		return nil
	}
}

// New creates an extractor with the given reader service client and
// image analyzer.
func New(reader *ReaderClient, analyzer ai.ImageAnalyzer, opts ...Option) (*Extractor, error) {
	if reader == nil {
		return nil, fmt.Errorf("reader client is required")
	}
	if analyzer == nil {
		return nil, fmt.Errorf("image analyzer is required")
	}

	e := &Extractor{
		reader:   reader,
		video:    NewVideoClient(),
		analyzer: analyzer,
		logger:   slog.Default().With("component", "extractor"),
	}

	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// Extract produces the text content for one item, dispatching on its
// content type. Link items pointing at a video host are reclassified
// to video in place so the stored type reflects the strategy used.
// A nil error with non-empty content means the item should be stored;
// any error means skip the item.
func (e *Extractor) Extract(ctx context.Context, item *core.Item) (string, error) {
	if item.Type == core.ContentTypeDocument && IsVideoURL(item.SourceURL) {
		item.Type = core.ContentTypeVideo
	}

	switch item.Type {
	case core.ContentTypeDocument:
		return e.extractDocument(ctx, item)
	case core.ContentTypeVideo:
		return e.extractVideo(ctx, item)
	case core.ContentTypeImage:
		return e.extractImage(ctx, item)
	case core.ContentTypeAttachment:
		return e.extractAttachment(ctx, item)
	case core.ContentTypeText:
		return e.extractText(item)
	default:
		return "", fmt.Errorf("%w: unknown content type %d", ErrExtractionFailed, item.Type)
	}
}

// extractText passes through content the provider already delivered.
func (e *Extractor) extractText(item *core.Item) (string, error) {
	content := Clean(item.Content)
	if strings.TrimSpace(content) == "" {
		return "", ErrEmptyContent
	}
	return content, nil
}
