package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/poiesic/boardvec/core"
)

// documentChain builds the fallback chain for link and attachment
// items: authenticated reader, unauthenticated reader, then a local
// fetch-and-convert. Output shorter than minContentLength counts as a
// failure at every step.
func (e *Extractor) documentChain() []Strategy {
	readStep := func(name string, read func(ctx context.Context, target string) (string, error)) Strategy {
		return Strategy{
			Name: name,
			Run: func(ctx context.Context, item *core.Item) Result {
				if item.SourceURL == "" {
					return Fail(ErrNoSourceURL)
				}
				ctx, cancel := context.WithTimeout(ctx, readerTimeout)
				defer cancel()

				content, err := read(ctx, item.SourceURL)
				if err != nil {
					return Fail(err)
				}
				content = Clean(content)
				if len(content) < minContentLength {
					return Fail(fmt.Errorf("%w: %d chars", ErrContentTooShort, len(content)))
				}
				return Ok(content)
			},
		}
	}

	return []Strategy{
		readStep("reader", func(ctx context.Context, target string) (string, error) {
			return e.reader.ReadURL(ctx, target, true)
		}),
		readStep("reader-noauth", func(ctx context.Context, target string) (string, error) {
			return e.reader.ReadURL(ctx, target, false)
		}),
		readStep("local-markdown", e.reader.ReadLocal),
	}
}

// extractDocument runs the document chain for one item.
func (e *Extractor) extractDocument(ctx context.Context, item *core.Item) (string, error) {
	return runChain(ctx, item, e.logger, e.documentChain())
}

// extractAttachment is the document strategy plus a title annotation:
// when the URL points at a PDF and the title does not already say so,
// "(PDF)" is appended so search results disclose the format.
func (e *Extractor) extractAttachment(ctx context.Context, item *core.Item) (string, error) {
	if isPDFURL(item.SourceURL) && !strings.Contains(strings.ToUpper(item.Title), "PDF") {
		item.Title = strings.TrimSpace(item.Title + " (PDF)")
	}
	return e.extractDocument(ctx, item)
}

func isPDFURL(rawURL string) bool {
	trimmed := strings.ToLower(rawURL)
	if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
		trimmed = trimmed[:i]
	}
	return strings.HasSuffix(trimmed, ".pdf")
}
