package extract

import (
	"context"
	"strings"

	"github.com/poiesic/boardvec/ai"
	"github.com/poiesic/boardvec/core"
)

// imageChain tries the vision model first and degrades to a minimal
// document built from the item's own title and description. An image
// item is never dropped for lack of analysis.
func (e *Extractor) imageChain() []Strategy {
	return []Strategy{
		{
			Name: "vision-analysis",
			Run: func(ctx context.Context, item *core.Item) Result {
				if item.ImageURL == "" {
					return Fail(ErrNoSourceURL)
				}
				analysis, err := e.analyzer.AnalyzeImage(ctx, item.ImageURL, item.Title, item.Description)
				if err != nil {
					return Fail(err)
				}
				return Ok(formatAnalysis(item, analysis))
			},
		},
		{
			Name: "title-description",
			Run: func(ctx context.Context, item *core.Item) Result {
				return Ok(formatAnalysis(item, nil))
			},
		},
	}
}

func (e *Extractor) extractImage(ctx context.Context, item *core.Item) (string, error) {
	content, err := runChain(ctx, item, e.logger, e.imageChain())
	if err != nil {
		return "", err
	}
	return Clean(content), nil
}

// formatAnalysis renders the structured vision output as a text
// document, one labeled line per populated field. A nil analysis
// yields the minimal title/description form.
func formatAnalysis(item *core.Item, analysis *ai.ImageAnalysis) string {
	var b strings.Builder

	if item.Title != "" {
		b.WriteString("Title: ")
		b.WriteString(item.Title)
		b.WriteString("\n")
	}
	if item.Description != "" {
		b.WriteString(item.Description)
		b.WriteString("\n")
	}

	if analysis != nil {
		writeField := func(label, value string) {
			if value != "" {
				b.WriteString(label)
				b.WriteString(": ")
				b.WriteString(value)
				b.WriteString("\n")
			}
		}
		writeField("Description", analysis.Description)
		writeField("Style", analysis.Style)
		writeField("Colors", strings.Join(analysis.Colors, ", "))
		writeField("Elements", strings.Join(analysis.Elements, ", "))
		writeField("Mood", analysis.Mood)
		writeField("Category", analysis.Category)
		writeField("Tags", strings.Join(analysis.Tags, ", "))
	}

	return b.String()
}
