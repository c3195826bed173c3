package extract

import (
	"context"
	"fmt"
	"testing"

	"github.com/poiesic/boardvec/ai"
	"github.com/poiesic/boardvec/ai/mock"
	"github.com/poiesic/boardvec/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newImageExtractor(t *testing.T, analyzer *mock.MockImageAnalyzer) *Extractor {
	t.Helper()
	e, err := New(NewReaderClient("http://localhost:1", ""), analyzer)
	require.NoError(t, err)
	return e
}

func TestExtractImage(t *testing.T) {
	analyzer := mock.NewMockImageAnalyzer()
	analyzer.AnalyzeImageFunc = func(ctx context.Context, imageURL, title, description string) (*ai.ImageAnalysis, error) {
		assert.Equal(t, "https://img.example.com/poster.jpg", imageURL)
		return &ai.ImageAnalysis{
			Description: "A minimalist concert poster",
			Style:       "flat illustration",
			Colors:      []string{"red", "black"},
			Elements:    []string{"typography", "guitar"},
			Mood:        "energetic",
			Category:    "poster",
			Tags:        []string{"music", "design"},
		}, nil
	}

	e := newImageExtractor(t, analyzer)

	item := &core.Item{
		ExternalID:  1,
		Type:        core.ContentTypeImage,
		Title:       "Gig Poster",
		Description: "saved from a design blog",
		ImageURL:    "https://img.example.com/poster.jpg",
	}
	content, err := e.Extract(context.Background(), item)
	require.NoError(t, err)

	assert.Contains(t, content, "Title: Gig Poster")
	assert.Contains(t, content, "saved from a design blog")
	assert.Contains(t, content, "Description: A minimalist concert poster")
	assert.Contains(t, content, "Style: flat illustration")
	assert.Contains(t, content, "Colors: red, black")
	assert.Contains(t, content, "Elements: typography, guitar")
	assert.Contains(t, content, "Mood: energetic")
	assert.Contains(t, content, "Category: poster")
	assert.Contains(t, content, "Tags: music, design")
}

func TestExtractImageAnalysisFailureFallsBack(t *testing.T) {
	analyzer := mock.NewMockImageAnalyzer()
	analyzer.AnalyzeImageFunc = func(ctx context.Context, imageURL, title, description string) (*ai.ImageAnalysis, error) {
		return nil, fmt.Errorf("vision model offline")
	}

	e := newImageExtractor(t, analyzer)

	item := &core.Item{
		ExternalID:  1,
		Type:        core.ContentTypeImage,
		Title:       "Gig Poster",
		Description: "saved from a design blog",
		ImageURL:    "https://img.example.com/poster.jpg",
	}
	content, err := e.Extract(context.Background(), item)
	require.NoError(t, err)

	assert.Contains(t, content, "Title: Gig Poster")
	assert.Contains(t, content, "saved from a design blog")
	assert.NotContains(t, content, "Style:")
}

func TestExtractImageNoURLFallsBack(t *testing.T) {
	analyzer := mock.NewMockImageAnalyzer()
	e := newImageExtractor(t, analyzer)

	item := &core.Item{ExternalID: 1, Type: core.ContentTypeImage, Title: "Untitled Scan"}
	content, err := e.Extract(context.Background(), item)
	require.NoError(t, err)

	assert.Contains(t, content, "Title: Untitled Scan")
	assert.Zero(t, analyzer.CallCount())
}
