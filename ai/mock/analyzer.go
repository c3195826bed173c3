package mock

import (
	"context"
	"strings"

	"github.com/poiesic/boardvec/ai"
)

// MockImageAnalyzer is a test double for ai.ImageAnalyzer.
// It allows custom behavior injection via function fields.
type MockImageAnalyzer struct {
	// AnalyzeImageFunc is called by AnalyzeImage if set.
	// If nil, uses default deterministic behavior.
	AnalyzeImageFunc func(ctx context.Context, imageURL, title, description string) (*ai.ImageAnalysis, error)

	callCount int
}

// NewMockImageAnalyzer creates a mock image analyzer with default behavior.
// Note: Returns concrete type to allow test assertions via GetMockAnalyzer().
func NewMockImageAnalyzer() *MockImageAnalyzer {
	return &MockImageAnalyzer{}
}

// AnalyzeImage returns a deterministic analysis derived from the inputs.
func (m *MockImageAnalyzer) AnalyzeImage(ctx context.Context, imageURL, title, description string) (*ai.ImageAnalysis, error) {
	m.callCount++

	if m.AnalyzeImageFunc != nil {
		return m.AnalyzeImageFunc(ctx, imageURL, title, description)
	}

	// Default: build a plausible analysis from the supplied metadata
	subject := title
	if subject == "" {
		subject = "an untitled image"
	}

	tags := strings.Fields(strings.ToLower(subject))
	if len(tags) > 5 {
		tags = tags[:5]
	}

	return &ai.ImageAnalysis{
		Description: "A mock analysis of " + subject + ".",
		Style:       "photograph",
		Colors:      []string{"gray", "white"},
		Elements:    tags,
		Mood:        "neutral",
		Category:    "uncategorized",
		Tags:        tags,
	}, nil
}

// CallCount returns the number of times AnalyzeImage was called.
func (m *MockImageAnalyzer) CallCount() int {
	return m.callCount
}

// Reset clears the call count and custom functions.
func (m *MockImageAnalyzer) Reset() {
	m.callCount = 0
	m.AnalyzeImageFunc = nil
}
