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


package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/poiesic/boardvec/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// ImageAnalyzer implements ai.ImageAnalyzer using OpenAI-compatible
// vision-capable chat APIs.
type ImageAnalyzer struct {
	client llms.Model
	logger *slog.Logger
}

// analysis is an internal type used for JSON unmarshaling.
// It matches the structure requested from the model.
type analysis struct {
	Description string   `json:"description"`
	Style       string   `json:"style"`
	Colors      []string `json:"colors"`
	Elements    []string `json:"elements"`
	Mood        string   `json:"mood"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
}

// newImageAnalyzer is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newImageAnalyzer(config *ai.Config) (*ImageAnalyzer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	client, err := openai.New(
		openai.WithBaseURL(config.VisionHost),
		openai.WithToken(config.Token()),
		openai.WithModel(config.VisionModel),
	)
	if err != nil {
		return nil, err
	}

	return &ImageAnalyzer{
		client: client,
		logger: slog.Default().With("component", "openai-vision"),
	}, nil
}

// NewImageAnalyzer creates a new image analyzer using the provided configuration.
//
// Returns ai.ImageAnalyzer interface to enforce abstraction.
func NewImageAnalyzer(config *ai.Config) (ai.ImageAnalyzer, error) {
	return newImageAnalyzer(config)
}

// AnalyzeImage sends the image URL to the vision model and parses the
// structured JSON analysis from the response.
func (a *ImageAnalyzer) AnalyzeImage(ctx context.Context, imageURL, title, description string) (*ai.ImageAnalysis, error) {
	userPrompt := "Analyze this image."
	if title != "" {
		userPrompt += fmt.Sprintf(" The user titled it %q.", title)
	}
	if description != "" {
		userPrompt += fmt.Sprintf(" The user described it as %q.", description)
	}

	content := []llms.MessageContent{
		{
			Role: llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{
				llms.TextPart(visionSystemPrompt),
			},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.TextPart(userPrompt),
				llms.ImageURLPart(imageURL),
			},
		},
	}

	// Try up to 3 times in case of malformed JSON
	var result analysis
	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		response, err := a.client.GenerateContent(ctx, content, llms.WithTemperature(0.0), llms.WithJSONMode())
		if err != nil {
			a.logger.Error("failed to generate content", "attempt", attempt+1, "err", err)
			return nil, err
		}

		if len(response.Choices) < 1 {
			a.logger.Debug("no choices returned from model")
			return nil, fmt.Errorf("vision model returned no choices")
		}

		choice := response.Choices[0]

		// Strip markdown code fences if present
		responseText := strings.TrimSpace(choice.Content)
		responseText = strings.TrimPrefix(responseText, "```json")
		responseText = strings.TrimPrefix(responseText, "```")
		responseText = strings.TrimSuffix(responseText, "```")
		responseText = strings.TrimSpace(responseText)

		// Try to repair common JSON issues
		responseText = repairJSON(responseText)

		if err := json.Unmarshal([]byte(responseText), &result); err != nil {
			lastErr = err
			a.logger.Warn("error parsing vision response",
				"attempt", attempt+1,
				"response", responseText,
				"err", err)
			continue
		}

		// Success
		lastErr = nil
		break
	}

	if lastErr != nil {
		a.logger.Error("failed to parse vision response after retries", "err", lastErr)
		return nil, lastErr
	}

	a.logger.Debug("analyzed image",
		"category", result.Category,
		"elements", len(result.Elements),
		"tags", len(result.Tags))

	return &ai.ImageAnalysis{
		Description: result.Description,
		Style:       result.Style,
		Colors:      result.Colors,
		Elements:    result.Elements,
		Mood:        result.Mood,
		Category:    result.Category,
		Tags:        result.Tags,
	}, nil
}
