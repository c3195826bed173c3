package ai

import "context"

// Embedder generates vector embeddings from text for semantic similarity search.
// Implementations must be thread-safe for concurrent use.
type Embedder interface {
	// EmbedText generates a vector embedding for a single text string.
	// The returned vector represents the semantic meaning of the text.
	// Returns an error if the embedding generation fails.
	EmbedText(ctx context.Context, text string) ([]float32, error)

	// EmbedTexts generates vector embeddings for multiple text strings in a batch.
	// Batch processing is more efficient than calling EmbedText multiple times.
	// The returned slice contains embeddings in the same order as the input texts.
	// Returns an error if any embedding generation fails.
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

// ImageAnalyzer produces a structured description of an image given its URL.
// Implementations must be thread-safe for concurrent use.
type ImageAnalyzer interface {
	// AnalyzeImage sends the image at the given URL to a vision-capable
	// model and returns a structured analysis. Title and description are
	// optional user-supplied context passed along to the model.
	// Returns an error if the analysis fails; callers are expected to
	// fall back to the user-supplied metadata alone.
	AnalyzeImage(ctx context.Context, imageURL, title, description string) (*ImageAnalysis, error)
}

// ImageAnalysis is the structured result of analyzing one image.
type ImageAnalysis struct {
	// Description is a detailed account of what the image shows.
	Description string

	// Style characterizes the visual style (photograph, illustration,
	// screenshot, diagram, ...).
	Style string

	// Colors lists the dominant colors.
	Colors []string

	// Elements lists the salient objects or elements in the image.
	Elements []string

	// Mood is the overall mood or atmosphere.
	Mood string

	// Category is a single high-level category for the image.
	Category string

	// Tags are retrieval keywords for the image.
	Tags []string
}

// AIProvider aggregates AI services for convenient initialization and lifecycle management.
// A provider creates and manages Embedder and ImageAnalyzer instances,
// ensuring they share configuration and resources appropriately.
type AIProvider interface {
	// Embedder returns the text embedding service.
	// The returned Embedder is safe for concurrent use.
	Embedder() Embedder

	// ImageAnalyzer returns the image analysis service.
	// The returned ImageAnalyzer is safe for concurrent use.
	ImageAnalyzer() ImageAnalyzer

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
