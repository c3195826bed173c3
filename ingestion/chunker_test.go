package ingestion

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunkEmpty(t *testing.T) {
	assert.Nil(t, Chunk("", 100))
	assert.Nil(t, Chunk("   \n\t  ", 100))
}

func TestChunkShortTextSingleChunk(t *testing.T) {
	chunks := Chunk("One short note.", 100)
	require.Len(t, chunks, 1)
	assert.Equal(t, "One short note.", chunks[0])
}

func TestChunkPacksSentences(t *testing.T) {
	text := "First sentence here. Second sentence here. Third sentence here. Fourth sentence here."
	chunks := Chunk(text, 50)

	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 50)
	}

	// Nothing lost except joining whitespace.
	joined := strings.Join(chunks, " ")
	assert.Contains(t, joined, "First sentence here.")
	assert.Contains(t, joined, "Fourth sentence here.")
	assert.LessOrEqual(t, len(joined), len(text)+len(chunks))
}

func TestChunkLongSentenceTruncated(t *testing.T) {
	long := strings.Repeat("word ", 100) // no sentence boundary
	chunks := Chunk(long, 50)

	require.Len(t, chunks, 1)
	assert.LessOrEqual(t, len(chunks[0]), 50)
}

func TestChunkMixedLongAndShort(t *testing.T) {
	text := "Short one. " + strings.Repeat("x", 200) + ". Short two."
	chunks := Chunk(text, 80)

	require.GreaterOrEqual(t, len(chunks), 3)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 80)
	}
	assert.Equal(t, "Short one.", chunks[0])
}

func TestChunkDeterministic(t *testing.T) {
	text := strings.Repeat("A sentence that repeats itself over and over. ", 40)
	first := Chunk(text, 150)
	second := Chunk(text, 150)
	assert.Equal(t, first, second)
}

func TestChunkSplitsOnNewlines(t *testing.T) {
	text := "line one without terminator\nline two without terminator\nline three"
	chunks := Chunk(text, 30)

	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len(c), 30)
	}
}

func TestChunkText(t *testing.T) {
	text := "First sentence here. Second sentence here. Third sentence here."
	chunks := ChunkText(text, 25)

	require.NotEmpty(t, chunks)
	for i, c := range chunks {
		assert.Equal(t, i, c.Index)
		assert.Equal(t, len(chunks), c.Total)
		assert.NotEmpty(t, c.Text)
		assert.Nil(t, c.Vector)
	}
}

func TestChunkTextEmpty(t *testing.T) {
	assert.Empty(t, ChunkText("", 100))
}

func TestSplitSentences(t *testing.T) {
	sentences := splitSentences("One. Two! Three? Four... and the tail")
	assert.Equal(t, []string{"One.", "Two!", "Three?", "Four...", "and the tail"}, sentences)
}
