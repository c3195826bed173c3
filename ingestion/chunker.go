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

package ingestion

import (
	"strings"
	"unicode/utf8"

	"github.com/poiesic/boardvec/core"
)

// defaultChunkSize is the per-chunk character ceiling. Sized so a
// chunk stays comfortably inside the embedding provider's input limit.
const defaultChunkSize = 2000

// Chunk splits text into pieces no longer than maxLen characters.
// Text that fits returns as a single chunk. Longer text is split on
// sentence boundaries, greedily packing sentences; a single sentence
// longer than maxLen is hard-truncated into its own chunk. The split
// is deterministic for a given input.
func Chunk(text string, maxLen int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if maxLen <= 0 {
		maxLen = defaultChunkSize
	}
	if len(text) <= maxLen {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 0 {
			chunks = append(chunks, current.String())
			current.Reset()
		}
	}

	for _, sentence := range splitSentences(text) {
		if len(sentence) > maxLen {
			flush()
			chunks = append(chunks, truncateRunes(sentence, maxLen))
			continue
		}

		// +1 for the joining space.
		if current.Len() > 0 && current.Len()+1+len(sentence) > maxLen {
			flush()
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(sentence)
	}
	flush()

	return chunks
}

// ChunkText wraps Chunk with index/total bookkeeping for one item.
func ChunkText(text string, maxLen int) []core.Chunk {
	pieces := Chunk(text, maxLen)
	chunks := make([]core.Chunk, len(pieces))
	for i, piece := range pieces {
		chunks[i] = core.Chunk{
			Text:  piece,
			Index: i,
			Total: len(pieces),
		}
	}
	return chunks
}

// splitSentences breaks text on sentence-ending punctuation and
// newlines. Terminators stay attached to their sentence.
func splitSentences(text string) []string {
	var sentences []string
	start := 0

	emit := func(end int) {
		s := strings.TrimSpace(text[start:end])
		if s != "" {
			sentences = append(sentences, s)
		}
		start = end
	}

	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.', '!', '?':
			// Swallow runs of terminators ("..." or "?!").
			end := i + 1
			for end < len(text) && (text[end] == '.' || text[end] == '!' || text[end] == '?') {
				end++
			}
			emit(end)
			i = end - 1
		case '\n':
			emit(i + 1)
		}
	}
	emit(len(text))

	return sentences
}

func truncateRunes(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
