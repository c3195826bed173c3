package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"collapses spaces", "a    b\t\tc", "a b c"},
		{"collapses blank lines", "a\n\n\n\n\nb", "a\n\nb"},
		{"keeps single blank line", "a\n\nb", "a\n\nb"},
		{"trims", "  hello  ", "hello"},
		{"windows newlines", "a\r\nb", "a\nb"},
		{"empty", "", ""},
		{"whitespace only", "  \n\t ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.input))
		})
	}
}

func TestCleanTruncates(t *testing.T) {
	long := strings.Repeat("x", maxContentLength+500)
	got := Clean(long)
	assert.Len(t, got, maxContentLength)
}

func TestCleanTruncatesOnRuneBoundary(t *testing.T) {
	long := strings.Repeat("é", maxContentLength)
	got := Clean(long)
	assert.LessOrEqual(t, len(got), maxContentLength)
	assert.True(t, strings.HasSuffix(got, "é"))
}
