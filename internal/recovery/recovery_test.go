package recovery

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerate(t *testing.T) {
	t.Run("produces 6 words from the list", func(t *testing.T) {
		phrase, err := Generate()
		require.NoError(t, err)

		words := strings.Split(phrase, " ")
		assert.Equal(t, PhraseWordCount, len(words))
		for _, w := range words {
			assert.True(t, Contains(w), "word %q not in word list", w)
		}
	})

	t.Run("already normalized", func(t *testing.T) {
		phrase, err := Generate()
		require.NoError(t, err)
		assert.Equal(t, phrase, Normalize(phrase))
	})

	t.Run("phrases differ across calls", func(t *testing.T) {
		p1, err := Generate()
		require.NoError(t, err)
		p2, err := Generate()
		require.NoError(t, err)

		// 48 bits of entropy; a collision here means the generator is broken.
		assert.NotEqual(t, p1, p2)
	})
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"already canonical", "alpha bravo cable", "alpha bravo cable"},
		{"mixed case", "Alpha BRAVO cAbLe", "alpha bravo cable"},
		{"leading and trailing space", "  alpha bravo cable  ", "alpha bravo cable"},
		{"internal runs of whitespace", "alpha \t bravo\n\ncable", "alpha bravo cable"},
		{"empty", "", ""},
		{"only whitespace", " \t\n ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	inputs := []string{
		"Alpha  BRAVO   cable",
		"  mixed \t Case\nwords  ",
		"canonical phrase already",
	}

	for _, in := range inputs {
		once := Normalize(in)
		assert.Equal(t, once, Normalize(once))
	}
}

func TestWordList(t *testing.T) {
	t.Run("has 256 unique non-empty entries", func(t *testing.T) {
		seen := make(map[string]bool, len(wordList))
		for _, w := range wordList {
			assert.NotEmpty(t, w)
			assert.False(t, seen[w], "duplicate word %q", w)
			assert.Equal(t, w, strings.ToLower(w))
			seen[w] = true
		}
		assert.Equal(t, 256, len(seen))
	})
}
