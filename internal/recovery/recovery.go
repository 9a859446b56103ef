// Package recovery generates and normalizes human-writable recovery phrases.
//
// A phrase is 6 words drawn independently (with replacement) from a fixed
// 256-word list and joined by single spaces. Phrases act as an alternate
// secret for unwrapping a user's DEK when the password is lost; they are
// displayed exactly once at generation time.
package recovery

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
)

// PhraseWordCount is the number of words in a recovery phrase.
const PhraseWordCount = 6

// Generate produces a new recovery phrase in canonical (normalized) form.
//
// Each word index is a single byte from the OS CSPRNG; with a 256-entry list
// every byte value maps to exactly one word, so the draw is uniform without
// rejection sampling.
func Generate() (string, error) {
	idx := make([]byte, PhraseWordCount)
	if _, err := io.ReadFull(rand.Reader, idx); err != nil {
		return "", fmt.Errorf("failed to generate recovery phrase: %w", err)
	}

	words := make([]string, PhraseWordCount)
	for i, b := range idx {
		words[i] = wordList[b]
	}

	return strings.Join(words, " "), nil
}

// Normalize converts user input to canonical phrase form: lowercase, trimmed,
// with internal whitespace collapsed to single spaces.
//
// This exact normalization is applied both at generation time and before
// every derivation from a re-entered phrase; any divergence between the two
// would make legitimate phrases fail to unwrap.
func Normalize(input string) string {
	return strings.Join(strings.Fields(strings.ToLower(input)), " ")
}

// Contains reports whether w is part of the phrase vocabulary.
func Contains(w string) bool {
	for _, entry := range wordList {
		if entry == w {
			return true
		}
	}
	return false
}
