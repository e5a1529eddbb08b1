package retrieval

import (
	"strings"
)

// stripped is the punctuation removed before tokenizing.
const stripped = ".,/#!$%^&*;:{}=-_`~()"

var punctuation = strings.NewReplacer(func() []string {
	var pairs []string
	for _, r := range stripped {
		pairs = append(pairs, string(r), "")
	}
	return pairs
}()...)

// Tokenize lowercases text, drops punctuation and splits on whitespace.
func Tokenize(text string) []string {
	return strings.Fields(punctuation.Replace(strings.ToLower(text)))
}

// WordCount counts whitespace-separated words as they appear in the
// assembled context.
func WordCount(text string) int {
	return len(strings.Fields(text))
}
