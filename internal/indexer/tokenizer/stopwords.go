package tokenizer

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

var defaultStopWords = []string{
	"a", "about", "above", "after", "again", "against", "all", "am", "an",
	"and", "any", "are", "as", "at", "be", "because", "been", "before",
	"being", "below", "between", "both", "but", "by", "can", "could", "did",
	"do", "does", "doing", "down", "during", "each", "few", "for", "from",
	"further", "had", "has", "have", "having", "he", "her", "here", "hers",
	"herself", "him", "himself", "his", "how", "i", "if", "in", "into", "is",
	"it", "its", "itself", "just", "me", "more", "most", "my", "myself", "no",
	"nor", "not", "now", "of", "off", "on", "once", "only", "or", "other",
	"our", "ours", "ourselves", "out", "over", "own", "same", "she", "should",
	"so", "some", "such", "than", "that", "the", "their", "theirs", "them",
	"themselves", "then", "there", "these", "they", "this", "those", "through",
	"to", "too", "under", "until", "up", "very", "was", "we", "were", "what",
	"when", "where", "which", "while", "who", "whom", "why", "will", "with",
	"would", "you", "your", "yours", "yourself", "yourselves",
}

// StopWords is a set of lower-cased words removed during normalization.
type StopWords map[string]struct{}

// DefaultStopWords returns a fresh copy of the built-in English list.
func DefaultStopWords() StopWords {
	return NewStopWords(defaultStopWords)
}

// NewStopWords builds a set from words, lower-casing each entry.
func NewStopWords(words []string) StopWords {
	set := make(StopWords, len(words))
	for _, w := range words {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			set[w] = struct{}{}
		}
	}
	return set
}

// LoadStopWords reads one word per line. Blank lines and lines starting
// with '#' are ignored.
func LoadStopWords(path string) (StopWords, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening stop words file: %w", err)
	}
	defer f.Close()

	var words []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading stop words file %s: %w", path, err)
	}
	return NewStopWords(words), nil
}

// Contains reports whether w is a stop word.
func (s StopWords) Contains(w string) bool {
	_, ok := s[w]
	return ok
}

// Filter returns tokens without stop words. Tokens for which keep returns
// true survive even if they are stop words.
func (s StopWords) Filter(tokens []string, keep func(string) bool) []string {
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if s.Contains(tok) && (keep == nil || !keep(tok)) {
			continue
		}
		out = append(out, tok)
	}
	return out
}
