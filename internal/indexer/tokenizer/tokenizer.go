// Package tokenizer turns raw text into the normalized terms the index is
// built from. It lower-cases input, splits on non-alphanumeric boundaries,
// removes stop-words, and reduces each word with the Snowball stemmer.
package tokenizer

import (
	"strings"
	"unicode"

	"github.com/kljensen/snowball"

	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/config"
)

// DefaultLanguage is the Snowball stemmer language used when none is given.
const DefaultLanguage = "english"

// Analyzer is the normalizer shared by the index builder and both query
// engines. It is safe for concurrent use once constructed.
type Analyzer struct {
	stopWords StopWords
	language  string
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithStopWords replaces the built-in stop-word list.
func WithStopWords(sw StopWords) Option {
	return func(a *Analyzer) { a.stopWords = sw }
}

// WithLanguage selects the Snowball stemmer language.
func WithLanguage(language string) Option {
	return func(a *Analyzer) {
		if language != "" {
			a.language = language
		}
	}
}

// NewAnalyzer returns an Analyzer using the built-in English stop words
// unless overridden.
func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{
		stopWords: DefaultStopWords(),
		language:  DefaultLanguage,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Normalize maps text to its ordered sequence of normalized terms: tokenize,
// drop stop words, stem, then drop stop words a second time since stemming
// can produce one.
func (a *Analyzer) Normalize(text string) []string {
	tokens := a.stopWords.Filter(Tokenize(text), nil)
	terms := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if s := a.Stem(tok); s != "" {
			terms = append(terms, s)
		}
	}
	return a.stopWords.Filter(terms, nil)
}

// Stem reduces a single lower-cased token. Tokens the stemmer rejects are
// returned unchanged.
func (a *Analyzer) Stem(token string) string {
	stemmed, err := snowball.Stem(token, a.language, true)
	if err != nil || stemmed == "" {
		return token
	}
	return stemmed
}

// StopWords exposes the analyzer's stop-word set.
func (a *Analyzer) StopWords() StopWords {
	return a.stopWords
}

// Tokenize lower-cases text and splits it into words on every rune that is
// neither a letter nor a digit.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// TokenizeKeeping works like Tokenize but emits every rune in keep as a
// token of its own, e.g. parentheses in boolean queries.
func TokenizeKeeping(text string, keep string) []string {
	var (
		tokens []string
		cur    strings.Builder
	)
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	for _, r := range strings.ToLower(text) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			cur.WriteRune(r)
		case strings.ContainsRune(keep, r):
			flush()
			tokens = append(tokens, string(r))
		default:
			flush()
		}
	}
	flush()
	return tokens
}

// FromConfig builds the analyzer described by the indexer section. The
// searcher must use the same settings as the indexer that built the index.
func FromConfig(cfg config.IndexerConfig) (*Analyzer, error) {
	opts := []Option{WithLanguage(cfg.Language)}
	if cfg.StopWordsPath != "" {
		sw, err := LoadStopWords(cfg.StopWordsPath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithStopWords(sw))
	}
	return NewAnalyzer(opts...), nil
}
