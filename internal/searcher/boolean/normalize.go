package boolean

import (
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/indexer/tokenizer"
)

// Normalize maps a raw boolean query to tokens using the same analyzer the
// index was built with. Operator words and parentheses are kept at their
// positions; every other word goes through stop-word removal and stemming.
// A word that stems to an operator spelling remains a term. Groups left
// empty, including those holding only stop words, are dropped.
func Normalize(query string, a *tokenizer.Analyzer) []Token {
	stop := a.StopWords()
	words := tokenizer.TokenizeKeeping(query, "()")
	tokens := make([]Token, 0, len(words))
	for _, w := range words {
		switch w {
		case "(":
			tokens = append(tokens, leftParen)
			continue
		case ")":
			if n := len(tokens); n > 0 && tokens[n-1].Kind == KindLeftParen {
				tokens = tokens[:n-1]
			} else {
				tokens = append(tokens, rightParen)
			}
			continue
		}
		if op, ok := ParseOperator(w); ok {
			tokens = append(tokens, Token{Kind: KindOperator, Op: op, Term: w})
			continue
		}
		if stop.Contains(w) {
			continue
		}
		stem := a.Stem(w)
		if stem == "" || stop.Contains(stem) {
			continue
		}
		tokens = append(tokens, Term(stem))
	}
	return tokens
}
