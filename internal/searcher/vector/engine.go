package vector

import (
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/indexer/tokenizer"
)

// Engine scores free-text queries against one frequency index snapshot.
type Engine struct {
	idx      *index.InvertedIndex
	analyzer *tokenizer.Analyzer
	qw       QueryWeighting
	dw       DocWeighting
}

func NewEngine(idx *index.InvertedIndex, analyzer *tokenizer.Analyzer, qw QueryWeighting, dw DocWeighting) *Engine {
	return &Engine{idx: idx, analyzer: analyzer, qw: qw, dw: dw}
}

// Lemmatize normalizes query exactly like document text.
func (e *Engine) Lemmatize(query string) []string {
	return e.analyzer.Normalize(query)
}

// Score computes similarities for already normalized query terms.
func (e *Engine) Score(terms []string) (map[int]float64, error) {
	return Scores(terms, e.idx, e.qw, e.dw)
}

// Search normalizes and scores query.
func (e *Engine) Search(query string) (map[int]float64, error) {
	return e.Score(e.Lemmatize(query))
}
