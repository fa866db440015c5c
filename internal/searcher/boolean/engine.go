package boolean

import (
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/indexer/tokenizer"
)

// Engine evaluates free-text boolean queries against one index snapshot.
type Engine struct {
	src      PostingSource
	analyzer *tokenizer.Analyzer
}

func NewEngine(src PostingSource, analyzer *tokenizer.Analyzer) *Engine {
	return &Engine{src: src, analyzer: analyzer}
}

// Parse normalizes query, applies implicit conjunction and returns the
// postfix stream. A query with nothing left after normalization yields an
// empty stream.
func (e *Engine) Parse(query string) ([]Token, error) {
	tokens := ImplicitAnd(Normalize(query, e.analyzer))
	if len(tokens) == 0 {
		return nil, nil
	}
	return ToPostfix(tokens)
}

// Retrieve returns the ascending ids of the documents matching query.
func (e *Engine) Retrieve(query string) ([]int, error) {
	postfix, err := e.Parse(query)
	if err != nil {
		return nil, err
	}
	return e.Eval(postfix)
}

// Eval evaluates an already parsed query. An empty stream matches nothing.
func (e *Engine) Eval(postfix []Token) ([]int, error) {
	if len(postfix) == 0 {
		return []int{}, nil
	}
	return Evaluate(postfix, e.src)
}
