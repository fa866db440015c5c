package boolean

import (
	"fmt"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/errors"
)

// PostingSource resolves a normalized term to its ascending document ids.
// *index.InvertedIndex satisfies it.
type PostingSource interface {
	DocIDs(term string) []int
}

// MapSource is a PostingSource over a plain map.
type MapSource map[string][]int

func (m MapSource) DocIDs(term string) []int { return m[term] }

// Evaluate runs a postfix token stream against src. Unknown terms
// contribute an empty list.
func Evaluate(postfix []Token, src PostingSource) ([]int, error) {
	stack := make([][]int, 0, len(postfix))
	for i, tok := range postfix {
		switch tok.Kind {
		case KindTerm:
			ids := src.DocIDs(tok.Term)
			if ids == nil {
				ids = []int{}
			}
			stack = append(stack, ids)
		case KindOperator:
			if tok.Op.precedence() == 0 {
				return nil, fmt.Errorf("operator %q: %w", tok.String(), apperrors.ErrUnsupportedBooleanOperator)
			}
			if len(stack) < 2 {
				return nil, fmt.Errorf("operator %q at position %d needs two operands, have %d: %w",
					tok.String(), i, len(stack), apperrors.ErrStackUnderflow)
			}
			right := stack[len(stack)-1]
			left := stack[len(stack)-2]
			merged := merge(tok.Op, left, right)
			stack = stack[:len(stack)-2]
			stack = append(stack, merged)
		default:
			return nil, fmt.Errorf("parenthesis at position %d in %q: %w",
				i, joinTokens(postfix), apperrors.ErrMalformedPostfixQuery)
		}
	}
	if len(stack) != 1 {
		return nil, fmt.Errorf("%d operands left after evaluating %q: %w",
			len(stack), joinTokens(postfix), apperrors.ErrMalformedPostfixQuery)
	}
	return stack[0], nil
}

// EvaluateStrings classifies raw postfix words and evaluates them. Operator
// words are matched case-insensitively.
func EvaluateStrings(postfix []string, src PostingSource) ([]int, error) {
	tokens := Classify(postfix)
	for _, t := range tokens {
		if t.Kind == KindOperator && t.Op == OpInvalid {
			return nil, fmt.Errorf("operator %q: %w", strings.ToLower(t.Term), apperrors.ErrUnsupportedBooleanOperator)
		}
	}
	return Evaluate(tokens, src)
}
