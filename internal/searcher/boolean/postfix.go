package boolean

import (
	"fmt"

	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/errors"
)

// ToPostfix rewrites an infix token stream with the shunting-yard
// algorithm. Operators are left-associative and bind NAND, then AND, then
// OR.
func ToPostfix(infix []Token) ([]Token, error) {
	out := make([]Token, 0, len(infix))
	var ops []Token
	for i, tok := range infix {
		switch tok.Kind {
		case KindTerm:
			out = append(out, tok)
		case KindOperator:
			for len(ops) > 0 {
				top := ops[len(ops)-1]
				if top.Kind != KindOperator || top.Op.precedence() < tok.Op.precedence() {
					break
				}
				out = append(out, top)
				ops = ops[:len(ops)-1]
			}
			ops = append(ops, tok)
		case KindLeftParen:
			ops = append(ops, tok)
		case KindRightParen:
			matched := false
			for len(ops) > 0 {
				top := ops[len(ops)-1]
				ops = ops[:len(ops)-1]
				if top.Kind == KindLeftParen {
					matched = true
					break
				}
				out = append(out, top)
			}
			if !matched {
				return nil, fmt.Errorf("unmatched ')' at position %d in %q: %w",
					i, joinTokens(infix), apperrors.ErrMalformedQuery)
			}
		}
	}
	for len(ops) > 0 {
		top := ops[len(ops)-1]
		ops = ops[:len(ops)-1]
		if top.Kind == KindLeftParen {
			return nil, fmt.Errorf("unmatched '(' in %q: %w", joinTokens(infix), apperrors.ErrMalformedQuery)
		}
		out = append(out, top)
	}
	return out, nil
}

// ImplicitAnd inserts AND between adjacent operands when the query holds no
// operator at all. Queries that use any operator are returned unchanged.
func ImplicitAnd(tokens []Token) []Token {
	for _, t := range tokens {
		if t.Kind == KindOperator {
			return tokens
		}
	}
	out := make([]Token, 0, 2*len(tokens))
	for i, t := range tokens {
		if i > 0 && endsOperand(tokens[i-1]) && startsOperand(t) {
			out = append(out, Op(OpAnd))
		}
		out = append(out, t)
	}
	return out
}

func endsOperand(t Token) bool {
	return t.Kind == KindTerm || t.Kind == KindRightParen
}

func startsOperand(t Token) bool {
	return t.Kind == KindTerm || t.Kind == KindLeftParen
}
