// Package boolean answers boolean queries over an inverted index. Queries
// are normalized into tagged tokens, rewritten to postfix and evaluated
// with linear merges of sorted document-id lists.
package boolean

import (
	"fmt"
	"strings"
)

// Kind tags a Token.
type Kind int

const (
	KindTerm Kind = iota
	KindOperator
	KindLeftParen
	KindRightParen
)

// Operator is a binary boolean operator. The zero value marks an operator
// spelling the engine recognizes but does not evaluate.
type Operator int

const (
	OpInvalid Operator = iota
	OpAnd
	OpOr
	OpNand
)

func (o Operator) String() string {
	switch o {
	case OpAnd:
		return "and"
	case OpOr:
		return "or"
	case OpNand:
		return "nand"
	default:
		return "invalid"
	}
}

// precedence orders binding strength: NAND over AND over OR.
func (o Operator) precedence() int {
	switch o {
	case OpNand:
		return 3
	case OpAnd:
		return 2
	case OpOr:
		return 1
	default:
		return 0
	}
}

// Token is one element of a normalized query. Term is set for KindTerm and
// holds the original spelling for an OpInvalid operator.
type Token struct {
	Kind Kind
	Term string
	Op   Operator
}

// Term returns a term token.
func Term(t string) Token { return Token{Kind: KindTerm, Term: t} }

// Op returns an operator token.
func Op(o Operator) Token { return Token{Kind: KindOperator, Op: o} }

var (
	leftParen  = Token{Kind: KindLeftParen}
	rightParen = Token{Kind: KindRightParen}
)

func (t Token) String() string {
	switch t.Kind {
	case KindTerm:
		return t.Term
	case KindOperator:
		if t.Op == OpInvalid {
			return t.Term
		}
		return t.Op.String()
	case KindLeftParen:
		return "("
	case KindRightParen:
		return ")"
	default:
		return fmt.Sprintf("Token(%d)", int(t.Kind))
	}
}

// legacyOperators are operator words the engine refuses to evaluate.
var legacyOperators = map[string]bool{"not": true}

// ParseOperator classifies a raw word. ok is false for ordinary terms; a
// legacy operator yields OpInvalid with ok true.
func ParseOperator(word string) (op Operator, ok bool) {
	switch w := strings.ToLower(word); {
	case w == "and":
		return OpAnd, true
	case w == "or":
		return OpOr, true
	case w == "nand":
		return OpNand, true
	case legacyOperators[w]:
		return OpInvalid, true
	default:
		return OpInvalid, false
	}
}

// Classify turns raw query words into tokens without any normalization.
func Classify(words []string) []Token {
	tokens := make([]Token, len(words))
	for i, w := range words {
		switch {
		case w == "(":
			tokens[i] = leftParen
		case w == ")":
			tokens[i] = rightParen
		default:
			if op, ok := ParseOperator(w); ok {
				tokens[i] = Token{Kind: KindOperator, Op: op, Term: strings.ToLower(w)}
			} else {
				tokens[i] = Term(w)
			}
		}
	}
	return tokens
}

func joinTokens(tokens []Token) string {
	parts := make([]string, len(tokens))
	for i, t := range tokens {
		parts[i] = t.String()
	}
	return strings.Join(parts, " ")
}
