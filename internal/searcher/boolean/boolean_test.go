package boolean

import (
	"errors"
	"math/rand"
	"reflect"
	"sort"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/Document-Retrieval-Engine/pkg/errors"
)

var animals = MapSource{
	"cat":   {1, 2, 3},
	"dog":   {1, 3, 5},
	"duck":  {1, 5},
	"squid": {1, 2, 3, 6},
}

func TestMerges(t *testing.T) {
	tests := []struct {
		name string
		fn   func(a, b []int) []int
		a, b []int
		want []int
	}{
		{"or", Or, []int{1, 3, 5}, []int{2, 3, 6}, []int{1, 2, 3, 5, 6}},
		{"or empty", Or, nil, []int{4}, []int{4}},
		{"and", And, []int{1, 3, 5}, []int{2, 3, 5, 6}, []int{3, 5}},
		{"and disjoint", And, []int{1}, []int{2}, []int{}},
		{"nand", Nand, []int{1, 2, 3, 6}, []int{1, 3}, []int{2, 6}},
		{"nand tail", Nand, []int{1, 7, 9}, []int{1}, []int{7, 9}},
		{"nand empty right", Nand, []int{4, 5}, nil, []int{4, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(tt.a, tt.b); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func randomSorted(r *rand.Rand) []int {
	seen := map[int]bool{}
	n := r.Intn(30)
	for i := 0; i < n; i++ {
		seen[r.Intn(50)] = true
	}
	out := make([]int, 0, len(seen))
	for v := range seen {
		out = append(out, v)
	}
	sort.Ints(out)
	return out
}

func setOp(a, b []int, keep func(inA, inB bool) bool) []int {
	inA, inB := map[int]bool{}, map[int]bool{}
	for _, v := range a {
		inA[v] = true
	}
	for _, v := range b {
		inB[v] = true
	}
	out := []int{}
	for v := 0; v < 50; v++ {
		if (inA[v] || inB[v]) && keep(inA[v], inB[v]) {
			out = append(out, v)
		}
	}
	return out
}

func TestMergesMatchSetSemantics(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		a, b := randomSorted(r), randomSorted(r)
		if got, want := Or(a, b), setOp(a, b, func(x, y bool) bool { return x || y }); !reflect.DeepEqual(got, want) {
			t.Fatalf("Or(%v, %v) = %v, want %v", a, b, got, want)
		}
		if got, want := And(a, b), setOp(a, b, func(x, y bool) bool { return x && y }); !reflect.DeepEqual(got, want) {
			t.Fatalf("And(%v, %v) = %v, want %v", a, b, got, want)
		}
		if got, want := Nand(a, b), setOp(a, b, func(x, y bool) bool { return x && !y }); !reflect.DeepEqual(got, want) {
			t.Fatalf("Nand(%v, %v) = %v, want %v", a, b, got, want)
		}
		if got := And(a, Or(a, b)); !reflect.DeepEqual(got, a) {
			t.Fatalf("And(a, Or(a, b)) = %v, want a = %v (b = %v)", got, a, b)
		}
		if got := Or(a, And(a, b)); !reflect.DeepEqual(got, a) {
			t.Fatalf("Or(a, And(a, b)) = %v, want a = %v (b = %v)", got, a, b)
		}
	}
}

func TestEvaluateStrings(t *testing.T) {
	tests := []struct {
		postfix []string
		want    []int
	}{
		{[]string{"cat", "dog", "duck", "nand", "or"}, []int{1, 2, 3}},
		{[]string{"squid", "cat", "dog", "and", "nand"}, []int{2, 6}},
		{[]string{"cat", "dog", "AND"}, []int{1, 3}},
		{[]string{"cat", "lemur", "or"}, []int{1, 2, 3}},
		{[]string{"lemur"}, []int{}},
	}
	for _, tt := range tests {
		got, err := EvaluateStrings(tt.postfix, animals)
		if err != nil {
			t.Fatalf("%v: %v", tt.postfix, err)
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("%v = %v, want %v", tt.postfix, got, tt.want)
		}
	}
}

func TestEvaluateErrors(t *testing.T) {
	tests := []struct {
		name    string
		postfix []string
		want    error
	}{
		{"missing operand", []string{"cat", "and"}, apperrors.ErrStackUnderflow},
		{"operator only", []string{"or"}, apperrors.ErrStackUnderflow},
		{"missing operator", []string{"cat", "dog"}, apperrors.ErrMalformedPostfixQuery},
		{"empty", []string{}, apperrors.ErrMalformedPostfixQuery},
		{"legacy not", []string{"cat", "dog", "not"}, apperrors.ErrUnsupportedBooleanOperator},
		{"parenthesis", []string{"cat", "("}, apperrors.ErrMalformedPostfixQuery},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EvaluateStrings(tt.postfix, animals)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
	if _, err := Evaluate([]Token{Term("cat"), Term("dog"), {Kind: KindOperator}}, animals); !errors.Is(err, apperrors.ErrUnsupportedBooleanOperator) {
		t.Errorf("invalid operator token: err = %v", err)
	}
}

func TestToPostfix(t *testing.T) {
	tests := []struct {
		infix []string
		want  string
	}{
		{[]string{"cat", "or", "dog", "nand", "duck"}, "cat dog duck nand or"},
		{[]string{"squid", "nand", "cat", "and", "dog"}, "squid cat nand dog and"},
		{[]string{"lemu", "and", "cat", "or", "dog"}, "lemu cat and dog or"},
		{[]string{"lemu", "and", "(", "cat", "or", "dog", ")"}, "lemu cat dog or and"},
		{[]string{"a", "or", "b", "or", "c"}, "a b or c or"},
	}
	for _, tt := range tests {
		got, err := ToPostfix(Classify(tt.infix))
		if err != nil {
			t.Fatalf("%v: %v", tt.infix, err)
		}
		if joinTokens(got) != tt.want {
			t.Errorf("%v -> %q, want %q", tt.infix, joinTokens(got), tt.want)
		}
	}
}

func TestToPostfixUnbalanced(t *testing.T) {
	for _, q := range [][]string{{"(", "cat"}, {"cat", ")"}, {")", "("}} {
		if _, err := ToPostfix(Classify(q)); !errors.Is(err, apperrors.ErrMalformedQuery) {
			t.Errorf("%v: err = %v", q, err)
		}
	}
}

func TestImplicitAnd(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"cat dog squid", "cat and dog and squid"},
		{"cat", "cat"},
		{"( cat dog ) squid", "( cat and dog ) and squid"},
		{"cat or dog", "cat or dog"},
		{"cat dog or squid", "cat dog or squid"},
	}
	for _, tt := range tests {
		got := joinTokens(ImplicitAnd(Classify(splitWords(tt.in))))
		if got != tt.want {
			t.Errorf("ImplicitAnd(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func splitWords(s string) []string {
	return tokenizer.TokenizeKeeping(s, "()")
}

func TestNormalizeKeepsOperators(t *testing.T) {
	a := tokenizer.NewAnalyzer()
	got := Normalize("The Cats OR (dogs NAND a duck)", a)
	want := []Token{
		Term("cat"),
		{Kind: KindOperator, Op: OpOr, Term: "or"},
		leftParen,
		Term("dog"),
		{Kind: KindOperator, Op: OpNand, Term: "nand"},
		Term("duck"),
		rightParen,
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Normalize = %v, want %v", joinTokens(got), joinTokens(want))
	}
}

func TestNormalizeStemToOperatorStaysTerm(t *testing.T) {
	// A stop-word-free analyzer whose stemmer leaves "ands" as "and".
	a := tokenizer.NewAnalyzer(tokenizer.WithStopWords(tokenizer.NewStopWords(nil)))
	got := Normalize("ands", a)
	if len(got) != 1 || got[0].Kind != KindTerm {
		t.Errorf("Normalize(ands) = %+v, want a single term", got)
	}
}

func animalIndex(t *testing.T) *index.InvertedIndex {
	t.Helper()
	names := []string{
		"Unused",
		"Everything about animals",
		"Why cats love seafood",
		"Every animal but birds",
		"The trial - Kafka",
		"How to hunt with a dog",
		"Vingt mille lieues sous les mers",
	}
	terms := make([][]string, len(names))
	for term, ids := range animals {
		for _, id := range ids {
			terms[id] = append(terms[id], term)
		}
	}
	idx, err := index.BuildFromTerms(names, terms, index.Presence)
	if err != nil {
		t.Fatal(err)
	}
	return idx
}

func TestEngineRetrieve(t *testing.T) {
	idx := animalIndex(t)
	e := NewEngine(idx, tokenizer.NewAnalyzer())
	tests := []struct {
		query string
		want  []int
	}{
		{"cats dog squid", []int{1, 3}},
		{"cats lemu", []int{}},
		{"cats or dogs nand duck", []int{1, 2, 3}},
		{"squid nand ( cat and dog )", []int{2, 6}},
		{"squid nand cat and dog", []int{}},
		{"lemu and cat or dog", []int{1, 3, 5}},
		{"lemu and ( cat or dog )", []int{}},
		{"squid and ( cat or dog )", []int{1, 2, 3}},
		{"the of", []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := e.Retrieve(tt.query)
			if err != nil {
				t.Fatalf("Retrieve: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEngineImplicitAndMatchesExplicit(t *testing.T) {
	e := NewEngine(animalIndex(t), tokenizer.NewAnalyzer())
	implicit, err := e.Retrieve("cat dog")
	if err != nil {
		t.Fatal(err)
	}
	explicit, err := e.Retrieve("cat and dog")
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(implicit, explicit) {
		t.Errorf("implicit %v != explicit %v", implicit, explicit)
	}
}

func TestEngineIgnoresEmptyGroups(t *testing.T) {
	e := NewEngine(animalIndex(t), tokenizer.NewAnalyzer())
	want, err := e.Retrieve("cat")
	if err != nil {
		t.Fatal(err)
	}
	for _, q := range []string{"cat ()", "() cat", "cat (())", "cat ( the )", "( ) ( cat )"} {
		got, err := e.Retrieve(q)
		if err != nil {
			t.Errorf("%q: %v", q, err)
			continue
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("%q = %v, want %v", q, got, want)
		}
	}
}

func TestEngineRetrieveErrors(t *testing.T) {
	e := NewEngine(animalIndex(t), tokenizer.NewAnalyzer())
	tests := []struct {
		query string
		want  error
	}{
		{"cat and", apperrors.ErrStackUnderflow},
		{"( cat or dog", apperrors.ErrMalformedQuery},
		{"cat not dog", apperrors.ErrUnsupportedBooleanOperator},
	}
	for _, tt := range tests {
		if _, err := e.Retrieve(tt.query); !errors.Is(err, tt.want) {
			t.Errorf("%q: err = %v, want %v", tt.query, err, tt.want)
		}
	}
}
